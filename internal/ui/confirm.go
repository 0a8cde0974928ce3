package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmPhrase is what the operator must type to proceed
const ConfirmPhrase = "I AGREE"

// Confirm displays a warning box on out and reads one line from in.
// Returns true only if the operator typed ConfirmPhrase.
func Confirm(in io.Reader, out io.Writer, title string, warnings []string, disclaimer string) bool {
	width := GetTerminalWidth()

	var lines []string

	titleLine := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true).
		Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, title))
	lines = append(lines, "", titleLine, "")

	for _, warning := range warnings {
		bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	// Disclaimer in muted text, word-wrapped
	if disclaimer != "" {
		disclaimerStyle := lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true).
			Width(width - 12).
			PaddingLeft(3)
		lines = append(lines, disclaimerStyle.Render(disclaimer), "")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	fmt.Fprintln(out, box)
	fmt.Fprintln(out)

	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	fmt.Fprint(out, promptStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", ConfirmPhrase)))

	input, err := bufio.NewReader(in).ReadString('\n')
	fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}
	if strings.TrimSpace(input) == ConfirmPhrase {
		return true
	}

	cancelStyle := lipgloss.NewStyle().Foreground(MutedColor)
	fmt.Fprintln(out, cancelStyle.Render("  Operation cancelled."))
	fmt.Fprintln(out)
	return false
}

// disruptiveActions transmit on the air or impersonate a network. They
// ask for confirmation unless --yes is given.
var disruptiveActions = map[string]bool{
	"deauth":    true,
	"evil_twin": true,
	"beacon":    true,
	"auth":      true,
	"wifite":    true,
	"pixie":     true,
}

// IsDisruptive reports whether action needs a confirmation
func IsDisruptive(action string) bool {
	return disruptiveActions[strings.ToLower(action)]
}

// ConfirmAction asks before a disruptive action against label
func ConfirmAction(in io.Reader, out io.Writer, action, label string) bool {
	return Confirm(in, out,
		strings.ToUpper(action)+" AGAINST "+label,
		[]string{
			"This action transmits on the air or injects traffic on the target network",
			"Clients of the target may lose connectivity while it runs",
			"The backend runs the tool until it finishes or is stopped on the device",
		},
		"Only run this against networks and devices you own or are explicitly "+
			"authorised in writing to test.",
	)
}
