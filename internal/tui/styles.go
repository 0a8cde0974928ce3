package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/void0x11/VoidPWN/internal/console"
	"github.com/void0x11/VoidPWN/internal/target"
	"github.com/void0x11/VoidPWN/internal/version"
)

// Application branding constants
const (
	AppName   = "VOIDPWN CONSOLE"
	GitHubURL = "github.com/void0x11/VoidPWN"
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 72 // Minimum supported terminal width
	MinListHeight    = 5  // Rows shown even on short terminals
)

// Color palette
var (
	// Primary colors
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF5555") // Red

	// Neutral colors
	TextColor      = lipgloss.Color("#FFFFFF") // White
	SubtleColor    = lipgloss.Color("#626262") // Gray
	BorderColor    = lipgloss.Color("#7D56F4") // Purple (same as primary)
	HighlightColor = lipgloss.Color("#43BF6D") // Green (same as secondary)
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	ListItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	SelectedListItemStyle = lipgloss.NewStyle().
				PaddingLeft(0).
				Foreground(HighlightColor).
				Bold(true)

	ColumnHeaderStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Bold(true).
				PaddingLeft(2)

	// TabStyle and ActiveTabStyle render the tab bar
	TabStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Padding(0, 2)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(0, 2)

	// BadgeStyle shows the current target in the header
	BadgeStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(lipgloss.Color("#AF3A3A")).
			Bold(true).
			Padding(0, 1)

	IdleBadgeStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Padding(0, 1)

	ScanLabelStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	PromptStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(WarningColor).
			Padding(0, 2)

	SuccessTextStyle = lipgloss.NewStyle().Foreground(SecondaryColor)
	ErrorTextStyle   = lipgloss.NewStyle().Foreground(ErrorColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)
)

// RenderBadge renders the selection badge
func RenderBadge(sel target.Selection) string {
	if sel.IsEmpty() {
		return IdleBadgeStyle.Render(target.NoneLabel)
	}
	return BadgeStyle.Render(sel.Label())
}

// RenderActivity colors an activity line by level
func RenderActivity(a console.Activity) string {
	switch a.Level {
	case console.LevelSuccess:
		return SuccessTextStyle.Render(a.String())
	case console.LevelError:
		return ErrorTextStyle.Render(a.String())
	default:
		return a.String()
	}
}

// RenderLogType colors a backend log line by its type
func RenderLogType(kind, line string) string {
	switch kind {
	case "success":
		return SuccessTextStyle.Render(line)
	case "error":
		return ErrorTextStyle.Render(line)
	default:
		return line
	}
}

// BuildHeaderContent creates header content with app name, version and
// the current target badge
func BuildHeaderContent(sel target.Selection) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + AppVersion())

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  TARGET: ", RenderBadge(sel))
}

// RenderApplicationContainer wraps every view: header with the target
// badge, content, and a footer pinned to the bottom of the terminal.
func RenderApplicationContainer(header, content, footerText string, terminalWidth, terminalHeight int) string {
	if terminalWidth < MinTerminalWidth {
		terminalWidth = MinTerminalWidth
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth - 4)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(header),
		contentStyle.Render(content),
		footerStyle.Render(HelpStyle.Render(footerText)),
	)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2)
	if terminalHeight > 2 {
		borderStyle = borderStyle.Height(terminalHeight - 2).AlignVertical(lipgloss.Top)
	}

	return borderStyle.Render(inner)
}

// SafeModalWidth returns the smaller of requestedWidth and the terminal
// width minus borders, never below 40 columns
func SafeModalWidth(requestedWidth, terminalWidth int) int {
	maxWidth := terminalWidth - 4
	if maxWidth < 40 {
		maxWidth = 40
	}
	if requestedWidth < maxWidth {
		return requestedWidth
	}
	return maxWidth
}

// RenderModal centers modal content over a dimmed background
func RenderModal(modalContent string, terminalWidth, terminalHeight int) string {
	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Center,
		lipgloss.Center,
		modalContent,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("240")),
	)
}

// padRight pads s with spaces to w cells, truncating when longer
func padRight(s string, w int) string {
	s = truncStr(s, w)
	if n := lipgloss.Width(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}

// truncStr shortens s to w cells, ending in an ellipsis
func truncStr(s string, w int) string {
	if w <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	return string(r[:w-1]) + "…"
}
