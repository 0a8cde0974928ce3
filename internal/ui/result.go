package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/void0x11/VoidPWN/internal/backend"
)

// ResultType selects the colour and marker of a result box
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// resultTheme is the per-type look of a box
type resultTheme struct {
	color  lipgloss.Color
	marker string
	word   string
}

func (t ResultType) theme() resultTheme {
	switch t {
	case ResultFailure:
		return resultTheme{ErrorColor, FailureMarker, "FAILED"}
	case ResultWarning:
		return resultTheme{WarningColor, WarningMarker, "WARNING"}
	default:
		return resultTheme{SuccessColor, SuccessMarker, "SUCCESS"}
	}
}

// Result is the box printed when a command finishes
type Result struct {
	Type            ResultType
	Title           string   // e.g. "DEAUTH started"
	Details         []Param  // Shown in order
	Error           error    // Failure only
	Troubleshooting []string // Failure only
	Width           int
}

// NewSuccessResult creates a success box
func NewSuccessResult(title string, details ...Param) *Result {
	return &Result{Type: ResultSuccess, Title: title, Details: details, Width: GetTerminalWidth()}
}

// NewFailureResult creates a failure box with optional tips
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	return &Result{
		Type:            ResultFailure,
		Title:           title,
		Error:           err,
		Troubleshooting: troubleshooting,
		Width:           GetTerminalWidth(),
	}
}

// NewWarningResult creates a warning box
func NewWarningResult(title string, details ...Param) *Result {
	return &Result{Type: ResultWarning, Title: title, Details: details, Width: GetTerminalWidth()}
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a key/value line
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Param{Key: key, Value: value})
	return r
}

// Render returns the box: a marker title, then details, the error and any
// troubleshooting tips, inside a double border in the type's colour
func (r *Result) Render() string {
	width := max(r.Width, MinTerminalWidth)
	theme := r.Type.theme()

	title := "   " + theme.marker + "  " + theme.word
	if r.Title != "" {
		title += "  ─  " + r.Title
	}
	lines := []string{"", lipgloss.NewStyle().Foreground(theme.color).Bold(true).Render(title), ""}

	for _, d := range r.Details {
		lines = append(lines, ResultKeyStyle.Render("   "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
	}
	if len(r.Details) > 0 {
		lines = append(lines, "")
	}

	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+r.Error.Error()), "")
	}
	if len(r.Troubleshooting) > 0 {
		lines = append(lines, r.renderTips(width), "")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.color).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

// renderTips draws the tips in a rounded inner box
func (r *Result) renderTips(width int) string {
	tips := make([]string, 0, len(r.Troubleshooting)+2)
	tips = append(tips, TroubleshootingTitleStyle.Render("Troubleshooting:"), "")
	for _, tip := range r.Troubleshooting {
		tips = append(tips, TroubleshootingItemStyle.Render("  • "+tip))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(max(width-12, 40)).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(tips, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}

// RenderSuccess renders a success box
func RenderSuccess(title string, details ...Param) string {
	return NewSuccessResult(title, details...).Render()
}

// RenderFailure renders a failure box
func RenderFailure(title string, err error, troubleshooting []string) string {
	return NewFailureResult(title, err, troubleshooting).Render()
}

// RenderWarning renders a warning box
func RenderWarning(title string, details ...Param) string {
	return NewWarningResult(title, details...).Render()
}

// RenderBackendFailure renders a failure box for a backend error, with the
// operator message as the error line and the matching troubleshooting hint.
func RenderBackendFailure(title string, err error) string {
	var tips []string
	for _, line := range strings.Split(backend.TroubleshootingHint(err), "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "•-* "))
		if line != "" && line != "Troubleshooting:" {
			tips = append(tips, line)
		}
	}
	return NewFailureResult(title, errors.New(backend.OperatorMessage(err)), tips).Render()
}
