package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// Countdown renders a timed operation as a label and a filling bar,
// e.g. the WiFi scan's "SCANNING... 12s".
type Countdown struct {
	Label     string // Current control label
	Total     int    // Declared duration in seconds
	Remaining int    // Seconds left
	Width     int    // Terminal width
	bar       progress.Model
}

// NewCountdown creates a countdown for a run of total seconds
func NewCountdown(total int) *Countdown {
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
	)
	return &Countdown{
		Total:     total,
		Remaining: total,
		Width:     GetTerminalWidth(),
		bar:       bar,
	}
}

// SetWidth sets the terminal width for responsive rendering
func (c *Countdown) SetWidth(width int) *Countdown {
	c.Width = width
	barWidth := width - 20 // Leave room for the percentage
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 60 {
		barWidth = 60
	}
	c.bar.Width = barWidth
	return c
}

// Update records the latest label and remaining seconds
func (c *Countdown) Update(label string, remaining int) *Countdown {
	c.Label = label
	if remaining < 0 {
		remaining = 0
	}
	c.Remaining = remaining
	return c
}

// Percent returns the elapsed fraction (0.0 - 1.0)
func (c *Countdown) Percent() float64 {
	if c.Total <= 0 {
		return 1
	}
	elapsed := c.Total - c.Remaining
	if elapsed < 0 {
		elapsed = 0
	}
	return float64(elapsed) / float64(c.Total)
}

// Render returns the label line and the bar
func (c *Countdown) Render() string {
	label := c.Label
	if label == "" {
		label = fmt.Sprintf("WAITING... %ds", c.Remaining)
	}
	lines := []string{
		CountdownLabelStyle.Render(label),
		"  " + c.bar.ViewAs(c.Percent()),
	}
	return strings.Join(lines, "\n")
}

// Line renders the label and bar on one line, for redrawing in place
func (c *Countdown) Line() string {
	label := c.Label
	if label == "" {
		label = fmt.Sprintf("WAITING... %ds", c.Remaining)
	}
	return CountdownLabelStyle.Render(label) + "  " + c.bar.ViewAs(c.Percent())
}

// RenderDone returns the final line once the countdown has finished
func (c *Countdown) RenderDone(message string) string {
	return lipgloss.NewStyle().
		Foreground(SuccessColor).
		PaddingLeft(2).
		Render(SuccessMarker + " " + message)
}

// String implements fmt.Stringer
func (c *Countdown) String() string {
	return c.Render()
}
