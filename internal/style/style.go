// Package style provides terminal output styling for the chronograph CLI:
// ranked impact tables, status lines, and box summaries.
package style

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/chronograph-dev/chronograph/internal/impact"
)

// Color palette.
var (
	ColorTealBright = lipgloss.Color("#2CD7C7")
	ColorTealDeep   = lipgloss.Color("#16858E")
	ColorSlate      = lipgloss.Color("#2C4A54")

	ColorHigh   = lipgloss.Color("#E74C3C")
	ColorMedium = lipgloss.Color("#F4D03F")
	ColorLow    = lipgloss.Color("#2CD7C7")
	ColorNone   = lipgloss.Color("#2C4A54")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title  lipgloss.Style
	Bold   lipgloss.Style
	Muted  lipgloss.Style
	Path   lipgloss.Style
	Box    lipgloss.Style
	High   lipgloss.Style
	Medium lipgloss.Style
	Low    lipgloss.Style
	None   lipgloss.Style
}{
	Title:  lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:   lipgloss.NewStyle().Bold(true),
	Muted:  lipgloss.NewStyle().Foreground(ColorSlate),
	Path:   lipgloss.NewStyle().Foreground(ColorTealDeep),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	High:   lipgloss.NewStyle().Foreground(ColorHigh).Bold(true),
	Medium: lipgloss.NewStyle().Foreground(ColorMedium),
	Low:    lipgloss.NewStyle().Foreground(ColorLow),
	None:   lipgloss.NewStyle().Foreground(ColorNone),
}

// levelSymbol maps an impact.Level to its display glyph.
var levelSymbol = map[impact.Level]string{
	impact.LevelHigh:   "\U0001F534", // red circle
	impact.LevelMedium: "\U0001F7E1", // yellow circle
	impact.LevelLow:    "\U0001F7E2", // green circle
	impact.LevelNone:   "⚪",     // white circle
}

// styleFor returns the lipgloss.Style matching an impact.Level.
func styleFor(level impact.Level) lipgloss.Style {
	switch level {
	case impact.LevelHigh:
		return Styles.High
	case impact.LevelMedium:
		return Styles.Medium
	case impact.LevelLow:
		return Styles.Low
	default:
		return Styles.None
	}
}

// RenderLevel renders level as its glyph, colored to match.
func RenderLevel(level impact.Level) string {
	return styleFor(level).Render(levelSymbol[level])
}

// RenderRanking renders a full impact ranking as aligned text lines, one
// per node, in the order given (callers are expected to have already
// sorted it, matching internal/impact.Analyzer's own ranking order).
func RenderRanking(ranking []impact.RankedNode) string {
	var out string
	for _, r := range ranking {
		out += fmt.Sprintf("%s %-50s %s %.3f\n",
			RenderLevel(r.Level), Styles.Path.Render(r.Path), Styles.Muted.Render(r.Role), r.Activation)
	}
	return out
}

// Box renders title/content in a rounded box.
func Box(title, content string) string {
	return Styles.Box.Width(70).Render(Styles.Title.Render(title) + "\n" + content)
}
