package tui

import "github.com/charmbracelet/lipgloss"

// Color constants matching the dark terminal theme
const (
	ColorBlue   = "#58a6ff"
	ColorGreen  = "#3fb950"
	ColorRed    = "#f85149"
	ColorYellow = "#d29922"
	ColorGray   = "#8b949e"
	ColorText   = "#c9d1d9"
	ColorBright = "#f0f6fc"
)

// Styles holds the lipgloss styles for command output
type Styles struct {
	// Text styles
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style

	// Results
	Success lipgloss.Style
	Failure lipgloss.Style
	Warning lipgloss.Style

	// Graph elements
	Member    lipgloss.Style
	Attribute lipgloss.Style
	Arrow     lipgloss.Style
	Count     lipgloss.Style

	// Blocks
	Border lipgloss.Style
}

// NewStyles creates the style set bound to r. The renderer decides whether
// colors are emitted for its output.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorBright)),

		Subtitle: r.NewStyle().
			Foreground(lipgloss.Color(ColorText)),

		Muted: r.NewStyle().
			Foreground(lipgloss.Color(ColorGray)).
			Italic(true),

		Success: r.NewStyle().
			Foreground(lipgloss.Color(ColorGreen)),

		Failure: r.NewStyle().
			Foreground(lipgloss.Color(ColorRed)).
			Bold(true),

		Warning: r.NewStyle().
			Foreground(lipgloss.Color(ColorYellow)),

		Member: r.NewStyle().
			Foreground(lipgloss.Color(ColorBlue)).
			Bold(true),

		Attribute: r.NewStyle().
			Foreground(lipgloss.Color(ColorGray)),

		Arrow: r.NewStyle().
			Foreground(lipgloss.Color(ColorGray)),

		Count: r.NewStyle().
			Foreground(lipgloss.Color(ColorYellow)).
			Bold(true),

		Border: r.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorGray)).
			Padding(0, 1),
	}
}

// CountColor styles a shared-connection count: green for 3 or more, yellow for
// 2, gray otherwise.
func CountColor(r *lipgloss.Renderer, count int) lipgloss.Style {
	style := r.NewStyle().Bold(true)

	if count >= 3 {
		return style.Foreground(lipgloss.Color(ColorGreen))
	} else if count == 2 {
		return style.Foreground(lipgloss.Color(ColorYellow))
	}
	return style.Foreground(lipgloss.Color(ColorGray))
}
