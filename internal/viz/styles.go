package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Styles struct {
	Theme  Theme
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Subtle lipgloss.Style
	Panel  lipgloss.Style
	Graph  lipgloss.Style
	Good   lipgloss.Style
	Warn   lipgloss.Style
	Bad    lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Theme: t,
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			MarginBottom(1),
		Label: lipgloss.NewStyle().
			Foreground(t.Muted).
			Width(24),
		Value: lipgloss.NewStyle().
			Foreground(t.Text),
		Subtle: lipgloss.NewStyle().
			Foreground(t.Muted).
			Italic(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		Graph: lipgloss.NewStyle().
			Foreground(t.Accent),
		Good: lipgloss.NewStyle().Bold(true).Foreground(t.Good),
		Warn: lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
		Bad:  lipgloss.NewStyle().Bold(true).Foreground(t.Bad),
	}
}

// Row renders one aligned "label value" line.
func (s Styles) Row(label, value string) string {
	return s.Label.Render(label) + s.Value.Render(value)
}

// ProgressBar renders frac of width cells, colored by how far along it is.
func (s Styles) ProgressBar(frac float64, width int) string {
	filled := min(max(int(frac*float64(width)), 0), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case frac >= 1:
		return s.Good.Render(bar)
	case frac > 0.4:
		return s.Warn.Render(bar)
	default:
		return s.Graph.Render(bar)
	}
}
