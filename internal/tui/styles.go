package tui

import "github.com/charmbracelet/lipgloss"

// Theme is one colour scheme. The palette follows the web page's light and
// dark stylesheets.
type Theme struct {
	Foreground lipgloss.Color
	Background lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Error      lipgloss.Color
	Dark       bool
}

// LightTheme is the default scheme.
func LightTheme() Theme {
	return Theme{
		Foreground: lipgloss.Color("#212529"),
		Background: lipgloss.Color("#ffffff"),
		Accent:     lipgloss.Color("#0d6efd"),
		Muted:      lipgloss.Color("#6c757d"),
		Border:     lipgloss.Color("#dee2e6"),
		Error:      lipgloss.Color("#dc3545"),
	}
}

// DarkTheme is used while dark mode is enabled.
func DarkTheme() Theme {
	return Theme{
		Foreground: lipgloss.Color("#e9ecef"),
		Background: lipgloss.Color("#121212"),
		Accent:     lipgloss.Color("#6ea8fe"),
		Muted:      lipgloss.Color("#adb5bd"),
		Border:     lipgloss.Color("#495057"),
		Error:      lipgloss.Color("#ea868f"),
		Dark:       true,
	}
}

// Styles holds the rendered components of the browser.
type Styles struct {
	Theme Theme

	Title    lipgloss.Style
	Facet    lipgloss.Style
	Focused  lipgloss.Style
	Count    lipgloss.Style
	Row      lipgloss.Style
	Selected lipgloss.Style
	Card     lipgloss.Style
	Label    lipgloss.Style
	Link     lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
}

// NewStyles builds Styles for the light or dark theme.
func NewStyles(dark bool) Styles {
	t := LightTheme()
	if dark {
		t = DarkTheme()
	}
	return Styles{
		Theme:    t,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(t.Accent).MarginBottom(1),
		Facet:    lipgloss.NewStyle().Foreground(t.Foreground).Padding(0, 1),
		Focused:  lipgloss.NewStyle().Foreground(t.Background).Background(t.Accent).Padding(0, 1),
		Count:    lipgloss.NewStyle().Foreground(t.Muted),
		Row:      lipgloss.NewStyle().Foreground(t.Foreground),
		Selected: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),
		Label:  lipgloss.NewStyle().Foreground(t.Muted),
		Link:   lipgloss.NewStyle().Foreground(t.Accent).Underline(true),
		Status: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		Error:  lipgloss.NewStyle().Foreground(t.Error),
		Help:   lipgloss.NewStyle().Foreground(t.Muted),
	}
}
