// Package themes holds the color schemes of the alert review screen.
package themes

import (
	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Selected      lipgloss.Style
	RoundedBox    lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	StatusInfo    lipgloss.Style
	SeverityHigh  lipgloss.Style
	SeverityMed   lipgloss.Style
	SeverityLow   lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
}

// Severity returns the style for an alert severity.
func (t Theme) Severity(s model.Severity) lipgloss.Style {
	switch s {
	case model.SeverityHigh:
		return t.SeverityHigh
	case model.SeverityMedium:
		return t.SeverityMed
	default:
		return t.SeverityLow
	}
}

func build(primary, fg, subtle, border, muted, success, warning, errColor, info, selectedFg string) Theme {
	return Theme{
		Primary: lipgloss.Color(primary),
		Muted:   lipgloss.Color(muted),
		Border:  lipgloss.Color(border),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fg)).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(subtle)),
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(fg)),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fg)),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(primary)).
			Foreground(lipgloss.Color(selectedFg)).
			Bold(true),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(border)).
			Padding(1, 2),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(lipgloss.Color(success)).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(warning)).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color(errColor)).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(info)).
			Bold(true),

		SeverityHigh: lipgloss.NewStyle().
			Foreground(lipgloss.Color(errColor)).
			Bold(true),
		SeverityMed: lipgloss.NewStyle().
			Foreground(lipgloss.Color(warning)),
		SeverityLow: lipgloss.NewStyle().
			Foreground(lipgloss.Color(info)),
	}
}

// Default is the default theme.
var Default = build("#7c3aed", "#fafafa", "#a3a3a3", "#404040", "#737373",
	"#10b981", "#f59e0b", "#ef4444", "#3b82f6", "#fafafa")

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build("#cba6f7", "#cdd6f4", "#a6adc8", "#45475a", "#6c7086",
	"#a6e3a1", "#f9e2af", "#f38ba8", "#89dceb", "#1e1e2e")

// ByName returns the named theme. Unknown names fall back to Default.
func ByName(name string) Theme {
	if name == "catppuccin" || name == "mocha" {
		return CatppuccinMocha
	}
	return Default
}
