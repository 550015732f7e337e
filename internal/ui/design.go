package ui

import "github.com/charmbracelet/lipgloss"

// Design centralizes the color palette and common styles shared by the TUI
// and the CLI tables.
//
// Palette is based on Vitesse Dark Soft:
// https://github.com/antfu/vscode-theme-vitesse/blob/main/themes/vitesse-dark-soft.json
type designTheme struct {
	// Core brand/semantic colors
	Primary lipgloss.Color // #4d9375
	Blue    lipgloss.Color // #6394bf
	Yellow  lipgloss.Color // #e6cc77
	Magenta lipgloss.Color // #d9739f
	Cyan    lipgloss.Color // #5eaab5
	Red     lipgloss.Color // #cb7676

	// Text colors
	Text      lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color

	Border lipgloss.Color

	// Status bar colors
	BarFG lipgloss.AdaptiveColor
	BarBG lipgloss.AdaptiveColor
}

// Vitesse is the global theme.
var Vitesse = designTheme{
	Primary: lipgloss.Color("#4d9375"),
	Blue:    lipgloss.Color("#6394bf"),
	Yellow:  lipgloss.Color("#e6cc77"),
	Magenta: lipgloss.Color("#d9739f"),
	Cyan:    lipgloss.Color("#5eaab5"),
	Red:     lipgloss.Color("#cb7676"),

	Text:      lipgloss.Color("#dbd7caee"),
	Secondary: lipgloss.Color("#bfbaaa"),
	Muted:     lipgloss.Color("#dedcd590"),

	Border: lipgloss.Color("#5a5a5a"),

	BarFG: lipgloss.AdaptiveColor{Light: "#343433", Dark: "#bfbaaa"},
	BarBG: lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#222"},
}

// BorderStyle returns a style with the standard border color.
func BorderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Vitesse.Border)
}

// AccentBold returns a bold style using the primary accent color.
func AccentBold() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(Vitesse.Primary)
}

// MutedStyle is used for hints and echoed input.
func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Vitesse.Secondary)
}

// ErrorStyle highlights REPL errors.
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Vitesse.Red)
}

// WarnStyle highlights warnings.
func WarnStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Vitesse.Yellow)
}

// PanelStyle is a rounded bordered box.
func PanelStyle(focused bool) lipgloss.Style {
	c := Vitesse.Border
	if focused {
		c = Vitesse.Primary
	}
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c)
}

// StatusBarStyle is the bottom bar.
func StatusBarStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Vitesse.BarFG).Background(Vitesse.BarBG)
}
