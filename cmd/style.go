package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"cropwatch/classifier"
)

var (
	colorSuccess     = lipgloss.Color("#10B981")
	colorGood        = lipgloss.Color("#84CC16")
	colorWarning     = lipgloss.Color("#F59E0B")
	colorPoor        = lipgloss.Color("#F97316")
	colorDestructive = lipgloss.Color("#EF4444")
	colorInfo        = lipgloss.Color("#06B6D4")
	colorMuted       = lipgloss.Color("#6B7280")

	styleBold  = lipgloss.NewStyle().Bold(true)
	styleMuted = lipgloss.NewStyle().Foreground(colorMuted)
)

// tokenColors maps the presentation color tokens of the built-in schemes to
// terminal colors. Unknown tokens render muted.
var tokenColors = map[string]lipgloss.Color{
	"health-excellent": colorSuccess,
	"health-good":      colorGood,
	"health-moderate":  colorWarning,
	"health-poor":      colorPoor,
	"health-critical":  colorDestructive,
	"success":          colorSuccess,
	"warning":          colorWarning,
	"destructive":      colorDestructive,
	"info":             colorInfo,
}

func tierStyle(r classifier.Result) lipgloss.Style {
	c, ok := tokenColors[r.Color]
	if !ok {
		c = colorMuted
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}
