package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	hudStyle    = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(46)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)

	statusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	impactStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))

	heatLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	heatMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff8800"))
	heatHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff2200"))
)

// HeatBar renders a burn intensity in [0, 1] as a bar, hotter colors for
// higher values.
func HeatBar(intensity float64, width int) string {
	filled := int(intensity * float64(width))
	if intensity > 0 && filled == 0 {
		filled = 1
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case intensity > 0.6:
		return heatHigh.Render(bar)
	case intensity > 0.2:
		return heatMid.Render(bar)
	default:
		return heatLow.Render(bar)
	}
}
