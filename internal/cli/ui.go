package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorCyan  = lipgloss.Color("36")
	colorWhite = lipgloss.Color("255")
	colorDim   = lipgloss.Color("240")

	styleAddr = lipgloss.NewStyle().Foreground(colorCyan)
	styleName = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	styleDim  = lipgloss.NewStyle().Foreground(colorDim)
)
