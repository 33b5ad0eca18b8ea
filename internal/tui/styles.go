package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
const (
	ColorHeader    = lipgloss.Color("39")
	ColorLabel     = lipgloss.Color("245")
	ColorValue     = lipgloss.Color("252")
	ColorMuted     = lipgloss.Color("240")
	ColorError     = lipgloss.Color("196")
	ColorHighlight = lipgloss.Color("214")
)

var (
	HeaderStyle  = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	TitleStyle   = lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	ValueStyle   = lipgloss.NewStyle().Foreground(ColorValue)
	SubtleStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	SpinnerStyle = lipgloss.NewStyle().Foreground(ColorHeader)
)
