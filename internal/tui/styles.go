package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Work phases use the warm accent, breaks the cool one.
const (
	ColorBorder        = "#3A3F55"
	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383"
	ColorHelpText      = "240"

	ColorWork  = "#F97316"
	ColorBreak = "#38BDF8"

	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E"
	ColorWarning = "#F59E0B"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorPrimaryText)).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).
			Padding(0, 2)

	clockStyle = lipgloss.NewStyle().Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorDisabledText)).
			Strikethrough(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWork)).
			Bold(true)

	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning))
)
