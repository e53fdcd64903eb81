package tui

import "github.com/charmbracelet/lipgloss"

// Farm palette
var (
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#2f6b2f", Dark: "#8fd18f"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#8a5a14", Dark: "#e0b060"}
	colorBorder    = lipgloss.AdaptiveColor{Light: "#b8c4b0", Dark: "#3c4a38"}
	colorText      = lipgloss.AdaptiveColor{Light: "#1f1f1f", Dark: "#e6e6e6"}
	colorTextDim   = lipgloss.AdaptiveColor{Light: "#5c5c5c", Dark: "#9a9a9a"}
	colorError     = lipgloss.AdaptiveColor{Light: "#b3261e", Dark: "#ff7b72"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Italic(true)

	sidebarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	sidebarFocusedStyle = sidebarStyle.
				BorderForeground(colorPrimary)

	menuItemStyle = lipgloss.NewStyle().
			Foreground(colorText)

	menuSelectedStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	paneFocusedStyle = paneStyle.
				BorderForeground(colorPrimary)

	promptStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	statusDescStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)
