package tui

import "github.com/charmbracelet/lipgloss"

// Terminal colours shared by the progress view and the summaries.
var (
	ColorInk     = lipgloss.Color("#F2E9E1")
	ColorDim     = lipgloss.Color("#8C8279")
	ColorAccent  = lipgloss.Color("#E9A05C")
	ColorSuccess = lipgloss.Color("#9CBF78")
	ColorFailure = lipgloss.Color("#D9695F")
)
