package handlers

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/provseq/internal/ledger"
)

// Colors matching internal/ui/tui/styles.go palette.
var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	greenStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	redStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	yellowStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

func stepIndicator(status ledger.StepStatus) string {
	switch status {
	case ledger.StepSucceeded:
		return greenStyle.Render("[OK]")
	case ledger.StepFailed:
		return redStyle.Render("[!!]")
	case ledger.StepRunning:
		return yellowStyle.Render("[..]")
	default:
		return dimStyle.Render("[  ]")
	}
}

func stateStyle(state ledger.RunState) lipgloss.Style {
	switch state {
	case ledger.RunCompleted:
		return greenStyle
	case ledger.RunAborted:
		return redStyle
	case ledger.RunRunning:
		return yellowStyle
	default:
		return dimStyle
	}
}

// checkIndicator renders a doctor check result.
func checkIndicator(ok bool) string {
	if ok {
		return greenStyle.Render("[OK]")
	}
	return redStyle.Render("[!!]")
}
