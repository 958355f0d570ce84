package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/provseq/internal/ledger"
)

// Palette shared with the status and plan output of the CLI.
var (
	colorOK      = lipgloss.Color("#22c55e")
	colorFail    = lipgloss.Color("#ef4444")
	colorWarn    = lipgloss.Color("#eab308")
	colorAccent  = lipgloss.Color("#3b82f6")
	colorMuted   = lipgloss.Color("#6b7280")
	colorDefault = lipgloss.Color("#f9fafb")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorDefault)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginTop(1)
	okStyle      = lipgloss.NewStyle().Foreground(colorOK)
	failStyle    = lipgloss.NewStyle().Foreground(colorFail)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorDefault)
	footerStyle  = mutedStyle.MarginTop(1)
)

// stepLook is how one step row is drawn for a given status. An empty icon
// means the spinner is shown.
type stepLook struct {
	icon  string
	style lipgloss.Style
}

var stepLooks = map[ledger.StepStatus]stepLook{
	ledger.StepPending:   {icon: "[  ]", style: mutedStyle},
	ledger.StepRunning:   {style: activeStyle},
	ledger.StepSucceeded: {icon: "[OK]", style: okStyle},
	ledger.StepFailed:    {icon: "[!!]", style: failStyle},
}

// skippedLook marks steps a resume found already succeeded.
var skippedLook = stepLook{icon: "[--]", style: mutedStyle}

var spinnerFrames = []string{"[. ]", "[..]", "[ .]", "[  ]"}
