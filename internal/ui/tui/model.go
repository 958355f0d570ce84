package tui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/provseq/internal/ledger"
	"github.com/imamik/provseq/internal/provisioning"
	"github.com/imamik/provseq/internal/ui/benchmarks"
)

// maxLogLines bounds the log tail shown under the steps.
const maxLogLines = 5

// errQuit is reported when the user leaves before the run finishes.
var errQuit = errors.New("interrupted from the dashboard")

// StepRow is one step as displayed.
type StepRow struct {
	Name     string
	Status   ledger.StepStatus
	Skipped  bool
	Started  time.Time
	Duration time.Duration
	Message  string
}

// Model is the Bubble Tea model for the run dashboard.
type Model struct {
	Definition string
	RunID      string
	Resumed    bool

	Steps []StepRow

	// ETA
	Expected           benchmarks.Timings
	Observed           benchmarks.Timings
	EstimatedRemaining time.Duration
	PerformanceScale   float64
	StartTime          time.Time

	Logs []string

	// Animation
	SpinnerFrame int

	// UI state
	Width   int
	Height  int
	Err     error
	Done    bool
	Aborted bool
	Quit    bool

	now func() time.Time
}

// NewRunModel creates a model listing steps in execution order.
func NewRunModel(definition string, steps []string, expected benchmarks.Timings) Model {
	rows := make([]StepRow, len(steps))
	for i, s := range steps {
		rows[i] = StepRow{Name: s, Status: ledger.StepPending}
	}
	if expected == nil {
		expected = benchmarks.Timings{}
	}
	return Model{
		Definition:       definition,
		Steps:            rows,
		Expected:         expected,
		Observed:         benchmarks.Timings{},
		PerformanceScale: 1.0,
		StartTime:        time.Now(),
		now:              time.Now,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.Done {
				m.Quit = true
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case EventMsg:
		m.applyEvent(msg.Event)
		m.updateETA()

	case LogMsg:
		m.appendLog(msg.Line)

	case TickMsg:
		m.SpinnerFrame++
		m.updateETA()
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		m.Done = true
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) applyEvent(ev provisioning.Event) {
	if id := ev.Fields["runId"]; id != "" {
		m.RunID = id
	}

	switch ev.Type {
	case provisioning.EventRunStarted:
		m.Resumed = ev.Fields["resumed"] == "true"
	case provisioning.EventRunAborted:
		m.Aborted = true
		m.appendLog(ev.Message)
	case provisioning.EventRunCompleted:
		m.EstimatedRemaining = 0
	}

	if ev.Step == "" {
		return
	}
	row := m.row(ev.Step)
	if row == nil {
		return
	}

	switch ev.Type {
	case provisioning.EventStepStarted:
		row.Status = ledger.StepRunning
		row.Started = ev.Timestamp
		if row.Started.IsZero() {
			row.Started = m.now()
		}
		row.Message = ev.Fields["command"]
	case provisioning.EventStepSucceeded:
		row.Status = ledger.StepSucceeded
		row.Duration = m.since(row.Started)
		row.Message = ""
		m.Observed[row.Name] = row.Duration
	case provisioning.EventStepSkipped:
		row.Status = ledger.StepSucceeded
		row.Skipped = true
	case provisioning.EventStepFailed:
		row.Status = ledger.StepFailed
		row.Duration = m.since(row.Started)
		row.Message = ev.Message
	}
}

func (m *Model) row(name string) *StepRow {
	for i := range m.Steps {
		if m.Steps[i].Name == name {
			return &m.Steps[i]
		}
	}
	return nil
}

func (m *Model) since(t time.Time) time.Duration {
	if t.IsZero() {
		return 0
	}
	return m.now().Sub(t)
}

func (m *Model) appendLog(line string) {
	m.Logs = append(m.Logs, line)
	if len(m.Logs) > maxLogLines {
		m.Logs = m.Logs[len(m.Logs)-maxLogLines:]
	}
}

// current returns the running step, if any.
func (m *Model) current() *StepRow {
	for i := range m.Steps {
		if m.Steps[i].Status == ledger.StepRunning {
			return &m.Steps[i]
		}
	}
	return nil
}

func (m *Model) updateETA() {
	if m.Done || m.Aborted {
		m.EstimatedRemaining = 0
		return
	}

	var current string
	var elapsed time.Duration
	if row := m.current(); row != nil {
		current = row.Name
		elapsed = m.since(row.Started)
	}

	var pendingSteps []string
	for _, row := range m.Steps {
		if row.Status == ledger.StepPending || row.Status == ledger.StepFailed {
			pendingSteps = append(pendingSteps, row.Name)
		}
	}

	m.PerformanceScale = benchmarks.PerformanceScale(m.Expected, m.Observed, current, elapsed)
	m.EstimatedRemaining = benchmarks.EstimateRemaining(m.Expected, current, elapsed, pendingSteps, m.PerformanceScale)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
