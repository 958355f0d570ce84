package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/imamik/provseq/internal/ledger"
	"github.com/imamik/provseq/internal/provisioning"
	"github.com/imamik/provseq/internal/ui/benchmarks"
)

// RunFunc runs or resumes a plan, reporting to obs.
type RunFunc func(ctx context.Context, obs provisioning.Observer) (*ledger.Record, error)

// IsTerminal reports whether stdout can host the dashboard.
func IsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// RunDashboard wraps fn with a Bubble Tea dashboard listing steps.
// Quitting the dashboard cancels the context passed to fn; the sequencer
// then stops before the next step.
func RunDashboard(ctx context.Context, definition string, steps []string, expected benchmarks.Timings, fn RunFunc) (*ledger.Record, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewRunModel(definition, steps, expected)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	type outcome struct {
		rec *ledger.Record
		err error
	}
	result := make(chan outcome, 1)

	go func() {
		rec, err := fn(ctx, NewObserver(p))
		result <- outcome{rec, err}
		if err != nil {
			p.Send(ErrMsg{Err: err})
		} else {
			p.Send(DoneMsg{})
		}
	}()

	finalModel, err := p.Run()
	if fm, ok := finalModel.(Model); ok && fm.Quit {
		// detached: stop between steps and wait for the ledger to settle
		cancel()
	}
	out := <-result
	if err != nil && out.err == nil && ctx.Err() == nil {
		return out.rec, fmt.Errorf("TUI error: %w", err)
	}
	return out.rec, out.err
}
