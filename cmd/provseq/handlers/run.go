package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/imamik/provseq/internal/ledger"
	"github.com/imamik/provseq/internal/logging"
	"github.com/imamik/provseq/internal/metrics"
	"github.com/imamik/provseq/internal/provisioning"
	"github.com/imamik/provseq/internal/ui/benchmarks"
	"github.com/imamik/provseq/internal/ui/tui"
)

// Factory function variables for run and resume - can be replaced in tests.
var (
	// runDashboard wraps a run with the live terminal view.
	runDashboard = tui.RunDashboard

	// isTerminal reports whether the dashboard can be shown.
	isTerminal = tui.IsTerminal

	// newConsoleObserver creates the plain progress observer.
	newConsoleObserver = func() provisioning.Observer {
		return provisioning.NewConsoleObserver()
	}
)

// RunOptions holds the flags of the run command.
type RunOptions struct {
	DryRun      bool
	TUI         bool
	RunID       string
	MetricsFile string
}

// ResumeOptions holds the flags of the resume command.
type ResumeOptions struct {
	// File overrides the definition path stored in the ledger.
	File        string
	Force       bool
	TUI         bool
	MetricsFile string
}

// Run executes every step of the definition at path in dependency order.
//
// The run stops at the first failing step. The ledger keeps what succeeded,
// so the run can continue with 'provseq resume <runId>'.
func Run(ctx context.Context, g Globals, path string, opts RunOptions) error {
	if opts.DryRun {
		return Plan(ctx, path)
	}

	_, plan, err := loadPlan(path)
	if err != nil {
		return err
	}

	ctx, sess, err := openSession(ctx, g)
	if err != nil {
		return err
	}
	defer sess.close()

	var runOpts []provisioning.RunOption
	if opts.RunID != "" {
		runOpts = append(runOpts, provisioning.WithRunID(opts.RunID))
	}

	return execute(ctx, sess, plan, opts.TUI, opts.MetricsFile, func(ctx context.Context, seq *provisioning.Sequencer) (*ledger.Record, error) {
		return seq.Run(ctx, plan, runOpts...)
	})
}

// Resume continues an earlier run from its first pending or failed step.
//
// The definition is reloaded from the path stored in the ledger unless
// opts.File overrides it. A definition whose content changed since the run
// started is refused unless opts.Force is set.
func Resume(ctx context.Context, g Globals, runID string, opts ResumeOptions) error {
	ctx, sess, err := openSession(ctx, g)
	if err != nil {
		return err
	}
	defer sess.close()

	path := opts.File
	if path == "" {
		rec, err := ledger.Get(ctx, sess.store, runID)
		if err != nil {
			return fmt.Errorf("failed to load run %s: %w", runID, err)
		}
		if rec.Definition == "" {
			return fmt.Errorf("run %s has no recorded definition; pass --file", runID)
		}
		path = rec.Definition
	}

	_, plan, err := loadPlan(path)
	if err != nil {
		return err
	}

	var runOpts []provisioning.RunOption
	if opts.Force {
		runOpts = append(runOpts, provisioning.AllowDefinitionChange())
	}

	return execute(ctx, sess, plan, opts.TUI, opts.MetricsFile, func(ctx context.Context, seq *provisioning.Sequencer) (*ledger.Record, error) {
		return seq.Resume(ctx, runID, plan, runOpts...)
	})
}

type sequenceFunc func(ctx context.Context, seq *provisioning.Sequencer) (*ledger.Record, error)

// execute runs fn with either the dashboard or console output, writes the
// metrics textfile when asked and prints the outcome.
func execute(ctx context.Context, sess *session, plan *provisioning.Plan, useTUI bool, metricsFile string, fn sequenceFunc) error {
	graph, err := plan.Graph()
	if err != nil {
		return err
	}

	var recorder *metrics.Recorder
	var m provisioning.Metrics
	if metricsFile != "" {
		recorder = metrics.New(plan.Name)
		m = recorder
	}

	run := func(ctx context.Context, obs provisioning.Observer) (*ledger.Record, error) {
		return fn(ctx, sess.newSequencer(obs, m))
	}

	var rec *ledger.Record
	if useTUI && isTerminal() {
		expected := benchmarks.Latest(loadRecords(ctx, sess.store), plan.Definition)
		rec, err = runDashboard(ctx, plan.Name, graph.Names(), expected, run)
	} else {
		if useTUI {
			sess.log.Info("stdout is not a terminal, falling back to console output")
		}
		rec, err = run(ctx, newConsoleObserver())
	}

	if recorder != nil {
		if werr := recorder.WriteTextfile(metricsFile); werr != nil {
			sess.log.Error(werr, "failed to write metrics", "path", metricsFile)
		}
	}

	if err != nil {
		if rec != nil {
			sess.log.Error(err, "run stopped", logging.KeyRunID, rec.RunID)
		}
		printFailure(rec, err)
		return err
	}
	printSuccess(rec)
	return nil
}

// loadRecords returns every readable ledger; unreadable ones are skipped.
func loadRecords(ctx context.Context, store ledger.Store) []*ledger.Record {
	log := logging.FromContext(ctx)
	ids, err := store.List(ctx)
	if err != nil {
		log.V(1).Info("failed to list runs", logging.KeyError, err.Error())
		return nil
	}
	recs := make([]*ledger.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := ledger.Get(ctx, store, id)
		if err != nil {
			log.V(1).Info("skipping unreadable run", logging.KeyRunID, id, logging.KeyError, err.Error())
			continue
		}
		recs = append(recs, rec)
	}
	return recs
}

func printSuccess(rec *ledger.Record) {
	if rec == nil {
		return
	}
	fmt.Printf("\nRun %s %s.\n", rec.RunID, rec.State)

	names := make([]string, 0, len(rec.Bindings))
	for name := range rec.Bindings {
		names = append(names, name)
	}
	if len(names) == 0 {
		return
	}
	sort.Strings(names)

	fmt.Println("\nOutputs:")
	for _, name := range names {
		fmt.Printf("  %s = %s\n", name, bindingValue(rec.Bindings[name]))
	}
}

func printFailure(rec *ledger.Record, err error) {
	var stepErr *provisioning.StepError
	if errors.As(err, &stepErr) {
		fmt.Printf("\nStep %q failed.\n", stepErr.Step)
	}
	var cmdErr *provisioning.CommandFailedError
	if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
		fmt.Printf("\nstderr:\n%s\n", cmdErr.Stderr)
	}
	if rec != nil && rec.RunID != "" {
		fmt.Printf("\nContinue with: provseq resume %s\n", rec.RunID)
	}
}

// bindingValue renders a binding for display; sensitive values never appear.
func bindingValue(b ledger.Binding) string {
	switch {
	case b.Withheld:
		return "(sensitive, not stored)"
	case b.Sensitive:
		return "********"
	default:
		return b.Value
	}
}
