package provisioning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/provseq/internal/executor"
	"github.com/imamik/provseq/internal/ledger"
	"github.com/imamik/provseq/internal/logging"
)

// Plan is a loaded definition ready to run.
type Plan struct {
	// Name of the definition, for display.
	Name string
	// Definition is the path the plan was loaded from; stored in the ledger
	// so a resume can find it again.
	Definition string
	// Digest identifies the definition content.
	Digest string
	Steps  []*Step
	// Variables are seed bindings from the definition.
	Variables map[string]string
	// Credentials are seed bindings read from the environment. They are
	// sensitive and never persisted.
	Credentials map[string]string
}

// Seeds returns the names that satisfy inputs without a producing step.
func (p *Plan) Seeds() []string {
	names := make([]string, 0, len(p.Variables)+len(p.Credentials))
	for k := range p.Variables {
		names = append(names, k)
	}
	for k := range p.Credentials {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Graph builds the dependency graph of the plan's steps.
func (p *Plan) Graph() (*Graph, error) {
	return BuildGraph(p.Steps, p.Seeds()...)
}

// Metrics receives step and run measurements.
type Metrics interface {
	ObserveStep(step string, status ledger.StepStatus, duration time.Duration)
	ObserveRun(state ledger.RunState, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveStep(string, ledger.StepStatus, time.Duration) {}
func (noopMetrics) ObserveRun(ledger.RunState, time.Duration)            {}

// Sequencer runs plans one step at a time and records progress in a ledger.
type Sequencer struct {
	exec       Executor
	store      ledger.Store
	observer   Observer
	metrics    Metrics
	ledgerOpts []ledger.Option
	newRunID   func() string
	now        func() time.Time
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(s *Sequencer) {
		s.observer = o
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Sequencer) {
		s.metrics = m
	}
}

// WithLedgerOptions passes options to every ledger the sequencer opens.
func WithLedgerOptions(opts ...ledger.Option) Option {
	return func(s *Sequencer) {
		s.ledgerOpts = append(s.ledgerOpts, opts...)
	}
}

// WithRunIDGenerator overrides the uuid run id generator.
func WithRunIDGenerator(gen func() string) Option {
	return func(s *Sequencer) {
		s.newRunID = gen
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) {
		s.now = now
	}
}

// NewSequencer creates a sequencer that runs commands through ex and keeps
// ledgers in store.
func NewSequencer(ex Executor, store ledger.Store, opts ...Option) *Sequencer {
	s := &Sequencer{
		exec:     ex,
		store:    store,
		observer: NewConsoleObserver(),
		metrics:  noopMetrics{},
		newRunID: uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOption configures a single Run.
type RunOption func(*runConfig)

type runConfig struct {
	runID string
	force bool
}

// WithRunID uses id instead of a generated run id.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// AllowDefinitionChange lets Resume continue although the definition digest
// differs from the recorded one.
func AllowDefinitionChange() RunOption {
	return func(c *runConfig) {
		c.force = true
	}
}

// Run starts a new run of plan. It returns the final ledger record; on
// failure the error is a *StepError or wraps ErrAborted.
func (s *Sequencer) Run(ctx context.Context, plan *Plan, opts ...RunOption) (*ledger.Record, error) {
	cfg := runConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	graph, err := plan.Graph()
	if err != nil {
		return nil, err
	}

	runID := cfg.runID
	if runID == "" {
		runID = s.newRunID()
	} else if err := ledger.ValidateRunID(runID); err != nil {
		return nil, err
	} else if _, err := s.store.Get(ctx, runID); err == nil {
		return nil, fmt.Errorf("run %s already exists; use resume", runID)
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("failed to check run %s: %w", runID, err)
	}

	l, err := ledger.New(ctx, s.store, runID, plan.Definition, plan.Digest, graph.Names(), s.ledgerOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger: %w", err)
	}
	return s.execute(ctx, l, plan, graph, false)
}

// Resume continues an earlier run. Succeeded steps are skipped and their
// bindings restored; execution continues from the first pending or failed
// step. Steps whose sensitive outputs were not persisted run again.
func (s *Sequencer) Resume(ctx context.Context, runID string, plan *Plan, opts ...RunOption) (*ledger.Record, error) {
	cfg := runConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	l, err := ledger.Open(ctx, s.store, runID, s.ledgerOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open run %s: %w", runID, err)
	}
	rec := l.Snapshot()
	if rec.State == ledger.RunCompleted {
		s.observer.Printf("Run %s already completed, nothing to resume", runID)
		return rec, nil
	}

	graph, err := plan.Graph()
	if err != nil {
		return nil, err
	}
	if err := sameSteps(rec, graph); err != nil {
		return nil, err
	}

	persistCtx := context.WithoutCancel(ctx)
	if rec.Digest != plan.Digest {
		if !cfg.force {
			return nil, fmt.Errorf("run %s: %w (recorded %s, now %s)", runID, ErrDefinitionChanged, rec.Digest, plan.Digest)
		}
		if err := l.SetDigest(persistCtx, plan.Definition, plan.Digest); err != nil {
			return nil, err
		}
	}

	for _, step := range l.Withheld() {
		s.observer.Printf("[%s] sensitive outputs were not stored, step will run again", step)
		if err := l.Reset(persistCtx, step); err != nil {
			return nil, err
		}
	}

	// a step left running by a crashed process is treated as failed
	for _, name := range graph.Names() {
		if status, _ := l.Status(name); status == ledger.StepRunning {
			err := l.Record(persistCtx, name, ledger.StepFailed, nil,
				ledger.WithFailure(ledger.Failure{Err: errors.New("interrupted")}))
			if err != nil {
				return nil, err
			}
		}
	}

	return s.execute(ctx, l, plan, graph, true)
}

// sameSteps checks that the ledger tracks exactly the plan's steps.
func sameSteps(rec *ledger.Record, graph *Graph) error {
	names := graph.Names()
	if len(names) != len(rec.Steps) {
		return fmt.Errorf("run %s has %d steps but the definition has %d", rec.RunID, len(rec.Steps), len(names))
	}
	for _, name := range names {
		if _, ok := rec.Steps[name]; !ok {
			return fmt.Errorf("run %s has no step %q", rec.RunID, name)
		}
	}
	return nil
}

func (s *Sequencer) ledgerOptions(ctx context.Context) []ledger.Option {
	return append([]ledger.Option{ledger.WithLogger(logr.FromContextOrDiscard(ctx))}, s.ledgerOpts...)
}

// execute walks the graph. Cancellation is checked between steps only; a
// running command always finishes. Ledger writes use a context that is not
// cancelled so the final state is recorded.
func (s *Sequencer) execute(ctx context.Context, l *ledger.Ledger, plan *Plan, graph *Graph, resumed bool) (*ledger.Record, error) {
	runID := l.RunID()
	log := logr.FromContextOrDiscard(ctx).WithValues(logging.KeyRunID, runID)
	obs := s.observer.WithFields(map[string]string{"runId": runID})
	persistCtx := context.WithoutCancel(ctx)
	start := s.now()

	if err := l.SetState(persistCtx, ledger.RunRunning, "", nil); err != nil {
		return nil, err
	}

	steps := graph.Order()
	LogRunStarted(obs, len(steps), resumed)

	bindings := make(map[string]string)
	var secrets []string
	for k, v := range plan.Variables {
		bindings[k] = v
	}
	for k, v := range plan.Credentials {
		bindings[k] = v
		secrets = append(secrets, v)
	}
	snapshot := l.Snapshot()
	for k, v := range l.Bindings() {
		bindings[k] = v
		if snapshot.Bindings[k].Sensitive {
			secrets = append(secrets, v)
		}
	}

	abort := func(step string, cause error) (*ledger.Record, error) {
		if err := l.SetState(persistCtx, ledger.RunAborted, step, cause); err != nil {
			log.Error(err, "failed to record aborted run")
		}
		s.metrics.ObserveRun(ledger.RunAborted, s.now().Sub(start))
		LogRunAborted(obs, step, cause)
		return l.Snapshot(), cause
	}

	for i, step := range steps {
		status, err := l.Status(step.Name)
		if err != nil {
			return abort(step.Name, err)
		}
		if status == ledger.StepSucceeded {
			LogStepSkipped(obs, step.Name)
			obs.Progress(i+1, len(steps))
			continue
		}

		if ctx.Err() != nil {
			log.Info("run cancelled", logging.KeyStep, step.Name)
			return abort("", ErrAborted)
		}

		if err := l.Record(persistCtx, step.Name, ledger.StepRunning, nil); err != nil {
			return abort(step.Name, err)
		}
		LogStepStarted(obs, step.Name, executor.Mask(step.Render(bindings), secrets))
		log.V(1).Info("step started", logging.KeyStep, step.Name)

		stepStart := s.now()
		values, runErr := step.Run(ctx, s.exec, bindings)
		elapsed := s.now().Sub(stepStart)

		if runErr != nil {
			stepErr := &StepError{Step: step.Name, Err: maskError(runErr, secrets)}
			failure := ledger.Failure{Err: stepErr.Err}
			var cmdErr *CommandFailedError
			if errors.As(stepErr.Err, &cmdErr) {
				failure.ExitCode = cmdErr.ExitCode
				failure.Stderr = cmdErr.Stderr
			}
			if err := l.Record(persistCtx, step.Name, ledger.StepFailed, nil, ledger.WithFailure(failure)); err != nil {
				log.Error(err, "failed to record step failure", logging.KeyStep, step.Name)
			}
			s.metrics.ObserveStep(step.Name, ledger.StepFailed, elapsed)
			LogStepFailed(obs, step.Name, stepErr.Err)
			log.Error(stepErr.Err, "step failed", logging.KeyStep, step.Name)
			return abort(step.Name, stepErr)
		}

		outputs := make(map[string]ledger.Binding, len(values))
		for _, o := range step.outputs {
			outputs[o.Name] = ledger.Binding{Value: values[o.Name], Sensitive: o.Sensitive}
			bindings[o.Name] = values[o.Name]
			if o.Sensitive {
				secrets = append(secrets, values[o.Name])
			}
		}
		if err := l.Record(persistCtx, step.Name, ledger.StepSucceeded, outputs); err != nil {
			return abort(step.Name, &StepError{Step: step.Name, Err: err})
		}

		s.metrics.ObserveStep(step.Name, ledger.StepSucceeded, elapsed)
		LogStepSucceeded(obs, step.Name, elapsed)
		obs.Progress(i+1, len(steps))
	}

	if err := l.SetState(persistCtx, ledger.RunCompleted, "", nil); err != nil {
		return nil, err
	}
	elapsed := s.now().Sub(start)
	s.metrics.ObserveRun(ledger.RunCompleted, elapsed)
	LogRunCompleted(obs, elapsed)
	return l.Snapshot(), nil
}

// maskError hides secret values in command output before it is stored or
// shown.
func maskError(err error, secrets []string) error {
	var cmdErr *CommandFailedError
	if errors.As(err, &cmdErr) {
		return &CommandFailedError{ExitCode: cmdErr.ExitCode, Stderr: executor.Mask(cmdErr.Stderr, secrets)}
	}
	return err
}
