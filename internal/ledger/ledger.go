package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/imamik/provseq/internal/logging"
	"github.com/imamik/provseq/internal/util/retry"
)

var (
	// ErrNotFound is returned when a run id has no ledger.
	ErrNotFound = errors.New("run not found")
	// ErrUnknownStep is returned for a step name the ledger does not track.
	ErrUnknownStep = errors.New("unknown step")
	// ErrSealedValues is returned when sealed bindings are loaded without a key.
	ErrSealedValues = errors.New("ledger contains sealed values; set PROVSEQ_LEDGER_KEY")
)

// TransitionError is returned when a status change would regress a step.
type TransitionError struct {
	Step string
	From StepStatus
	To   StepStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("step %q cannot move from %s to %s", e.Step, e.From, e.To)
}

// allowed lists the forward-only status transitions. Reset is the only way
// back to pending.
var allowed = map[StepStatus][]StepStatus{
	StepPending: {StepRunning, StepFailed},
	StepRunning: {StepSucceeded, StepFailed},
	StepFailed:  {StepRunning},
}

func canTransition(from, to StepStatus) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Ledger tracks and persists the state of one run.
type Ledger struct {
	store  Store
	sealer *Sealer
	rec    *Record
	now    func() time.Time
	retry  []retry.Option
	log    logr.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithSealer seals sensitive bindings before persisting them.
func WithSealer(s *Sealer) Option {
	return func(l *Ledger) {
		l.sealer = s
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithRetry sets the retry options used for store writes.
func WithRetry(opts ...retry.Option) Option {
	return func(l *Ledger) {
		l.retry = opts
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(l *Ledger) {
		l.log = log
	}
}

func newLedger(store Store, opts []Option) *Ledger {
	l := &Ledger{
		store: store,
		now:   time.Now,
		log:   logr.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ValidateRunID checks that id can name a stored run and be listed again:
// a DNS-1123 subdomain, so it carries no '/' or upper case.
func ValidateRunID(id string) error {
	if msgs := validation.IsDNS1123Subdomain(id); len(msgs) > 0 {
		return fmt.Errorf("invalid run id %q: %s", id, strings.Join(msgs, "; "))
	}
	return nil
}

// New creates the ledger for a fresh run with every step pending and
// persists it.
func New(ctx context.Context, store Store, runID, definition, digest string, order []string, opts ...Option) (*Ledger, error) {
	if err := ValidateRunID(runID); err != nil {
		return nil, err
	}
	l := newLedger(store, opts)
	now := l.now().UTC()

	rec := &Record{
		RunID:      runID,
		Definition: definition,
		Digest:     digest,
		State:      RunNotStarted,
		Order:      append([]string(nil), order...),
		Steps:      make(map[string]*StepRecord, len(order)),
		Bindings:   make(map[string]Binding),
		StartedAt:  now,
		UpdatedAt:  now,
	}
	for _, name := range order {
		rec.Steps[name] = &StepRecord{Name: name, Status: StepPending}
	}
	l.rec = rec

	if err := l.persist(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Open loads an existing run for resumption. Sealed values are opened with
// the configured sealer.
func Open(ctx context.Context, store Store, runID string, opts ...Option) (*Ledger, error) {
	l := newLedger(store, opts)

	rec, err := load(ctx, store, runID)
	if err != nil {
		return nil, err
	}

	for name, b := range rec.Bindings {
		if !b.Sealed {
			continue
		}
		if l.sealer == nil {
			return nil, ErrSealedValues
		}
		plain, err := l.sealer.Open(b.Value)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", name, err)
		}
		b.Value = plain
		b.Sealed = false
		rec.Bindings[name] = b
	}

	l.rec = rec
	return l, nil
}

// Get returns the stored record for runID without opening sealed values.
// Sensitive values are blanked.
func Get(ctx context.Context, store Store, runID string) (*Record, error) {
	rec, err := load(ctx, store, runID)
	if err != nil {
		return nil, err
	}
	for name, b := range rec.Bindings {
		if b.Sensitive {
			b.Value = ""
			rec.Bindings[name] = b
		}
	}
	return rec, nil
}

func load(ctx context.Context, store Store, runID string) (*Record, error) {
	data, err := store.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode ledger %s: %w", runID, err)
	}
	if rec.Steps == nil {
		rec.Steps = make(map[string]*StepRecord)
	}
	if rec.Bindings == nil {
		rec.Bindings = make(map[string]Binding)
	}
	return &rec, nil
}

// RunID returns the run id.
func (l *Ledger) RunID() string {
	return l.rec.RunID
}

// Snapshot returns a deep copy of the current record.
func (l *Ledger) Snapshot() *Record {
	return l.rec.Clone()
}

// Status returns the status of a step.
func (l *Ledger) Status(step string) (StepStatus, error) {
	s, ok := l.rec.Steps[step]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownStep, step)
	}
	return s.Status, nil
}

// Bindings returns name -> value for all bindings that hold a value.
func (l *Ledger) Bindings() map[string]string {
	out := make(map[string]string, len(l.rec.Bindings))
	for name, b := range l.rec.Bindings {
		if b.Withheld {
			continue
		}
		out[name] = b.Value
	}
	return out
}

// Withheld returns the steps that produced sensitive bindings which were not
// persisted and so must run again before their consumers.
func (l *Ledger) Withheld() []string {
	var steps []string
	seen := make(map[string]bool)
	for _, name := range l.rec.Order {
		for _, b := range l.rec.Bindings {
			if b.Withheld && b.Producer == name && !seen[name] {
				seen[name] = true
				steps = append(steps, name)
			}
		}
	}
	return steps
}

// Failure carries the details of a failed step attempt.
type Failure struct {
	Err      error
	ExitCode int
	Stderr   string
}

// RecordOption adds detail to a Record call.
type RecordOption func(*StepRecord)

// WithFailure attaches failure details.
func WithFailure(f Failure) RecordOption {
	return func(s *StepRecord) {
		if f.Err != nil {
			s.Error = f.Err.Error()
		}
		s.ExitCode = f.ExitCode
		s.Stderr = f.Stderr
	}
}

// Record moves a step to status and, on success, stores its outputs as
// bindings. The change is persisted before Record returns.
func (l *Ledger) Record(ctx context.Context, step string, status StepStatus, outputs map[string]Binding, opts ...RecordOption) error {
	s, ok := l.rec.Steps[step]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, step)
	}
	if !canTransition(s.Status, status) {
		return &TransitionError{Step: step, From: s.Status, To: status}
	}

	if status == StepSucceeded {
		for name := range outputs {
			if prev, exists := l.rec.Bindings[name]; exists && prev.Producer != step {
				return fmt.Errorf("binding %q already produced by step %q", name, prev.Producer)
			}
		}
	}

	now := l.now().UTC()
	switch status {
	case StepRunning:
		s.Attempts++
		s.StartedAt = &now
		s.FinishedAt = nil
		s.Error, s.Stderr, s.ExitCode = "", "", 0
	case StepSucceeded, StepFailed:
		s.FinishedAt = &now
	}

	if status == StepSucceeded {
		for name, b := range outputs {
			b.Name = name
			b.Producer = step
			b.CreatedAt = now
			l.rec.Bindings[name] = b
		}
	}

	for _, opt := range opts {
		opt(s)
	}
	s.Status = status

	l.log.V(1).Info("step recorded", logging.KeyRunID, l.rec.RunID, logging.KeyStep, step, logging.KeyStatus, string(status))
	return l.persist(ctx)
}

// Reset returns a step to pending and drops the bindings it produced.
func (l *Ledger) Reset(ctx context.Context, step string) error {
	s, ok := l.rec.Steps[step]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, step)
	}

	s.Status = StepPending
	s.StartedAt, s.FinishedAt = nil, nil
	s.Error, s.Stderr, s.ExitCode = "", "", 0

	for name, b := range l.rec.Bindings {
		if b.Producer == step {
			delete(l.rec.Bindings, name)
		}
	}
	if l.rec.State == RunCompleted {
		l.rec.State = RunAborted
		l.rec.CompletedAt = nil
	}

	l.log.Info("step reset", logging.KeyRunID, l.rec.RunID, logging.KeyStep, step)
	return l.persist(ctx)
}

// SetState moves the run to state. Terminal states stamp CompletedAt; cause
// is recorded for aborted runs.
func (l *Ledger) SetState(ctx context.Context, state RunState, failedStep string, cause error) error {
	l.rec.State = state
	switch state {
	case RunRunning:
		l.rec.CompletedAt = nil
		l.rec.FailedStep = ""
		l.rec.Error = ""
	case RunCompleted, RunAborted:
		now := l.now().UTC()
		l.rec.CompletedAt = &now
		l.rec.FailedStep = failedStep
		if cause != nil {
			l.rec.Error = cause.Error()
		}
	}
	return l.persist(ctx)
}

// SetDigest updates the definition path and digest, used by forced resumes.
func (l *Ledger) SetDigest(ctx context.Context, definition, digest string) error {
	l.rec.Definition = definition
	l.rec.Digest = digest
	return l.persist(ctx)
}

// persist writes the record. Sensitive values are sealed when a sealer is
// configured and withheld otherwise.
func (l *Ledger) persist(ctx context.Context) error {
	l.rec.UpdatedAt = l.now().UTC()

	out := l.rec.Clone()
	for name, b := range out.Bindings {
		if !b.Sensitive || b.Withheld {
			continue
		}
		if l.sealer == nil {
			b.Value = ""
			b.Withheld = true
		} else {
			sealed, err := l.sealer.Seal(b.Value)
			if err != nil {
				return fmt.Errorf("failed to seal binding %q: %w", name, err)
			}
			b.Value = sealed
			b.Sealed = true
		}
		out.Bindings[name] = b
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	opts := append([]retry.Option{
		retry.WithOnRetry(func(attempt int, delay time.Duration, err error) {
			l.log.Info("ledger write failed, retrying", logging.KeyRunID, l.rec.RunID, "attempt", attempt, "delay", delay.String(), logging.KeyError, err.Error())
		}),
	}, l.retry...)

	err = retry.Do(ctx, func(ctx context.Context) error {
		return l.store.Put(ctx, l.rec.RunID, data)
	}, opts...)
	if err != nil {
		return fmt.Errorf("failed to persist ledger %s: %w", l.rec.RunID, err)
	}
	return nil
}
