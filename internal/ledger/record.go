package ledger

import (
	"time"
)

// StepStatus is the lifecycle status of one step within a run.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
)

// RunState is the state of the sequencer for one run.
type RunState string

const (
	RunNotStarted RunState = "not-started"
	RunRunning    RunState = "running"
	RunCompleted  RunState = "completed"
	RunAborted    RunState = "aborted"
)

// Terminal reports whether no further steps will run without a resume.
func (s RunState) Terminal() bool {
	return s == RunCompleted || s == RunAborted
}

// Binding is a named value produced by a step.
type Binding struct {
	Name      string    `json:"name"`
	Value     string    `json:"value,omitempty"`
	Producer  string    `json:"producer"`
	Sensitive bool      `json:"sensitive,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	// Sealed marks Value as ciphertext produced by a Sealer.
	Sealed bool `json:"sealed,omitempty"`
	// Withheld marks a sensitive value that was not persisted.
	Withheld bool `json:"withheld,omitempty"`
}

// StepRecord is the ledger entry for one step.
type StepRecord struct {
	Name       string     `json:"name"`
	Status     StepStatus `json:"status"`
	Attempts   int        `json:"attempts"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	ExitCode   int        `json:"exitCode,omitempty"`
	Error      string     `json:"error,omitempty"`
	Stderr     string     `json:"stderr,omitempty"`
}

// Duration returns how long the last attempt took, or zero.
func (s *StepRecord) Duration() time.Duration {
	if s.StartedAt == nil || s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(*s.StartedAt)
}

// Record is the full persisted state of one run.
type Record struct {
	RunID       string                 `json:"runId"`
	Definition  string                 `json:"definition"`
	Digest      string                 `json:"digest,omitempty"`
	State       RunState               `json:"state"`
	Order       []string               `json:"order"`
	Steps       map[string]*StepRecord `json:"steps"`
	Bindings    map[string]Binding     `json:"bindings"`
	StartedAt   time.Time              `json:"startedAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	CompletedAt *time.Time             `json:"completedAt,omitempty"`
	FailedStep  string                 `json:"failedStep,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// StepStatuses returns step name -> status.
func (r *Record) StepStatuses() map[string]StepStatus {
	out := make(map[string]StepStatus, len(r.Steps))
	for name, s := range r.Steps {
		out[name] = s.Status
	}
	return out
}

// Values returns binding name -> value for every binding.
func (r *Record) Values() map[string]string {
	out := make(map[string]string, len(r.Bindings))
	for name, b := range r.Bindings {
		out[name] = b.Value
	}
	return out
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := *r
	c.Order = append([]string(nil), r.Order...)
	c.Steps = make(map[string]*StepRecord, len(r.Steps))
	for k, v := range r.Steps {
		s := *v
		c.Steps[k] = &s
	}
	c.Bindings = make(map[string]Binding, len(r.Bindings))
	for k, v := range r.Bindings {
		c.Bindings[k] = v
	}
	return &c
}
