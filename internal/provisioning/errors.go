package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrAborted is returned when a run stops because its context was cancelled.
// It wraps context.Canceled.
var ErrAborted = fmt.Errorf("run aborted: %w", context.Canceled)

// ErrDefinitionChanged is returned by Resume when the definition digest
// differs from the one recorded for the run.
var ErrDefinitionChanged = errors.New("definition changed since the run started")

// StepError ties a failure to the step that produced it.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// CommandFailedError is returned when a step's command exits non-zero.
// A timeout is reported with ExitCode -1.
type CommandFailedError struct {
	ExitCode int
	Stderr   string
}

func (e *CommandFailedError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("command exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("command exited with code %d: %s", e.ExitCode, stderr)
}

// MissingOutputError is returned when a declared output cannot be extracted
// from the command's stdout, even if the command exited 0.
type MissingOutputError struct {
	Output string
	Rule   OutputRule
	Reason string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("output %q (%s) not found: %s", e.Output, e.Rule, e.Reason)
}

// UnsatisfiedDependencyError is returned when a step input is neither
// produced by another step nor provided by the definition.
type UnsatisfiedDependencyError struct {
	Step  string
	Input string
}

func (e *UnsatisfiedDependencyError) Error() string {
	return fmt.Sprintf("step %q needs %q but no step produces it", e.Step, e.Input)
}

// CyclicDependencyError is returned when steps depend on each other in a
// loop. Cycle starts and ends with the same step.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Cycle, " -> "))
}

// DuplicateStepError is returned when two steps share a name.
type DuplicateStepError struct {
	Name string
}

func (e *DuplicateStepError) Error() string {
	return fmt.Sprintf("step %q is declared more than once", e.Name)
}

// DuplicateOutputError is returned when a binding name would be produced
// twice. First is "variables" when the name is already a seed binding.
type DuplicateOutputError struct {
	Output string
	First  string
	Second string
}

func (e *DuplicateOutputError) Error() string {
	return fmt.Sprintf("output %q of step %q is already provided by %s", e.Output, e.Second, e.First)
}
