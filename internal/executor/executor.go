package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ExitNotFound is reported when the command binary cannot be found.
const ExitNotFound = 127

// ExitTimedOut is reported when a command was killed by its timeout.
const ExitTimedOut = -1

// waitDelay bounds how long output pipes are drained after a timeout kill.
const waitDelay = 2 * time.Second

// Invocation is an unresolved command as written in a definition.
type Invocation struct {
	Command string
	Env     map[string]string
	Timeout time.Duration
	Dir     string // working directory; empty means the current one
}

// Command is a fully resolved invocation.
type Command struct {
	Args    []string
	Env     []string // KEY=VALUE entries appended to the inherited environment
	Timeout time.Duration
	Dir     string
}

// String renders the command line with arguments quoted where needed.
func (c Command) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\n\"'\\$") {
			parts[i] = strconv.Quote(a)
		} else {
			parts[i] = a
		}
	}
	return strings.Join(parts, " ")
}

// Result captures what the external process returned.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner runs a resolved command.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, cmd Command) (Result, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, cmd Command) (Result, error) {
	return f(ctx, cmd)
}

// Executor resolves invocations and hands them to a Runner.
type Executor struct {
	runner         Runner
	defaultTimeout time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithDefaultTimeout applies a timeout to invocations that do not set one.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.defaultTimeout = d
	}
}

// New creates an Executor. A nil runner uses ProcessRunner.
func New(runner Runner, opts ...Option) *Executor {
	if runner == nil {
		runner = ProcessRunner{}
	}
	e := &Executor{runner: runner}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute substitutes bindings into inv and runs it.
// It does not retry and does not interpret the exit code.
func (e *Executor) Execute(ctx context.Context, inv Invocation, bindings map[string]string) (Result, error) {
	cmd, err := Resolve(inv, bindings)
	if err != nil {
		return Result{}, err
	}
	if cmd.Timeout == 0 {
		cmd.Timeout = e.defaultTimeout
	}
	return e.runner.Run(ctx, cmd)
}

// ProcessRunner runs commands as child processes without a shell.
type ProcessRunner struct{}

// Run starts the process and waits for it.
//
// Cancellation of ctx does not interrupt the process; only cmd.Timeout does.
func (ProcessRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if len(cmd.Args) == 0 {
		return Result{}, fmt.Errorf("command is empty")
	}

	runCtx := context.WithoutCancel(ctx)
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, cmd.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	// #nosec G204 - argv comes from the operator's own definition file
	proc := exec.CommandContext(runCtx, cmd.Args[0], cmd.Args[1:]...)
	proc.Env = append(os.Environ(), cmd.Env...)
	proc.Dir = cmd.Dir
	proc.Stdout = &stdout
	proc.Stderr = &stderr
	proc.WaitDelay = waitDelay

	start := time.Now()
	err := proc.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		return res, nil
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.ExitCode = ExitTimedOut
		res.Stderr += fmt.Sprintf("\ncommand timed out after %v", cmd.Timeout)
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		res.ExitCode = ExitNotFound
		res.Stderr = err.Error()
		return res, nil
	}
	return res, fmt.Errorf("failed to run %s: %w", cmd.Args[0], err)
}
