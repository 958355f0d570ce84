package provisioning

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/provseq/internal/executor"
)

// fakeRunner answers commands by their first argument and records calls.
// Unknown commands exit 0 with empty output.
type fakeRunner struct {
	mu      sync.Mutex
	results map[string]executor.Result
	calls   []executor.Command
	onRun   func(cmd executor.Command)
}

func newFakeRunner(results map[string]executor.Result) *fakeRunner {
	if results == nil {
		results = map[string]executor.Result{}
	}
	return &fakeRunner{results: results}
}

func (f *fakeRunner) Run(_ context.Context, cmd executor.Command) (executor.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	res := f.results[cmd.Args[0]]
	hook := f.onRun
	f.mu.Unlock()

	if hook != nil {
		hook(cmd)
	}
	return res, nil
}

// called returns the command lines in call order.
func (f *fakeRunner) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.Join(c.Args, " ")
	}
	return out
}

// programs returns the first argument of every call.
func (f *fakeRunner) programs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Args[0]
	}
	return out
}

func okResult(stdout string) executor.Result {
	return executor.Result{Stdout: stdout}
}

func mustDeclare(t testing.TB, name, command string, inputs []string, outputs []Output, opts ...StepOption) *Step {
	t.Helper()
	s, err := Declare(name, command, inputs, outputs, opts...)
	require.NoError(t, err)
	return s
}

func stdoutOutputs(names ...string) []Output {
	outs := make([]Output, len(names))
	for i, n := range names {
		outs[i] = Output{Name: n, Rule: RuleStdout}
	}
	return outs
}

func stepNames(steps []*Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}
