package provisioning

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/imamik/provseq/internal/executor"
)

// Executor runs one command invocation. *executor.Executor implements it.
type Executor interface {
	Execute(ctx context.Context, inv executor.Invocation, bindings map[string]string) (executor.Result, error)
}

// Step is a named unit of work: one command plus the values it needs and
// produces.
type Step struct {
	Name    string
	Command string
	Env     map[string]string
	Timeout time.Duration
	// Save, when set, is a file the command's stdout is written to.
	Save string
	// Dir is the command's working directory.
	Dir string

	inputs  []string
	outputs []Output
}

// StepOption configures a Step.
type StepOption func(*Step)

// WithEnv adds environment entries. Values may use placeholders.
func WithEnv(env map[string]string) StepOption {
	return func(s *Step) {
		s.Env = env
	}
}

// WithTimeout kills the command after d.
func WithTimeout(d time.Duration) StepOption {
	return func(s *Step) {
		s.Timeout = d
	}
}

// WithDir runs the command in dir, so relative paths in the command agree
// with relative save paths.
func WithDir(dir string) StepOption {
	return func(s *Step) {
		s.Dir = dir
	}
}

// WithSave writes stdout to path after a successful run.
func WithSave(path string) StepOption {
	return func(s *Step) {
		s.Save = path
	}
}

// Declare builds a step. Its inputs are the declared inputs plus every
// placeholder used in the command or environment. A single output with no
// rule takes the whole stdout.
func Declare(name, command string, inputs []string, outputs []Output, opts ...StepOption) (*Step, error) {
	if name == "" {
		return nil, fmt.Errorf("step name is required")
	}
	s := &Step{Name: name, Command: command}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := executor.Split(command); err != nil {
		return nil, fmt.Errorf("step %q: %w", name, err)
	}

	in := make(map[string]struct{})
	for _, n := range inputs {
		if !executor.ValidName(n) {
			return nil, fmt.Errorf("step %q: invalid input name %q", name, n)
		}
		in[n] = struct{}{}
	}
	for _, n := range executor.Placeholders(command) {
		in[n] = struct{}{}
	}
	for _, v := range s.Env {
		for _, n := range executor.Placeholders(v) {
			in[n] = struct{}{}
		}
	}
	for n := range in {
		s.inputs = append(s.inputs, n)
	}
	sort.Strings(s.inputs)

	seen := make(map[string]bool, len(outputs))
	for _, o := range outputs {
		if !executor.ValidName(o.Name) {
			return nil, fmt.Errorf("step %q: invalid output name %q", name, o.Name)
		}
		if seen[o.Name] {
			return nil, fmt.Errorf("step %q: output %q declared twice", name, o.Name)
		}
		seen[o.Name] = true

		if o.Rule == "" {
			if len(outputs) > 1 {
				return nil, fmt.Errorf("step %q: output %q needs a rule when a step declares several outputs", name, o.Name)
			}
			o.Rule = RuleStdout
		}
		if err := o.compile(); err != nil {
			return nil, fmt.Errorf("step %q: %w", name, err)
		}
		s.outputs = append(s.outputs, o)
	}

	return s, nil
}

// Inputs returns the binding names the step needs, sorted.
func (s *Step) Inputs() []string {
	return append([]string(nil), s.inputs...)
}

// Outputs returns the declared outputs in declaration order.
func (s *Step) Outputs() []Output {
	return append([]Output(nil), s.outputs...)
}

// Invocation returns the unresolved command.
func (s *Step) Invocation() executor.Invocation {
	return executor.Invocation{Command: s.Command, Env: s.Env, Timeout: s.Timeout, Dir: s.Dir}
}

// Render shows the command with the known bindings filled in.
func (s *Step) Render(bindings map[string]string) string {
	return executor.ExpandKnown(s.Command, bindings)
}

// Run executes the command and extracts the declared outputs.
//
// A non-zero exit returns *CommandFailedError. Every declared output must be
// extractable; otherwise *MissingOutputError is returned even on exit 0.
func (s *Step) Run(ctx context.Context, ex Executor, bindings map[string]string) (map[string]string, error) {
	res, err := ex.Execute(ctx, s.Invocation(), bindings)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, &CommandFailedError{ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	values := make(map[string]string, len(s.outputs))
	for i := range s.outputs {
		v, err := s.outputs[i].Extract(res.Stdout)
		if err != nil {
			return nil, err
		}
		values[s.outputs[i].Name] = v
	}

	if s.Save != "" {
		if err := saveArtifact(s.Save, res.Stdout); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// saveArtifact writes stdout to path. JSON is converted to YAML when the
// path has a YAML extension.
func saveArtifact(path, stdout string) error {
	data := []byte(stdout)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		y, err := yaml.JSONToYAML(data)
		if err != nil {
			return fmt.Errorf("failed to convert output to YAML for %s: %w", path, err)
		}
		data = y
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save output to %s: %w", path, err)
	}
	return nil
}
