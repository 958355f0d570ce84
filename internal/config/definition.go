package config

import (
	"time"
)

// Definition is a provisioning definition file.
type Definition struct {
	// Name identifies the definition in ledgers, logs and metrics.
	// Defaults to the file name without extension.
	Name        string `mapstructure:"name" yaml:"name"`
	Description string `mapstructure:"description" yaml:"description,omitempty"`

	// Tools are binaries that must be in PATH; checked by doctor.
	Tools []string `mapstructure:"tools" yaml:"tools,omitempty"`

	// Variables are fixed seed bindings.
	Variables map[string]string `mapstructure:"variables" yaml:"variables,omitempty"`

	// Credentials are seed bindings read from the environment at run time.
	Credentials []Credential `mapstructure:"credentials" yaml:"credentials,omitempty"`

	Steps []StepConfig `mapstructure:"steps" yaml:"steps"`

	// Path is the absolute path the definition was loaded from.
	Path string `mapstructure:"-" yaml:"-"`
	// Digest is "sha256:<hex>" over the file bytes.
	Digest string `mapstructure:"-" yaml:"-"`
}

// Credential is a secret binding taken from an environment variable.
type Credential struct {
	Name string `mapstructure:"name" yaml:"name"`
	// Env defaults to Name upper-cased.
	Env         string `mapstructure:"env" yaml:"env,omitempty"`
	Description string `mapstructure:"description" yaml:"description,omitempty"`
}

// StepConfig is one step as written in the definition file.
type StepConfig struct {
	Name        string            `mapstructure:"name" yaml:"name"`
	Description string            `mapstructure:"description" yaml:"description,omitempty"`
	Command     string            `mapstructure:"command" yaml:"command"`
	Inputs      []string          `mapstructure:"inputs" yaml:"inputs,omitempty"`
	Outputs     []OutputConfig    `mapstructure:"outputs" yaml:"outputs,omitempty"`
	Env         map[string]string `mapstructure:"env" yaml:"env,omitempty"`
	Timeout     time.Duration     `mapstructure:"timeout" yaml:"timeout,omitempty"`

	// RepeatableFlags lists flags that may appear more than once in Command.
	RepeatableFlags []string `mapstructure:"repeatableFlags" yaml:"repeatableFlags,omitempty"`

	// Save writes stdout to this file, relative to the definition's directory.
	Save string `mapstructure:"save" yaml:"save,omitempty"`
}

// OutputConfig declares a value captured from a step's stdout. A bare
// string in the file is shorthand for {name: <string>}.
type OutputConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	// Rule is stdout, lastLine, json or regex.
	Rule string `mapstructure:"rule" yaml:"rule,omitempty"`
	Expr string `mapstructure:"expr" yaml:"expr,omitempty"`
	// JSON and Regex set Rule and Expr in one key.
	JSON      string `mapstructure:"json" yaml:"json,omitempty"`
	Regex     string `mapstructure:"regex" yaml:"regex,omitempty"`
	Sensitive bool   `mapstructure:"sensitive" yaml:"sensitive,omitempty"`
}

// EnvName returns the environment variable the credential is read from.
func (c Credential) EnvName() string {
	if c.Env != "" {
		return c.Env
	}
	return envFromName(c.Name)
}

// StepNames returns the step names in declaration order.
func (d *Definition) StepNames() []string {
	names := make([]string, len(d.Steps))
	for i, s := range d.Steps {
		names[i] = s.Name
	}
	return names
}
