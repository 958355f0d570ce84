package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/imamik/provseq/internal/executor"
)

// DuplicateFlagError reports a flag given twice in one step's command.
type DuplicateFlagError struct {
	Step string
	Flag string
}

func (e *DuplicateFlagError) Error() string {
	return fmt.Sprintf("step %q: flag %s appears more than once (list it in repeatableFlags if intended)", e.Step, e.Flag)
}

// MissingCredentialError reports a credential whose environment variable is
// unset or empty.
type MissingCredentialError struct {
	Name string
	Env  string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("credential %q: environment variable %s is not set", e.Name, e.Env)
}

// Validate checks the definition and returns every problem found, joined.
func (d *Definition) Validate() error {
	var errs []error

	if d.Name != "" {
		for _, msg := range validation.IsDNS1123Label(d.Name) {
			errs = append(errs, fmt.Errorf("name %q: %s", d.Name, msg))
		}
	}

	seeds := sets.New[string]()
	for name := range d.Variables {
		if !executor.ValidName(name) {
			errs = append(errs, fmt.Errorf("invalid variable name %q", name))
		}
		seeds.Insert(name)
	}

	for i, c := range d.Credentials {
		errs = append(errs, c.validate(i)...)
		if seeds.Has(c.Name) {
			errs = append(errs, fmt.Errorf("credential %q shadows a variable or credential of the same name", c.Name))
		}
		seeds.Insert(c.Name)
	}

	if len(d.Steps) == 0 {
		errs = append(errs, fmt.Errorf("at least one step is required"))
	}
	for i := range d.Steps {
		errs = append(errs, d.Steps[i].validate(i)...)
	}

	return errors.Join(errs...)
}

func (c Credential) validate(i int) []error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, fmt.Errorf("credentials[%d]: name is required", i))
	} else if !executor.ValidName(c.Name) {
		errs = append(errs, fmt.Errorf("credentials[%d]: invalid name %q", i, c.Name))
	}
	if c.Env != "" {
		for _, msg := range validation.IsEnvVarName(c.Env) {
			errs = append(errs, fmt.Errorf("credential %q: env %q: %s", c.Name, c.Env, msg))
		}
	}
	return errs
}

func (s *StepConfig) validate(i int) []error {
	label := fmt.Sprintf("steps[%d]", i)
	if s.Name != "" {
		label = fmt.Sprintf("step %q", s.Name)
	}

	var errs []error
	if s.Name == "" {
		errs = append(errs, fmt.Errorf("%s: name is required", label))
	} else {
		for _, msg := range validation.IsConfigMapKey(s.Name) {
			errs = append(errs, fmt.Errorf("%s: %s", label, msg))
		}
	}
	if strings.TrimSpace(s.Command) == "" {
		errs = append(errs, fmt.Errorf("%s: command is required", label))
		return errs
	}
	if s.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%s: timeout must not be negative", label))
	}
	for _, o := range s.Outputs {
		if o.JSON != "" && o.Regex != "" {
			errs = append(errs, fmt.Errorf("%s: output %q sets both json and regex", label, o.Name))
		}
	}
	if err := s.checkFlags(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// checkFlags finds the first flag repeated in the command that is not listed
// in RepeatableFlags. Parsing stops at "--".
func (s *StepConfig) checkFlags() error {
	argv, err := executor.Split(s.Command)
	if err != nil {
		return fmt.Errorf("step %q: %w", s.Name, err)
	}

	repeatable := sets.New[string]()
	for _, f := range s.RepeatableFlags {
		repeatable.Insert(strings.TrimLeft(f, "-"))
	}

	seen := sets.New[string]()
	for _, arg := range argv[1:] {
		if arg == "--" {
			break
		}
		flag, ok := flagName(arg)
		if !ok || repeatable.Has(strings.TrimLeft(flag, "-")) {
			continue
		}
		if seen.Has(flag) {
			return &DuplicateFlagError{Step: s.Name, Flag: flag}
		}
		seen.Insert(flag)
	}
	return nil
}

// flagName returns the flag with its dashes but without an "=value" suffix.
// Negative numbers and lone dashes are not flags.
func flagName(arg string) (string, bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return "", false
	}
	body := strings.TrimLeft(arg, "-")
	dashes := len(arg) - len(body)
	if body == "" || dashes > 2 || unicode.IsDigit(rune(body[0])) {
		return "", false
	}
	if i := strings.IndexByte(body, '='); i >= 0 {
		body = body[:i]
	}
	if body == "" {
		return "", false
	}
	return arg[:dashes] + body, true
}

// ResolveCredentials reads every credential through lookup, usually
// os.LookupEnv, and reports all that are missing.
func (d *Definition) ResolveCredentials(lookup func(string) (string, bool)) (map[string]string, error) {
	values := make(map[string]string, len(d.Credentials))
	var errs []error
	for _, c := range d.Credentials {
		v, ok := lookup(c.EnvName())
		if !ok || v == "" {
			errs = append(errs, &MissingCredentialError{Name: c.Name, Env: c.EnvName()})
			continue
		}
		values[c.Name] = v
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return values, nil
}

// envFromName maps a binding name like registry_password to
// REGISTRY_PASSWORD.
func envFromName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return unicode.ToUpper(r)
	}, name)
}
