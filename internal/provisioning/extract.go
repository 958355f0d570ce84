package provisioning

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// OutputRule says how an output value is taken from stdout.
type OutputRule string

const (
	// RuleStdout takes the whole stdout, trimmed.
	RuleStdout OutputRule = "stdout"
	// RuleLastLine takes the last non-empty line.
	RuleLastLine OutputRule = "lastLine"
	// RuleJSON evaluates a gjson path against stdout.
	RuleJSON OutputRule = "json"
	// RuleRegex takes the first capture group of a regular expression.
	RuleRegex OutputRule = "regex"
)

// Output declares a named value a step produces.
type Output struct {
	Name      string
	Rule      OutputRule
	Expr      string // gjson path or regular expression
	Sensitive bool

	re *regexp.Regexp
}

// compile validates the rule and prepares it for extraction.
func (o *Output) compile() error {
	switch o.Rule {
	case RuleStdout, RuleLastLine:
		if o.Expr != "" {
			return fmt.Errorf("output %q: rule %s takes no expression", o.Name, o.Rule)
		}
	case RuleJSON:
		if o.Expr == "" {
			return fmt.Errorf("output %q: json rule needs a path", o.Name)
		}
	case RuleRegex:
		re, err := regexp.Compile(o.Expr)
		if err != nil {
			return fmt.Errorf("output %q: invalid regex: %w", o.Name, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("output %q: regex %q has no capture group", o.Name, o.Expr)
		}
		o.re = re
	default:
		return fmt.Errorf("output %q: unknown rule %q", o.Name, o.Rule)
	}
	return nil
}

// Extract applies the rule to stdout.
func (o *Output) Extract(stdout string) (string, error) {
	missing := func(reason string) error {
		return &MissingOutputError{Output: o.Name, Rule: o.Rule, Reason: reason}
	}

	switch o.Rule {
	case RuleStdout:
		v := strings.TrimSpace(stdout)
		if v == "" {
			return "", missing("stdout is empty")
		}
		return v, nil

	case RuleLastLine:
		lines := strings.Split(stdout, "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			if v := strings.TrimSpace(lines[i]); v != "" {
				return v, nil
			}
		}
		return "", missing("stdout is empty")

	case RuleJSON:
		if !gjson.Valid(stdout) {
			return "", missing("stdout is not valid JSON")
		}
		res := gjson.Get(stdout, o.Expr)
		if !res.Exists() || res.Type == gjson.Null {
			return "", missing(fmt.Sprintf("path %q matched nothing", o.Expr))
		}
		return res.String(), nil

	case RuleRegex:
		re := o.re
		if re == nil {
			var err error
			if re, err = regexp.Compile(o.Expr); err != nil {
				return "", missing(err.Error())
			}
		}
		m := re.FindStringSubmatch(stdout)
		if len(m) < 2 {
			return "", missing(fmt.Sprintf("pattern %q did not match", o.Expr))
		}
		return m[1], nil
	}

	return "", missing(fmt.Sprintf("unknown rule %q", o.Rule))
}
