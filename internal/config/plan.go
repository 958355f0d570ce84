package config

import (
	"fmt"
	"path/filepath"

	"github.com/imamik/provseq/internal/provisioning"
)

// Plan declares the definition's steps and checks the dependency graph.
// creds supplies credential values; credentials absent from it are still
// seeds with empty values, which is enough to validate or display a plan.
func (d *Definition) Plan(creds map[string]string) (*provisioning.Plan, error) {
	plan := &provisioning.Plan{
		Name:        d.Name,
		Definition:  d.Path,
		Digest:      d.Digest,
		Variables:   make(map[string]string, len(d.Variables)),
		Credentials: make(map[string]string, len(d.Credentials)),
	}
	for k, v := range d.Variables {
		plan.Variables[k] = v
	}
	for _, c := range d.Credentials {
		plan.Credentials[c.Name] = creds[c.Name]
	}

	for i := range d.Steps {
		step, err := d.declare(&d.Steps[i])
		if err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, step)
	}

	if _, err := plan.Graph(); err != nil {
		return nil, err
	}
	return plan, nil
}

func (d *Definition) declare(sc *StepConfig) (*provisioning.Step, error) {
	outputs := make([]provisioning.Output, 0, len(sc.Outputs))
	for _, o := range sc.Outputs {
		out := provisioning.Output{
			Name:      o.Name,
			Rule:      provisioning.OutputRule(o.Rule),
			Expr:      o.Expr,
			Sensitive: o.Sensitive,
		}
		switch {
		case o.JSON != "":
			out.Rule, out.Expr = provisioning.RuleJSON, o.JSON
		case o.Regex != "":
			out.Rule, out.Expr = provisioning.RuleRegex, o.Regex
		}
		outputs = append(outputs, out)
	}

	var opts []provisioning.StepOption
	if len(sc.Env) > 0 {
		opts = append(opts, provisioning.WithEnv(sc.Env))
	}
	if sc.Timeout > 0 {
		opts = append(opts, provisioning.WithTimeout(sc.Timeout))
	}
	if sc.Save != "" {
		opts = append(opts, provisioning.WithSave(d.resolvePath(sc.Save)))
	}
	// commands run next to the definition, where save paths resolve
	if d.Path != "" {
		opts = append(opts, provisioning.WithDir(filepath.Dir(d.Path)))
	}

	step, err := provisioning.Declare(sc.Name, sc.Command, sc.Inputs, outputs, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid step: %w", err)
	}
	return step, nil
}

// resolvePath makes p relative to the definition's directory.
func (d *Definition) resolvePath(p string) string {
	if filepath.IsAbs(p) || d.Path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(d.Path), p)
}
