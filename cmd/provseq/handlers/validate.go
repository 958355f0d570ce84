package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imamik/provseq/internal/config"
	"github.com/imamik/provseq/internal/provisioning"
)

// Validate checks a definition file without running anything.
//
// Schema errors, duplicate flags, unsatisfied inputs and cycles fail the
// command. Credentials missing from the environment are reported as
// warnings since they are only needed by run and resume.
func Validate(_ context.Context, path string) error {
	path, err := resolvePath(path)
	if err != nil {
		return err
	}
	def, err := loadDefinition(path)
	if err != nil {
		return err
	}
	if _, err := def.Plan(nil); err != nil {
		return fmt.Errorf("definition validation failed: %w", err)
	}

	fmt.Printf("%s is valid: %d steps\n", path, len(def.Steps))

	if _, err := def.ResolveCredentials(lookupEnv); err != nil {
		var missing *config.MissingCredentialError
		for _, e := range unjoin(err) {
			if errors.As(e, &missing) {
				fmt.Printf("  warning: %s\n", missing.Error())
			}
		}
	}
	return nil
}

// Plan prints the steps of a definition in execution order with their
// commands rendered against the definition's variables. Credentials and
// step outputs stay as placeholders.
func Plan(_ context.Context, path string) error {
	path, err := resolvePath(path)
	if err != nil {
		return err
	}
	def, err := loadDefinition(path)
	if err != nil {
		return err
	}
	plan, err := def.Plan(nil)
	if err != nil {
		return err
	}
	graph, err := plan.Graph()
	if err != nil {
		return err
	}

	fmt.Print(renderPlan(plan, graph))
	return nil
}

func renderPlan(plan *provisioning.Plan, graph *provisioning.Graph) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Plan: %s", plan.Name)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s (%s)", plan.Definition, plan.Digest)))
	b.WriteString("\n\n")

	for i, step := range graph.Order() {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("%2d. %s", i+1, step.Name)))
		b.WriteString("\n")
		fmt.Fprintf(&b, "    %s\n", step.Render(plan.Variables))
		if deps := graph.Dependencies(step.Name); len(deps) > 0 {
			b.WriteString(dimStyle.Render("    after: " + strings.Join(deps, ", ")))
			b.WriteString("\n")
		}
		if outputs := step.Outputs(); len(outputs) > 0 {
			names := make([]string, 0, len(outputs))
			for _, o := range outputs {
				name := o.Name
				if o.Sensitive {
					name += " (sensitive)"
				}
				names = append(names, name)
			}
			b.WriteString(dimStyle.Render("    outputs: " + strings.Join(names, ", ")))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// unjoin flattens an errors.Join tree one level.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
