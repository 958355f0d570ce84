package wizard

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/imamik/provseq/internal/util/naming"
)

// runProjectGroup prompts for the project name and location.
func runProjectGroup(ctx context.Context, result *WizardResult) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project Name").
				Description("Lowercase letters, digits and hyphens; resource names derive from it").
				Placeholder("demo-001").
				Value(&result.ProjectName).
				Validate(validateProjectName),
			huh.NewSelect[string]().
				Title("Location").
				Description("Azure region").
				Options(LocationsToOptions()...).
				Value(&result.Location),
		).Title("Project"),
	).RunWithContext(ctx)
}

// runImageGroup prompts for the container image and its registry.
func runImageGroup(ctx context.Context, result *WizardResult) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Container Image").
				Value(&result.Image).
				Validate(validateImage),
			huh.NewInput().
				Title("Registry Server").
				Value(&result.RegistryServer),
			huh.NewInput().
				Title("Registry Username").
				Description("The password is read from REGISTRY_PASSWORD at run time").
				Value(&result.RegistryUsername),
		).Title("Image"),
	).RunWithContext(ctx)
}

// runSizingGroup prompts for port, CPU and replica counts.
func runSizingGroup(ctx context.Context, result *WizardResult) error {
	port := strconv.Itoa(result.TargetPort)
	minReplicas := strconv.Itoa(result.MinReplicas)
	maxReplicas := strconv.Itoa(result.MaxReplicas)

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Target Port").
				Value(&port).
				Validate(validatePort),
			huh.NewSelect[string]().
				Title("CPU").
				Options(CPUOptions...).
				Value(&result.CPU),
			huh.NewInput().
				Title("Min Replicas").
				Value(&minReplicas).
				Validate(validateReplicas),
			huh.NewInput().
				Title("Max Replicas").
				Value(&maxReplicas).
				Validate(func(s string) error {
					return validateReplicaRange(minReplicas, s)
				}),
		).Title("Sizing"),
	).RunWithContext(ctx)

	if err != nil {
		return err
	}

	if err := validateReplicaRange(minReplicas, maxReplicas); err != nil {
		return err
	}
	result.TargetPort, _ = strconv.Atoi(port)
	result.MinReplicas, _ = strconv.Atoi(minReplicas)
	result.MaxReplicas, _ = strconv.Atoi(maxReplicas)
	result.Memory = memoryFor(result.CPU)
	return nil
}

// validateProjectName checks the project name is a DNS label and that the
// storage account name derived from it is valid.
func validateProjectName(s string) error {
	if s == "" {
		return errProjectNameRequired
	}
	if len(validation.IsDNS1123Label(s)) > 0 {
		return errProjectNameInvalid
	}
	return naming.ValidateStorageAccount(naming.StorageAccount(s))
}

func validateImage(s string) error {
	if strings.TrimSpace(s) == "" {
		return errImageRequired
	}
	return nil
}

func validatePort(s string) error {
	if n, err := strconv.Atoi(s); err != nil || n < 1 || n > 65535 {
		return errPortInvalid
	}
	return nil
}

func validateReplicas(s string) error {
	if n, err := strconv.Atoi(s); err != nil || n < 0 || n > 300 {
		return errReplicasInvalid
	}
	return nil
}

// validateReplicaRange checks both counts and that min does not exceed max.
func validateReplicaRange(minReplicas, maxReplicas string) error {
	if err := validateReplicas(minReplicas); err != nil {
		return err
	}
	if err := validateReplicas(maxReplicas); err != nil {
		return err
	}
	lo, _ := strconv.Atoi(minReplicas)
	hi, _ := strconv.Atoi(maxReplicas)
	if lo > hi {
		return errReplicaRange
	}
	return nil
}
