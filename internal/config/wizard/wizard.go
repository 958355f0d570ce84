package wizard

import (
	"context"
	"fmt"
)

// WizardResult holds all the answers from the interactive wizard.
type WizardResult struct {
	// Project identity; every resource name derives from ProjectName.
	ProjectName string
	Location    string

	// Container image and registry
	Image            string
	RegistryServer   string
	RegistryUsername string

	// Container app sizing
	TargetPort  int
	CPU         string
	Memory      string
	MinReplicas int
	MaxReplicas int

	// ShareQuotaGiB sizes the Azure Files share.
	ShareQuotaGiB int
}

// DefaultResult returns the answers used when a question is skipped. They
// reproduce the open-webui demo deployment.
func DefaultResult() *WizardResult {
	return &WizardResult{
		Location:         DefaultLocation,
		Image:            DefaultImage,
		RegistryServer:   DefaultRegistryServer,
		RegistryUsername: DefaultRegistryUsername,
		TargetPort:       8080,
		CPU:              "1.0",
		Memory:           "2.0Gi",
		MinReplicas:      1,
		MaxReplicas:      1,
		ShareQuotaGiB:    1024,
	}
}

// RunWizard runs the interactive definition wizard.
// If advanced is true, the sizing questions are shown; otherwise the
// defaults are kept.
// The context is used for cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context, advanced bool) (*WizardResult, error) {
	result := DefaultResult()

	if err := runProjectGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}

	if err := runImageGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}

	if advanced {
		if err := runSizingGroup(ctx, result); err != nil {
			return nil, fmt.Errorf("sizing: %w", err)
		}
	}

	return result, nil
}
