package wizard

import "github.com/charmbracelet/huh"

// Defaults for the generated deployment.
const (
	DefaultLocation         = "ukwest"
	DefaultImage            = "ghcr.io/tudutu/open-webui:latest"
	DefaultRegistryServer   = "ghcr.io"
	DefaultRegistryUsername = "richardbushnell"
)

// LocationOption represents an Azure region.
type LocationOption struct {
	Value       string
	Label       string
	Description string
}

// Locations contains Azure regions that offer Container Apps.
var Locations = []LocationOption{
	{Value: "ukwest", Label: "ukwest", Description: "UK West (Cardiff)"},
	{Value: "uksouth", Label: "uksouth", Description: "UK South (London)"},
	{Value: "northeurope", Label: "northeurope", Description: "North Europe (Ireland)"},
	{Value: "westeurope", Label: "westeurope", Description: "West Europe (Netherlands)"},
	{Value: "germanywestcentral", Label: "germanywestcentral", Description: "Germany West Central (Frankfurt)"},
	{Value: "eastus", Label: "eastus", Description: "East US (Virginia)"},
	{Value: "westus2", Label: "westus2", Description: "West US 2 (Washington)"},
}

// CPUOptions pairs vCPU with the memory Container Apps requires for it.
var CPUOptions = []huh.Option[string]{
	huh.NewOption("0.5 vCPU / 1.0Gi", "0.5"),
	huh.NewOption("1.0 vCPU / 2.0Gi (Recommended)", "1.0"),
	huh.NewOption("2.0 vCPU / 4.0Gi", "2.0"),
}

// memoryFor returns the memory allocation matching a CPU option.
func memoryFor(cpu string) string {
	switch cpu {
	case "0.5":
		return "1.0Gi"
	case "2.0":
		return "4.0Gi"
	default:
		return "2.0Gi"
	}
}

// LocationsToOptions converts LocationOption slice to huh.Option slice.
func LocationsToOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(Locations))
	for i, loc := range Locations {
		opts[i] = huh.NewOption(loc.Label+" - "+loc.Description, loc.Value)
	}
	return opts
}
