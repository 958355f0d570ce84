// Package wizard provides an interactive definition wizard for provseq.
//
// This package implements a TUI-based wizard that asks for a project name
// and a few container settings, then generates the Azure Container Apps
// definition: resource group, managed environment, storage account, file
// share, storage mount, container app, config dump and re-apply. It uses
// charmbracelet/huh for form-based input collection.
//
// The main entry point is RunWizard, which returns a WizardResult. Use
// BuildDefinition to convert results to a config.Definition, and
// WriteDefinition to generate the YAML output file.
package wizard
