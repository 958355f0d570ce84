package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/provseq/internal/config"
	"github.com/imamik/provseq/internal/config/wizard"
)

// Factory function variables for init - can be replaced in tests.
var (
	// fileExists checks if a file exists.
	fileExists = wizard.FileExists

	// confirmOverwrite asks before replacing an existing file.
	confirmOverwrite = wizard.ConfirmOverwrite

	// runWizard runs the interactive questions.
	runWizard = wizard.RunWizard

	// writeDefinition writes the generated definition.
	writeDefinition = wizard.WriteDefinition
)

// Init runs the definition wizard and writes an Azure Container Apps
// definition to outputPath.
func Init(ctx context.Context, outputPath string, advanced bool) error {
	if fileExists(outputPath) {
		ok, err := confirmOverwrite(outputPath)
		if err != nil {
			return fmt.Errorf("failed to confirm overwrite: %w", err)
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	printWelcome()

	result, err := runWizard(ctx, advanced)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	def := wizard.BuildDefinition(result)
	if err := def.Validate(); err != nil {
		return fmt.Errorf("generated definition is invalid: %w", err)
	}

	if err := writeDefinition(def, outputPath); err != nil {
		return fmt.Errorf("failed to write definition: %w", err)
	}

	printInitSuccess(outputPath, def)
	return nil
}

// printWelcome prints the welcome message.
func printWelcome() {
	fmt.Println()
	fmt.Println("provseq - Azure Container Apps provisioning")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("This wizard creates a provisioning definition for one container app")
	fmt.Println("with a persistent Azure Files volume.")
	fmt.Println()
}

// printInitSuccess prints the success message after writing the definition.
func printInitSuccess(outputPath string, def *config.Definition) {
	fmt.Println()
	fmt.Printf("Definition written to: %s\n", outputPath)
	fmt.Println()
	fmt.Printf("  Name:      %s\n", def.Name)
	fmt.Printf("  Location:  %s\n", def.Variables["location"])
	fmt.Printf("  Steps:     %d\n", len(def.Steps))
	fmt.Println()

	if len(def.Credentials) > 0 {
		fmt.Println("Set these environment variables before running:")
		for _, c := range def.Credentials {
			fmt.Printf("  export %s=...\n", c.EnvName())
		}
		fmt.Println()
	}

	fmt.Println("Next steps:")
	fmt.Printf("  provseq doctor %s --azure\n", outputPath)
	fmt.Printf("  provseq run %s\n", outputPath)
}
