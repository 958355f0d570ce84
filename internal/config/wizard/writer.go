package wizard

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/provseq/internal/config"
)

// Function variable for dependency injection in tests.
var confirmOverwrite = defaultConfirmOverwrite

// now is swapped in tests for a stable header.
var now = time.Now

// WriteDefinition writes the definition to a YAML file with a descriptive
// header.
func WriteDefinition(def *config.Definition, outputPath string) error {
	yamlBytes, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(def, outputPath))
	sb.WriteString("\n")
	sb.Write(yamlBytes)

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// generateHeader creates the YAML file header comment.
func generateHeader(def *config.Definition, outputPath string) string {
	var env strings.Builder
	for _, c := range def.Credentials {
		fmt.Fprintf(&env, "#   %s - %s\n", c.EnvName(), c.Description)
	}
	return fmt.Sprintf(`# provseq provisioning definition
# Generated by: provseq init
# Generated at: %s
#
# Required environment variables:
%s#
# Usage (from this file's directory; %s is written here):
#   az login
#   provseq doctor %s
#   provseq run %s
`, now().Format(time.RFC3339), env.String(), AppConfigFile, outputPath, outputPath)
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ConfirmOverwrite prompts the user to confirm overwriting an existing file.
func ConfirmOverwrite(path string) (bool, error) {
	return confirmOverwrite(path)
}

// defaultConfirmOverwrite is the default implementation that prompts via stdin.
func defaultConfirmOverwrite(path string) (bool, error) {
	fmt.Printf("\nFile already exists: %s\n", path)
	fmt.Print("Overwrite? (y/n): ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false, err
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
