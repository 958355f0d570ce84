package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/provseq/cmd/provseq/handlers"
	"github.com/imamik/provseq/internal/config"
)

// Init returns the command for interactively creating a definition.
//
// Flags:
//
//	--output, -o: Path to output file (default "provseq.yaml")
//	--advanced, -a: Ask the container sizing questions too
func Init() *cobra.Command {
	var (
		outputPath string
		advanced   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a provisioning definition",
		Long: `Interactively create an Azure Container Apps provisioning definition.

The wizard asks for a project name, a location and the container image, and
writes a definition that creates:

  - a resource group and a Container Apps environment
  - a storage account, an Azure Files share and the environment storage mount
  - the container app, with its configuration dumped to app.yaml and
    re-applied with the file share mounted as a volume

Use --advanced to also set port, CPU, memory and replica counts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath, advanced)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", config.DefinitionFilenames[0], "Output file path")
	cmd.Flags().BoolVarP(&advanced, "advanced", "a", false, "Ask the container sizing questions")

	return cmd
}
