package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/provseq/cmd/provseq/handlers"
)

// Doctor returns the command that checks a machine can run a definition.
//
// Optional flags:
//
//	--azure: Also check Azure credentials and subscription access
func Doctor() *cobra.Command {
	var checkAzure bool

	cmd := &cobra.Command{
		Use:   "doctor [definition]",
		Short: "Check tools and credentials",
		Long: `Check that a definition can run on this machine.

  - Every tool the definition names, and the program of every step, is in PATH
  - Every credential environment variable is set
  - With --azure: DefaultAzureCredential obtains a token and the subscription
    from AZURE_SUBSCRIPTION_ID lists resource groups

Without a definition only the az CLI is checked.

Examples:
  provseq doctor
  provseq doctor demo.yaml --azure`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Doctor(cmd.Context(), optionalArg(args), checkAzure)
		},
	}

	cmd.Flags().BoolVar(&checkAzure, "azure", false, "Check Azure credentials and subscription access")

	return cmd
}
