package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/provseq/cmd/provseq/handlers"
)

// Validate returns the command that checks a definition file.
func Validate() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [definition]",
		Short: "Check a definition file",
		Long: `Check a definition file without running anything.

Reports schema errors, duplicate command flags, inputs no step produces and
dependency cycles. Credentials missing from the environment are warnings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Validate(cmd.Context(), optionalArg(args))
		},
	}
}

// Plan returns the command that prints the execution order.
func Plan() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [definition]",
		Short: "Print the steps in execution order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Plan(cmd.Context(), optionalArg(args))
		},
	}
}
