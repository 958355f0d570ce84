package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/provseq/cmd/provseq/handlers"
)

// Status returns the command that shows the ledger of one run.
func Status(g *handlers.Globals) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <runId>",
		Short: "Show the state of a run",
		Long: `Show the state of a run: every step's status and the outputs captured so far.

Sensitive outputs are never printed.

Examples:
  provseq status 0b8f6c1e-4a3d-4f55-9d3e-6a8e3f3c2a10

  # Machine-readable ledger
  provseq status 0b8f6c1e-4a3d-4f55-9d3e-6a8e3f3c2a10 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Status(cmd.Context(), *g, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

// List returns the command that lists known runs.
func List(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List runs in the state store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.List(cmd.Context(), *g)
		},
	}
}

// Reset returns the command that marks one step of a run pending again.
func Reset(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <runId> <step>",
		Short: "Mark a step pending so resume runs it again",
		Long: `Mark a step pending and drop the outputs it produced.

The next 'provseq resume' runs the step again. Steps that consumed its outputs
are not reset; reset them too if they must see the new values.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Reset(cmd.Context(), *g, args[0], args[1])
		},
	}
}
