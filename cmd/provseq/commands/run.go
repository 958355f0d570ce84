package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/provseq/cmd/provseq/handlers"
)

// Run returns the command that executes a provisioning definition.
//
// Optional flags:
//
//	--dry-run: Print the execution plan without running anything
//	--tui: Show the live dashboard when stdout is a terminal
//	--run-id: Use this run id instead of a generated one
//	--metrics-file: Write Prometheus metrics to this textfile
func Run(g *handlers.Globals) *cobra.Command {
	var opts handlers.RunOptions

	cmd := &cobra.Command{
		Use:   "run [definition]",
		Short: "Run a provisioning definition",
		Long: `Run every step of a provisioning definition in dependency order.

Steps run one at a time. The first failing step stops the run; its name and
captured stderr are printed and the run can continue later with
'provseq resume <runId>'. Progress is stored in the run ledger (see --state).

If no definition file is given, provseq.yaml is looked up in the current
directory and its parents.

Credentials declared in the definition are read from the environment before
anything runs. Sensitive outputs are stored sealed when PROVSEQ_LEDGER_KEY is
set and not stored at all otherwise.

Examples:
  # Run provseq.yaml from the current directory
  provseq run

  # Show what would run
  provseq run demo.yaml --dry-run

  # Live dashboard and a node_exporter textfile
  provseq run demo.yaml --tui --metrics-file /var/lib/node_exporter/provseq.prom`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Run(cmd.Context(), *g, optionalArg(args), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the execution plan without running anything")
	cmd.Flags().BoolVar(&opts.TUI, "tui", false, "Show the live dashboard")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "Run id to use instead of a generated one")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")

	return cmd
}

// Resume returns the command that continues an earlier run.
func Resume(g *handlers.Globals) *cobra.Command {
	var opts handlers.ResumeOptions

	cmd := &cobra.Command{
		Use:   "resume <runId>",
		Short: "Continue a stopped run",
		Long: `Continue a run from its first pending or failed step.

Succeeded steps are skipped and their outputs restored from the ledger.
Steps whose sensitive outputs were not stored run again.

The definition is reloaded from the path recorded in the ledger. A definition
that changed since the run started is refused unless --force is given.

Examples:
  provseq resume 0b8f6c1e-4a3d-4f55-9d3e-6a8e3f3c2a10

  # Definition moved
  provseq resume 0b8f6c1e-4a3d-4f55-9d3e-6a8e3f3c2a10 --file ./demo.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Resume(cmd.Context(), *g, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Definition file (default: the path recorded in the ledger)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Continue although the definition changed")
	cmd.Flags().BoolVar(&opts.TUI, "tui", false, "Show the live dashboard")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")

	return cmd
}
