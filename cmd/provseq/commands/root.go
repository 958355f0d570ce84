// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/provseq/cmd/provseq/handlers"
)

// Root returns the root command for the provseq CLI.
//
// The root command serves as the entry point and parent for all subcommands.
// It owns the persistent flags shared by every command.
func Root() *cobra.Command {
	g := &handlers.Globals{}

	cmd := &cobra.Command{
		Use:           "provseq",
		Short:         "Run resumable cloud provisioning sequences",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&g.State, "state", "", "Run ledger location: directory or URL (default: $PROVSEQ_STATE or .provseq/runs)")
	cmd.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "Enable debug logging")

	// Core commands
	cmd.AddCommand(Init())
	cmd.AddCommand(Validate())
	cmd.AddCommand(Plan())
	cmd.AddCommand(Run(g))
	cmd.AddCommand(Resume(g))
	cmd.AddCommand(Status(g))

	// Run maintenance and utility commands
	cmd.AddCommand(List(g))
	cmd.AddCommand(Reset(g))
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// optionalArg returns args[0] or "".
func optionalArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
