// Package main is the entry point for the provseq CLI.
//
// provseq runs provisioning definitions: ordered, resumable sequences of
// cloud CLI commands whose outputs feed later commands. Progress is kept in
// a run ledger so a failed run continues where it stopped.
//
// Commands: init, validate, plan, run, resume, status, list, reset, doctor.
//
// For detailed usage information, run:
//
//	provseq --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/provseq/cmd/provseq/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
