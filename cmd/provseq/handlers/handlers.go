// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"

	"github.com/imamik/provseq/internal/config"
	"github.com/imamik/provseq/internal/executor"
	"github.com/imamik/provseq/internal/ledger"
	"github.com/imamik/provseq/internal/logging"
	"github.com/imamik/provseq/internal/provisioning"
	"github.com/imamik/provseq/internal/util/retry"
)

// Globals carries the persistent root flags.
type Globals struct {
	// State overrides PROVSEQ_STATE when set.
	State   string
	Verbose bool
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadSettings reads PROVSEQ_* environment settings.
	loadSettings = config.LoadSettings

	// openStore opens the ledger store.
	openStore = ledger.OpenStore

	// newRunner creates the process runner used by the executor.
	newRunner = func() executor.Runner {
		return executor.ProcessRunner{}
	}

	// lookupEnv reads credentials from the environment.
	lookupEnv = os.LookupEnv

	// findDefinitionFile auto-detects provseq.yaml.
	findDefinitionFile = config.FindDefinitionFile

	// loadDefinition loads and validates a definition file.
	loadDefinition = config.LoadFile
)

// session holds what every ledger-backed command needs.
type session struct {
	settings   *config.Settings
	store      ledger.Store
	log        logr.Logger
	ledgerOpts []ledger.Option
}

// openSession loads settings, builds the logger and opens the ledger store.
// The returned context carries the logger.
func openSession(ctx context.Context, g Globals) (context.Context, *session, error) {
	settings := loadSettings()
	if g.State != "" {
		settings.State = g.State
	}

	log := logging.New(os.Stderr, g.Verbose)
	ctx = logging.IntoContext(ctx, log)

	store, err := openStore(ctx, settings.State)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to open state %s: %w", settings.State, err)
	}
	log.V(1).Info("opened ledger store", "location", settings.State)

	opts := []ledger.Option{
		ledger.WithRetry(
			retry.WithAttempts(settings.StoreRetryMaxAttempts),
			retry.WithInitialDelay(settings.StoreRetryInitialDelay),
		),
	}
	if sealer := ledger.NewSealer(settings.LedgerKey); sealer != nil {
		opts = append(opts, ledger.WithSealer(sealer))
	} else {
		log.V(1).Info("PROVSEQ_LEDGER_KEY not set, sensitive outputs will not be stored")
	}

	return ctx, &session{settings: settings, store: store, log: log, ledgerOpts: opts}, nil
}

func (s *session) close() {
	if err := s.store.Close(); err != nil {
		s.log.Error(err, "failed to close ledger store")
	}
}

// newSequencer builds a sequencer reporting to obs.
func (s *session) newSequencer(obs provisioning.Observer, m provisioning.Metrics) *provisioning.Sequencer {
	ex := executor.New(newRunner(), executor.WithDefaultTimeout(s.settings.StepTimeout))
	opts := []provisioning.Option{
		provisioning.WithObserver(obs),
		provisioning.WithLedgerOptions(s.ledgerOpts...),
	}
	if m != nil {
		opts = append(opts, provisioning.WithMetrics(m))
	}
	return provisioning.NewSequencer(ex, s.store, opts...)
}

// resolvePath returns path, or the auto-detected definition file.
func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	found, err := findDefinitionFile()
	if err != nil {
		return "", fmt.Errorf("no definition file found: %w\n\nCreate one with: provseq init", err)
	}
	return found, nil
}

// loadPlan loads the definition at path and builds a runnable plan with
// credentials read from the environment.
func loadPlan(path string) (*config.Definition, *provisioning.Plan, error) {
	path, err := resolvePath(path)
	if err != nil {
		return nil, nil, err
	}
	def, err := loadDefinition(path)
	if err != nil {
		return nil, nil, err
	}
	creds, err := def.ResolveCredentials(lookupEnv)
	if err != nil {
		return nil, nil, err
	}
	plan, err := def.Plan(creds)
	if err != nil {
		return nil, nil, err
	}
	return def, plan, nil
}
