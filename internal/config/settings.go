package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultStateLocation is where run ledgers live when PROVSEQ_STATE is unset.
const DefaultStateLocation = ".provseq/runs"

// Settings holds runtime settings that do not belong in a definition file.
// These values can be customized via environment variables.
type Settings struct {
	State                  string        // Ledger store location: directory or URL
	LedgerKey              string        // Passphrase sealing sensitive bindings; empty withholds them
	StepTimeout            time.Duration // Default timeout for steps that declare none; 0 means none
	StoreRetryMaxAttempts  int           // Attempts for each ledger write
	StoreRetryInitialDelay time.Duration // Initial delay between ledger write attempts
}

// LoadSettings loads runtime settings from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - PROVSEQ_STATE (default: .provseq/runs)
//   - PROVSEQ_LEDGER_KEY (default: unset)
//   - PROVSEQ_STEP_TIMEOUT (default: 0, no timeout)
//   - PROVSEQ_STORE_RETRY_MAX_ATTEMPTS (default: 3)
//   - PROVSEQ_STORE_RETRY_INITIAL_DELAY (default: 500ms)
func LoadSettings() *Settings {
	state := os.Getenv("PROVSEQ_STATE")
	if state == "" {
		state = DefaultStateLocation
	}
	return &Settings{
		State:                  state,
		LedgerKey:              os.Getenv("PROVSEQ_LEDGER_KEY"),
		StepTimeout:            parseDuration("PROVSEQ_STEP_TIMEOUT", 0),
		StoreRetryMaxAttempts:  parseInt("PROVSEQ_STORE_RETRY_MAX_ATTEMPTS", 3),
		StoreRetryInitialDelay: parseDuration("PROVSEQ_STORE_RETRY_INITIAL_DELAY", 500*time.Millisecond),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}

	return i
}
