// Package provisioning sequences provisioning steps.
//
// # Core Types
//
// Step wraps one command with the bindings it needs (inputs) and the values
// it extracts from stdout (outputs). Graph orders steps by those names;
// Kahn's algorithm picks the earliest-declared ready step so the order is
// stable across runs. Sequencer walks the graph one step at a time, stops at
// the first failure and records every transition in a ledger.Ledger, which
// is what Resume reads to skip steps that already succeeded.
//
// # Errors
//
// Step failures are returned as *StepError wrapping one of
// *CommandFailedError, *MissingOutputError or *executor.UnresolvedVariableError.
// Graph construction returns *UnsatisfiedDependencyError,
// *CyclicDependencyError, *DuplicateStepError or *DuplicateOutputError.
// A cancelled run returns an error wrapping ErrAborted.
package provisioning
