// Package config loads provisioning definitions and runtime settings.
//
// A [Definition] is the YAML file a user writes: variables, credentials read
// from the environment, and the steps to run. [LoadFile] decodes and
// validates it and records a digest of its bytes; [Definition.Plan] turns it
// into a [provisioning.Plan] for the sequencer. [LoadSettings] reads the
// PROVSEQ_* environment variables that configure where ledgers live and how
// they are written.
package config
