// Package retry retries run-ledger persistence with exponential backoff.
//
// [Do] retries a store operation (blob, S3 or redis write) a bounded number
// of times. Provisioning commands themselves are never retried; a failed
// step aborts the run and waits for an explicit resume.
package retry
