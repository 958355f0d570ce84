// Package ledger records the progress of provisioning runs.
//
// A [Record] holds the status of every step of one run together with the
// bindings those steps produced. [Ledger] guards the status transitions
// (pending -> running -> succeeded|failed, failed -> running on resume) and
// persists every change through a [Store] before returning, so a crashed or
// aborted run can be resumed from its last recorded state.
//
// # Stores
//
//   - [BlobStore] - gocloud.dev buckets (local directory, Azure Blob, GCS, memory)
//   - [S3Store] - S3 and S3-compatible object storage
//   - [RedisStore] - Redis
//
// [OpenStore] picks one from a location string.
//
// # Sensitive values
//
// Bindings marked sensitive are sealed with a [Sealer] before they are
// written. Without a sealer they are withheld: the ledger remembers that the
// binding existed but not its value, and [Ledger.Withheld] tells a resume
// which producing steps must run again.
package ledger
