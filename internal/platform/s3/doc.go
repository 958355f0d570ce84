// Package s3 provides a small client for S3 and S3-compatible object
// storage (AWS, MinIO, Cloudflare R2).
//
// It backs the s3:// run-ledger store: bucket bootstrap, object upload and
// download, and prefix listing. Errors from S3-compatible services that do
// not return the SDK's typed errors are classified by API error code.
package s3
