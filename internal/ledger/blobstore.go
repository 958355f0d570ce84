package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
)

// BlobStore keeps ledgers in a gocloud.dev bucket: local directories, Azure
// Blob Storage, Google Cloud Storage or memory.
type BlobStore struct {
	bucket *blob.Bucket
	prefix string
}

var _ Store = (*BlobStore)(nil)

// OpenBlobStore opens a bucket URL. A "prefix" query parameter is honoured
// by gocloud itself.
func OpenBlobStore(ctx context.Context, bucketURL string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open state bucket %s: %w", bucketURL, err)
	}
	return &BlobStore{bucket: bucket}, nil
}

// OpenDirStore opens a local directory, creating it if needed.
func OpenDirStore(dir string) (*BlobStore, error) {
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{CreateDir: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open state directory %s: %w", dir, err)
	}
	return &BlobStore{bucket: bucket}, nil
}

// NewBlobStore wraps an already open bucket. Keys are placed under prefix.
func NewBlobStore(bucket *blob.Bucket, prefix string) *BlobStore {
	return &BlobStore{bucket: bucket, prefix: prefix}
}

func (s *BlobStore) Put(ctx context.Context, runID string, data []byte) error {
	return s.bucket.WriteAll(ctx, keyFor(s.prefix, runID), data, &blob.WriterOptions{
		ContentType: "application/json",
	})
}

func (s *BlobStore) Get(ctx context.Context, runID string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, keyFor(s.prefix, runID))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	return data, nil
}

func (s *BlobStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.bucket.List(&blob.ListOptions{Prefix: s.prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		if !obj.IsDir {
			keys = append(keys, obj.Key)
		}
	}
	return runIDsFromKeys(s.prefix, keys), nil
}

func (s *BlobStore) Close() error {
	return s.bucket.Close()
}
