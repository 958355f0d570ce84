package ledger

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/imamik/provseq/internal/platform/s3"
)

// objectStore is the subset of the S3 client the store needs.
type objectStore interface {
	EnsureBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
}

// S3Store keeps ledgers as objects in an S3 bucket.
type S3Store struct {
	client objectStore
	bucket string
	prefix string
}

var _ Store = (*S3Store)(nil)

// OpenS3Store opens s3://bucket/prefix?region=&endpoint=&pathStyle=true.
// Credentials come from AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY or the
// default AWS chain.
func OpenS3Store(ctx context.Context, u *url.URL) (*S3Store, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("s3 state location needs a bucket: %s", u.Redacted())
	}
	q := u.Query()

	client, err := s3.NewClient(ctx, s3.Options{
		Endpoint:  q.Get("endpoint"),
		Region:    q.Get("region"),
		AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		PathStyle: q.Get("pathStyle") == "true",
	})
	if err != nil {
		return nil, err
	}

	store := NewS3Store(client, u.Host, u.Path)
	if err := client.EnsureBucket(ctx, store.bucket); err != nil {
		return nil, err
	}
	return store, nil
}

// NewS3Store wraps an object client. prefix is normalised to end in "/".
func NewS3Store(client objectStore, bucket, prefix string) *S3Store {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) Put(ctx context.Context, runID string, data []byte) error {
	return s.client.PutObject(ctx, s.bucket, keyFor(s.prefix, runID), data)
}

func (s *S3Store) Get(ctx context.Context, runID string) ([]byte, error) {
	data, err := s.client.GetObject(ctx, s.bucket, keyFor(s.prefix, runID))
	if err != nil {
		if s3.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	return data, nil
}

func (s *S3Store) List(ctx context.Context) ([]string, error) {
	keys, err := s.client.ListObjects(ctx, s.bucket, s.prefix)
	if err != nil {
		return nil, err
	}
	return runIDsFromKeys(s.prefix, keys), nil
}

func (s *S3Store) Close() error {
	return nil
}
