package ledger

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Store persists serialized ledgers keyed by run id.
type Store interface {
	// Put writes the ledger for runID, replacing any previous version.
	Put(ctx context.Context, runID string, data []byte) error

	// Get returns the ledger for runID or an error wrapping ErrNotFound.
	Get(ctx context.Context, runID string) ([]byte, error)

	// List returns all known run ids, sorted.
	List(ctx context.Context) ([]string, error)

	Close() error
}

// OpenStore opens the store addressed by location:
//
//	.provseq/runs                      local directory
//	file:///var/lib/provseq            local directory (gocloud fileblob URL)
//	mem://                             in-memory, for tests
//	azblob://container?prefix=runs/    Azure Blob Storage
//	gs://bucket?prefix=runs/           Google Cloud Storage
//	s3://bucket/runs?region=eu-west-1  S3 or S3-compatible (endpoint=, pathStyle=true)
//	redis://host:6379/0                Redis
func OpenStore(ctx context.Context, location string) (Store, error) {
	if location == "" {
		return nil, fmt.Errorf("state location is empty")
	}

	u, err := url.Parse(location)
	// single-letter schemes are Windows drive letters
	if err != nil || len(u.Scheme) < 2 {
		return OpenDirStore(location)
	}

	switch u.Scheme {
	case "s3":
		return OpenS3Store(ctx, u)
	case "redis", "rediss":
		return OpenRedisStore(ctx, location)
	default:
		return OpenBlobStore(ctx, location)
	}
}

const ledgerExt = ".json"

func keyFor(prefix, runID string) string {
	return prefix + runID + ledgerExt
}

// runIDsFromKeys maps object keys under prefix back to run ids.
func runIDsFromKeys(prefix string, keys []string) []string {
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) || !strings.HasSuffix(k, ledgerExt) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(k, prefix), ledgerExt)
		if id == "" || strings.Contains(id, "/") {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
