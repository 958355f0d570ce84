package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "run-b", []byte(`{"runId":"run-b"}`)))
	require.NoError(t, store.Put(ctx, "run-a", []byte(`{"runId":"run-a"}`)))
	require.NoError(t, store.Put(ctx, "run-a", []byte(`{"runId":"run-a","state":"completed"}`)))

	data, err := store.Get(ctx, "run-a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"runId":"run-a","state":"completed"}`, string(data))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-a", "run-b"}, ids)
}

func TestBlobStore_Mem(t *testing.T) {
	t.Parallel()
	exerciseStore(t, memStore(t))
}

func TestOpenStore_Directory(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "state", "runs")

	store, err := OpenStore(context.Background(), dir)
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &BlobStore{}, store)
	exerciseStore(t, store)
}

func TestOpenStore_MemURL(t *testing.T) {
	t.Parallel()
	store, err := OpenStore(context.Background(), "mem://")
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestOpenStore_Redis(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)

	store, err := OpenStore(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &RedisStore{}, store)
	exerciseStore(t, store)
	assert.True(t, mr.Exists("provseq:run:run-a"))
}

func TestOpenStore_RedisUnreachable(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := OpenStore(context.Background(), "redis://"+addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestOpenStore_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := OpenStore(ctx, "")
	require.Error(t, err)

	_, err = OpenStore(ctx, "s3:///no-bucket")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a bucket")

	_, err = OpenStore(ctx, "unknownscheme://x")
	require.Error(t, err)
}

// fakeObjects is an in-memory objectStore.
type fakeObjects struct {
	objects map[string][]byte
	ensured []string
}

var errNoSuchKey = errors.New("NoSuchKey")

func (f *fakeObjects) EnsureBucket(_ context.Context, bucket string) error {
	f.ensured = append(f.ensured, bucket)
	return nil
}

func (f *fakeObjects) PutObject(_ context.Context, bucket, key string, data []byte) error {
	f.objects[bucket+"/"+key] = data
	return nil
}

func (f *fakeObjects) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, errNoSuchKey)
	}
	return data, nil
}

func (f *fakeObjects) ListObjects(_ context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	for k := range f.objects {
		key := strings.TrimPrefix(k, bucket+"/")
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func TestS3Store(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fake := &fakeObjects{objects: map[string][]byte{}}
	store := NewS3Store(fake, "ledgers", "/provseq/runs/")

	require.NoError(t, store.Put(ctx, "run-a", []byte(`{}`)))
	assert.Contains(t, fake.objects, "ledgers/provseq/runs/run-a.json")

	fake.objects["ledgers/provseq/runs/nested/x.json"] = []byte(`{}`)
	fake.objects["ledgers/provseq/runs/notes.txt"] = []byte(`hi`)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-a"}, ids)

	data, err := store.Get(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestRunIDsFromKeys(t *testing.T) {
	t.Parallel()
	got := runIDsFromKeys("runs/", []string{
		"runs/b.json", "runs/a.json", "runs/.json", "other/c.json", "runs/d.json.attrs", "runs/x/y.json",
	})
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestOpenS3Store_ParsesLocation(t *testing.T) {
	t.Parallel()
	u, err := url.Parse("s3://ledgers/provseq?region=eu-central-1&pathStyle=true")
	require.NoError(t, err)
	assert.Equal(t, "ledgers", u.Host)
	assert.Equal(t, "/provseq", u.Path)
	assert.Equal(t, "true", u.Query().Get("pathStyle"))
}
