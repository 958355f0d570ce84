package wizard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefinition_Header(t *testing.T) {
	orig := now
	t.Cleanup(func() { now = orig })
	now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	path := filepath.Join(t.TempDir(), "provseq.yaml")
	require.NoError(t, WriteDefinition(BuildDefinition(demoResult()), path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(content), "# provseq provisioning definition")
	assert.Contains(t, string(content), "# Generated at: 2026-03-01T12:00:00Z")
	assert.Contains(t, string(content), "#   REGISTRY_PASSWORD - Password for the container registry")
	assert.Contains(t, string(content), "provseq run "+path)
	assert.Contains(t, string(content), "name: demo-001")
}

func TestWriteDefinition_FilePermissions(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "provseq.yaml")
	require.NoError(t, WriteDefinition(BuildDefinition(demoResult()), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWriteDefinition_InvalidPath(t *testing.T) {
	t.Parallel()
	err := WriteDefinition(BuildDefinition(demoResult()), filepath.Join(t.TempDir(), "missing", "dir", "provseq.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write file")
}

func TestFileExists(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "x")
	assert.False(t, FileExists(path))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	assert.True(t, FileExists(path))
}

func TestConfirmOverwrite_UsesHook(t *testing.T) {
	orig := confirmOverwrite
	t.Cleanup(func() { confirmOverwrite = orig })

	var asked string
	confirmOverwrite = func(path string) (bool, error) {
		asked = path
		return true, nil
	}

	ok, err := ConfirmOverwrite("provseq.yaml")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "provseq.yaml", asked)
}
