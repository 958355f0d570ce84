package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDefinitionFrom(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	want := filepath.Join(root, "provseq.yml")
	require.NoError(t, os.WriteFile(want, []byte("steps: []"), 0o600))

	got, err := findDefinitionFrom(nested)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindDefinitionFrom_PrefersYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, name := range DefinitionFilenames {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	got, err := findDefinitionFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "provseq.yaml"), got)
}
