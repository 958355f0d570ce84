package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefinitionFilenames are checked, in order, by FindDefinitionFile.
var DefinitionFilenames = []string{"provseq.yaml", "provseq.yml"}

// FindDefinitionFile searches the current directory, then each parent, for
// a definition file.
func FindDefinitionFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return findDefinitionFrom(cwd)
}

func findDefinitionFrom(dir string) (string, error) {
	for {
		for _, name := range DefinitionFilenames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("definition file %s not found", DefinitionFilenames[0])
}
