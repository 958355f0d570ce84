package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/provseq/internal/config"
	"github.com/imamik/provseq/internal/config/wizard"
)

func TestInit_WritesDefinition(t *testing.T) {
	saveAndRestoreFactories(t)
	out := filepath.Join(t.TempDir(), "provseq.yaml")

	runWizard = func(_ context.Context, advanced bool) (*wizard.WizardResult, error) {
		assert.True(t, advanced)
		r := wizard.DefaultResult()
		r.ProjectName = "demo"
		return r, nil
	}

	var err error
	output := captureOutput(func() {
		err = Init(context.Background(), out, true)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Definition written to: "+out)
	assert.Contains(t, output, "export AZURE_SUBSCRIPTION_ID=...")
	assert.Contains(t, output, "export REGISTRY_PASSWORD=...")

	def, err := config.LoadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "demo", def.Name)
	assert.Equal(t, "synai-demo-rg", def.Variables["resource_group"])
}

func TestInit_KeepsExistingFileWhenDeclined(t *testing.T) {
	saveAndRestoreFactories(t)

	fileExists = func(string) bool { return true }
	confirmOverwrite = func(string) (bool, error) { return false, nil }
	runWizard = func(context.Context, bool) (*wizard.WizardResult, error) {
		t.Fatal("wizard must not run")
		return nil, nil
	}

	output := captureOutput(func() {
		require.NoError(t, Init(context.Background(), "provseq.yaml", false))
	})
	assert.Contains(t, output, "Aborted.")
}

func TestInit_WizardCanceled(t *testing.T) {
	saveAndRestoreFactories(t)

	fileExists = func(string) bool { return false }
	runWizard = func(context.Context, bool) (*wizard.WizardResult, error) {
		return nil, errors.New("user aborted")
	}
	writeDefinition = func(*config.Definition, string) error {
		t.Fatal("nothing must be written")
		return nil
	}

	var err error
	captureOutput(func() {
		err = Init(context.Background(), "provseq.yaml", false)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wizard canceled")
}

func TestInit_WriteError(t *testing.T) {
	saveAndRestoreFactories(t)

	fileExists = func(string) bool { return false }
	runWizard = func(context.Context, bool) (*wizard.WizardResult, error) {
		r := wizard.DefaultResult()
		r.ProjectName = "demo"
		return r, nil
	}
	writeDefinition = func(*config.Definition, string) error {
		return errors.New("disk full")
	}

	var err error
	captureOutput(func() {
		err = Init(context.Background(), "provseq.yaml", false)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write definition: disk full")
}
