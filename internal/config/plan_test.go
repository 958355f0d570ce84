package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/provseq/internal/provisioning"
)

func TestPlan(t *testing.T) {
	t.Parallel()
	path := writeDefinition(t, "provseq.yaml", demoDefinition)
	def, err := LoadFile(path)
	require.NoError(t, err)

	plan, err := def.Plan(map[string]string{"registry_password": "pw", "subscription": "sub"})
	require.NoError(t, err)

	assert.Equal(t, "open-webui-demo", plan.Name)
	assert.Equal(t, path, plan.Definition)
	assert.Equal(t, def.Digest, plan.Digest)
	assert.Equal(t, "pw", plan.Credentials["registry_password"])
	assert.Equal(t, "ukwest", plan.Variables["location"])
	require.Len(t, plan.Steps, 3)

	key := plan.Steps[1]
	assert.Equal(t, 5*time.Minute, key.Timeout)
	require.Len(t, key.Outputs(), 1)
	assert.Equal(t, provisioning.RuleLastLine, key.Outputs()[0].Rule)
	assert.True(t, key.Outputs()[0].Sensitive)

	show := plan.Steps[2]
	assert.Equal(t, filepath.Join(filepath.Dir(path), "app.yaml"), show.Save)
	for _, s := range plan.Steps {
		assert.Equal(t, filepath.Dir(path), s.Invocation().Dir, s.Name)
	}
	assert.Equal(t, provisioning.RuleJSON, show.Outputs()[0].Rule)
	assert.Equal(t, "properties.configuration.ingress.fqdn", show.Outputs()[0].Expr)
}

func TestPlan_CredentialsAreSeedsWithoutValues(t *testing.T) {
	t.Parallel()
	def := validDefinition()
	def.Steps[0].Command = "az acr login -p ${registry_password}"

	plan, err := def.Plan(nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"registry_password": ""}, plan.Credentials)
	// an in-memory definition runs in the current directory
	assert.Empty(t, plan.Steps[0].Invocation().Dir)
}

func TestPlan_GraphErrors(t *testing.T) {
	t.Parallel()

	t.Run("unsatisfied", func(t *testing.T) {
		t.Parallel()
		def := validDefinition()
		def.Steps[0].Command = "az group show -n ${nope}"

		_, err := def.Plan(nil)
		var unsat *provisioning.UnsatisfiedDependencyError
		require.ErrorAs(t, err, &unsat)
		assert.Equal(t, "nope", unsat.Input)
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()
		def := validDefinition()
		def.Steps = []StepConfig{
			{Name: "a", Command: "a ${y}", Outputs: []OutputConfig{{Name: "x"}}},
			{Name: "b", Command: "b ${x}", Outputs: []OutputConfig{{Name: "y"}}},
		}

		_, err := def.Plan(nil)
		var cyc *provisioning.CyclicDependencyError
		require.ErrorAs(t, err, &cyc)
	})

	t.Run("regex output", func(t *testing.T) {
		t.Parallel()
		def := validDefinition()
		def.Steps[0].Outputs = []OutputConfig{{Name: "id", Regex: "no group"}}

		_, err := def.Plan(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no capture group")
	})
}

func TestResolvePath(t *testing.T) {
	t.Parallel()
	d := &Definition{Path: filepath.Join("/srv", "defs", "provseq.yaml")}
	assert.Equal(t, filepath.Join("/srv", "defs", "out", "app.yaml"), d.resolvePath(filepath.Join("out", "app.yaml")))
	assert.Equal(t, "/tmp/app.yaml", d.resolvePath("/tmp/app.yaml"))
	assert.Equal(t, "app.yaml", (&Definition{}).resolvePath("app.yaml"))
}
