package provisioning

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/provseq/internal/executor"
)

func TestDeclare_InputsIncludePlaceholders(t *testing.T) {
	t.Parallel()
	s := mustDeclare(t, "mount",
		"az containerapp env storage set -g ${resource_group} -n ${env} --account-key ${storage_key}",
		[]string{"share"}, nil,
		WithEnv(map[string]string{"AZURE_SUBSCRIPTION_ID": "${subscription}"}),
		WithTimeout(time.Minute),
	)

	assert.Equal(t, []string{"env", "resource_group", "share", "storage_key", "subscription"}, s.Inputs())
	assert.Equal(t, time.Minute, s.Invocation().Timeout)
	assert.Empty(t, s.Outputs())
}

func TestDeclare_DefaultsSingleOutputToStdout(t *testing.T) {
	t.Parallel()
	s := mustDeclare(t, "a", "echo 5", nil, []Output{{Name: "x"}})
	require.Len(t, s.Outputs(), 1)
	assert.Equal(t, RuleStdout, s.Outputs()[0].Rule)
}

func TestDeclare_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		step    string
		command string
		inputs  []string
		outputs []Output
		wantErr string
	}{
		{"no name", "", "echo", nil, nil, "step name is required"},
		{"empty command", "a", "  ", nil, nil, "command is empty"},
		{"unbalanced quote", "a", `echo "oops`, nil, nil, "failed to parse command"},
		{"bad input name", "a", "echo", []string{"1x"}, nil, `invalid input name "1x"`},
		{"bad output name", "a", "echo", nil, []Output{{Name: "a b"}}, "invalid output name"},
		{"output twice", "a", "echo", nil, []Output{{Name: "x", Rule: RuleStdout}, {Name: "x", Rule: RuleLastLine}}, "declared twice"},
		{"several outputs without rule", "a", "echo", nil, []Output{{Name: "x"}, {Name: "y", Rule: RuleLastLine}}, "needs a rule"},
		{"bad rule", "a", "echo", nil, []Output{{Name: "x", Rule: RuleRegex, Expr: "nogroup"}}, "no capture group"},
		{"unquoted hash drops placeholder", "a", "az tag update --operation merge --tags color= #${colour}", nil, nil, "unquoted '#'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Declare(tt.step, tt.command, tt.inputs, tt.outputs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStep_Run_ExtractsOutputs(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner(map[string]executor.Result{
		"az": okResult(`{"name":"synaidemostoacct","primaryEndpoints":{"file":"https://synaidemostoacct.file.core.windows.net/"}}`),
	})
	s := mustDeclare(t, "storage", "az storage account create -n ${account}", nil, []Output{
		{Name: "account_name", Rule: RuleJSON, Expr: "name"},
		{Name: "file_endpoint", Rule: RuleJSON, Expr: "primaryEndpoints.file"},
	})

	values, err := s.Run(context.Background(), executor.New(runner), map[string]string{"account": "synaidemostoacct"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"account_name":  "synaidemostoacct",
		"file_endpoint": "https://synaidemostoacct.file.core.windows.net/",
	}, values)
	assert.Equal(t, []string{"az storage account create -n synaidemostoacct"}, runner.called())
}

func TestStep_Run_NonZeroExit(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner(map[string]executor.Result{
		"az": {ExitCode: 3, Stderr: "(ResourceGroupNotFound) Resource group 'x' could not be found."},
	})
	s := mustDeclare(t, "env", "az containerapp env create -g x", nil, nil)

	_, err := s.Run(context.Background(), executor.New(runner), nil)

	var cmdErr *CommandFailedError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Contains(t, cmdErr.Stderr, "ResourceGroupNotFound")
}

func TestStep_Run_MissingOutputOnSuccess(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner(nil)
	s := mustDeclare(t, "a", "true", nil, []Output{{Name: "x"}})

	_, err := s.Run(context.Background(), executor.New(runner), nil)

	var missing *MissingOutputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "x", missing.Output)
}

func TestStep_Run_UnresolvedVariable(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner(nil)
	s := mustDeclare(t, "a", "echo ${nope}", nil, nil)

	_, err := s.Run(context.Background(), executor.New(runner), map[string]string{})

	var unresolved *executor.UnresolvedVariableError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "nope", unresolved.Name)
	assert.Empty(t, runner.called())
}

func TestStep_Run_SavesYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out", "app.yaml")
	runner := newFakeRunner(map[string]executor.Result{
		"az": okResult(`{"name":"open-webui","properties":{"template":{"containers":[{"image":"ghcr.io/open-webui/open-webui:main"}]}}}`),
	})
	s := mustDeclare(t, "dump", "az containerapp show -n open-webui", nil, nil, WithSave(path))

	_, err := s.Run(context.Background(), executor.New(runner), nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name: open-webui\nproperties:\n  template:\n    containers:\n    - image: ghcr.io/open-webui/open-webui:main\n", string(data))
}

func TestStep_Run_SavesRawForOtherExtensions(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "app.json")
	runner := newFakeRunner(map[string]executor.Result{"az": okResult(`{"a":1}`)})
	s := mustDeclare(t, "dump", "az containerapp show", nil, nil, WithSave(path))

	_, err := s.Run(context.Background(), executor.New(runner), nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestStep_Render(t *testing.T) {
	t.Parallel()
	s := mustDeclare(t, "rg", "az group create -n ${rg} -l ${location}", nil, nil)
	assert.Equal(t, "az group create -n synai-demo-rg -l ${location}", s.Render(map[string]string{"rg": "synai-demo-rg"}))
}
