package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/provseq/internal/ledger"
)

func completedRun(t *testing.T, e *testEnv, runID string) {
	t.Helper()
	path := e.writeDefinition(t, "chain.yaml", chainDefinition)
	captureOutput(func() {
		require.NoError(t, Run(context.Background(), Globals{}, path, RunOptions{RunID: runID}))
	})
}

func TestStatus_Text(t *testing.T) {
	e := setupEnv(t)
	completedRun(t, e, "run-1")

	var err error
	output := captureOutput(func() {
		err = Status(context.Background(), Globals{}, "run-1", false)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Run run-1")
	assert.Contains(t, output, "completed")
	assert.Contains(t, output, "x = 5")
	assert.Contains(t, output, "from B")
	assert.NotContains(t, output, "provseq resume")
}

func TestStatus_JSON(t *testing.T) {
	e := setupEnv(t)
	completedRun(t, e, "run-1")

	var err error
	output := captureOutput(func() {
		err = Status(context.Background(), Globals{}, "run-1", true)
	})
	require.NoError(t, err)

	var rec ledger.Record
	require.NoError(t, json.Unmarshal([]byte(output), &rec))
	assert.Equal(t, "run-1", rec.RunID)
	assert.Equal(t, ledger.RunCompleted, rec.State)
	assert.Equal(t, ledger.StepSucceeded, rec.Steps["C"].Status)
}

func TestStatus_UnknownRun(t *testing.T) {
	setupEnv(t)

	err := Status(context.Background(), Globals{}, "nope", false)
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestRenderStatus_Aborted(t *testing.T) {
	saveAndRestoreFactories(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now = func() time.Time { return started.Add(2 * time.Hour) }
	finished := started.Add(90 * time.Second)

	rec := &ledger.Record{
		RunID:      "run-9",
		Definition: "/srv/demo/provseq.yaml",
		State:      ledger.RunAborted,
		Order:      []string{"storage-account", "storage-key"},
		Steps: map[string]*ledger.StepRecord{
			"storage-account": {Name: "storage-account", Status: ledger.StepSucceeded, Attempts: 1, StartedAt: &started, FinishedAt: &finished},
			"storage-key":     {Name: "storage-key", Status: ledger.StepFailed, Attempts: 2, Error: "exit status 1"},
		},
		Bindings: map[string]ledger.Binding{
			"account_name": {Name: "account_name", Value: "synaidemostoacct", Producer: "storage-account"},
			"storage_key":  {Name: "storage_key", Sensitive: true, Withheld: true, Producer: "storage-key"},
		},
		StartedAt:  started,
		UpdatedAt:  finished,
		FailedStep: "storage-key",
		Error:      "exit status 1",
	}

	output := renderStatus(rec)

	assert.Contains(t, output, "2 hours ago")
	assert.Contains(t, output, "1m30s")
	assert.Contains(t, output, "(2 attempts)")
	assert.Contains(t, output, "account_name = synaidemostoacct")
	assert.Contains(t, output, "storage_key = (sensitive, not stored)")
	assert.Contains(t, output, "Stopped at storage-key: exit status 1")
	assert.Contains(t, output, "provseq resume run-9")
}

func TestList(t *testing.T) {
	e := setupEnv(t)
	completedRun(t, e, "run-1")

	var err error
	output := captureOutput(func() {
		err = List(context.Background(), Globals{})
	})
	require.NoError(t, err)
	assert.Contains(t, output, "run-1")
	assert.Contains(t, output, "3/3")
}

func TestList_Empty(t *testing.T) {
	e := setupEnv(t)

	output := captureOutput(func() {
		require.NoError(t, List(context.Background(), Globals{}))
	})
	assert.Contains(t, output, "No runs in "+e.state)
}

func TestReset(t *testing.T) {
	e := setupEnv(t)
	completedRun(t, e, "run-1")

	var err error
	output := captureOutput(func() {
		err = Reset(context.Background(), Globals{}, "run-1", "B")
	})
	require.NoError(t, err)
	assert.Contains(t, output, "Step B of run run-1 reset to pending.")

	store, err := ledger.OpenStore(context.Background(), e.state)
	require.NoError(t, err)
	defer store.Close()
	rec, err := ledger.Get(context.Background(), store, "run-1")
	require.NoError(t, err)
	assert.Equal(t, ledger.StepPending, rec.Steps["B"].Status)
	assert.Equal(t, ledger.RunAborted, rec.State)
	assert.NotContains(t, rec.Bindings, "y")

	captureOutput(func() {
		require.NoError(t, Resume(context.Background(), Globals{}, "run-1", ResumeOptions{}))
	})
	assert.Equal(t, 2, e.runner.called("calc"))
	assert.Equal(t, 1, e.runner.called("touch"))
}

func TestReset_UnknownStep(t *testing.T) {
	e := setupEnv(t)
	completedRun(t, e, "run-1")

	err := Reset(context.Background(), Globals{}, "run-1", "Z")
	require.ErrorIs(t, err, ledger.ErrUnknownStep)
}
