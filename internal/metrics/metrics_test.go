package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/provseq/internal/ledger"
)

func TestRecorder_ObserveStep(t *testing.T) {
	t.Parallel()
	r := New("open-webui-demo")

	r.ObserveStep("create-rg", ledger.StepSucceeded, 2*time.Second)
	r.ObserveStep("create-env", ledger.StepFailed, time.Second)
	r.ObserveStep("create-env", ledger.StepSucceeded, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.stepRuns.WithLabelValues("open-webui-demo", "create-rg", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stepRuns.WithLabelValues("open-webui-demo", "create-env", "failed")))
	assert.Equal(t, 3, testutil.CollectAndCount(r.stepRuns))
	assert.Equal(t, 2, testutil.CollectAndCount(r.stepDuration))
}

func TestRecorder_ObserveRun(t *testing.T) {
	t.Parallel()
	r := New("demo")
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	r.ObserveRun(ledger.RunAborted, time.Minute)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runTotal.WithLabelValues("demo", "aborted")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.lastRun.WithLabelValues("demo", "aborted")))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	t.Parallel()
	r := New("demo")
	r.ObserveStep("a", ledger.StepSucceeded, time.Second)
	r.ObserveRun(ledger.RunCompleted, 3*time.Second)

	path := filepath.Join(t.TempDir(), "provseq.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `provseq_step_runs_total{definition="demo",status="succeeded",step="a"} 1`)
	assert.Contains(t, text, `provseq_run_total{definition="demo",state="completed"} 1`)
	assert.Contains(t, text, "# HELP provseq_run_duration_seconds Duration of runs in seconds")
	assert.NotContains(t, text, "go_goroutines")
}
