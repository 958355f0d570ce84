// Package metrics collects run and step measurements in Prometheus format.
//
// A CLI run is short-lived, so nothing is served over HTTP. The collected
// series are written to a node_exporter textfile with WriteTextfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/provseq/internal/ledger"
)

// Recorder holds the metrics of one process. Each Recorder has its own
// registry so textfiles only contain provseq series.
type Recorder struct {
	registry   *prometheus.Registry
	definition string

	stepRuns     *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	runTotal     *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	lastRun      *prometheus.GaugeVec
	now          func() time.Time
}

// New creates a Recorder. definition labels every series.
func New(definition string) *Recorder {
	r := &Recorder{
		registry:   prometheus.NewRegistry(),
		definition: definition,
		now:        time.Now,

		stepRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provseq",
				Subsystem: "step",
				Name:      "runs_total",
				Help:      "Total number of step executions by result",
			},
			[]string{"definition", "step", "status"},
		),

		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "provseq",
				Subsystem: "step",
				Name:      "duration_seconds",
				Help:      "Duration of step commands in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 500ms to ~4min
			},
			[]string{"definition", "step"},
		),

		runTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provseq",
				Subsystem: "run",
				Name:      "total",
				Help:      "Total number of finished runs by final state",
			},
			[]string{"definition", "state"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "provseq",
				Subsystem: "run",
				Name:      "duration_seconds",
				Help:      "Duration of runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(10, 2, 8), // 10s to ~21min
			},
			[]string{"definition"},
		),

		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "provseq",
				Subsystem: "run",
				Name:      "last_finished_timestamp_seconds",
				Help:      "Unix time the last run finished, by final state",
			},
			[]string{"definition", "state"},
		),
	}

	r.registry.MustRegister(r.stepRuns, r.stepDuration, r.runTotal, r.runDuration, r.lastRun)
	return r
}

// ObserveStep records one step execution.
func (r *Recorder) ObserveStep(step string, status ledger.StepStatus, duration time.Duration) {
	r.stepRuns.WithLabelValues(r.definition, step, string(status)).Inc()
	r.stepDuration.WithLabelValues(r.definition, step).Observe(duration.Seconds())
}

// ObserveRun records a finished run.
func (r *Recorder) ObserveRun(state ledger.RunState, duration time.Duration) {
	r.runTotal.WithLabelValues(r.definition, string(state)).Inc()
	r.runDuration.WithLabelValues(r.definition).Observe(duration.Seconds())
	r.lastRun.WithLabelValues(r.definition, string(state)).Set(float64(r.now().Unix()))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all series to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
