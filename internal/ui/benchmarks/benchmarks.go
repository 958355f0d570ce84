// Package benchmarks provides timing estimates for provisioning steps.
package benchmarks

import (
	"time"

	"github.com/imamik/provseq/internal/ledger"
)

// DefaultStepDuration is assumed for a step with no recorded timing. Most az
// create commands finish within a minute; environments take longer.
const DefaultStepDuration = 45 * time.Second

// Timings holds expected step durations, usually taken from an earlier run.
type Timings map[string]time.Duration

// FromRecord collects the durations of the succeeded steps of a run.
func FromRecord(rec *ledger.Record) Timings {
	t := make(Timings)
	if rec == nil {
		return t
	}
	for name, s := range rec.Steps {
		if s.Status == ledger.StepSucceeded {
			if d := s.Duration(); d > 0 {
				t[name] = d
			}
		}
	}
	return t
}

// Latest returns timings from the most recently completed run of definition
// among recs, or empty timings.
func Latest(recs []*ledger.Record, definition string) Timings {
	var best *ledger.Record
	for _, r := range recs {
		if r == nil || r.Definition != definition || r.State != ledger.RunCompleted || r.CompletedAt == nil {
			continue
		}
		if best == nil || r.CompletedAt.After(*best.CompletedAt) {
			best = r
		}
	}
	return FromRecord(best)
}

// Expected returns the expected duration of step.
func (t Timings) Expected(step string) time.Duration {
	if d, ok := t[step]; ok {
		return d
	}
	return DefaultStepDuration
}

// EstimateRemaining calculates the estimated time remaining: what is left of
// the current step plus every pending step, stretched by scale.
func EstimateRemaining(t Timings, current string, elapsed time.Duration, pending []string, scale float64) time.Duration {
	var remaining time.Duration

	if current != "" {
		expected := time.Duration(float64(t.Expected(current)) * scale)
		if expected > elapsed {
			remaining += expected - elapsed
		}
	}

	for _, step := range pending {
		remaining += time.Duration(float64(t.Expected(step)) * scale)
	}

	return remaining
}

// PerformanceScale derives a speed multiplier from observed-vs-expected durations.
// Example: expected 3m, observed 4m30s => scale=1.5 (future ETAs are stretched by 50%).
func PerformanceScale(t Timings, observed Timings, current string, elapsed time.Duration) float64 {
	var expectedTotal time.Duration
	var actualTotal time.Duration

	for step, d := range observed {
		expectedTotal += t.Expected(step)
		actualTotal += d
	}

	// If current step is overrunning, fold it in immediately so ETA adapts quickly.
	if current != "" && elapsed > 0 {
		if expected := t.Expected(current); elapsed > expected {
			expectedTotal += expected
			actualTotal += elapsed
		}
	}

	if expectedTotal == 0 || actualTotal == 0 {
		return 1.0
	}

	scale := float64(actualTotal) / float64(expectedTotal)
	if scale < 0.6 {
		return 0.6
	}
	if scale > 3.0 {
		return 3.0
	}
	return scale
}

// TotalEstimate returns the total estimated duration of steps.
func TotalEstimate(t Timings, steps []string) time.Duration {
	return EstimateRemaining(t, "", 0, steps, 1.0)
}
