package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/imamik/provseq/internal/ledger"
)

// now is swapped in tests so relative times are stable.
var now = time.Now

// Status prints the ledger of one run: its state, every step's status and
// the bindings captured so far. Sensitive values are never printed.
func Status(ctx context.Context, g Globals, runID string, jsonOutput bool) error {
	ctx, sess, err := openSession(ctx, g)
	if err != nil {
		return err
	}
	defer sess.close()

	rec, err := ledger.Get(ctx, sess.store, runID)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Print(renderStatus(rec))
	return nil
}

func renderStatus(rec *ledger.Record) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Run %s", rec.RunID)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Definition: %s\n", rec.Definition)
	fmt.Fprintf(&b, "  State:      %s\n", stateStyle(rec.State).Render(string(rec.State)))
	fmt.Fprintf(&b, "  Started:    %s\n", relTime(rec.StartedAt))
	if rec.CompletedAt != nil {
		fmt.Fprintf(&b, "  Finished:   %s\n", relTime(*rec.CompletedAt))
	} else {
		fmt.Fprintf(&b, "  Updated:    %s\n", relTime(rec.UpdatedAt))
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Steps"))
	b.WriteString("\n")
	for _, name := range rec.Order {
		s, ok := rec.Steps[name]
		if !ok {
			continue
		}
		line := fmt.Sprintf("  %s %-24s %-10s", stepIndicator(s.Status), name, s.Status)
		if d := s.Duration(); d > 0 {
			line += " " + d.Round(time.Second).String()
		}
		if s.Attempts > 1 {
			line += dimStyle.Render(fmt.Sprintf(" (%d attempts)", s.Attempts))
		}
		b.WriteString(line)
		b.WriteString("\n")
		if s.Status == ledger.StepFailed && s.Error != "" {
			b.WriteString(redStyle.Render("      " + s.Error))
			b.WriteString("\n")
		}
	}

	if len(rec.Bindings) > 0 {
		names := make([]string, 0, len(rec.Bindings))
		for name := range rec.Bindings {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("  Outputs"))
		b.WriteString("\n")
		for _, name := range names {
			bind := rec.Bindings[name]
			fmt.Fprintf(&b, "    %s = %s %s\n", name, bindingValue(bind), dimStyle.Render("from "+bind.Producer))
		}
	}

	if rec.State == ledger.RunAborted {
		b.WriteString("\n")
		if rec.FailedStep != "" {
			fmt.Fprintf(&b, "  Stopped at %s: %s\n", rec.FailedStep, rec.Error)
		}
		fmt.Fprintf(&b, "  Continue with: provseq resume %s\n", rec.RunID)
	}
	return b.String()
}

// List prints every run known to the state store, newest first.
func List(ctx context.Context, g Globals) error {
	ctx, sess, err := openSession(ctx, g)
	if err != nil {
		return err
	}
	defer sess.close()

	recs := loadRecords(ctx, sess.store)
	if len(recs) == 0 {
		fmt.Printf("No runs in %s\n", sess.settings.State)
		return nil
	}
	fmt.Print(renderList(recs))
	return nil
}

func renderList(recs []*ledger.Record) string {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].StartedAt.After(recs[j].StartedAt)
	})

	var b strings.Builder
	for _, rec := range recs {
		done := 0
		for _, s := range rec.Steps {
			if s.Status == ledger.StepSucceeded {
				done++
			}
		}
		state := stateStyle(rec.State).Render(fmt.Sprintf("%-11s", rec.State))
		fmt.Fprintf(&b, "%-36s  %s  %d/%d  %-16s  %s\n",
			rec.RunID, state, done, len(rec.Order), relTime(rec.StartedAt), rec.Definition)
	}
	return b.String()
}

func relTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now(), "ago", "from now")
}

// Reset returns one step of a run to pending and drops the outputs it
// produced, so the next resume runs it again.
func Reset(ctx context.Context, g Globals, runID, step string) error {
	ctx, sess, err := openSession(ctx, g)
	if err != nil {
		return err
	}
	defer sess.close()

	l, err := ledger.Open(ctx, sess.store, runID, sess.ledgerOpts...)
	if err != nil {
		return fmt.Errorf("failed to open run %s: %w", runID, err)
	}
	if err := l.Reset(ctx, step); err != nil {
		return fmt.Errorf("failed to reset step %s: %w", step, err)
	}

	fmt.Printf("Step %s of run %s reset to pending.\n", step, runID)
	fmt.Printf("Continue with: provseq resume %s\n", runID)
	return nil
}
