package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/imamik/provseq/internal/ledger"
)

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderProgressBar(&b, m)
	renderSteps(&b, m)

	if len(m.Logs) > 0 {
		renderLogs(&b, m)
	}

	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := fmt.Sprintf("provseq: %s", m.Definition)
	if m.RunID != "" {
		title += fmt.Sprintf(" (run %s)", m.RunID)
	}
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil || m.Aborted:
		status += failStyle.Render("Aborted")
	case m.Quit:
		status += warnStyle.Render("Detached")
	case m.Done:
		status += okStyle.Render("Completed")
	case m.Resumed:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") + warnStyle.Render("Resuming")
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") + warnStyle.Render("Running")
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	progress := calculateProgress(m)
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = m.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
	}
	filled := int(float64(barWidth) * progress)
	if filled > barWidth {
		filled = barWidth
	}

	bar := okStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", barWidth-filled))

	pct := int(progress * 100)
	eta := ""
	if m.EstimatedRemaining > 0 {
		eta = fmt.Sprintf(" ETA %s", formatDuration(m.EstimatedRemaining))
	}
	if m.PerformanceScale != 0 && m.PerformanceScale != 1.0 {
		eta += fmt.Sprintf("  speed x%.2f", m.PerformanceScale)
	}

	fmt.Fprintf(b, "  %s %d%%%s\n", bar, pct, eta)
}

func renderSteps(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Steps"))
	b.WriteString("\n")

	for _, row := range m.Steps {
		look, ok := stepLooks[row.Status]
		if !ok {
			look = stepLooks[ledger.StepPending]
		}
		detail := ""
		switch {
		case row.Status == ledger.StepFailed:
			detail = row.Message
		case row.Skipped:
			look = skippedLook
			detail = "already succeeded"
		case row.Status == ledger.StepSucceeded:
			detail = formatDuration(row.Duration)
		case row.Status == ledger.StepRunning:
			detail = formatDuration(m.since(row.Started))
		}
		icon := look.icon
		if icon == "" {
			icon = currentSpinner(m.SpinnerFrame)
		}
		fmt.Fprintf(b, "    %s %-24s %s\n", look.style.Render(icon), look.style.Render(row.Name), mutedStyle.Render(truncate(detail, m.Width-34)))
	}
}

func renderLogs(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Log"))
	b.WriteString("\n")
	for _, line := range m.Logs {
		fmt.Fprintf(b, "    %s\n", mutedStyle.Render(truncate(line, m.Width-6)))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := formatDuration(time.Since(m.StartTime))
	b.WriteString(footerStyle.Render(fmt.Sprintf("  elapsed: %s  |  q: quit", elapsed)))
	b.WriteString("\n")
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

// truncate shortens s to width runes when width is positive.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func calculateProgress(m Model) float64 {
	if len(m.Steps) == 0 {
		if m.Done {
			return 1.0
		}
		return 0
	}
	done := 0
	for _, row := range m.Steps {
		if row.Status == ledger.StepSucceeded {
			done++
		}
	}
	return float64(done) / float64(len(m.Steps))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
