package provisioning

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Logger is the minimal printf-style logger.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Observer receives progress events from the sequencer.
type Observer interface {
	Logger

	// Event emits a structured event
	Event(event Event)

	// Progress reports how many steps of the run are done
	Progress(current, total int)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured run event.
type Event struct {
	Type      EventType         // Type of event
	Step      string            // Step name, empty for run-level events
	Message   string            // Human-readable message
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of run event.
type EventType string

const (
	// EventRunStarted indicates a run (or resume) has started.
	EventRunStarted EventType = "run.started"
	// EventRunCompleted indicates every step succeeded.
	EventRunCompleted EventType = "run.completed"
	// EventRunAborted indicates the run stopped on a failure or cancellation.
	EventRunAborted EventType = "run.aborted"

	// EventStepStarted indicates a step's command is about to run.
	EventStepStarted EventType = "step.started"
	// EventStepSucceeded indicates a step succeeded.
	EventStepSucceeded EventType = "step.succeeded"
	// EventStepFailed indicates a step failed.
	EventStepFailed EventType = "step.failed"
	// EventStepSkipped indicates a step already succeeded in an earlier attempt.
	EventStepSkipped EventType = "step.skipped"

	// EventProgress indicates progress through the run.
	EventProgress EventType = "progress"
)

// ConsoleObserver implements Observer using standard log package.
type ConsoleObserver struct {
	contextFields map[string]string
}

// NewConsoleObserver creates a new console-based observer.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{
		contextFields: make(map[string]string),
	}
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// Event implements Observer interface.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Merge context fields
	if event.Fields == nil {
		event.Fields = make(map[string]string)
	}
	for k, v := range o.contextFields {
		if _, exists := event.Fields[k]; !exists {
			event.Fields[k] = v
		}
	}

	log.Print(formatEvent(event))
}

// Progress implements Observer interface.
func (o *ConsoleObserver) Progress(current, total int) {
	if total == 0 {
		log.Printf("Progress: %d/%d", current, total)
		return
	}
	log.Printf("Progress: %d/%d (%d%%)", current, total, (current*100)/total)
}

// WithFields implements Observer interface.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	newFields := make(map[string]string, len(o.contextFields)+len(fields))
	for k, v := range o.contextFields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}
	return &ConsoleObserver{contextFields: newFields}
}

// formatEvent renders an event on one line. Fields are sorted so the output
// is stable.
func formatEvent(event Event) string {
	parts := []string{string(event.Type)}

	if event.Step != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Step))
	}
	if event.Message != "" {
		parts = append(parts, event.Message)
	}

	if len(event.Fields) > 0 {
		keys := make([]string, 0, len(event.Fields))
		for k := range event.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fieldParts := make([]string, len(keys))
		for i, k := range keys {
			fieldParts[i] = k + "=" + event.Fields[k]
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(fieldParts, ", ")))
	}

	return strings.Join(parts, " ")
}

// Helper functions for common events

// LogRunStarted logs the start of a run.
func LogRunStarted(observer Observer, steps int, resumed bool) {
	msg := fmt.Sprintf("starting %d steps", steps)
	if resumed {
		msg = fmt.Sprintf("resuming %d steps", steps)
	}
	observer.Event(Event{
		Type:    EventRunStarted,
		Message: msg,
		Fields:  map[string]string{"resumed": strconv.FormatBool(resumed)},
	})
}

// LogRunCompleted logs a completed run.
func LogRunCompleted(observer Observer, duration time.Duration) {
	observer.Event(Event{
		Type:    EventRunCompleted,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogRunAborted logs an aborted run.
func LogRunAborted(observer Observer, step string, err error) {
	observer.Event(Event{
		Type:    EventRunAborted,
		Step:    step,
		Message: fmt.Sprintf("aborted: %v", err),
	})
}

// LogStepStarted logs a step start event.
func LogStepStarted(observer Observer, step, command string) {
	observer.Event(Event{
		Type:    EventStepStarted,
		Step:    step,
		Message: "starting",
		Fields:  map[string]string{"command": command},
	})
}

// LogStepSucceeded logs a step success event.
func LogStepSucceeded(observer Observer, step string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventStepSucceeded,
		Step:    step,
		Message: fmt.Sprintf("succeeded in %v", duration.Round(time.Millisecond)),
	})
}

// LogStepFailed logs a step failure event.
func LogStepFailed(observer Observer, step string, err error) {
	observer.Event(Event{
		Type:    EventStepFailed,
		Step:    step,
		Message: fmt.Sprintf("failed: %v", err),
	})
}

// LogStepSkipped logs a step that is not run again.
func LogStepSkipped(observer Observer, step string) {
	observer.Event(Event{
		Type:    EventStepSkipped,
		Step:    step,
		Message: "already succeeded",
	})
}
