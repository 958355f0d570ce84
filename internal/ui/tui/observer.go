package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/provseq/internal/provisioning"
)

// sender is the part of *tea.Program the observer uses.
type sender interface {
	Send(msg tea.Msg)
}

// Observer forwards sequencer events to a running program.
type Observer struct {
	p      sender
	fields map[string]string
}

// NewObserver returns an Observer sending to p.
func NewObserver(p sender) *Observer {
	return &Observer{p: p, fields: map[string]string{}}
}

// Printf implements provisioning.Logger.
func (o *Observer) Printf(format string, v ...interface{}) {
	o.p.Send(LogMsg{Line: fmt.Sprintf(format, v...)})
}

// Event implements provisioning.Observer.
func (o *Observer) Event(event provisioning.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	merged := make(map[string]string, len(o.fields)+len(event.Fields))
	for k, v := range o.fields {
		merged[k] = v
	}
	for k, v := range event.Fields {
		merged[k] = v
	}
	event.Fields = merged
	o.p.Send(EventMsg{Event: event})
}

// Progress implements provisioning.Observer. The model derives progress
// from step events.
func (o *Observer) Progress(int, int) {}

// WithFields implements provisioning.Observer.
func (o *Observer) WithFields(fields map[string]string) provisioning.Observer {
	merged := make(map[string]string, len(o.fields)+len(fields))
	for k, v := range o.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Observer{p: o.p, fields: merged}
}
