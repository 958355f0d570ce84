// Package tui provides a Bubble Tea-based terminal UI for provisioning runs.
package tui

import "github.com/imamik/provseq/internal/provisioning"

// EventMsg carries a sequencer event.
type EventMsg struct {
	Event provisioning.Event
}

// LogMsg carries a free-form log line.
type LogMsg struct {
	Line string
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the run function returned.
type DoneMsg struct{}
