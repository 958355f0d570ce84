// Package logging builds the structured diagnostics logger.
//
// Diagnostics go to stderr through log/slog and are handed around as a
// logr.Logger in the context. User-facing progress is not logged here; see
// provisioning.Observer.
package logging

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-logr/logr"
)

// Attribute keys shared by every component.
const (
	KeyRunID  = "runId"
	KeyStep   = "step"
	KeyStatus = "status"
	KeyError  = "error"
)

// New returns a text logger writing to w. Verbose enables V(1) messages.
func New(w io.Writer, verbose bool) logr.Logger {
	return NewWithLevel(w, levelFor(verbose))
}

// NewWithLevel returns a text logger writing to w at lvl.
func NewWithLevel(w io.Writer, lvl slog.Level) logr.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})
	return logr.FromSlogHandler(handler)
}

func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// IntoContext stores log in ctx.
func IntoContext(ctx context.Context, log logr.Logger) context.Context {
	return logr.NewContext(ctx, log)
}

// FromContext returns the logger in ctx, or a discarding logger.
func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}
