package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"default", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			log := New(&buf, tt.verbose)

			log.Info("run started", KeyRunID, "r1")
			log.V(1).Info("step detail", KeyStep, "create-rg")

			out := buf.String()
			assert.Contains(t, out, "run started")
			assert.Contains(t, out, "runId=r1")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("step=create-rg")))
		})
	}
}

func TestNew_Error(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	New(&buf, false).Error(errors.New("boom"), "step failed", KeyStep, "mount")

	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "step=mount")
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx := IntoContext(context.Background(), New(&buf, false))

	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), "hello")

	// no logger in context discards
	FromContext(context.Background()).Info("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}
