package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProjectName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "demo-001", false},
		{"single char", "a", false},
		{"empty", "", true},
		{"uppercase", "Demo", true},
		{"leading hyphen", "-demo", true},
		{"underscore", "demo_1", true},
		// synai + 13 chars + stoacct is 25 characters
		{"storage account too long", "abcdefghijklm", true},
		{"dashes do not count", "abc-def-ghi-jkl", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateProjectName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePort(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validatePort("8080"))
	assert.ErrorIs(t, validatePort("0"), errPortInvalid)
	assert.ErrorIs(t, validatePort("70000"), errPortInvalid)
	assert.ErrorIs(t, validatePort("http"), errPortInvalid)
}

func TestValidateReplicas(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateReplicas("0"))
	assert.NoError(t, validateReplicas("3"))
	assert.ErrorIs(t, validateReplicas("-1"), errReplicasInvalid)
	assert.ErrorIs(t, validateReplicas("many"), errReplicasInvalid)
}

func TestValidateReplicaRange(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		min, max string
		want     error
	}{
		{"equal", "1", "1", nil},
		{"scale to zero", "0", "3", nil},
		{"min above max", "3", "1", errReplicaRange},
		{"bad min", "x", "1", errReplicasInvalid},
		{"bad max", "1", "301", errReplicasInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateReplicaRange(tt.min, tt.max)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateImage(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateImage(DefaultImage))
	assert.ErrorIs(t, validateImage("  "), errImageRequired)
}

func TestMemoryFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "1.0Gi", memoryFor("0.5"))
	assert.Equal(t, "2.0Gi", memoryFor("1.0"))
	assert.Equal(t, "4.0Gi", memoryFor("2.0"))
}

func TestLocationsToOptions(t *testing.T) {
	t.Parallel()
	opts := LocationsToOptions()
	assert.Len(t, opts, len(Locations))
	assert.Equal(t, DefaultLocation, opts[0].Value)
}
