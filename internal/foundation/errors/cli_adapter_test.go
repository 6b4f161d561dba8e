package errors

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"missing source", NotFoundError("source directory not found").Build(), 3},
		{"config", ConfigError("bad yaml").Build(), 7},
		{"filesystem", FileSystemError("cannot create destination").Build(), 11},
		{"internal", InternalError("boom").Build(), 10},
		{"unclassified", errors.New("plain"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)

	userErr := WrapError(errors.New("no such file"), CategoryNotFound, "source directory not found").Build()
	assert.Equal(t, "Error: source directory not found: no such file", quiet.FormatError(userErr))
	assert.Equal(t, userErr.Error(), verbose.FormatError(userErr))

	internal := InternalError("arena index out of range").Build()
	assert.Equal(t, "Internal error occurred (use -v for details)", quiet.FormatError(internal))
	assert.Equal(t, "Error: plain", quiet.FormatError(errors.New("plain")))
	assert.Empty(t, quiet.FormatError(nil))
}
