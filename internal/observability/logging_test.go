package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogContext_AccumulatesValues(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	ctx = WithStage(ctx, "toc")
	ctx = WithFolder(ctx, "guide")

	lc := GetContext(ctx)
	assert.Equal(t, "run-123", lc.RunID)
	assert.Equal(t, "toc", lc.Stage)
	assert.Equal(t, "guide", lc.Folder)
	assert.Len(t, Attrs(ctx), 3)
}

func TestAttrs_EmptyContext(t *testing.T) {
	assert.Empty(t, Attrs(context.Background()))
}

func TestLog_PrefixesContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug", "json")

	ctx := WithStage(WithRunID(context.Background(), "r1"), "convert")
	Log(ctx, logger, slog.LevelWarn, "unresolved variable", slog.String("key", "site.name"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "r1", record["run_id"])
	assert.Equal(t, "convert", record["stage"])
	assert.Equal(t, "site.name", record["key"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewLogger_TextFormatFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "text")
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
