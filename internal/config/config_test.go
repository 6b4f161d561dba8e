package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("source: docs\ndestination: out\n"))
	require.NoError(t, err)

	assert.Equal(t, "docs", cfg.Source)
	assert.True(t, cfg.TOC.JSON)
	assert.False(t, cfg.TOC.XML)
	assert.Equal(t, 3, cfg.TOC.Depth)
	assert.Equal(t, 32, cfg.Variables.MaxDepth)
	assert.Equal(t, "wkhtmltopdf", cfg.PDF.Binary)
	assert.Equal(t, time.Second, cfg.PDF.Interval)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	assert.True(t, cfg.Conversion.Attributes)
}

func TestParse_NormalizesLogging(t *testing.T) {
	cfg, err := Parse([]byte("logging:\n  level: WARNING\n  format: ' JSON '\n"))
	require.NoError(t, err)
	assert.Equal(t, LogLevelWarn, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestParse_RejectsNoTOCFormat(t *testing.T) {
	_, err := Parse([]byte("toc:\n  json: false\n  xml: false\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestParse_RejectsSameSourceAndDestination(t *testing.T) {
	_, err := Parse([]byte("source: docs\ndestination: ./docs\n"))
	require.Error(t, err)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("toc: [unclosed"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("DOCPRESS_TEST_OUT", "build/out")
	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte("source: docs\ndestination: ${DOCPRESS_TEST_OUT}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "build/out", cfg.Destination)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestInit_WritesLoadableExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./docs", cfg.Source)

	err = Init(path, false)
	require.Error(t, err)
	require.NoError(t, Init(path, true))
}

func TestValidatePaths_RequiresSourceAndDestination(t *testing.T) {
	cfg := Default()
	require.Error(t, ValidatePaths(cfg))
	cfg.Source = "docs"
	require.Error(t, ValidatePaths(cfg))
	cfg.Destination = "out"
	require.NoError(t, ValidatePaths(cfg))
}
