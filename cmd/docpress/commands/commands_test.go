package commands

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpress/internal/config"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfig_AppliesFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "source: ./docs\ndestination: ./out\ntoc:\n  json: true\n")

	cfg, err := LoadConfig(path, SourceFlags{Dest: "./site", Overwrite: true, TOCXML: true, PDF: true})
	require.NoError(t, err)
	assert.Equal(t, "./docs", cfg.Source)
	assert.Equal(t, "./site", cfg.Destination)
	assert.True(t, cfg.Overwrite)
	assert.False(t, cfg.TOC.JSON)
	assert.True(t, cfg.TOC.XML)
	assert.True(t, cfg.PDF.Enabled)
}

func TestLoadConfig_MissingDefaultFileFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(config.DefaultFilename, SourceFlags{Source: "src", Dest: "out"})
	require.NoError(t, err)
	assert.True(t, cfg.TOC.JSON)
	assert.Equal(t, "src", cfg.Source)
}

func TestLoadConfig_MissingExplicitFileFails(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), SourceFlags{Source: "src", Dest: "out"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoadConfig_RequiresSource(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig(config.DefaultFilename, SourceFlags{Dest: "out"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	g := &Global{Logger: slog.Default(), Out: &out}

	cmd := &InitCmd{Output: dir}
	require.NoError(t, cmd.Run(g, &CLI{Config: config.DefaultFilename}))
	assert.FileExists(t, filepath.Join(dir, config.DefaultFilename))
	assert.Contains(t, out.String(), "initialized successfully")

	err := cmd.Run(g, &CLI{Config: config.DefaultFilename})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	cmd.Force = true
	require.NoError(t, cmd.Run(g, &CLI{Config: config.DefaultFilename}))
}

func TestBuildCmd_BuildsAndRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "out")
	writeFile(t, filepath.Join(src, "index.md"), "# Welcome\n\nHello {{product}}.\n")
	writeFile(t, filepath.Join(src, "keyref.yaml"), "product: Widget\n")
	writeFile(t, filepath.Join(src, "toc"), "Docs\n{: .toc}\n    index.md\n")

	cfgPath := filepath.Join(dir, "docpress.yaml")
	writeFile(t, cfgPath, "source: "+src+"\ndestination: "+dest+"\nhistory:\n  path: "+
		filepath.Join(dir, "history.db")+"\nmetrics:\n  textfile: "+filepath.Join(dir, "docpress.prom")+"\n")

	var out bytes.Buffer
	g := &Global{Logger: slog.Default(), Out: &out}
	root := &CLI{Config: cfgPath}

	require.NoError(t, (&BuildCmd{}).Run(g, root))
	assert.Contains(t, out.String(), "Build success")

	html, err := os.ReadFile(filepath.Join(dest, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Hello Widget.")
	assert.FileExists(t, filepath.Join(dest, "toc.json"))
	assert.FileExists(t, filepath.Join(dir, "docpress.prom"))

	out.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 5}).Run(g, root))
	assert.Contains(t, out.String(), "OUTCOME")
	assert.Contains(t, out.String(), "success")
}

func TestHistoryCmd_RequiresHistoryPath(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "docpress.yaml")
	writeFile(t, cfgPath, "toc:\n  json: true\n")

	err := (&HistoryCmd{Limit: 5}).Run(&Global{Logger: slog.Default(), Out: &bytes.Buffer{}}, &CLI{Config: cfgPath})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
