package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyFolder     = "folder"
	KeyTOC        = "toc"
	KeyFormat     = "format"
	KeyReference  = "reference"
	KeyLevel      = "level"
	KeyKey        = "key"
	KeySection    = "section"
	KeyHook       = "hook"
	KeyPlugin     = "plugin"
	KeyCategory   = "category"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Folder(f string) slog.Attr       { return slog.String(KeyFolder, f) }
func TOC(p string) slog.Attr          { return slog.String(KeyTOC, p) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Reference(r string) slog.Attr    { return slog.String(KeyReference, r) }
func Level(l int) slog.Attr           { return slog.Int(KeyLevel, l) }
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func Hook(h string) slog.Attr         { return slog.String(KeyHook, h) }
func Plugin(name string) slog.Attr    { return slog.String(KeyPlugin, name) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
