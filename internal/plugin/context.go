package plugin

import (
	"log/slog"
	"maps"
)

// Context gives plugins what they need to set themselves up for a run.
type Context struct {
	// Logger provides structured logging for plugin operations.
	Logger *slog.Logger

	// SourceRoot is the root of the markdown tree.
	SourceRoot string

	// DestRoot is the root of the generated output.
	DestRoot string

	// RunID uniquely identifies this run.
	RunID string

	// Data carries plugin settings from the configuration file, keyed by
	// plugin name.
	Data map[string]any
}

// NewContext creates a plugin context.
func NewContext(logger *slog.Logger, sourceRoot, destRoot, runID string) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		Logger:     logger,
		SourceRoot: sourceRoot,
		DestRoot:   destRoot,
		RunID:      runID,
		Data:       make(map[string]any),
	}
}

// WithValue returns a copy of the context with the given key-value pair in Data.
func (pc *Context) WithValue(key string, value any) *Context {
	data := make(map[string]any, len(pc.Data)+1)
	maps.Copy(data, pc.Data)
	data[key] = value

	out := *pc
	out.Data = data
	return &out
}

// GetValue retrieves a value from the plugin data map.
func (pc *Context) GetValue(key string) any {
	return pc.Data[key]
}

// GetString retrieves a string value from the plugin data map.
// Returns empty string if the key doesn't exist or is not a string.
func (pc *Context) GetString(key string) string {
	if v, ok := pc.Data[key].(string); ok {
		return v
	}
	return ""
}

// GetBool retrieves a boolean value from the plugin data map.
// Returns false if the key doesn't exist or is not a boolean.
func (pc *Context) GetBool(key string) bool {
	if v, ok := pc.Data[key].(bool); ok {
		return v
	}
	return false
}

// Settings returns the settings map for the named plugin.
func (pc *Context) Settings(name string) map[string]any {
	if m, ok := pc.Data[name].(map[string]any); ok {
		return m
	}
	return nil
}
