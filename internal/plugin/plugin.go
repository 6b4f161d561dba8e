// Package plugin is the hook contract through which plugins observe and
// rewrite a docpress run. Every hook is optional; a registry with no plugins
// leaves every value unchanged.
package plugin

import "fmt"

// Plugin contributes hook handlers.
type Plugin interface {
	// Metadata returns the plugin's identity.
	Metadata() Metadata

	// Hooks returns the handlers this plugin provides. Unset fields are skipped.
	Hooks() Hooks
}

// Lifecycle extends Plugin with setup and teardown.
type Lifecycle interface {
	Plugin

	// Init is called once before the run starts.
	Init(pc *Context) error

	// Cleanup is called once after the run ends.
	Cleanup() error
}

// Metadata describes a plugin.
type Metadata struct {
	// Name is the unique plugin identifier (e.g., "gitignore", "sections").
	Name string

	// Version is the plugin's semantic version.
	Version string

	// Type identifies the plugin category.
	Type Type

	// Description provides a human-readable summary of the plugin's purpose.
	Description string
}

// String returns a human-readable representation of the plugin metadata.
func (m Metadata) String() string {
	return fmt.Sprintf("%s@%s (%s)", m.Name, m.Version, m.Type)
}

// Validate checks if the plugin metadata is valid.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid plugin type: %s", m.Type)
	}
	return nil
}

// BasePlugin provides default lifecycle methods.
type BasePlugin struct{}

// Init is a no-op default implementation.
func (b *BasePlugin) Init(*Context) error {
	return nil
}

// Cleanup is a no-op default implementation.
func (b *BasePlugin) Cleanup() error {
	return nil
}
