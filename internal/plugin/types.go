package plugin

import (
	"fmt"

	"git.home.luguber.info/inful/docpress/internal/markdown"
	"git.home.luguber.info/inful/docpress/internal/toc"
	"git.home.luguber.info/inful/docpress/internal/variables"
)

// Type identifies the category of plugin.
type Type string

const (
	// TypeFilter decides which files and folders are processed.
	TypeFilter Type = "filter"

	// TypeTransform rewrites generated HTML.
	TypeTransform Type = "transform"

	// TypeTOC supplies or rewrites tables of contents.
	TypeTOC Type = "toc"

	// TypeVariables contributes variables.
	TypeVariables Type = "variables"
)

// IsValid returns true if the plugin type is recognized.
func (t Type) IsValid() bool {
	switch t {
	case TypeFilter, TypeTransform, TypeTOC, TypeVariables:
		return true
	default:
		return false
	}
}

// String returns the string representation of the plugin type.
func (t Type) String() string {
	return string(t)
}

// TOCGetContext describes the source folder whose TOC is requested.
type TOCGetContext struct {
	SourcePath string
}

// TOCCompleteContext describes a serialized TOC about to be written.
type TOCCompleteContext struct {
	Format      string
	SourcePath  string
	Destination string
}

// VariablesContext describes the file whose variables are being assembled.
type VariablesContext struct {
	SourcePath string
	Text       string
	Sections   markdown.SectionMap
}

// DirContext describes a folder being listed.
type DirContext struct {
	SourcePath string
}

// FileContext describes a file or folder about to be processed.
type FileContext struct {
	SourcePath string
	IsDir      bool
}

// HTMLContext describes a generated HTML page.
type HTMLContext struct {
	SourcePath string
	DestPath   string
	Variables  variables.Maps
}

type (
	// TOCGetFunc may supply the TOC for a folder. Returning nil passes.
	TOCGetFunc func(TOCGetContext) (*toc.Document, error)

	// TOCCompleteFunc may rewrite a serialized TOC. Returning nil keeps it.
	TOCCompleteFunc func([]byte, TOCCompleteContext) ([]byte, error)

	// VariablesAddFunc returns the variable map for a file, usually the
	// given one with entries added.
	VariablesAddFunc func(variables.Map, VariablesContext) (variables.Map, error)

	// DirFilesFunc returns the folder entries to process, in order.
	DirFilesFunc func([]string, DirContext) ([]string, error)

	// ShouldProcessFunc receives the decision so far and returns the new one.
	ShouldProcessFunc func(bool, FileContext) bool

	// HTMLCompleteFunc rewrites a finished HTML page.
	HTMLCompleteFunc func(string, HTMLContext) (string, error)
)

// Hooks is the set of handlers one plugin provides. TOCItem receives every
// TOC entry of every format; ItemContext.Format tells them apart.
type Hooks struct {
	TOCGet        TOCGetFunc
	TOCItem       toc.ItemHook
	TOCComplete   TOCCompleteFunc
	VariablesAdd  VariablesAddFunc
	DirFiles      DirFilesFunc
	ShouldProcess ShouldProcessFunc
	HTMLComplete  HTMLCompleteFunc
}

// Error represents an error returned by a plugin hook.
type Error struct {
	// PluginName identifies which plugin failed.
	PluginName string

	// Hook names the hook that failed.
	Hook string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("plugin %s failed during %s: %v", e.PluginName, e.Hook, e.Err)
}

// Unwrap returns the underlying error for error inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new plugin error.
func NewError(pluginName, hook string, err error) *Error {
	return &Error{PluginName: pluginName, Hook: hook, Err: err}
}
