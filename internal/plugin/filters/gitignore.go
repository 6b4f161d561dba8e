// Package filters holds plugins that decide which source files are processed.
package filters

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"git.home.luguber.info/inful/docpress/internal/logfields"
	"git.home.luguber.info/inful/docpress/internal/plugin"
)

// GitIgnore skips source files and folders matched by <source>/.gitignore.
type GitIgnore struct {
	plugin.BasePlugin
	root    string
	matcher gitignore.Matcher
}

// NewGitIgnore creates the filter. It matches nothing until Init.
func NewGitIgnore() *GitIgnore {
	return &GitIgnore{}
}

func (g *GitIgnore) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "gitignore",
		Version:     "v1.0.0",
		Type:        plugin.TypeFilter,
		Description: "Skips files listed in the source tree's .gitignore",
	}
}

// Init loads the patterns. A missing .gitignore disables the filter.
func (g *GitIgnore) Init(pc *plugin.Context) error {
	g.root = pc.SourceRoot
	data, err := os.ReadFile(filepath.Join(pc.SourceRoot, ".gitignore"))
	if err != nil {
		if !os.IsNotExist(err) {
			pc.Logger.Warn("Failed to read .gitignore", logfields.Error(err))
		}
		return nil
	}
	patterns := ParsePatterns(string(data))
	if len(patterns) > 0 {
		g.matcher = gitignore.NewMatcher(patterns)
	}
	return nil
}

// ParsePatterns parses .gitignore content, skipping blanks and comments.
func ParsePatterns(content string) []gitignore.Pattern {
	var patterns []gitignore.Pattern
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, gitignore.ParsePattern(line, nil))
		}
	}
	return patterns
}

func (g *GitIgnore) Hooks() plugin.Hooks {
	return plugin.Hooks{ShouldProcess: g.shouldProcess}
}

func (g *GitIgnore) shouldProcess(decision bool, fc plugin.FileContext) bool {
	if !decision || g.matcher == nil {
		return decision
	}
	rel, err := filepath.Rel(g.root, fc.SourcePath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return decision
	}
	return !g.matcher.Match(strings.Split(rel, string(filepath.Separator)), fc.IsDir)
}
