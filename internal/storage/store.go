// Package storage keeps the per-file TOC fragments written during
// conversion until the TOC phase of the same run consumes them.
package storage

import (
	"context"
	"path"
	"strings"
)

// TempDirName is the hidden directory holding fragments inside each
// destination folder.
const TempDirName = ".docpress-temp"

// FragmentStore records and serves TOC fragments. destDir is a destination
// folder; reference is a file path relative to it, as written in a TOC.
type FragmentStore interface {
	// Put stores the fragment for the markdown file name converted into destDir.
	Put(ctx context.Context, destDir, name, tocFilename string, data []byte) error

	// Fragment returns the fragment for reference, reporting false when none
	// was recorded.
	Fragment(destDir, reference, tocFilename string) ([]byte, bool, error)

	// Cleanup drops every stored fragment.
	Cleanup(ctx context.Context) error
}

// FragmentName is the stored name of the fragment for a markdown file:
// "intro.md" with toc.json becomes "intro.toc.json".
func FragmentName(name, tocFilename string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	return strings.TrimSuffix(base, ".md") + "." + tocFilename
}

// split separates the folder part of a reference from its file name.
func split(reference string) (string, string) {
	ref := strings.ReplaceAll(reference, `\`, "/")
	return path.Dir(ref), path.Base(ref)
}
