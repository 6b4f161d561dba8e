// Package transclude expands {{file.md}} and {{file.md#section}}
// placeholders with the content they reference.
package transclude

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/markdown"
	"git.home.luguber.info/inful/docpress/internal/textio"
	"git.home.luguber.info/inful/docpress/internal/variables"
)

const (
	// IncludesDir is the destination subdirectory mirroring assets referenced
	// by transcluded content.
	IncludesDir = "includes"

	// KeyrefFilename is the per-folder variables file.
	KeyrefFilename = "keyref.yaml"

	markerStart = "<!-- Include START: "
	markerEnd   = "<!-- Include END -->"
)

var (
	placeholderRe = regexp.MustCompile(`\{\{\s*([^\s{}#]+\.md)(?:#([^\s{}]+))?\s*\}\}`)
	schemeRe      = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// Options configures an Expander.
type Options struct {
	SourceRoot string
	DestRoot   string
	// Global holds the variable layers every transcluded file is resolved
	// against; the referenced folder's keyref.yaml is layered above them.
	Global          variables.Maps
	MaxDepth        int
	Overwrite       bool
	ParameterizeIDs bool
	Sink            diag.Sink
}

// Expander replaces transclusion placeholders. An Expander remembers which
// assets it already mirrored and is meant to live for one run.
type Expander struct {
	opts   Options
	copied map[string]bool
}

// New returns an Expander rooted at opts.SourceRoot and opts.DestRoot.
func New(opts Options) *Expander {
	if opts.Sink == nil {
		opts.Sink = diag.Discard
	}
	if abs, err := filepath.Abs(opts.SourceRoot); err == nil {
		opts.SourceRoot = abs
	}
	if abs, err := filepath.Abs(opts.DestRoot); err == nil {
		opts.DestRoot = abs
	}
	return &Expander{opts: opts, copied: make(map[string]bool)}
}

// request carries the state of one top-level Expand call.
type request struct {
	destDir  string
	hostStem string
}

// Expand replaces the placeholders in text, the content of sourcePath whose
// output is written into destDir. Placeholders inside fenced code are left
// alone; placeholders that cannot be satisfied are left literal and reported.
func (e *Expander) Expand(ctx context.Context, sourcePath, destDir, text string) string {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		abs = sourcePath
	}
	if d, err := filepath.Abs(destDir); err == nil {
		destDir = d
	}
	base := filepath.Base(abs)
	req := request{destDir: destDir, hostStem: strings.TrimSuffix(base, filepath.Ext(base))}
	return e.expand(ctx, req, abs, text, []string{abs + "#"})
}

func (e *Expander) expand(ctx context.Context, req request, including, text string, chain []string) string {
	matches := placeholderRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	fences := markdown.FindFences(text)
	done := make(map[string]string)

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if fences.Contains(m[0]) {
			continue
		}
		file := text[m[2]:m[3]]
		section := ""
		if m[4] >= 0 {
			section = text[m[4]:m[5]]
		}
		ref := file
		if section != "" {
			ref += "#" + section
		}
		repl, ok := done[ref]
		if !ok {
			repl = e.include(ctx, req, including, file, section, text[m[0]:m[1]], chain)
			done[ref] = repl
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(repl)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func (e *Expander) include(ctx context.Context, req request, including, file, section, literal string, chain []string) string {
	ref := file
	if section != "" {
		ref += "#" + section
	}
	target := e.resolvePath(including, file)
	key := target + "#" + section
	if slices.Contains(chain, key) {
		e.opts.Sink.Report(ctx, errors.StructuralError("circular transclusion").
			WithContext("file", including).
			WithContext("reference", ref).
			Build())
		return literal
	}

	content, err := textio.ReadText(target)
	if err != nil {
		e.opts.Sink.Report(ctx, errors.WrapError(err, errors.CategoryReference, "transcluded file could not be read").
			Warning().
			WithContext("file", including).
			WithContext("reference", ref).
			Build())
		return literal
	}

	content = variables.NewResolver(e.variablesFor(ctx, target),
		variables.WithSink(e.opts.Sink),
		variables.WithSource(target),
		variables.WithMaxDepth(e.opts.MaxDepth),
	).Resolve(ctx, content)

	if section != "" {
		var scanOpts []markdown.ScanOption
		if e.opts.ParameterizeIDs {
			scanOpts = append(scanOpts, markdown.WithParameterizedIDs())
		}
		body, ok := markdown.ScanSections(content, scanOpts...)[section]
		if !ok {
			e.opts.Sink.Report(ctx, errors.ReferenceError("transcluded section not found").
				WithContext("file", including).
				WithContext("reference", ref).
				Build())
			return literal
		}
		content = strings.ReplaceAll(body, markdown.FilenamePlaceholder, req.hostStem)
	}

	content = e.rewriteLinks(ctx, req, target, content)
	content = e.expand(ctx, req, target, content, append(chain, key))

	return markerStart + ref + " -->\n" + strings.TrimSuffix(content, "\n") + "\n" + markerEnd
}

// resolvePath resolves file against the including document's directory, or
// against the source root when it starts with a slash.
func (e *Expander) resolvePath(including, file string) string {
	if strings.HasPrefix(file, "/") {
		return filepath.Join(e.opts.SourceRoot, filepath.FromSlash(file))
	}
	return filepath.Join(filepath.Dir(including), filepath.FromSlash(file))
}

func (e *Expander) variablesFor(ctx context.Context, target string) variables.Maps {
	local, err := variables.LoadYAMLFile(filepath.Join(filepath.Dir(target), KeyrefFilename))
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			e.opts.Sink.Report(ctx, ce)
		}
		return e.opts.Global
	}
	if local == nil {
		return e.opts.Global
	}
	return e.opts.Global.With(variables.SiteData(local))
}

// rewriteLinks makes relative link and image targets of content, which was
// read from target, resolve from the including document's output directory.
// Assets are mirrored under includes/; markdown targets are re-pointed at
// their rendered location.
func (e *Expander) rewriteLinks(ctx context.Context, req request, target, content string) string {
	out, err := markdown.RewriteLinks([]byte(content), func(l markdown.Link) (string, bool) {
		dest := l.Destination
		if dest == "" || isAbsoluteLink(dest) {
			return "", false
		}
		pathPart, suffix := splitSuffix(dest)
		srcAsset := filepath.Join(filepath.Dir(target), filepath.FromSlash(pathPart))
		rel, err := filepath.Rel(e.opts.SourceRoot, srcAsset)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", false
		}

		var finalPath string
		if strings.EqualFold(filepath.Ext(pathPart), ".md") {
			finalPath = filepath.Join(e.opts.DestRoot, rel)
		} else {
			finalPath = filepath.Join(e.opts.DestRoot, IncludesDir, rel)
			if !e.mirror(ctx, srcAsset, finalPath) {
				return "", false
			}
		}
		newRel, err := filepath.Rel(req.destDir, finalPath)
		if err != nil {
			return "", false
		}
		return filepath.ToSlash(newRel) + suffix, true
	})
	if err != nil {
		e.opts.Sink.Report(ctx, errors.WrapError(err, errors.CategoryInternal, "failed to rewrite transcluded links").
			Warning().
			WithContext("file", target).
			Build())
		return content
	}
	return string(out)
}

func (e *Expander) mirror(ctx context.Context, src, dst string) bool {
	if e.copied[dst] {
		return true
	}
	err := textio.CopyFile(src, dst, e.opts.Overwrite)
	if err != nil && !stderrors.Is(err, textio.ErrExists) {
		e.opts.Sink.Report(ctx, errors.WrapError(err, errors.CategoryReference, "transcluded asset could not be copied").
			Warning().
			WithContext("path", src).
			Build())
		return false
	}
	e.copied[dst] = true
	return true
}

func isAbsoluteLink(dest string) bool {
	return strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "#") || schemeRe.MatchString(dest)
}

// splitSuffix separates a query or fragment from a link path.
func splitSuffix(dest string) (string, string) {
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		return dest[:i], dest[i:]
	}
	return dest, ""
}
