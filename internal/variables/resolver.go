// Package variables substitutes {{key}} placeholders from layered variable maps.
package variables

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

// DefaultMaxDepth bounds how many substitutions may be nested inside each other.
const DefaultMaxDepth = 32

var transclusionKeyRe = regexp.MustCompile(`^[^\s{}#]+\.md(#[^\s{}]+)?$`)

// IsTransclusionKey reports whether a placeholder names a file or file
// section rather than a variable.
func IsTransclusionKey(key string) bool {
	return transclusionKeyRe.MatchString(strings.TrimSpace(key))
}

// Resolver replaces {{key}} placeholders in text.
type Resolver struct {
	maps     Maps
	maxDepth int
	sink     diag.Sink
	source   string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxDepth bounds nested substitution.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithSink sets where unresolved keys and cycles are reported.
func WithSink(s diag.Sink) Option {
	return func(r *Resolver) {
		if s != nil {
			r.sink = s
		}
	}
}

// WithSource names the file being resolved in reports.
func WithSource(path string) Option {
	return func(r *Resolver) { r.source = path }
}

// NewResolver returns a resolver over maps.
func NewResolver(maps Maps, opts ...Option) *Resolver {
	r := &Resolver{maps: maps, maxDepth: DefaultMaxDepth, sink: diag.Discard}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// expansion tracks a substituted value that is still being rescanned. tail
// is the length of the text that followed the placeholder; once fewer bytes
// than that remain, the scan has left the value.
type expansion struct {
	key  string
	tail int
}

// Resolve scans text left to right. A resolved value is spliced in and
// scanned again, so values may themselves contain placeholders. Unresolved
// keys stay literal and are reported once per occurrence. A key that
// reappears inside its own expansion is left literal.
func (r *Resolver) Resolve(ctx context.Context, text string) string {
	var (
		out    strings.Builder
		active []expansion
	)
	rest := text
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			out.WriteString(rest)
			break
		}
		closeRel := strings.Index(rest[open+2:], "}}")
		if closeRel < 0 {
			out.WriteString(rest)
			break
		}
		closeIdx := open + 2 + closeRel

		remaining := len(rest) - open
		for len(active) > 0 && active[len(active)-1].tail >= remaining {
			active = active[:len(active)-1]
		}

		out.WriteString(rest[:open])
		literal := rest[open : closeIdx+2]
		after := rest[closeIdx+2:]
		key := strings.TrimSpace(rest[open+2 : closeIdx])

		if IsTransclusionKey(key) {
			out.WriteString(literal)
			rest = after
			continue
		}

		value, ok := r.maps.Lookup(key)
		if !ok {
			r.sink.Report(ctx, errors.ReferenceError("unresolved variable").
				WithContext("file", r.source).
				WithContext("key", key).
				Build())
			out.WriteString(literal)
			rest = after
			continue
		}

		if r.isActive(active, key) || len(active) >= r.maxDepth {
			r.sink.Report(ctx, errors.StructuralError("recursive variable expansion").
				WithContext("file", r.source).
				WithContext("key", key).
				WithContext("depth", len(active)).
				Build())
			out.WriteString(literal)
			rest = after
			continue
		}

		active = append(active, expansion{key: key, tail: len(after)})
		rest = value + after
	}

	result := out.String()
	if strings.HasSuffix(text, "\n") && !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result
}

func (r *Resolver) isActive(active []expansion, key string) bool {
	return slices.ContainsFunc(active, func(e expansion) bool { return e.key == key })
}
