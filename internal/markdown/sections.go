package markdown

import (
	"regexp"
	"strings"
)

// FilenamePlaceholder marks section ids rewritten by WithParameterizedIDs. The
// pipeline replaces it with the stem of the file a section is rendered into.
const FilenamePlaceholder = "%docpress-set-filename%"

// SectionMap maps a section id to the raw markdown of the section.
type SectionMap map[string]string

var (
	attributeLineRe = regexp.MustCompile(`^\s*\{:(\s+[^}]+)\}`)
	attributeIDRe   = regexp.MustCompile(`(\s#)([^\s}]+)`)
	headingRe       = regexp.MustCompile(`^ {0,3}(#{1,6})(?:\s+\S|\s*$)`)
)

// ScanOption adjusts ScanSections.
type ScanOption func(*scanOptions)

type scanOptions struct {
	parameterizeIDs bool
}

// WithParameterizedIDs prefixes every id inside a captured section's
// attribute blocks with FilenamePlaceholder, so a section transcluded into
// several pages yields distinct element ids.
func WithParameterizedIDs() ScanOption {
	return func(o *scanOptions) { o.parameterizeIDs = true }
}

// ScanSections extracts the sections of text that are labelled with a block
// attribute line carrying an id, e.g. "{: #intro}".
//
// When the labelled block is a heading the section runs from the heading to
// the next heading of the same or shallower depth. Otherwise it is the
// paragraph that precedes the attribute line. Attribute lines inside fenced
// code never open a section.
func ScanSections(text string, opts ...ScanOption) SectionMap {
	var o scanOptions
	for _, opt := range opts {
		opt(&o)
	}

	sections := make(SectionMap)
	fences := FindFences(text)
	lines := splitLines(text)

	var pending []string
	for i, ln := range lines {
		if !ln.terminated {
			break
		}
		if fences.Contains(ln.start) {
			pending = append(pending, ln.text)
			continue
		}
		if strings.TrimSpace(ln.text) == "" {
			pending = pending[:0]
			continue
		}

		m := attributeLineRe.FindStringSubmatch(ln.text)
		if m == nil {
			pending = append(pending, ln.text)
			continue
		}
		// An attribute line with nothing before it belongs to no block.
		if len(pending) == 0 {
			continue
		}
		idm := attributeIDRe.FindStringSubmatch(m[1])
		if idm == nil {
			pending = append(pending, ln.text)
			continue
		}

		id := idm[2]
		last := pending[len(pending)-1]
		var value string
		if hm := headingRe.FindStringSubmatch(last); hm != nil {
			body := text[ln.start:]
			if end, ok := nextHeadingStart(lines[i+1:], fences, len(hm[1])); ok {
				body = trimLineEnd(text[ln.start:end])
			}
			value = last + "\n" + body
		} else {
			value = strings.Join(pending, "\n") + "\n" + ln.text + "\n"
		}
		if o.parameterizeIDs {
			value = parameterizeIDs(value)
		}
		sections[id] = value
		pending = pending[:0]
	}
	return sections
}

// nextHeadingStart returns the offset of the next heading of equal or
// shallower depth outside a fence.
func nextHeadingStart(rest []line, fences Fences, level int) (int, bool) {
	for _, ln := range rest {
		if fences.Contains(ln.start) {
			continue
		}
		hm := headingRe.FindStringSubmatch(ln.text)
		if hm != nil && len(hm[1]) <= level {
			return ln.start, true
		}
	}
	return 0, false
}

// trimLineEnd drops the single line terminator that separates a section from
// the heading that ends it, keeping any blank lines before it.
func trimLineEnd(s string) string {
	switch {
	case strings.HasSuffix(s, "\r\n"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "\n"), strings.HasSuffix(s, "\r"):
		return s[:len(s)-1]
	}
	return s
}

var blockIDRe = regexp.MustCompile(`(\{:[^}]*\s#)([^\s}]+)`)

func parameterizeIDs(value string) string {
	fences := FindFences(value)
	var b strings.Builder
	for _, ln := range splitLines(value) {
		out := ln.text
		if !fences.Contains(ln.start) {
			out = blockIDRe.ReplaceAllString(out, "${1}"+FilenamePlaceholder+"-include-${2}")
		}
		b.WriteString(out)
		b.WriteString(value[ln.start+len(ln.text) : ln.next])
	}
	return b.String()
}
