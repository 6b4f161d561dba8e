package toc

import (
	"context"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

var (
	indentRe      = regexp.MustCompile(`^[ >]*`)
	blockAttrRe   = regexp.MustCompile(`^(\{:(?:\\\}|[^\}])*\})`)
	adlRe         = regexp.MustCompile(`\{[ ]{0,3}:((?:[\w\d])(?:[\w\d-])*):([^}]*)`)
	attrContentRe = regexp.MustCompile(`\{[ ]{0,3}:([^}]*)`)
	htmlCommentRe = regexp.MustCompile(`^<!--.*-->$`)
	lineSplitRe   = regexp.MustCompile(`\r\n|\r|\n`)
	fourSpaces    = "    "
)

// lineParser holds the state of one legacy TOC parse.
type lineParser struct {
	adls    ADLs
	pending []string
}

// consumeAttribute records line as an ADL declaration or a pending inline
// attribute list and reports whether it was an attribute line.
func (p *lineParser) consumeAttribute(line string) bool {
	m := blockAttrRe.FindString(line)
	if m == "" {
		return false
	}
	if ref := adlRe.FindStringSubmatch(m); ref != nil {
		p.adls[ref[1]] = ref[2]
		return true
	}
	if content := attrContentRe.FindStringSubmatch(m); content != nil {
		p.pending = append(p.pending, strings.TrimSpace(content[1]))
	}
	return true
}

// ParseLines reads the legacy TOC format. Nesting comes from indentation
// (four spaces or a tab per level) or from '>' markers; attribute lines
// directly before or after an entry apply to it. An entry that skips a
// nesting level is dropped and reported once to sink.
func ParseLines(ctx context.Context, text string, sink diag.Sink, source string) []Item {
	if sink == nil {
		sink = diag.Discard
	}
	lines := lineSplitRe.Split(text, -1)
	p := &lineParser{adls: ADLs{}}
	var (
		items     []Item
		lastLevel int
	)
	for i := 0; i < len(lines); i++ {
		raw := strings.ReplaceAll(lines[i], "\t", fourSpaces)
		indent := indentRe.FindString(raw)
		line := strings.TrimSpace(raw)
		if line == "" {
			p.pending = nil
			continue
		}
		if htmlCommentRe.MatchString(line) {
			continue
		}
		if p.consumeAttribute(line) {
			continue
		}

		level := max(strings.Count(indent, ">"), len(strings.ReplaceAll(indent, ">", ""))/len(fourSpaces)) + 1
		lineNo := i + 1

		for i+1 < len(lines) && p.consumeAttribute(strings.TrimSpace(lines[i+1])) {
			i++
		}

		if level > lastLevel+1 {
			sink.Report(ctx, errors.StructuralError("toc entry skips a nesting level").
				WithContext("file", source).
				WithContext("line", lineNo).
				WithContext("reference", line).
				WithContext("level", level).
				Build())
			p.pending = nil
			continue
		}

		items = append(items, Item{
			Level:      level,
			Reference:  line,
			Attributes: ComputeAttributes(p.pending, p.adls),
			Line:       lineNo,
		})
		lastLevel = level
		p.pending = nil
	}
	return items
}
