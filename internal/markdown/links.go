package markdown

import (
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

type LinkKind string

const (
	LinkKindInline LinkKind = "inline"
	LinkKindImage  LinkKind = "image"
)

// Link is an inline link or image destination located in a markdown source.
// Start and End delimit the destination bytes.
type Link struct {
	Kind        LinkKind
	Destination string
	Start       int
	End         int
}

// FindLinks returns the inline link and image destinations of body in source
// order. Destinations are taken from the goldmark AST so that code spans and
// fenced blocks are never reported; their offsets are then located textually
// after the "](" that introduces them.
func FindLinks(body []byte) []Link {
	kinds := destinationKinds(body)
	if len(kinds) == 0 {
		return nil
	}
	fences := FindFences(string(body))

	var links []Link
	for i := 0; i+1 < len(body); i++ {
		if body[i] != ']' || body[i+1] != '(' || fences.Contains(i) {
			continue
		}
		start := i + 2
		for start < len(body) && (body[start] == ' ' || body[start] == '\t') {
			start++
		}
		if start < len(body) && body[start] == '<' {
			start++
		}
		end := start
		for end < len(body) && !isDestinationEnd(body[end]) {
			end++
		}
		if end == start {
			continue
		}
		dest := string(body[start:end])
		kind, ok := kinds[dest]
		if !ok {
			continue
		}
		links = append(links, Link{Kind: kind, Destination: dest, Start: start, End: end})
		i = end - 1
	}
	return links
}

// RewriteLinks replaces every destination for which rewrite returns true.
func RewriteLinks(body []byte, rewrite func(Link) (string, bool)) ([]byte, error) {
	var edits []Edit
	for _, l := range FindLinks(body) {
		if repl, ok := rewrite(l); ok && repl != l.Destination {
			edits = append(edits, Edit{Start: l.Start, End: l.End, Replacement: []byte(repl)})
		}
	}
	return ApplyEdits(body, edits)
}

func isDestinationEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ')', '>':
		return true
	}
	return false
}

func destinationKinds(body []byte) map[string]LinkKind {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(parser.NewContext()))

	kinds := make(map[string]LinkKind)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Image:
			if _, seen := kinds[string(node.Destination)]; !seen {
				kinds[string(node.Destination)] = LinkKindImage
			}
		case *gmast.Link:
			kinds[string(node.Destination)] = LinkKindInline
		}
		return gmast.WalkContinue, nil
	})
	return kinds
}
