package transforms

import (
	"fmt"
	"log/slog"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docpress/internal/logfields"
	"git.home.luguber.info/inful/docpress/internal/plugin"
)

var headingAtoms = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode {
		return 0
	}
	for i, a := range headingAtoms {
		if n.DataAtom == a {
			return i + 1
		}
	}
	return 0
}

// Sections wraps every heading that has an id, together with the content up
// to the next heading of the same or a higher rank, in
// <section id="section-<id>">. The heading's other attributes move to the
// section.
type Sections struct {
	plugin.BasePlugin
	logger *slog.Logger
}

// NewSections creates the transform.
func NewSections() *Sections {
	return &Sections{logger: slog.Default()}
}

func (s *Sections) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "sections",
		Version:     "v1.0.0",
		Type:        plugin.TypeTransform,
		Description: "Wraps headings and their content in <section> elements",
	}
}

func (s *Sections) Init(pc *plugin.Context) error {
	s.logger = pc.Logger
	return nil
}

func (s *Sections) Hooks() plugin.Hooks {
	return plugin.Hooks{HTMLComplete: s.apply}
}

func (s *Sections) apply(page string, hc plugin.HTMLContext) (string, error) {
	root, err := parseFragment(page)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	for level := 6; level >= 1; level-- {
		headings := findAll(root, func(n *html.Node) bool { return headingLevel(n) == level })
		for _, h := range headings {
			id, ok := getAttr(h, "id")
			if !ok || id == "" {
				s.logger.Debug("Heading has no id, not generating a section", logfields.File(hc.SourcePath))
				continue
			}
			wrapSection(h, id, level)
		}
	}
	return renderChildren(root)
}

func wrapSection(h *html.Node, id string, level int) {
	section := &html.Node{
		Type:     html.ElementNode,
		Data:     "section",
		DataAtom: atom.Section,
		Attr:     []html.Attribute{{Key: "id", Val: "section-" + id}},
	}
	for _, a := range h.Attr {
		if a.Key != "id" {
			section.Attr = append(section.Attr, a)
		}
	}
	kept := h.Attr[:0]
	for _, a := range h.Attr {
		if a.Key == "id" {
			kept = append(kept, a)
		}
	}
	h.Attr = kept

	parent := h.Parent
	next := h.NextSibling
	parent.InsertBefore(section, h)
	parent.RemoveChild(h)
	section.AppendChild(h)

	for cur := next; cur != nil; {
		if l := headingLevel(cur); l > 0 && l <= level {
			break
		}
		following := cur.NextSibling
		parent.RemoveChild(cur)
		section.AppendChild(cur)
		cur = following
	}
}
