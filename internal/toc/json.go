package toc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONAdapter writes toc.json:
//
//	{"toc": {"label": "...", "properties": [...], "topics": [...]}}
//
// Topics and anchors are objects with label, href, id, properties and
// topics; anchors carry a type=anchor property. Links and topic groups are
// wrapped in "link" and "topicgroup" keys.
type JSONAdapter struct{}

// Name returns the format name used in logs and hook contexts.
func (JSONAdapter) Name() string { return "json" }

// Filename returns the TOC output file name.
func (JSONAdapter) Filename() string { return "toc.json" }

type jsonProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type jsonLink struct {
	Type       string         `json:"type,omitempty"`
	Label      string         `json:"label,omitempty"`
	Href       string         `json:"href"`
	ID         string         `json:"id,omitempty"`
	Properties []jsonProperty `json:"properties,omitempty"`
}

type jsonGroup struct {
	Label      string         `json:"label"`
	ID         string         `json:"id,omitempty"`
	Properties []jsonProperty `json:"properties,omitempty"`
	Topics     []jsonEntry    `json:"topics,omitempty"`
}

type jsonEntry struct {
	Label      string         `json:"label,omitempty"`
	Href       string         `json:"href,omitempty"`
	ID         string         `json:"id,omitempty"`
	Properties []jsonProperty `json:"properties,omitempty"`
	Topics     []jsonEntry    `json:"topics,omitempty"`
	Link       *jsonLink      `json:"link,omitempty"`
	TopicGroup *jsonGroup     `json:"topicgroup,omitempty"`
}

type jsonDocument struct {
	TOC jsonGroup `json:"toc"`
}

func toJSONProperties(props []Property) []jsonProperty {
	if len(props) == 0 {
		return nil
	}
	out := make([]jsonProperty, len(props))
	for i, p := range props {
		out[i] = jsonProperty(p)
	}
	return out
}

func fromJSONProperties(props []jsonProperty) []Property {
	if len(props) == 0 {
		return nil
	}
	out := make([]Property, len(props))
	for i, p := range props {
		out[i] = Property(p)
	}
	return out
}

// Marshal renders t as an indented toc.json document.
func (a JSONAdapter) Marshal(t *Tree) ([]byte, error) {
	root := t.Root()
	doc := jsonDocument{TOC: jsonGroup{
		Label:      root.Label,
		ID:         root.ID,
		Properties: toJSONProperties(root.Properties),
		Topics:     a.entries(t, RootIndex),
	}}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a JSONAdapter) entries(t *Tree, parent int) []jsonEntry {
	children := t.Children(parent)
	if len(children) == 0 {
		return nil
	}
	out := make([]jsonEntry, 0, len(children))
	for _, c := range children {
		n := t.Node(c)
		switch n.Kind {
		case KindLink:
			out = append(out, jsonEntry{Link: &jsonLink{
				Type:       string(n.LinkType),
				Label:      n.Label,
				Href:       n.Href,
				ID:         n.ID,
				Properties: toJSONProperties(n.Properties),
			}})
		case KindTopicGroup:
			out = append(out, jsonEntry{TopicGroup: &jsonGroup{
				Label:      n.Label,
				ID:         n.ID,
				Properties: toJSONProperties(n.Properties),
				Topics:     a.entries(t, c),
			}})
		default:
			props := n.Properties
			if n.Kind == KindAnchor && !isAnchor(props) {
				props = append([]Property{{Name: propertyType, Value: anchorType}}, props...)
			}
			out = append(out, jsonEntry{
				Label:      n.Label,
				Href:       n.Href,
				ID:         n.ID,
				Properties: toJSONProperties(props),
				Topics:     a.entries(t, c),
			})
		}
	}
	return out
}

// Unmarshal parses a toc.json document back into a tree.
func (a JSONAdapter) Unmarshal(data []byte) (*Tree, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode toc json: %w", err)
	}
	t := NewTree()
	root := t.Root()
	root.Label = doc.TOC.Label
	root.ID = doc.TOC.ID
	root.Properties = fromJSONProperties(doc.TOC.Properties)
	if err := a.append(t, RootIndex, doc.TOC.Topics); err != nil {
		return nil, err
	}
	return t, nil
}

func (a JSONAdapter) append(t *Tree, parent int, entries []jsonEntry) error {
	for _, e := range entries {
		var (
			n      Node
			nested []jsonEntry
		)
		switch {
		case e.Link != nil:
			l := e.Link
			n = Node{
				Kind:       KindLink,
				Label:      l.Label,
				Href:       l.Href,
				ID:         l.ID,
				LinkType:   LinkType(l.Type),
				Properties: fromJSONProperties(l.Properties),
			}
		case e.TopicGroup != nil:
			g := e.TopicGroup
			n = Node{Kind: KindTopicGroup, Label: g.Label, ID: g.ID, Properties: fromJSONProperties(g.Properties)}
			nested = g.Topics
		default:
			n = Node{Kind: KindTopic, Label: e.Label, Href: e.Href, ID: e.ID, Properties: fromJSONProperties(e.Properties)}
			if isAnchor(n.Properties) {
				n.Kind = KindAnchor
			}
			nested = e.Topics
		}
		idx, err := t.Append(parent, n)
		if err != nil {
			return err
		}
		if err := a.append(t, idx, nested); err != nil {
			return err
		}
	}
	return nil
}
