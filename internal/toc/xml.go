package toc

import (
	"encoding/xml"
	"fmt"
)

// XMLAdapter writes toc.xml. Each node kind is its own element; properties
// are <property name="" value=""/> children listed before nested nodes.
type XMLAdapter struct{}

// Name returns the format name used in logs and hook contexts.
func (XMLAdapter) Name() string { return "xml" }

// Filename returns the TOC output file name.
func (XMLAdapter) Filename() string { return "toc.xml" }

type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlNode struct {
	XMLName    xml.Name
	Label      string        `xml:"label,attr,omitempty"`
	Href       string        `xml:"href,attr,omitempty"`
	ID         string        `xml:"id,attr,omitempty"`
	Type       string        `xml:"type,attr,omitempty"`
	Properties []xmlProperty `xml:"property"`
	Children   []xmlNode     `xml:",any"`
}

var elementKinds = map[string]Kind{
	"topic":      KindTopic,
	"anchor":     KindAnchor,
	"link":       KindLink,
	"topicgroup": KindTopicGroup,
}

// Marshal renders t as an indented toc.xml document.
func (a XMLAdapter) Marshal(t *Tree) ([]byte, error) {
	root := a.node(t, RootIndex)
	root.XMLName = xml.Name{Local: "toc"}
	out, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(xml.Header)+len(out)+1)
	buf = append(buf, xml.Header...)
	buf = append(buf, out...)
	return append(buf, '\n'), nil
}

func (a XMLAdapter) node(t *Tree, idx int) xmlNode {
	n := t.Node(idx)
	x := xmlNode{
		XMLName: xml.Name{Local: n.Kind.String()},
		Label:   n.Label,
		Href:    n.Href,
		ID:      n.ID,
		Type:    string(n.LinkType),
	}
	for _, p := range n.Properties {
		x.Properties = append(x.Properties, xmlProperty(p))
	}
	for _, c := range t.Children(idx) {
		x.Children = append(x.Children, a.node(t, c))
	}
	return x
}

// Unmarshal parses a toc.xml document back into a tree.
func (a XMLAdapter) Unmarshal(data []byte) (*Tree, error) {
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode toc xml: %w", err)
	}
	if root.XMLName.Local != "toc" {
		return nil, fmt.Errorf("decode toc xml: root element is <%s>, want <toc>", root.XMLName.Local)
	}
	t := NewTree()
	r := t.Root()
	r.Label, r.ID = root.Label, root.ID
	for _, p := range root.Properties {
		r.AddProperty(p.Name, p.Value)
	}
	if err := a.append(t, RootIndex, root.Children); err != nil {
		return nil, err
	}
	return t, nil
}

func (a XMLAdapter) append(t *Tree, parent int, nodes []xmlNode) error {
	for _, x := range nodes {
		kind, ok := elementKinds[x.XMLName.Local]
		if !ok {
			return fmt.Errorf("decode toc xml: unexpected element <%s>", x.XMLName.Local)
		}
		n := Node{Kind: kind, Label: x.Label, Href: x.Href, ID: x.ID, LinkType: LinkType(x.Type)}
		for _, p := range x.Properties {
			n.AddProperty(p.Name, p.Value)
		}
		idx, err := t.Append(parent, n)
		if err != nil {
			return err
		}
		if err := a.append(t, idx, x.Children); err != nil {
			return err
		}
	}
	return nil
}
