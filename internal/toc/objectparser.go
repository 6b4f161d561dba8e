package toc

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

// Document is the YAML TOC format:
//
//	toc:
//	  properties:
//	    label: Product docs
//	  entries:
//	    - navgroup:
//	        id: start
//	        topics:
//	          - intro.md
//	          - topic: setup.md
//	            navtitle: Setting up
//	          - topicgroup:
//	              label: Reference
//	              topics: [api.md]
//	        links:
//	          - link: {label: Home, href: "https://example.com"}
type Document struct {
	TOC DocumentTOC `yaml:"toc"`
}

// DocumentTOC holds the root properties and navgroup entries.
type DocumentTOC struct {
	Properties Properties `yaml:"properties"`
	Entries    []Navgroup `yaml:"entries"`
}

// Properties keeps a YAML mapping in source order.
type Properties []Property

// Get returns the value of name.
func (p Properties) Get(name string) (string, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return "", false
}

func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", node.Line)
	}
	out := make(Properties, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		value := val.Value
		if val.Kind != yaml.ScalarNode {
			var v any
			if err := val.Decode(&v); err != nil {
				return err
			}
			value = fmt.Sprint(v)
		}
		out = append(out, Property{Name: key.Value, Value: value})
	}
	*p = out
	return nil
}

// Navgroup is one entry. It may be written bare or wrapped in a navgroup key.
type Navgroup struct {
	ID     string  `yaml:"id"`
	Topics []Topic `yaml:"topics"`
	Links  []Topic `yaml:"links"`
}

func (n *Navgroup) UnmarshalYAML(node *yaml.Node) error {
	type plain Navgroup
	if inner := mappingValue(node, "navgroup"); inner != nil && inner.Kind == yaml.MappingNode {
		return inner.Decode((*plain)(n))
	}
	return node.Decode((*plain)(n))
}

func (n Navgroup) entries() []Topic {
	return append(append([]Topic(nil), n.Topics...), n.Links...)
}

// LinkSpec is an external link entry.
type LinkSpec struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// TopicGroup is a labelled group of topics.
type TopicGroup struct {
	Label  string  `yaml:"label"`
	ID     string  `yaml:"id"`
	Topics []Topic `yaml:"topics"`
	Links  []Topic `yaml:"links"`
}

func (g TopicGroup) entries() []Topic {
	return append(append([]Topic(nil), g.Topics...), g.Links...)
}

// Topic is a file reference, a topic with a navtitle, a link or a topic group.
type Topic struct {
	Ref      string
	Navtitle string
	Link     *LinkSpec
	Group    *TopicGroup
}

func (t *Topic) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		t.Ref = node.Value
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: topic must be a string or a mapping", node.Line)
	}

	if v := mappingValue(node, "topicgroup"); v != nil {
		// "topicgroup:" with no value marks the enclosing mapping as the group.
		if v.Tag == "!!null" {
			v = node
		}
		t.Group = &TopicGroup{}
		return v.Decode(t.Group)
	}
	if v := mappingValue(node, "link"); v != nil {
		if v.Tag == "!!null" {
			v = node
		}
		t.Link = &LinkSpec{}
		return v.Decode(t.Link)
	}

	var raw struct {
		Topic    string `yaml:"topic"`
		Navtitle string `yaml:"navtitle"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	t.Ref, t.Navtitle = raw.Topic, raw.Navtitle
	return nil
}

// reference renders the topic the way the line format writes it.
func (t Topic) reference() string {
	if t.Link != nil {
		return "[" + t.Link.Label + "](" + t.Link.Href + ")"
	}
	return t.Ref
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// ParseDocument decodes a YAML TOC.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "invalid yaml toc").
			Warning().
			Build()
	}
	return &doc, nil
}

// LoadDocument reads a YAML TOC file. A missing file returns nil, nil.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read yaml toc").
			WithContext("file", path).
			Build()
	}
	doc, err := ParseDocument(data)
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("file", path)
		}
		return nil, err
	}
	return doc, nil
}

// objectParser flattens a Document into items.
type objectParser struct {
	items []Item
}

// ParseObject turns a YAML TOC into the same items ParseLines produces. The
// root becomes a level 1 item with class "toc"; the first item of each
// navgroup opens it with class "navgroup" and its id, and the last item of
// the navgroup's last branch closes it with class "navgroup-end".
func ParseObject(_ context.Context, doc *Document) []Item {
	if doc == nil {
		return nil
	}
	p := &objectParser{}

	var rootAttrs Attributes
	rootAttrs.SetString("class", "toc")
	label, _ := doc.TOC.Properties.Get("label")
	for _, prop := range doc.TOC.Properties {
		if prop.Name == "label" {
			continue
		}
		rootAttrs.SetString(prop.Name, prop.Value)
	}
	p.items = append(p.items, Item{Level: 1, Reference: label, Attributes: rootAttrs, Plaintext: true})

	for _, entry := range doc.TOC.Entries {
		p.addTopics(entry.entries(), entry.ID, 2, true)
	}
	return p.items
}

func (p *objectParser) addTopics(topics []Topic, navgroupID string, level int, isLast bool) {
	for i, topic := range topics {
		opens := level == 2 && i == 0 && navgroupID != ""
		closes := isLast && i == len(topics)-1 && navgroupID != ""

		var attrs Attributes
		if topic.Group == nil {
			if opens {
				attrs.SetString("class", "navgroup")
				attrs.SetString("id", navgroupID)
			}
			if closes {
				attrs.AddClass("navgroup-end")
			}
			p.items = append(p.items, Item{
				Level:         level,
				Reference:     topic.reference(),
				Attributes:    attrs,
				LabelOverride: topic.Navtitle,
			})
			continue
		}

		group := topic.Group
		children := group.entries()
		if opens {
			attrs.SetString("class", "navgroup topicgroup")
			attrs.SetString("id", navgroupID)
		} else {
			attrs.SetString("class", "topicgroup")
		}
		if closes && len(children) == 0 {
			attrs.AddClass("navgroup-end")
		}
		p.items = append(p.items, Item{
			Level:      level,
			Reference:  group.Label,
			Attributes: attrs,
			Plaintext:  true,
			ID:         group.ID,
		})
		p.addTopics(children, navgroupID, level+1, isLast && i == len(topics)-1)
	}
}
