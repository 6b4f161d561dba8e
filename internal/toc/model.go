package toc

import "fmt"

// Kind distinguishes TOC node variants.
type Kind int

const (
	KindRoot Kind = iota
	KindTopic
	KindLink
	KindAnchor
	KindTopicGroup
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindTopic:
		return "topic"
	case KindLink:
		return "link"
	case KindAnchor:
		return "anchor"
	case KindTopicGroup:
		return "topicgroup"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// LinkType says what a Link node points at.
type LinkType string

const (
	LinkExternal LinkType = "external" // [label](href) written in the TOC source
	LinkTOC      LinkType = "toc"      // another folder's generated TOC
	LinkTopic    LinkType = "topic"    // an absolute topic path
)

// Property is a name/value annotation on a node. Names may repeat.
type Property struct {
	Name  string
	Value string
}

// Node is one entry of a Tree. Parent and children are arena indices.
type Node struct {
	Kind       Kind
	Label      string
	Href       string
	ID         string
	LinkType   LinkType
	Properties []Property

	parent   int
	children []int
}

// Property returns the first value recorded for name.
func (n *Node) Property(name string) (string, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// AddProperty appends a property.
func (n *Node) AddProperty(name, value string) {
	n.Properties = append(n.Properties, Property{Name: name, Value: value})
}

// acceptsChildren reports whether nodes may be nested under n. Links are terminal.
func (n *Node) acceptsChildren() bool {
	return n.Kind != KindLink
}

// RootIndex is the arena index of a tree's root node.
const RootIndex = 0

// Tree is an arena of nodes. Index RootIndex always holds the Root node and
// children keep insertion order.
type Tree struct {
	nodes []Node
}

// NewTree returns a tree holding only an empty root.
func NewTree() *Tree {
	return &Tree{nodes: []Node{{Kind: KindRoot, parent: -1}}}
}

// Len returns the number of nodes including the root.
func (t *Tree) Len() int { return len(t.nodes) }

// Root returns the root node.
func (t *Tree) Root() *Node { return &t.nodes[RootIndex] }

// Node returns the node at idx. The pointer is invalidated by Append.
func (t *Tree) Node(idx int) *Node { return &t.nodes[idx] }

// Children returns the child indices of idx in order.
func (t *Tree) Children(idx int) []int { return t.nodes[idx].children }

// Parent returns the parent index of idx, or -1 for the root.
func (t *Tree) Parent(idx int) int { return t.nodes[idx].parent }

// Append adds n as the last child of parent and returns its index.
func (t *Tree) Append(parent int, n Node) (int, error) {
	if parent < 0 || parent >= len(t.nodes) {
		return -1, fmt.Errorf("parent index %d out of range", parent)
	}
	if n.Kind == KindRoot {
		return -1, fmt.Errorf("root node cannot be nested")
	}
	if !t.nodes[parent].acceptsChildren() {
		return -1, fmt.Errorf("%s node %q cannot have children", t.nodes[parent].Kind, t.nodes[parent].Label)
	}
	n.parent = parent
	n.children = nil
	idx := len(t.nodes)
	t.nodes = append(t.nodes, n)
	t.nodes[parent].children = append(t.nodes[parent].children, idx)
	return idx, nil
}

// Graft copies the subtree rooted at srcIdx of src under parent and returns
// the index of the copied subtree root.
func (t *Tree) Graft(parent int, src *Tree, srcIdx int) (int, error) {
	n := *src.Node(srcIdx)
	n.Properties = append([]Property(nil), n.Properties...)
	idx, err := t.Append(parent, n)
	if err != nil {
		return -1, err
	}
	for _, c := range src.Children(srcIdx) {
		if _, err := t.Graft(idx, src, c); err != nil {
			return -1, err
		}
	}
	return idx, nil
}

// Walk visits every node below the root depth first in order. depth is 1 for
// the root's children. Returning false skips the node's descendants.
func (t *Tree) Walk(fn func(idx, depth int) bool) {
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		for _, c := range t.nodes[idx].children {
			if fn(c, depth) {
				visit(c, depth+1)
			}
		}
	}
	visit(RootIndex, 1)
}
