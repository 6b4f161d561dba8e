package toc

// Item is one entry produced by the line or object parser, in TOC order.
type Item struct {
	Level      int
	Reference  string
	Attributes Attributes
	// LabelOverride replaces the label of the first topic the reference
	// resolves to.
	LabelOverride string
	// Plaintext marks labels that are not references (TOC and topic group labels).
	Plaintext bool
	// ID is the topic group id given in the object format.
	ID   string
	Line int
}
