package toc

import (
	"regexp"
	"strings"
)

// Attr is one attribute. A nil Value marks a bare flag.
type Attr struct {
	Name  string
	Value *string
}

// Attributes is an ordered attribute set. The class attribute holds a space
// separated token list.
type Attributes struct {
	list []Attr
}

// ADLs maps attribute list definition names to their raw attribute text.
type ADLs map[string]string

func strPtr(s string) *string { return &s }

// Len returns the number of attributes.
func (a Attributes) Len() int { return len(a.list) }

// All returns the attributes in insertion order.
func (a Attributes) All() []Attr { return a.list }

// Get returns the value for name.
func (a Attributes) Get(name string) (*string, bool) {
	for _, at := range a.list {
		if at.Name == name {
			return at.Value, true
		}
	}
	return nil, false
}

// Value returns the string value of name, or "" for flags and missing names.
func (a Attributes) Value(name string) string {
	if v, ok := a.Get(name); ok && v != nil {
		return *v
	}
	return ""
}

// Set overwrites name in place or appends it.
func (a *Attributes) Set(name string, value *string) {
	for i := range a.list {
		if a.list[i].Name == name {
			a.list[i].Value = value
			return
		}
	}
	a.list = append(a.list, Attr{Name: name, Value: value})
}

// SetString is Set with a non-nil value.
func (a *Attributes) SetString(name, value string) { a.Set(name, strPtr(value)) }

// Delete removes name.
func (a *Attributes) Delete(name string) {
	for i := range a.list {
		if a.list[i].Name == name {
			a.list = append(a.list[:i:i], a.list[i+1:]...)
			return
		}
	}
}

// Clone returns an independent copy.
func (a Attributes) Clone() Attributes {
	return Attributes{list: append([]Attr(nil), a.list...)}
}

// Classes returns the class tokens.
func (a Attributes) Classes() []string {
	return strings.Fields(a.Value("class"))
}

// HasClass reports whether class is one of the class tokens.
func (a Attributes) HasClass(class string) bool {
	for _, c := range a.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends class to the class list.
func (a *Attributes) AddClass(class string) {
	if cur := a.Value("class"); cur != "" {
		a.SetString("class", cur+" "+class)
		return
	}
	a.SetString("class", class)
}

// RemoveClass drops every occurrence of class; an emptied class attribute is removed.
func (a *Attributes) RemoveClass(class string) {
	if _, ok := a.Get("class"); !ok {
		return
	}
	var kept []string
	for _, c := range a.Classes() {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		a.Delete("class")
		return
	}
	a.SetString("class", strings.Join(kept, " "))
}

// Merge returns a copy of a with local applied on top: class values are
// concatenated, every other key is overwritten.
func (a Attributes) Merge(local Attributes) Attributes {
	out := a.Clone()
	for _, at := range local.list {
		if at.Name == "class" && at.Value != nil {
			if cur := out.Value("class"); cur != "" {
				out.SetString("class", cur+" "+*at.Value)
				continue
			}
		}
		out.Set(at.Name, at.Value)
	}
	return out
}

var (
	classTokenRe = regexp.MustCompile(`^\.(-?[_a-zA-Z]+[_a-zA-Z0-9-]*)$`)
	keyValueRe   = regexp.MustCompile(`^([^\s="']+)=(?:"([^"]*)"|'([^']*)'|([^\s"']*))$`)
)

// ComputeAttributes turns inline attribute list contents (the text between
// "{:" and "}") into an attribute set. Tokens are "#id", ".class",
// name="value" and bare names; a bare name matching an ADL expands to that
// definition. Inherited ADL values are applied before local ones.
func ComputeAttributes(segments []string, adls ADLs) Attributes {
	return computeAttributes(segments, adls, map[string]bool{})
}

func computeAttributes(segments []string, adls ADLs, expanding map[string]bool) Attributes {
	var inherited, local Attributes
	for _, seg := range segments {
		for _, tok := range tokenizeAttributes(seg) {
			switch {
			case len(tok) > 1 && tok[0] == '#':
				local.SetString("id", tok[1:])
			case classTokenRe.MatchString(tok):
				local.AddClass(tok[1:])
			case keyValueRe.MatchString(tok):
				m := keyValueRe.FindStringSubmatch(tok)
				local.SetString(m[1], m[2]+m[3]+m[4])
			default:
				def, isADL := adls[tok]
				if isADL && !expanding[tok] {
					expanding[tok] = true
					inherited = inherited.Merge(computeAttributes([]string{def}, adls, expanding))
					delete(expanding, tok)
					continue
				}
				if !isADL {
					local.Set(tok, nil)
				}
			}
		}
	}
	return inherited.Merge(local)
}

// tokenizeAttributes splits on whitespace outside single or double quotes.
func tokenizeAttributes(s string) []string {
	var (
		tokens []string
		cur    strings.Builder
		quote  byte
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			cur.WriteByte(c)
		case c == ' ' || c == '\t':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}
