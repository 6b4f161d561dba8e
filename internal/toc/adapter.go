package toc

import "fmt"

// Adapter serializes a Tree in one output format. Marshal must be
// deterministic: the same tree always yields the same bytes.
type Adapter interface {
	// Name is the format name used in hook and metric labels.
	Name() string
	// Filename is the generated TOC file name, also the fragment suffix.
	Filename() string
	Marshal(*Tree) ([]byte, error)
	Unmarshal([]byte) (*Tree, error)
}

// Adapters returns the enabled adapters in a fixed order.
func Adapters(json, xml bool) []Adapter {
	var out []Adapter
	if json {
		out = append(out, JSONAdapter{})
	}
	if xml {
		out = append(out, XMLAdapter{})
	}
	return out
}

// AdapterByName returns the adapter for "json" or "xml".
func AdapterByName(name string) (Adapter, error) {
	switch name {
	case "json":
		return JSONAdapter{}, nil
	case "xml":
		return XMLAdapter{}, nil
	}
	return nil, fmt.Errorf("unknown toc format %q", name)
}

const (
	propertyType = "type"
	anchorType   = "anchor"
)

func isAnchor(props []Property) bool {
	for _, p := range props {
		if p.Name == propertyType && p.Value == anchorType {
			return true
		}
	}
	return false
}
