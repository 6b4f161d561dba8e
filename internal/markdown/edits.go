package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

// Edit represents a targeted byte-range replacement.
//
// Start and End are byte offsets into the original source, with End exclusive.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits applies a set of non-overlapping byte-range edits to source and
// returns the updated content. Offsets always refer to the original source.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(source) {
			return nil, fmt.Errorf("invalid edit[%d]: range %d..%d outside source of %d bytes", i, e.Start, e.End, len(source))
		}
		if i > 0 && e.Start < sorted[i-1].End {
			return nil, errors.New("invalid edits: overlapping ranges")
		}
	}

	var out bytes.Buffer
	out.Grow(len(source))
	cursor := 0
	for _, e := range sorted {
		out.Write(source[cursor:e.Start])
		out.Write(e.Replacement)
		cursor = e.End
	}
	out.Write(source[cursor:])
	return out.Bytes(), nil
}
