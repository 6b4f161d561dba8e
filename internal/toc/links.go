package toc

import (
	"path"
	"regexp"
	"strings"
)

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

func isRelativeHref(href string) bool {
	if href == "" || strings.HasPrefix(href, "/") || strings.HasPrefix(href, "#") || strings.HasPrefix(href, `\`) {
		return false
	}
	return !schemeRe.MatchString(href)
}

// AdjustRelativeLinks rebases every relative href in t onto dir, so a
// fragment written for a file in dir reads correctly from dir's parent TOC.
func AdjustRelativeLinks(t *Tree, dir string) {
	dir = strings.ReplaceAll(dir, `\`, "/")
	if dir == "" || dir == "." {
		return
	}
	PrefixHrefs(t, dir)
}

// PrefixHrefs joins prefix in front of every relative href.
func PrefixHrefs(t *Tree, prefix string) {
	for i := 1; i < t.Len(); i++ {
		n := t.Node(i)
		if isRelativeHref(n.Href) {
			n.Href = path.Join(prefix, n.Href)
		}
	}
}

// PrefixIDs prepends prefix and a dash to every non-empty node id.
func PrefixIDs(t *Tree, prefix string) {
	for i := 1; i < t.Len(); i++ {
		n := t.Node(i)
		if n.ID != "" {
			n.ID = prefix + "-" + n.ID
		}
	}
}
