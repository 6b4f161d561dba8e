package pdf

import (
	"bytes"
	"path/filepath"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

// InjectBase adds <base href="file:///dir/"> to the document head. html.Parse
// synthesizes a head when the page has none.
func InjectBase(page []byte, dir string) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "failed to parse HTML").Build()
	}

	head := findElement(doc, atom.Head)
	if head == nil {
		return nil, errors.RenderError("could not locate a <head> element").Build()
	}

	href := "file://" + filepath.ToSlash(dir)
	if href[len(href)-1] != '/' {
		href += "/"
	}
	base := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Base,
		Data:     "base",
		Attr:     []html.Attribute{{Key: "href", Val: href}},
	}
	head.InsertBefore(base, head.FirstChild)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to render HTML").Build()
	}
	return buf.Bytes(), nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
