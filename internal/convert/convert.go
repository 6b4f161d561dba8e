package convert

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/markdown"
	"git.home.luguber.info/inful/docpress/internal/toc"
)

const (
	// AttrNoTOC keeps a heading out of the per-file fragment.
	AttrNoTOC = "notoc"
	// AttrTOCPrefix marks heading attributes copied onto the fragment topic as
	// properties, with the prefix removed.
	AttrTOCPrefix = "toc-"
)

var (
	blockAttrRe  = regexp.MustCompile(`^\s*\{:([^}]*)\}\s*$`)
	adlRe        = regexp.MustCompile(`^\s*\{:([\w-]+):\s*([^}]*)\}\s*$`)
	atxHeadingRe = regexp.MustCompile(`^ {0,3}#{1,6}(?:\s|$)`)
	attrNameRe   = regexp.MustCompile(`^[A-Za-z_:][A-Za-z0-9_:.-]*$`)
)

// Options configures a Converter.
type Options struct {
	// Attributes enables "{: ...}" block attribute syntax. Attribute lines
	// following a heading are applied to it and every other attribute line
	// is removed from the output.
	Attributes bool
	// TOCDepth is the deepest heading level that becomes a fragment topic.
	TOCDepth int
}

// Result is the outcome of converting one markdown document.
type Result struct {
	HTML  string
	Title string // text of the first heading, empty when there is none
	// Fragment holds one topic per heading, nested by heading level, with
	// hrefs pointing into the generated HTML file.
	Fragment *toc.Tree
}

// Converter renders markdown to HTML with goldmark.
type Converter struct {
	md   goldmark.Markdown
	opts Options
}

// New creates a Converter.
func New(opts Options) *Converter {
	if opts.TOCDepth <= 0 {
		opts.TOCDepth = 6
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote, extension.DefinitionList),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Converter{md: md, opts: opts}
}

// Convert renders source and collects its heading fragment. htmlHref is the
// name of the HTML file the result is written to; fragment hrefs are
// "<htmlHref>#<heading id>".
func (c *Converter) Convert(source []byte, htmlHref string) (*Result, error) {
	if c.opts.Attributes {
		source = []byte(applyBlockAttributes(string(source)))
	}

	doc := c.md.Parser().Parse(text.NewReader(source))

	res := &Result{Fragment: toc.NewTree()}
	type open struct{ level, idx int }
	var stack []open

	err := gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		label := plainText(h, source)
		if res.Title == "" {
			res.Title = label
		}

		props, skip := takeTOCAttributes(h)
		if skip || h.Level > c.opts.TOCDepth {
			return gmast.WalkSkipChildren, nil
		}

		for len(stack) > 0 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		parent := toc.RootIndex
		if len(stack) > 0 {
			parent = stack[len(stack)-1].idx
		}
		href := htmlHref
		if id, ok := h.AttributeString("id"); ok {
			href += "#" + attributeString(id)
		}
		idx, err := res.Fragment.Append(parent, toc.Node{
			Kind:       toc.KindTopic,
			Label:      label,
			Href:       href,
			Properties: props,
		})
		if err != nil {
			return gmast.WalkStop, err
		}
		stack = append(stack, open{level: h.Level, idx: idx})
		return gmast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to collect headings").Build()
	}

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to render markdown").Build()
	}
	res.HTML = buf.String()
	return res, nil
}

// takeTOCAttributes removes the notoc flag and toc-* attributes from a
// heading so they do not reach the HTML, returning the properties and
// whether the heading opted out.
func takeTOCAttributes(h *gmast.Heading) ([]toc.Property, bool) {
	attrs := h.Attributes()
	if len(attrs) == 0 {
		return nil, false
	}
	var (
		props []toc.Property
		kept  []gmast.Attribute
		skip  bool
	)
	for _, a := range attrs {
		name := string(a.Name)
		switch {
		case name == AttrNoTOC:
			skip = true
		case strings.HasPrefix(name, AttrTOCPrefix):
			props = append(props, toc.Property{
				Name:  strings.TrimPrefix(name, AttrTOCPrefix),
				Value: attributeString(a.Value),
			})
		default:
			kept = append(kept, a)
		}
	}
	if len(kept) == len(attrs) {
		return nil, false
	}
	h.RemoveAttributes()
	for _, a := range kept {
		h.SetAttribute(a.Name, a.Value)
	}
	return props, skip
}

func attributeString(v any) string {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return ""
	}
}

// plainText concatenates the text segments below n.
func plainText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// applyBlockAttributes rewrites "{: ...}" lines into goldmark heading
// attributes. A line directly below an ATX heading is appended to it as
// "{#id .class name=\"value\"}"; attribute lines anywhere else and ADL
// declarations are dropped. Lines inside fenced code are left alone.
func applyBlockAttributes(src string) string {
	fences := markdown.FindFences(src)
	adls := toc.ADLs{}

	var (
		out        []string
		offset     int
		headingOut = -1
	)
	for _, raw := range strings.SplitAfter(src, "\n") {
		start := offset
		offset += len(raw)
		if raw == "" {
			continue
		}
		body := strings.TrimRight(raw, "\r\n")
		eol := raw[len(body):]

		if fences.Contains(start) {
			out = append(out, raw)
			headingOut = -1
			continue
		}
		if m := adlRe.FindStringSubmatch(body); m != nil {
			adls[m[1]] = m[2]
			continue
		}
		if m := blockAttrRe.FindStringSubmatch(body); m != nil {
			if headingOut >= 0 {
				if attrs := headingAttributes(toc.ComputeAttributes([]string{m[1]}, adls)); attrs != "" {
					h := out[headingOut]
					hb := strings.TrimRight(h, "\r\n")
					out[headingOut] = hb + " " + attrs + h[len(hb):]
				}
			}
			continue
		}

		headingOut = -1
		if atxHeadingRe.MatchString(body) {
			headingOut = len(out)
		}
		out = append(out, body+eol)
	}
	return strings.Join(out, "")
}

// headingAttributes formats attrs in goldmark's "{...}" heading syntax.
// Flags become name="name" since goldmark requires a value.
func headingAttributes(attrs toc.Attributes) string {
	var parts []string
	for _, a := range attrs.All() {
		switch {
		case a.Name == "id" && a.Value != nil:
			parts = append(parts, "#"+*a.Value)
		case a.Name == "class" && a.Value != nil:
			for _, c := range strings.Fields(*a.Value) {
				parts = append(parts, "."+c)
			}
		case !attrNameRe.MatchString(a.Name):
			continue
		case a.Value == nil:
			parts = append(parts, a.Name+`="`+a.Name+`"`)
		default:
			parts = append(parts, a.Name+`="`+quoteValue(*a.Value)+`"`)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func quoteValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}
