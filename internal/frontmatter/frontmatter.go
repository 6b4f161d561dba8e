package frontmatter

import (
	"bytes"
	stderrors "errors"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = stderrors.New("yaml front matter start delimiter found but closing delimiter is missing")

// Matter is the decoded front matter of a document. It is exposed to header
// and footer substitution as a variable map.
type Matter map[string]any

// DocumentTitle returns document.title, if set.
func (m Matter) DocumentTitle() string {
	doc, ok := m["document"].(map[string]any)
	if !ok {
		return ""
	}
	title, _ := doc["title"].(string)
	return title
}

// WithDocumentTitle returns a copy of m whose document.title is title unless
// the front matter already defines one.
func (m Matter) WithDocumentTitle(title string) Matter {
	out := make(Matter, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	if title == "" || m.DocumentTitle() != "" {
		return out
	}
	doc := map[string]any{}
	if cur, ok := m["document"].(map[string]any); ok {
		for k, v := range cur {
			doc[k] = v
		}
	}
	doc["title"] = title
	out["document"] = doc
	return out
}

// Split separates YAML front matter (`---` delimited) from the markdown body.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input. Both LF and CRLF line endings are recognised.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return content[start : start+idx+len(nl)], content[start+idx+len(closeSeq):], true, nil
}

// Extract splits content and decodes its front matter. A document without
// front matter yields an empty Matter and the unchanged body.
func Extract(content []byte) (Matter, []byte, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return nil, content, errors.WrapError(err, errors.CategoryParse, "invalid front matter").
			Warning().
			Build()
	}
	if !had || len(bytes.TrimSpace(raw)) == 0 {
		return Matter{}, body, nil
	}

	var fields Matter
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, content, errors.WrapError(err, errors.CategoryParse, "failed to decode front matter").
			Warning().
			Build()
	}
	if fields == nil {
		fields = Matter{}
	}
	return fields, body, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
