package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nkey: value\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatter(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\nBody\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("Body\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestExtract_DecodesFields(t *testing.T) {
	m, body, err := Extract([]byte("---\ncopyright: 2024\ndocument:\n  author: me\n---\n# Hi\n"))
	require.NoError(t, err)
	require.Equal(t, []byte("# Hi\n"), body)
	require.Equal(t, 2024, m["copyright"])
	require.Empty(t, m.DocumentTitle())
}

func TestExtract_InvalidYAMLIsParseWarning(t *testing.T) {
	_, body, err := Extract([]byte("---\n: [\n---\nbody\n"))
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryParse))
	require.Equal(t, []byte("---\n: [\n---\nbody\n"), body)
}

func TestMatter_WithDocumentTitle(t *testing.T) {
	m := Matter{"document": map[string]any{"author": "me"}}
	withTitle := m.WithDocumentTitle("Heading")
	require.Equal(t, "Heading", withTitle.DocumentTitle())
	require.Empty(t, m.DocumentTitle(), "original must not be mutated")

	kept := Matter{"document": map[string]any{"title": "Set"}}.WithDocumentTitle("Heading")
	require.Equal(t, "Set", kept.DocumentTitle())
}
