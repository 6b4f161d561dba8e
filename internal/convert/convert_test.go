package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpress/internal/toc"
)

func TestConvert_FragmentNestsHeadingsUpToDepth(t *testing.T) {
	src := "# Title\n\nintro\n\n## Install\n{: #setup}\n\ntext\n\n### Deep\n\n## Usage\n"
	res, err := New(Options{Attributes: true, TOCDepth: 2}).Convert([]byte(src), "page.html")
	require.NoError(t, err)

	assert.Equal(t, "Title", res.Title)
	assert.Contains(t, res.HTML, `<h2 id="setup">Install</h2>`)
	assert.NotContains(t, res.HTML, "{:")

	f := res.Fragment
	top := f.Children(toc.RootIndex)
	require.Len(t, top, 1)
	assert.Equal(t, "Title", f.Node(top[0]).Label)
	assert.Equal(t, "page.html#title", f.Node(top[0]).Href)

	subs := f.Children(top[0])
	require.Len(t, subs, 2)
	assert.Equal(t, "page.html#setup", f.Node(subs[0]).Href)
	assert.Equal(t, "Usage", f.Node(subs[1]).Label)
	assert.Empty(t, f.Children(subs[0]))
}

func TestConvert_NoTOCAndPropertyAttributes(t *testing.T) {
	src := "# Hidden\n{: notoc}\n\n# Shown\n{: .wide toc-audience=\"admin\"}\n"
	res, err := New(Options{Attributes: true}).Convert([]byte(src), "a.html")
	require.NoError(t, err)

	assert.NotContains(t, res.HTML, "notoc")
	assert.NotContains(t, res.HTML, "toc-audience")
	assert.Contains(t, res.HTML, `class="wide"`)

	top := res.Fragment.Children(toc.RootIndex)
	require.Len(t, top, 1)
	n := res.Fragment.Node(top[0])
	assert.Equal(t, "Shown", n.Label)
	v, ok := n.Property("audience")
	require.True(t, ok)
	assert.Equal(t, "admin", v)
	assert.Equal(t, "Hidden", res.Title)
}

func TestConvert_FencedAttributeLinesAreLeftAlone(t *testing.T) {
	src := "```\n# not a heading\n{: #fake}\n```\n"
	res, err := New(Options{Attributes: true}).Convert([]byte(src), "a.html")
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "{: #fake}")
	assert.Equal(t, 1, res.Fragment.Len())
}

func TestConvert_ParagraphAttributeLinesAreDropped(t *testing.T) {
	src := "Some text.\n{: .note}\n"
	res, err := New(Options{Attributes: true}).Convert([]byte(src), "a.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>Some text.</p>\n", res.HTML)
}

func TestConvert_AttributesDisabledKeepsLiteralText(t *testing.T) {
	src := "# Title\n{: #custom}\n"
	res, err := New(Options{}).Convert([]byte(src), "a.html")
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "{: #custom}")
	assert.Equal(t, "a.html#title", res.Fragment.Node(res.Fragment.Children(toc.RootIndex)[0]).Href)
}

func TestApplyBlockAttributes_UsesDeclaredADLs(t *testing.T) {
	src := "{:shared: .common}\n## Heading\n{: shared #h}\n"
	assert.Equal(t, "## Heading {.common #h}\n", applyBlockAttributes(src))
}
