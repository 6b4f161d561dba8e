package transclude

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/variables"
)

type fixture struct {
	src, dst string
	sink     *diag.Collector
}

func newFixture(t *testing.T, files map[string]string) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{src: filepath.Join(root, "src"), dst: filepath.Join(root, "out"), sink: diag.NewCollector()}
	for name, content := range files {
		path := filepath.Join(f.src, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return f
}

func (f fixture) expander(opts Options) *Expander {
	opts.SourceRoot = f.src
	opts.DestRoot = f.dst
	opts.Sink = f.sink
	return New(opts)
}

func (f fixture) expand(t *testing.T, e *Expander, name string) string {
	t.Helper()
	path := filepath.Join(f.src, filepath.FromSlash(name))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	destDir := filepath.Join(f.dst, filepath.Dir(filepath.FromSlash(name)))
	return e.Expand(context.Background(), path, destDir, string(data))
}

func TestExpand_SectionWrappedInMarkers(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "Before\n{{b.md#intro}}\nAfter\n",
		"b.md": "## Intro\n{: #intro}\nHello\n",
	})
	out := f.expand(t, f.expander(Options{}), "a.md")

	assert.Equal(t, "Before\n<!-- Include START: b.md#intro -->\n## Intro\n{: #intro}\nHello\n<!-- Include END -->\nAfter\n", out)
	assert.Zero(t, f.sink.Count(""))
}

func TestExpand_WholeFile(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md":           "{{ shared/note.md }}",
		"shared/note.md": "Note body\n",
	})
	out := f.expand(t, f.expander(Options{}), "a.md")
	assert.Equal(t, "<!-- Include START: shared/note.md -->\nNote body\n<!-- Include END -->", out)
}

func TestExpand_ReferencedFolderKeyrefAboveGlobal(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md":            "{{lib/b.md}}",
		"lib/b.md":        "{{site.data.keyword.product}} by {{site.data.keyword.vendor}}",
		"lib/keyref.yaml": "keyword:\n  product: Local\n",
	})
	global := variables.Maps{variables.SiteData(map[string]any{
		"keyword": map[string]any{"product": "Global", "vendor": "ACME"},
	})}
	out := f.expand(t, f.expander(Options{Global: global}), "a.md")
	assert.Contains(t, out, "\nLocal by ACME\n")
}

func TestExpand_AssetsMirroredIntoIncludes(t *testing.T) {
	f := newFixture(t, map[string]string{
		"guide/a.md":       "{{../shared/b.md}}",
		"shared/b.md":      "![pic](img/p.png) [doc](other.md#top) [web](https://example.com) [here](#local)\n",
		"shared/img/p.png": "png",
	})
	out := f.expand(t, f.expander(Options{}), "guide/a.md")

	assert.Contains(t, out, "![pic](../includes/shared/img/p.png)")
	assert.Contains(t, out, "[doc](../shared/other.md#top)")
	assert.Contains(t, out, "[web](https://example.com)")
	assert.Contains(t, out, "[here](#local)")

	data, err := os.ReadFile(filepath.Join(f.dst, IncludesDir, "shared", "img", "p.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestExpand_NestedTransclusion(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md":     "{{sub/b.md}}",
		"sub/b.md": "B {{c.md}}",
		"sub/c.md": "C",
	})
	out := f.expand(t, f.expander(Options{}), "a.md")
	assert.Equal(t, "<!-- Include START: sub/b.md -->\nB <!-- Include START: c.md -->\nC\n<!-- Include END -->\n<!-- Include END -->", out)
}

func TestExpand_CycleLeftLiteral(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "{{b.md}}",
		"b.md": "B {{a.md}}",
	})
	out := f.expand(t, f.expander(Options{}), "a.md")
	assert.Equal(t, "<!-- Include START: b.md -->\nB {{a.md}}\n<!-- Include END -->", out)
	assert.Equal(t, 1, f.sink.Count(errors.CategoryStructural))
}

func TestExpand_SelfSectionIsAllowed(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "Para text\n{: #p}\n\nRepeat: {{a.md#p}}\n",
	})
	out := f.expand(t, f.expander(Options{}), "a.md")
	assert.Contains(t, out, "Repeat: <!-- Include START: a.md#p -->\nPara text\n{: #p}\n<!-- Include END -->")
	assert.Zero(t, f.sink.Count(""))
}

func TestExpand_MissingFileAndSection(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "{{missing.md}} {{b.md#nope}}",
		"b.md": "nothing labelled\n",
	})
	out := f.expand(t, f.expander(Options{}), "a.md")
	assert.Equal(t, "{{missing.md}} {{b.md#nope}}", out)
	assert.Equal(t, 2, f.sink.Count(errors.CategoryReference))
}

func TestExpand_IgnoresFencedPlaceholders(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "```\n{{b.md}}\n```\n",
		"b.md": "B",
	})
	out := f.expand(t, f.expander(Options{}), "a.md")
	assert.Equal(t, "```\n{{b.md}}\n```\n", out)
}

func TestExpand_ParameterizedIDsUseHostStem(t *testing.T) {
	f := newFixture(t, map[string]string{
		"page.md": "{{b.md#intro}}",
		"b.md":    "## Intro\n{: #intro}\nHello\n",
	})
	out := f.expand(t, f.expander(Options{ParameterizeIDs: true}), "page.md")
	assert.Contains(t, out, "{: #page-include-intro}")
}

func TestExpand_DuplicateReferenceExpandedOnce(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "{{b.md}} {{b.md}}",
		"b.md": "{{undefined}}",
	})
	out := f.expand(t, f.expander(Options{}), "a.md")
	assert.Equal(t, 2, strings.Count(out, "Include START"))
	assert.Equal(t, 1, f.sink.Count(errors.CategoryReference))
}
