package transforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/plugin"
	"git.home.luguber.info/inful/docpress/internal/variables"
)

func TestSectionsWrapsHeadings(t *testing.T) {
	s := NewSections()
	in := `<h1 id="title" class="big">Title</h1><p>intro</p>` +
		`<h2 id="a">A</h2><p>a body</p>` +
		`<h2>No id</h2><p>loose</p>` +
		`<h2 id="b">B</h2><p>b body</p>`

	out, err := s.Hooks().HTMLComplete(in, plugin.HTMLContext{SourcePath: "doc.md"})
	require.NoError(t, err)

	assert.Equal(t,
		`<section id="section-title" class="big"><h1 id="title">Title</h1><p>intro</p>`+
			`<section id="section-a"><h2 id="a">A</h2><p>a body</p></section>`+
			`<h2>No id</h2><p>loose</p>`+
			`<section id="section-b"><h2 id="b">B</h2><p>b body</p></section></section>`,
		out)
}

func TestSectionsStopsAtSameLevel(t *testing.T) {
	out, err := NewSections().Hooks().HTMLComplete(`<h2 id="x">X</h2><p>1</p><h1 id="y">Y</h1>`, plugin.HTMLContext{})
	require.NoError(t, err)
	assert.Equal(t,
		`<section id="section-x"><h2 id="x">X</h2><p>1</p></section><section id="section-y"><h1 id="y">Y</h1></section>`,
		out)
}

func TestCodeVariables(t *testing.T) {
	sink := diag.NewCollector()
	c := NewCodeVariables(sink, 0)
	hc := plugin.HTMLContext{
		SourcePath: "doc.md",
		Variables:  variables.Maps{{"product": "Widget"}},
	}

	in := `<pre process-variables="true"><code>install {{product}} {{missing}}</code></pre>` +
		`<pre process-variables="false"><code>{{product}}</code></pre>` +
		`<pre><code>{{product}}</code></pre>`

	out, err := c.Hooks().HTMLComplete(in, hc)
	require.NoError(t, err)

	assert.Equal(t,
		`<pre><code>install Widget {{missing}}</code></pre>`+
			`<pre><code>{{product}}</code></pre>`+
			`<pre><code>{{product}}</code></pre>`,
		out)
	assert.Equal(t, 1, sink.Count(errors.CategoryReference))
}

func TestCodeVariablesLeavesUnmarkedPagesAlone(t *testing.T) {
	in := `<p>a &amp; b</p>`
	out, err := NewCodeVariables(nil, 0).Hooks().HTMLComplete(in, plugin.HTMLContext{})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
