package toc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) *Tree {
	t.Helper()
	tree := NewTree()
	root := tree.Root()
	root.Label = "Docs"
	root.AddProperty("version", "1")

	intro, err := tree.Append(RootIndex, Node{
		Kind:       KindTopic,
		Label:      "Intro & overview",
		Href:       "intro.html",
		ID:         "intro",
		Properties: []Property{{Name: "navgroup", Value: "start"}},
	})
	require.NoError(t, err)
	_, err = tree.Append(intro, Node{Kind: KindAnchor, Label: "Details", Href: "intro.html#details", ID: "details"})
	require.NoError(t, err)

	group, err := tree.Append(RootIndex, Node{Kind: KindTopicGroup, Label: "Reference", Properties: []Property{{Name: "topicgroup", Value: "Reference"}}})
	require.NoError(t, err)
	_, err = tree.Append(group, Node{Kind: KindTopic, Label: "API", Href: "api.html"})
	require.NoError(t, err)

	_, err = tree.Append(RootIndex, Node{
		Kind:       KindLink,
		Label:      "Home",
		Href:       "https://example.com",
		LinkType:   LinkExternal,
		Properties: []Property{{Name: "navgroup", Value: "ext"}},
	})
	require.NoError(t, err)
	return tree
}

func TestJSONAdapterFormat(t *testing.T) {
	out, err := JSONAdapter{}.Marshal(sampleTree(t))
	require.NoError(t, err)

	assert.JSONEq(t, `{"toc": {
		"label": "Docs",
		"properties": [{"name": "version", "value": "1"}],
		"topics": [
			{"label": "Intro & overview", "href": "intro.html", "id": "intro",
			 "properties": [{"name": "navgroup", "value": "start"}],
			 "topics": [
				{"label": "Details", "href": "intro.html#details", "id": "details",
				 "properties": [{"name": "type", "value": "anchor"}]}
			 ]},
			{"topicgroup": {"label": "Reference",
			 "properties": [{"name": "topicgroup", "value": "Reference"}],
			 "topics": [{"label": "API", "href": "api.html"}]}},
			{"link": {"type": "external", "label": "Home", "href": "https://example.com",
			 "properties": [{"name": "navgroup", "value": "ext"}]}}
		]
	}}`, string(out))
}

func TestXMLAdapterFormat(t *testing.T) {
	out, err := XMLAdapter{}.Marshal(sampleTree(t))
	require.NoError(t, err)
	s := string(out)

	assert.True(t, len(s) > 0 && s[len(s)-1] == '\n')
	assert.Contains(t, s, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, s, `<toc label="Docs">`)
	assert.Contains(t, s, `<property name="version" value="1"></property>`)
	assert.Contains(t, s, `<topic label="Intro &amp; overview" href="intro.html" id="intro">`)
	assert.Contains(t, s, `<anchor label="Details" href="intro.html#details" id="details"></anchor>`)
	assert.Contains(t, s, `<topicgroup label="Reference">`)
	assert.Contains(t, s, `<link label="Home" href="https://example.com" type="external">`)
	assert.Contains(t, s, `<property name="navgroup" value="ext"></property>`)
}

func TestAdaptersRoundTripIsStable(t *testing.T) {
	for _, a := range Adapters(true, true) {
		t.Run(a.Name(), func(t *testing.T) {
			first, err := a.Marshal(sampleTree(t))
			require.NoError(t, err)

			tree, err := a.Unmarshal(first)
			require.NoError(t, err)
			second, err := a.Marshal(tree)
			require.NoError(t, err)

			assert.Equal(t, string(first), string(second))

			top := tree.Children(RootIndex)
			require.Len(t, top, 3)
			assert.Equal(t, KindTopic, tree.Node(top[0]).Kind)
			assert.Equal(t, KindAnchor, tree.Node(tree.Children(top[0])[0]).Kind)
			assert.Equal(t, KindTopicGroup, tree.Node(top[1]).Kind)
			assert.Equal(t, KindLink, tree.Node(top[2]).Kind)
			assert.Equal(t, LinkExternal, tree.Node(top[2]).LinkType)
		})
	}
}

func TestXMLAdapterRejectsUnknownElements(t *testing.T) {
	_, err := XMLAdapter{}.Unmarshal([]byte(`<toc><chapter label="x"></chapter></toc>`))
	require.Error(t, err)

	_, err = XMLAdapter{}.Unmarshal([]byte(`<nav></nav>`))
	require.Error(t, err)
}

func TestAdapterByName(t *testing.T) {
	a, err := AdapterByName("xml")
	require.NoError(t, err)
	assert.Equal(t, "toc.xml", a.Filename())

	_, err = AdapterByName("yaml")
	assert.Error(t, err)
}

func TestTreeAppendRejectsChildrenOfLinks(t *testing.T) {
	tree := NewTree()
	link, err := tree.Append(RootIndex, Node{Kind: KindLink, Href: "x"})
	require.NoError(t, err)

	_, err = tree.Append(link, Node{Kind: KindTopic})
	assert.Error(t, err)
	_, err = tree.Append(RootIndex, Node{Kind: KindRoot})
	assert.Error(t, err)
	_, err = tree.Append(42, Node{Kind: KindTopic})
	assert.Error(t, err)
}

func TestAdjustRelativeLinks(t *testing.T) {
	tree := NewTree()
	for _, href := range []string{"a.html", "#frag", "/abs.html", "https://x.org/", "mailto:me@x.org", "../up.html"} {
		_, err := tree.Append(RootIndex, Node{Kind: KindTopic, Href: href})
		require.NoError(t, err)
	}

	AdjustRelativeLinks(tree, "sub/dir")

	var got []string
	for _, c := range tree.Children(RootIndex) {
		got = append(got, tree.Node(c).Href)
	}
	assert.Equal(t, []string{"sub/dir/a.html", "#frag", "/abs.html", "https://x.org/", "mailto:me@x.org", "sub/up.html"}, got)
}
