package variables

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

func resolve(t *testing.T, maps Maps, text string) (string, *diag.Collector) {
	t.Helper()
	sink := diag.NewCollector()
	out := NewResolver(maps, WithSink(sink), WithSource("a.md")).Resolve(context.Background(), text)
	return out, sink
}

func TestResolve_LaterMapWins(t *testing.T) {
	out, sink := resolve(t, Maps{{"x": "1"}, {"x": "2"}}, "{{x}}")
	assert.Equal(t, "2", out)
	assert.Zero(t, sink.Count(""))
}

func TestResolve_EmptyLaterValueFallsThrough(t *testing.T) {
	out, _ := resolve(t, Maps{{"x": "1"}, {"x": ""}}, "{{x}}")
	assert.Equal(t, "1", out)
}

func TestResolve_FullKeyBeforeDotPath(t *testing.T) {
	maps := Maps{{
		"site.name": "flat",
		"site":      map[string]any{"name": "nested"},
	}}
	out, _ := resolve(t, maps, "{{site.name}}")
	assert.Equal(t, "flat", out)
}

func TestResolve_DotPathAndScalars(t *testing.T) {
	maps := Maps{SiteData(map[string]any{
		"keyword": map[string]any{"product": "Cloud", "version": 3, "beta": true, "ratio": 1.5},
	})}
	out, _ := resolve(t, maps, "{{site.data.keyword.product}} v{{site.data.keyword.version}} {{site.data.keyword.beta}} {{site.data.keyword.ratio}}")
	assert.Equal(t, "Cloud v3 true 1.5", out)
}

func TestResolve_UnresolvedKeptLiteralWithWarning(t *testing.T) {
	out, sink := resolve(t, Maps{{"a": "A"}}, "x {{ missing }} {{a}}\n")
	assert.Equal(t, "x {{ missing }} A\n", out)
	require.Equal(t, 1, sink.Count(errors.CategoryReference))
	key, _ := sink.Entries()[0].Context().GetString("key")
	assert.Equal(t, "missing", key)
}

func TestResolve_MapValueIsUnresolved(t *testing.T) {
	out, sink := resolve(t, Maps{{"site": map[string]any{"data": map[string]any{}}}}, "{{site}}")
	assert.Equal(t, "{{site}}", out)
	assert.Equal(t, 1, sink.Count(""))
}

func TestResolve_ValueIsRescanned(t *testing.T) {
	out, _ := resolve(t, Maps{{"greeting": "Hello {{name}}", "name": "World"}}, "{{greeting}}!")
	assert.Equal(t, "Hello World!", out)
}

func TestResolve_ValueCompletesFollowingPlaceholder(t *testing.T) {
	out, _ := resolve(t, Maps{{"open": "{{na", "name": "joined"}}, "{{open}}me}}")
	assert.Equal(t, "joined", out)
}

func TestResolve_SelfReferenceStopsWithStructuralWarning(t *testing.T) {
	out, sink := resolve(t, Maps{{"a": "<{{b}}>", "b": "[{{a}}]"}}, "{{a}} {{a}}")
	assert.Equal(t, "<[{{a}}]> <[{{a}}]>", out)
	assert.Equal(t, 2, sink.Count(errors.CategoryStructural))
}

func TestResolve_SameKeyTwiceInSequenceIsNotACycle(t *testing.T) {
	out, sink := resolve(t, Maps{{"v": "x"}}, "{{v}}{{v}}")
	assert.Equal(t, "xx", out)
	assert.Zero(t, sink.Count(""))
}

func TestResolve_MaxDepth(t *testing.T) {
	maps := Maps{{"a": "{{b}}", "b": "{{c}}", "c": "end"}}
	sink := diag.NewCollector()
	out := NewResolver(maps, WithSink(sink), WithMaxDepth(2)).Resolve(context.Background(), "{{a}}")
	assert.Equal(t, "{{c}}", out)
	assert.Equal(t, 1, sink.Count(errors.CategoryStructural))
}

func TestResolve_UnterminatedPlaceholderAppendedAsIs(t *testing.T) {
	out, sink := resolve(t, Maps{{"a": "A"}}, "{{a}} and {{broken")
	assert.Equal(t, "A and {{broken", out)
	assert.Zero(t, sink.Count(""))
}

func TestResolve_TransclusionKeysLeftSilently(t *testing.T) {
	out, sink := resolve(t, nil, "{{b.md#intro}} {{other/c.md}}")
	assert.Equal(t, "{{b.md#intro}} {{other/c.md}}", out)
	assert.Zero(t, sink.Count(""))
}

func TestResolve_RestoresTrailingNewline(t *testing.T) {
	out, _ := resolve(t, Maps{{"nl": "value"}}, "{{nl}}\n")
	assert.Equal(t, "value\n", out)
	out, _ = resolve(t, Maps{{"nl": "x"}}, "none")
	assert.Equal(t, "none", out)
}

func TestMaps_ReplaceAllDeepCopies(t *testing.T) {
	orig := Maps{{"id": "%f%-x", "nested": map[string]any{"v": "%f%"}}}
	replaced := orig.ReplaceAll("%f%", "page")

	v, ok := replaced.Lookup("nested.v")
	require.True(t, ok)
	assert.Equal(t, "page", v)
	v, _ = orig.Lookup("id")
	assert.Equal(t, "%f%-x", v)
}

func TestMaps_With(t *testing.T) {
	base := Maps{{"a": "1"}}
	layered := base.With(nil, Map{"a": "2"})
	assert.Len(t, base, 1)
	v, _ := layered.Lookup("a")
	assert.Equal(t, "2", v)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keyref.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keyword:\n  product: Cloud\n"), 0o644))

	data, err := LoadYAMLFile(path)
	require.NoError(t, err)
	v, ok := Maps{SiteData(data)}.Lookup("site.data.keyword.product")
	require.True(t, ok)
	assert.Equal(t, "Cloud", v)

	missing, err := LoadYAMLFile(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, os.WriteFile(path, []byte("a: [unclosed"), 0o644))
	_, err = LoadYAMLFile(path)
	assert.True(t, errors.HasCategory(err, errors.CategoryParse))
}
