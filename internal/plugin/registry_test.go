package plugin

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/toc"
	"git.home.luguber.info/inful/docpress/internal/variables"
)

type testPlugin struct {
	BasePlugin
	name     string
	hooks    Hooks
	inits    int
	cleanups *[]string
}

func (p *testPlugin) Metadata() Metadata {
	return Metadata{Name: p.name, Version: "v1.0.0", Type: TypeTransform}
}

func (p *testPlugin) Hooks() Hooks { return p.hooks }

func (p *testPlugin) Init(*Context) error {
	p.inits++
	return nil
}

func (p *testPlugin) Cleanup() error {
	if p.cleanups != nil {
		*p.cleanups = append(*p.cleanups, p.name)
	}
	return nil
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry(nil)

	require.NoError(t, r.Register(&testPlugin{name: "a"}))
	assert.True(t, r.Has("a"))
	assert.Error(t, r.Register(&testPlugin{name: "a"}), "duplicate names are rejected")
	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&testPlugin{}), "metadata must name the plugin")
	assert.Equal(t, 1, r.Count())

	_, err := r.Get("missing")
	assert.Error(t, err)
}

func TestRegistryLifecycleOrder(t *testing.T) {
	var cleaned []string
	a := &testPlugin{name: "a", cleanups: &cleaned}
	b := &testPlugin{name: "b", cleanups: &cleaned}
	r := NewRegistry(nil)
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))

	require.NoError(t, r.Init(NewContext(nil, "src", "out", "run")))
	assert.Equal(t, 1, a.inits)
	assert.Equal(t, 1, b.inits)

	require.NoError(t, r.Cleanup())
	assert.Equal(t, []string{"b", "a"}, cleaned)
}

func TestRegistryWithoutPluginsPassesValuesThrough(t *testing.T) {
	r := NewRegistry(nil)
	ctx := context.Background()

	assert.Nil(t, r.TOCGet(ctx, TOCGetContext{SourcePath: "src"}))
	assert.Equal(t, []byte("x"), r.TOCComplete(ctx, []byte("x"), TOCCompleteContext{}))
	assert.Equal(t, []string{"a", "b"}, r.DirFiles(ctx, []string{"a", "b"}, DirContext{}))
	assert.True(t, r.ShouldProcess(true, FileContext{}))
	assert.False(t, r.ShouldProcess(false, FileContext{}))
	assert.Equal(t, "<p/>", r.HTMLComplete(ctx, "<p/>", HTMLContext{}))
	assert.Empty(t, r.TOCItemHooks())
}

func TestRegistryChainsHooksInOrder(t *testing.T) {
	r := NewRegistry(nil)
	ctx := context.Background()
	require.NoError(t, r.Register(&testPlugin{name: "first", hooks: Hooks{
		HTMLComplete: func(s string, _ HTMLContext) (string, error) { return s + "1", nil },
		VariablesAdd: func(m variables.Map, _ VariablesContext) (variables.Map, error) {
			m["from"] = "first"
			return m, nil
		},
		DirFiles: func(files []string, _ DirContext) ([]string, error) { return files[1:], nil },
	}}))
	require.NoError(t, r.Register(&testPlugin{name: "second", hooks: Hooks{
		HTMLComplete: func(s string, _ HTMLContext) (string, error) { return s + "2", nil },
		VariablesAdd: func(m variables.Map, _ VariablesContext) (variables.Map, error) {
			m["from"] = m["from"].(string) + ",second"
			return m, nil
		},
		ShouldProcess: func(prev bool, fc FileContext) bool { return prev && !fc.IsDir },
	}}))

	assert.Equal(t, "x12", r.HTMLComplete(ctx, "x", HTMLContext{}))
	assert.Equal(t, "first,second", r.VariablesAdd(ctx, variables.Map{}, VariablesContext{})["from"])
	assert.Equal(t, []string{"b"}, r.DirFiles(ctx, []string{"a", "b"}, DirContext{}))
	assert.False(t, r.ShouldProcess(true, FileContext{IsDir: true}))
}

func TestRegistryFailingHookKeepsPreviousValue(t *testing.T) {
	sink := diag.NewCollector()
	r := NewRegistry(sink)
	ctx := context.Background()
	boom := stderrors.New("boom")
	require.NoError(t, r.Register(&testPlugin{name: "bad", hooks: Hooks{
		TOCComplete: func([]byte, TOCCompleteContext) ([]byte, error) { return nil, boom },
		TOCGet:      func(TOCGetContext) (*toc.Document, error) { return nil, boom },
	}}))
	require.NoError(t, r.Register(&testPlugin{name: "good", hooks: Hooks{
		TOCGet: func(TOCGetContext) (*toc.Document, error) {
			return &toc.Document{}, nil
		},
	}}))

	assert.Equal(t, []byte("keep"), r.TOCComplete(ctx, []byte("keep"), TOCCompleteContext{Format: "json"}))
	assert.NotNil(t, r.TOCGet(ctx, TOCGetContext{}), "later plugins still run")
	assert.Equal(t, 2, sink.Count(errors.CategoryPlugin))

	entries := sink.Entries()
	assert.Equal(t, "bad", entries[0].Context()["plugin"])
	assert.Equal(t, "json.toc.onComplete", entries[0].Context()["hook"])
}

func TestRegistryTOCItemHooksAttributeErrors(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&testPlugin{name: "tocs", hooks: Hooks{
		TOCItem: func(toc.ItemContext, *toc.Tree) (*toc.Tree, error) { return nil, stderrors.New("nope") },
	}}))

	hooks := r.TOCItemHooks()
	require.Len(t, hooks, 1)
	_, err := hooks[0](toc.ItemContext{Format: "xml"}, nil)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "tocs", perr.PluginName)
	assert.Equal(t, "xml.toc.file.onGenerate", perr.Hook)
}
