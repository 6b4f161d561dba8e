package plugin

import (
	"context"
	"fmt"
	"sync"

	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/toc"
	"git.home.luguber.info/inful/docpress/internal/variables"
)

// Registry holds plugins in registration order and runs their hooks. A
// handler that fails is reported and the value it was given is kept.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	sink    diag.Sink
}

// NewRegistry creates an empty registry reporting hook failures to sink.
func NewRegistry(sink diag.Sink) *Registry {
	if sink == nil {
		sink = diag.Discard
	}
	return &Registry{sink: sink}
}

// SetSink redirects hook failure reports, e.g. to a run-scoped sink.
func (r *Registry) SetSink(sink diag.Sink) {
	if sink == nil {
		sink = diag.Discard
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = sink
}

// Register appends a plugin. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("cannot register nil plugin")
	}
	meta := p.Metadata()
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("invalid plugin metadata: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.plugins {
		if existing.Metadata().Name == meta.Name {
			return fmt.Errorf("plugin %s already registered", meta.Name)
		}
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// Get retrieves a plugin by name.
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plugins {
		if p.Metadata().Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("plugin %s not found", name)
}

// List returns the registered plugins in order.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Plugin(nil), r.plugins...)
}

// Has checks if a plugin with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Init initializes every plugin that has a lifecycle, in order.
func (r *Registry) Init(pc *Context) error {
	for _, p := range r.List() {
		if lc, ok := p.(Lifecycle); ok {
			if err := lc.Init(pc); err != nil {
				return NewError(p.Metadata().Name, "init", err)
			}
		}
	}
	return nil
}

// Cleanup tears plugins down in reverse order and returns the first error.
func (r *Registry) Cleanup() error {
	var first error
	plugins := r.List()
	for i := len(plugins) - 1; i >= 0; i-- {
		if lc, ok := plugins[i].(Lifecycle); ok {
			if err := lc.Cleanup(); err != nil && first == nil {
				first = NewError(plugins[i].Metadata().Name, "cleanup", err)
			}
		}
	}
	return first
}

func (r *Registry) report(ctx context.Context, name, hook string, err error) {
	r.mu.RLock()
	sink := r.sink
	r.mu.RUnlock()
	sink.Report(ctx, errors.WrapError(NewError(name, hook, err), errors.CategoryPlugin, "plugin hook failed").
		Warning().
		WithContext("plugin", name).
		WithContext("hook", hook).
		Build())
}

// TOCGet asks plugins for a folder's TOC; the first document returned wins.
func (r *Registry) TOCGet(ctx context.Context, tc TOCGetContext) *toc.Document {
	for _, p := range r.List() {
		h := p.Hooks().TOCGet
		if h == nil {
			continue
		}
		doc, err := h(tc)
		if err != nil {
			r.report(ctx, p.Metadata().Name, "toc.get", err)
			continue
		}
		if doc != nil {
			return doc
		}
	}
	return nil
}

// TOCItemHooks returns the TOC entry hooks in registration order, with
// errors attributed to their plugin.
func (r *Registry) TOCItemHooks() []toc.ItemHook {
	var out []toc.ItemHook
	for _, p := range r.List() {
		h := p.Hooks().TOCItem
		if h == nil {
			continue
		}
		name := p.Metadata().Name
		out = append(out, func(ic toc.ItemContext, t *toc.Tree) (*toc.Tree, error) {
			res, err := h(ic, t)
			if err != nil {
				return nil, NewError(name, ic.Format+".toc.file.onGenerate", err)
			}
			return res, nil
		})
	}
	return out
}

// TOCComplete runs the serialized TOC through every plugin.
func (r *Registry) TOCComplete(ctx context.Context, data []byte, cc TOCCompleteContext) []byte {
	for _, p := range r.List() {
		h := p.Hooks().TOCComplete
		if h == nil {
			continue
		}
		out, err := h(data, cc)
		if err != nil {
			r.report(ctx, p.Metadata().Name, cc.Format+".toc.onComplete", err)
			continue
		}
		if out != nil {
			data = out
		}
	}
	return data
}

// VariablesAdd lets plugins extend a file's variable map.
func (r *Registry) VariablesAdd(ctx context.Context, m variables.Map, vc VariablesContext) variables.Map {
	for _, p := range r.List() {
		h := p.Hooks().VariablesAdd
		if h == nil {
			continue
		}
		out, err := h(m, vc)
		if err != nil {
			r.report(ctx, p.Metadata().Name, "md.variables.add", err)
			continue
		}
		if out != nil {
			m = out
		}
	}
	return m
}

// DirFiles lets plugins filter or reorder a folder listing.
func (r *Registry) DirFiles(ctx context.Context, files []string, dc DirContext) []string {
	for _, p := range r.List() {
		h := p.Hooks().DirFiles
		if h == nil {
			continue
		}
		out, err := h(files, dc)
		if err != nil {
			r.report(ctx, p.Metadata().Name, "file.dir.files.get", err)
			continue
		}
		files = out
	}
	return files
}

// ShouldProcess folds every plugin's decision, starting from the caller's
// default.
func (r *Registry) ShouldProcess(decision bool, fc FileContext) bool {
	for _, p := range r.List() {
		if h := p.Hooks().ShouldProcess; h != nil {
			decision = h(decision, fc)
		}
	}
	return decision
}

// HTMLComplete runs a finished page through every plugin.
func (r *Registry) HTMLComplete(ctx context.Context, html string, hc HTMLContext) string {
	for _, p := range r.List() {
		h := p.Hooks().HTMLComplete
		if h == nil {
			continue
		}
		out, err := h(html, hc)
		if err != nil {
			r.report(ctx, p.Metadata().Name, "html.onComplete", err)
			continue
		}
		html = out
	}
	return html
}
