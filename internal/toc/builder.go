package toc

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

const (
	classTOC         = "toc"
	classNavgroup    = "navgroup"
	classNavgroupEnd = "navgroup-end"
	classTopicGroup  = "topicgroup"

	attrID            = "id"
	attrClass         = "class"
	attrPath          = "path"
	attrSubcollection = "subcollection"
	attrTopicGroupID  = "topicgroup-id"
	propertyNavgroup  = "navgroup"
)

var (
	// [label](href), optionally with a title.
	linkRe            = regexp.MustCompile(`^!?\[((?:\[[^\]]*\]|[^\[\]])*)\]\(\s*<?(\S*?)>?(?:\s+["']([^"']*)["'])?\s*\)$`)
	absoluteTOCPathRe = regexp.MustCompile(`^[/\\].*[/\\](toc)?$`)
	absolutePathRe    = regexp.MustCompile(`^[/\\]`)
)

// FragmentSource returns the per-file TOC fragment written for reference
// (a path relative to destDir) in the format named by tocFilename.
type FragmentSource interface {
	Fragment(destDir, reference, tocFilename string) ([]byte, bool, error)
}

// ItemContext is what an ItemHook sees about the entry being placed.
type ItemContext struct {
	Format        string
	Destination   string
	Source        string
	Reference     string
	Level         int
	Attributes    Attributes
	PathPrefix    string
	Subcollection string
	Plaintext     bool
	ID            string
}

// ItemHook may replace, annotate or drop the subtree resolved for one TOC
// entry. The subtree's root children are what gets spliced in. A hook
// receives nil when nothing resolved the reference and may return a tree to
// resolve it; returning nil for a non-nil input drops the entry silently.
type ItemHook func(ItemContext, *Tree) (*Tree, error)

// Builder assembles TOC trees for one output format.
type Builder struct {
	Adapter   Adapter
	Fragments FragmentSource
	Hooks     []ItemHook
	Sink      diag.Sink
	// DirExists reports whether a destination path is a directory. It
	// defaults to an os.Stat check.
	DirExists func(string) bool
}

func dirExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

type navgroup struct {
	id    string
	level int
}

// buildContext is the state of one TOC file build.
type buildContext struct {
	ctx           context.Context
	destination   string
	source        string
	tree          *Tree
	stack         []int
	nav           *navgroup
	pathPrefix    string
	subcollection string
	rootClaimed   bool
}

// BuildFromLines parses a legacy TOC and builds its tree.
func (b *Builder) BuildFromLines(ctx context.Context, destination, source, text string) *Tree {
	return b.Build(ctx, destination, source, ParseLines(ctx, text, b.sink(), source))
}

// BuildFromObject builds the tree of a YAML TOC.
func (b *Builder) BuildFromObject(ctx context.Context, destination, source string, doc *Document) *Tree {
	return b.Build(ctx, destination, source, ParseObject(ctx, doc))
}

// Build resolves items in order against destination, the output folder the
// TOC is written to. Entries that cannot be placed are reported and skipped.
func (b *Builder) Build(ctx context.Context, destination, source string, items []Item) *Tree {
	bc := &buildContext{
		ctx:         ctx,
		destination: destination,
		source:      source,
		tree:        NewTree(),
		stack:       []int{RootIndex},
	}
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		b.addItem(bc, item)
	}
	return bc.tree
}

func (b *Builder) sink() diag.Sink {
	if b.Sink == nil {
		return diag.Discard
	}
	return b.Sink
}

func (b *Builder) report(bc *buildContext, eb *errors.ErrorBuilder, item Item) {
	b.sink().Report(bc.ctx, eb.
		WithContext("toc", bc.source).
		WithContext("format", b.Adapter.Name()).
		WithContext("reference", item.Reference).
		WithContext("level", item.Level).
		Build())
}

func (b *Builder) addItem(bc *buildContext, item Item) {
	attrs := item.Attributes.Clone()

	if item.Level == 1 && !bc.rootClaimed && attrs.HasClass(classTOC) {
		b.claimRoot(bc, item, attrs)
		return
	}

	closeNav := b.trackNavgroup(bc, item, &attrs)
	defer func() {
		if closeNav {
			bc.nav = nil
		}
	}()

	sub := b.resolve(bc, item, attrs)

	ic := ItemContext{
		Format:        b.Adapter.Name(),
		Destination:   bc.destination,
		Source:        bc.source,
		Reference:     item.Reference,
		Level:         item.Level,
		Attributes:    attrs,
		PathPrefix:    bc.pathPrefix,
		Subcollection: bc.subcollection,
		Plaintext:     item.Plaintext,
		ID:            item.ID,
	}
	resolved := sub != nil
	for _, hook := range b.Hooks {
		out, err := hook(ic, sub)
		if err != nil {
			b.report(bc, errors.WrapError(err, errors.CategoryPlugin, "toc item hook failed").Warning(), item)
			continue
		}
		if out == nil && sub != nil {
			return
		}
		sub = out
	}

	if sub == nil {
		if !resolved {
			b.report(bc, errors.ReferenceError("excluded from toc, likely points at a non-existent file"), item)
		}
		return
	}
	b.splice(bc, item, sub)
}

// claimRoot applies the TOC's own entry to the root node.
func (b *Builder) claimRoot(bc *buildContext, item Item, attrs Attributes) {
	root := bc.tree.Root()
	root.Label = item.Reference
	for _, at := range attrs.All() {
		value := ""
		if at.Value != nil {
			value = *at.Value
		}
		switch at.Name {
		case attrClass:
			continue
		case attrID:
			root.ID = value
			continue
		case attrPath:
			bc.pathPrefix = value
		case attrSubcollection:
			bc.subcollection = value
		}
		root.AddProperty(at.Name, value)
	}
	bc.rootClaimed = true
	bc.stack = []int{RootIndex, RootIndex}
}

// trackNavgroup consumes the navgroup classes of an entry and reports
// whether the entry closes the open navgroup.
func (b *Builder) trackNavgroup(bc *buildContext, item Item, attrs *Attributes) bool {
	closes := false
	if attrs.HasClass(classNavgroup) {
		attrs.RemoveClass(classNavgroup)
		id := attrs.Value(attrID)
		switch {
		case bc.nav != nil:
			b.report(bc, errors.StructuralError("navgroup opened before previous navgroup was ended").
				WithContext("navgroup", bc.nav.id), item)
		case id == "":
			b.report(bc, errors.StructuralError("navgroup without an id"), item)
		default:
			bc.nav = &navgroup{id: id, level: item.Level}
			attrs.Delete(attrID)
		}
	}
	if attrs.HasClass(classNavgroupEnd) {
		attrs.RemoveClass(classNavgroupEnd)
		if bc.nav == nil {
			b.report(bc, errors.StructuralError("navgroup-end outside a navgroup"), item)
		}
		closes = true
	}
	if bc.nav != nil && item.Level < bc.nav.level {
		b.report(bc, errors.StructuralError("missing navgroup-end at the navgroup's level").
			WithContext("navgroup", bc.nav.id), item)
		bc.nav = nil
	}
	return closes
}

// leadingProperties are the properties every node created for an entry
// starts with.
func (bc *buildContext) leadingProperties(level int, attrs Attributes) []Property {
	var props []Property
	if bc.nav != nil && level == bc.nav.level {
		props = append(props, Property{Name: propertyNavgroup, Value: bc.nav.id})
	}
	for _, at := range attrs.All() {
		if at.Name == attrID {
			continue
		}
		value := ""
		if at.Value != nil {
			value = *at.Value
		}
		props = append(props, Property{Name: at.Name, Value: value})
	}
	return props
}

func single(n Node) *Tree {
	t := NewTree()
	if _, err := t.Append(RootIndex, n); err != nil {
		return nil
	}
	return t
}

// resolve turns an entry into the subtree to splice, or nil.
func (b *Builder) resolve(bc *buildContext, item Item, attrs Attributes) *Tree {
	ref := strings.TrimSpace(item.Reference)
	props := bc.leadingProperties(item.Level, attrs)
	id := attrs.Value(attrID)

	if m := linkRe.FindStringSubmatch(ref); m != nil {
		return single(Node{Kind: KindLink, Label: m[1], Href: m[2], ID: id, LinkType: LinkExternal, Properties: props})
	}

	if attrs.HasClass(classTopicGroup) {
		groupID := item.ID
		if groupID == "" {
			groupID = attrs.Value(attrTopicGroupID)
		}
		gp := []Property{{Name: classTopicGroup, Value: ref}}
		if groupID != "" {
			gp = append(gp, Property{Name: attrTopicGroupID, Value: groupID})
		}
		if bc.nav != nil && item.Level == bc.nav.level {
			gp = append(gp, Property{Name: propertyNavgroup, Value: bc.nav.id})
		}
		var rest Attributes
		for _, at := range attrs.All() {
			if at.Name != attrTopicGroupID {
				rest.Set(at.Name, at.Value)
			}
		}
		rest.RemoveClass(classTopicGroup)
		gp = append(gp, bc.leadingProperties(0, rest)...)
		return single(Node{Kind: KindTopicGroup, Label: ref, ID: id, Properties: gp})
	}

	if item.Plaintext || ref == "" {
		return nil
	}

	slashed := strings.ReplaceAll(ref, `\`, "/")
	if absoluteTOCPathRe.MatchString(ref) {
		dir := slashed[:strings.LastIndex(slashed, "/")+1]
		return single(Node{Kind: KindLink, Href: path.Join(dir, b.Adapter.Filename()), ID: id, LinkType: LinkTOC, Properties: props})
	}
	if absolutePathRe.MatchString(ref) {
		return single(Node{Kind: KindLink, Href: slashed, ID: id, LinkType: LinkTopic, Properties: props})
	}

	exists := b.DirExists
	if exists == nil {
		exists = dirExists
	}
	if exists(filepath.Join(bc.destination, filepath.FromSlash(slashed))) {
		return single(Node{Kind: KindLink, Href: path.Join(slashed, b.Adapter.Filename()), ID: id, LinkType: LinkTOC, Properties: props})
	}

	return b.fragment(bc, item, slashed, props, id)
}

// fragment loads the TOC fragment recorded for a converted file. Its top
// level topics are returned with the entry's properties; everything below
// them becomes anchors.
func (b *Builder) fragment(bc *buildContext, item Item, ref string, props []Property, id string) *Tree {
	if b.Fragments == nil {
		return nil
	}
	data, ok, err := b.Fragments.Fragment(bc.destination, ref, b.Adapter.Filename())
	if err != nil {
		b.report(bc, errors.WrapError(err, errors.CategoryFileSystem, "read toc fragment").Warning(), item)
		return nil
	}
	if !ok {
		return nil
	}
	frag, err := b.Adapter.Unmarshal(data)
	if err != nil {
		b.report(bc, errors.WrapError(err, errors.CategoryParse, "invalid toc fragment").Warning(), item)
		return nil
	}

	AdjustRelativeLinks(frag, path.Dir(ref))
	if bc.pathPrefix != "" {
		PrefixHrefs(frag, bc.pathPrefix)
		prefix := bc.subcollection
		if prefix == "" {
			prefix = bc.pathPrefix
		}
		PrefixIDs(frag, prefix)
	}

	for i, top := range frag.Children(RootIndex) {
		n := frag.Node(top)
		if i == 0 {
			if item.LabelOverride != "" {
				n.Label = item.LabelOverride
			}
			if id != "" {
				n.ID = id
			}
		}
		n.Properties = append(append([]Property(nil), props...), n.Properties...)
	}
	for i := 1; i < frag.Len(); i++ {
		if frag.Parent(i) != RootIndex && frag.Node(i).Kind == KindTopic {
			frag.Node(i).Kind = KindAnchor
		}
	}
	return frag
}

// splice attaches the subtree's top nodes under the stack entry for the
// item's level and makes the last of them the new entry at that level.
func (b *Builder) splice(bc *buildContext, item Item, sub *Tree) {
	level := item.Level
	if level < 1 || level > len(bc.stack) {
		b.report(bc, errors.StructuralError("toc entry skips a nesting level"), item)
		return
	}
	parent := bc.stack[level-1]
	if !bc.tree.Node(parent).acceptsChildren() {
		b.report(bc, errors.StructuralError("toc entry nested under a link"), item)
		return
	}
	last := -1
	for _, c := range sub.Children(RootIndex) {
		idx, err := bc.tree.Graft(parent, sub, c)
		if err != nil {
			b.report(bc, errors.WrapError(err, errors.CategoryStructural, "cannot place toc entry").Warning(), item)
			return
		}
		last = idx
	}
	if last < 0 {
		return
	}
	bc.stack = append(bc.stack[:level], last)
}
