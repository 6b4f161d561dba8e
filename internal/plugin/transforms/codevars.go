package transforms

import (
	"context"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/plugin"
	"git.home.luguber.info/inful/docpress/internal/variables"
)

const processVariablesAttr = "process-variables"

// CodeVariables substitutes variables inside <pre process-variables="true">
// code blocks, which the markdown pass leaves untouched. The attribute is
// removed from every <pre><code> block that carries it.
type CodeVariables struct {
	plugin.BasePlugin
	sink     diag.Sink
	maxDepth int
}

// NewCodeVariables creates the transform. Unresolved keys go to sink.
func NewCodeVariables(sink diag.Sink, maxDepth int) *CodeVariables {
	if sink == nil {
		sink = diag.Discard
	}
	return &CodeVariables{sink: sink, maxDepth: maxDepth}
}

func (c *CodeVariables) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "codevars",
		Version:     "v1.0.0",
		Type:        plugin.TypeTransform,
		Description: "Resolves variables in code blocks marked process-variables",
	}
}

func (c *CodeVariables) Hooks() plugin.Hooks {
	return plugin.Hooks{HTMLComplete: c.apply}
}

func (c *CodeVariables) apply(page string, hc plugin.HTMLContext) (string, error) {
	root, err := parseFragment(page)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	pres := findAll(root, func(n *html.Node) bool {
		_, ok := getAttr(n, processVariablesAttr)
		return n.DataAtom == atom.Pre && ok
	})
	if len(pres) == 0 {
		return page, nil
	}

	resolver := variables.NewResolver(hc.Variables,
		variables.WithSink(c.sink),
		variables.WithSource(hc.SourcePath),
		variables.WithMaxDepth(c.maxDepth))
	for _, pre := range pres {
		code := pre.FirstChild
		if code == nil || code.DataAtom != atom.Code {
			continue
		}
		value, _ := getAttr(pre, processVariablesAttr)
		removeAttr(pre, processVariablesAttr)
		text := code.FirstChild
		if value != "true" || text == nil || text.Type != html.TextNode {
			continue
		}
		text.Data = resolver.Resolve(context.Background(), text.Data)
	}
	return renderChildren(root)
}
