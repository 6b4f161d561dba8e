package pipeline

import (
	"git.home.luguber.info/inful/docpress/internal/config"
	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/plugin"
	"git.home.luguber.info/inful/docpress/internal/plugin/filters"
	"git.home.luguber.info/inful/docpress/internal/plugin/transforms"
)

// NewRegistry registers the built-in plugins enabled in cfg, filters first.
func NewRegistry(cfg *config.Config, sink diag.Sink) (*plugin.Registry, error) {
	r := plugin.NewRegistry(sink)
	var plugins []plugin.Plugin
	if cfg.Plugins.GitIgnore {
		plugins = append(plugins, filters.NewGitIgnore())
	}
	if cfg.Plugins.CodeVariables {
		plugins = append(plugins, transforms.NewCodeVariables(sink, cfg.Variables.MaxDepth))
	}
	if cfg.Plugins.Sections {
		plugins = append(plugins, transforms.NewSections())
	}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}
