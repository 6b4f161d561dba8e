package config

import (
	"path/filepath"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

// Validate checks the fields a run cannot start without.
func Validate(cfg *Config) error {
	if cfg.Source != "" && cfg.Destination != "" {
		src, _ := filepath.Abs(cfg.Source)
		dst, _ := filepath.Abs(cfg.Destination)
		if src == dst {
			return errors.ValidationError("source and destination must differ").
				WithContext("source", cfg.Source).
				Build()
		}
	}
	if !cfg.TOC.JSON && !cfg.TOC.XML {
		return errors.ValidationError("at least one toc format (json, xml) must be enabled").Build()
	}
	if cfg.TOC.Depth > 6 {
		return errors.ValidationError("toc.depth must be between 1 and 6").
			WithContext("depth", cfg.TOC.Depth).
			Build()
	}
	return nil
}

// ValidatePaths checks the source/destination pair once CLI overrides are applied.
func ValidatePaths(cfg *Config) error {
	if cfg.Source == "" {
		return errors.ValidationError("source directory is required").Build()
	}
	if cfg.Destination == "" {
		return errors.ValidationError("destination directory is required").Build()
	}
	return Validate(cfg)
}
