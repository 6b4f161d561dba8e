// Package commands implements the docpress CLI commands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docpress/internal/config"
	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/history"
	"git.home.luguber.info/inful/docpress/internal/logfields"
	"git.home.luguber.info/inful/docpress/internal/metrics"
	"git.home.luguber.info/inful/docpress/internal/notify"
	"git.home.luguber.info/inful/docpress/internal/observability"
	"git.home.luguber.info/inful/docpress/internal/pdf"
	"git.home.luguber.info/inful/docpress/internal/pipeline"
)

// Global is shared with every command's Run method.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docpress.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Convert the source tree into HTML, TOC files and PDFs"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever the source tree changes"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	History HistoryCmd `cmd:"" help:"List recorded runs"`
}

// AfterApply runs after flag parsing; sets up a default logger until the
// configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := "info"
	if c.Verbose {
		level = "debug"
	}
	slog.SetDefault(observability.NewLogger(os.Stderr, level, "text"))
	return nil
}

// SourceFlags override the configured folders and outputs.
type SourceFlags struct {
	Source    string `short:"s" help:"Source folder (overrides config)"`
	Dest      string `short:"d" name:"dest" help:"Destination folder (overrides config)"`
	Overwrite bool   `help:"Replace existing output files"`
	TOCJSON   bool   `name:"toc-json" help:"Write toc.json files"`
	TOCXML    bool   `name:"toc-xml" help:"Write toc.xml files"`
	PDF       bool   `help:"Render a PDF for every page"`
}

// LoadConfig reads path, falling back to defaults when the default config
// file does not exist, and applies the flag overrides.
func LoadConfig(path string, flags SourceFlags) (*config.Config, error) {
	cfg, err := loadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if flags.Source != "" {
		cfg.Source = flags.Source
	}
	if flags.Dest != "" {
		cfg.Destination = flags.Dest
	}
	if flags.Overwrite {
		cfg.Overwrite = true
	}
	if flags.TOCJSON || flags.TOCXML {
		cfg.TOC.JSON = flags.TOCJSON
		cfg.TOC.XML = flags.TOCXML
	}
	if flags.PDF {
		cfg.PDF.Enabled = true
	}
	if err := config.ValidatePaths(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) || path != config.DefaultFilename {
			return nil, err
		}
		return config.Default(), nil
	}
	return cfg, nil
}

// newLogger builds the run logger from the configuration; --verbose wins
// over the configured level.
func newLogger(cfg *config.Config, verbose bool) *slog.Logger {
	level := string(cfg.Logging.Level)
	if verbose {
		level = "debug"
	}
	logger := observability.NewLogger(os.Stderr, level, string(cfg.Logging.Format))
	slog.SetDefault(logger)
	return logger
}

// runner owns the collaborators of repeated builds for one configuration.
type runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	recorder  *metrics.PrometheusRecorder
	generator *pipeline.Generator
	closers   []io.Closer
}

func newRunner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runner, error) {
	r := &runner{cfg: cfg, logger: logger, recorder: metrics.NewPrometheusRecorder(nil)}
	sink := diag.NewLogSink(logger, r.recorder)

	registry, err := pipeline.NewRegistry(cfg, sink)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryPlugin, "failed to register plugins").Fatal().Build()
	}
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithRecorder(r.recorder),
		pipeline.WithSink(sink),
		pipeline.WithRegistry(registry),
	}

	if cfg.PDF.Enabled {
		renderer, err := pdf.NewWkHTMLToPDF(ctx, cfg.PDF.Binary, cfg.PDF.OptionsFile)
		if err != nil {
			logger.Warn("PDF generation disabled", logfields.Error(err))
		} else {
			opts = append(opts, pipeline.WithPDFRenderer(renderer))
		}
	}
	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open run history").
				WithContext("path", cfg.History.Path).
				Fatal().
				Build()
		}
		r.closers = append(r.closers, store)
		opts = append(opts, pipeline.WithLedger(store))
	}
	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			logger.Warn("Run notifications disabled", logfields.Error(err))
		} else {
			r.closers = append(r.closers, pub)
			opts = append(opts, pipeline.WithPublisher(pub))
		}
	}

	r.generator = pipeline.NewGenerator(cfg, opts...)
	return r, nil
}

// run performs one build and exports metrics when configured.
func (r *runner) run(ctx context.Context) (*pipeline.Report, error) {
	report, err := r.generator.Run(ctx)
	if r.cfg.Metrics.Textfile != "" {
		if werr := r.recorder.WriteTextfile(r.cfg.Metrics.Textfile); werr != nil {
			r.logger.Warn("Failed to write metrics textfile", logfields.Path(r.cfg.Metrics.Textfile), logfields.Error(werr))
		}
	}
	return report, err
}

func (r *runner) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			r.logger.Warn("Failed to close resource", logfields.Error(err))
		}
	}
}
