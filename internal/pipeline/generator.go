// Package pipeline runs a documentation build: it converts a source tree of
// markdown into HTML, assembles the TOC files of every folder, renders PDFs
// and records the run.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docpress/internal/config"
	"git.home.luguber.info/inful/docpress/internal/convert"
	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/history"
	"git.home.luguber.info/inful/docpress/internal/logfields"
	"git.home.luguber.info/inful/docpress/internal/markdown"
	"git.home.luguber.info/inful/docpress/internal/metrics"
	"git.home.luguber.info/inful/docpress/internal/notify"
	"git.home.luguber.info/inful/docpress/internal/observability"
	"git.home.luguber.info/inful/docpress/internal/pdf"
	"git.home.luguber.info/inful/docpress/internal/plugin"
	"git.home.luguber.info/inful/docpress/internal/storage"
	"git.home.luguber.info/inful/docpress/internal/textio"
	"git.home.luguber.info/inful/docpress/internal/toc"
	"git.home.luguber.info/inful/docpress/internal/transclude"
	"git.home.luguber.info/inful/docpress/internal/variables"
)

// ConrefFilename is the source root file whose sections are published as
// site.data.content.<id> variables.
const ConrefFilename = "conref.md"

// Ledger stores finished runs.
type Ledger interface {
	RecordRun(ctx context.Context, run history.Run, files []history.FileRecord) error
}

// Generator runs builds for one configuration. A Generator is not safe for
// concurrent runs.
type Generator struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *plugin.Registry
	recorder  metrics.Recorder
	sink      diag.Sink
	store     storage.FragmentStore
	renderer  pdf.Renderer
	ledger    Ledger
	publisher notify.Publisher
}

// Option customizes a Generator.
type Option func(*Generator)

// WithLogger sets the logger used for run progress.
func WithLogger(l *slog.Logger) Option { return func(g *Generator) { g.logger = l } }

// WithRegistry sets the plugin registry.
func WithRegistry(r *plugin.Registry) Option { return func(g *Generator) { g.registry = r } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(g *Generator) { g.recorder = r } }

// WithSink sets where recoverable problems are reported.
func WithSink(s diag.Sink) Option { return func(g *Generator) { g.sink = s } }

// WithFragmentStore replaces the on-disk fragment store.
func WithFragmentStore(s storage.FragmentStore) Option { return func(g *Generator) { g.store = s } }

// WithPDFRenderer enables PDF output through r when pdf.enabled is set.
func WithPDFRenderer(r pdf.Renderer) Option { return func(g *Generator) { g.renderer = r } }

// WithLedger records every finished run.
func WithLedger(l Ledger) Option { return func(g *Generator) { g.ledger = l } }

// WithPublisher announces every finished run.
func WithPublisher(p notify.Publisher) Option { return func(g *Generator) { g.publisher = p } }

// NewGenerator creates a generator for cfg.
func NewGenerator(cfg *config.Config, opts ...Option) *Generator {
	g := &Generator{cfg: cfg}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.recorder == nil {
		g.recorder = metrics.NoopRecorder{}
	}
	if g.sink == nil {
		g.sink = diag.NewLogSink(g.logger, g.recorder)
	}
	if g.registry == nil {
		g.registry = plugin.NewRegistry(g.sink)
	}
	return g
}

// countingSink forwards reports and counts those above info severity for
// the run report.
type countingSink struct {
	next diag.Sink
	n    atomic.Int64
}

func (s *countingSink) Report(ctx context.Context, err *errors.ClassifiedError) {
	if !err.IsSeverity(errors.SeverityInfo) {
		s.n.Add(1)
	}
	s.next.Report(ctx, err)
}

// run is the state of one Run call.
type run struct {
	id        string
	srcRoot   string
	destRoot  string
	sink      *countingSink
	report    *Report
	adapters  []toc.Adapter
	global    variables.Maps
	header    string
	footer    string
	expander  *transclude.Expander
	converter *convert.Converter
	store     storage.FragmentStore
	pdfs      *pdf.Queue
}

// Run performs one build. Only a missing source root or a destination root
// that cannot be created fail the run; everything else is reported to the
// sink and skipped. The report is returned even when ctx is canceled.
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	runID := uuid.New().String()
	ctx = observability.WithRunID(ctx, runID)

	rs, err := g.prepare(ctx, runID)
	if err != nil {
		g.recorder.IncRunOutcome(string(OutcomeFailed))
		return nil, err
	}
	g.registry.SetSink(rs.sink)
	defer g.registry.SetSink(g.sink)

	pc := plugin.NewContext(g.logger, rs.srcRoot, rs.destRoot, runID)
	for name, data := range g.cfg.Plugins.Data {
		pc = pc.WithValue(name, data)
	}
	if err := g.registry.Init(pc); err != nil {
		g.report(ctx, rs, errors.WrapError(err, errors.CategoryPlugin, "plugin initialization failed").Warning())
	}
	defer func() {
		if err := g.registry.Cleanup(); err != nil {
			g.report(ctx, rs, errors.WrapError(err, errors.CategoryPlugin, "plugin cleanup failed").Warning())
		}
	}()

	observability.Log(ctx, g.logger, slog.LevelInfo, "Run started",
		logfields.Path(rs.srcRoot), slog.String("destination", rs.destRoot))

	g.stage(ctx, rs, StageConvert, func(ctx context.Context) {
		g.convertDir(ctx, rs, rs.srcRoot, rs.destRoot)
	})
	g.stage(ctx, rs, StageTOC, func(ctx context.Context) {
		g.tocDir(ctx, rs, rs.srcRoot, rs.destRoot)
	})
	if rs.pdfs != nil && rs.pdfs.Len() > 0 {
		g.stage(ctx, rs, StagePDF, func(ctx context.Context) {
			n, _ := rs.pdfs.Drain(ctx)
			rs.report.PDFs = n
		})
	}
	if ctx.Err() == nil {
		g.stage(ctx, rs, StageCleanup, func(ctx context.Context) {
			if err := rs.store.Cleanup(ctx); err != nil {
				g.report(ctx, rs, errors.WrapError(err, errors.CategoryFileSystem, "failed to remove fragment directories").Warning())
			}
		})
	}

	return g.finish(ctx, rs), nil
}

// prepare validates the roots and loads what every file of the run shares.
func (g *Generator) prepare(ctx context.Context, runID string) (*run, error) {
	ctx = observability.WithStage(ctx, string(StagePrepare))
	start := time.Now()
	defer func() { g.recorder.ObserveStageDuration(string(StagePrepare), time.Since(start)) }()

	srcRoot, err := filepath.Abs(g.cfg.Source)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid source path").Fatal().Build()
	}
	if fi, err := os.Stat(srcRoot); err != nil || !fi.IsDir() {
		return nil, errors.NotFoundError("source folder does not exist").
			WithContext("path", srcRoot).
			Fatal().
			Build()
	}
	destRoot, err := filepath.Abs(g.cfg.Destination)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid destination path").Fatal().Build()
	}
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "cannot create destination folder").
			WithContext("path", destRoot).
			Fatal().
			Build()
	}

	rs := &run{
		id:       runID,
		srcRoot:  srcRoot,
		destRoot: destRoot,
		sink:     &countingSink{next: g.sink},
		report:   newReport(runID),
		adapters: toc.Adapters(g.cfg.TOC.JSON, g.cfg.TOC.XML),
		store:    g.store,
	}
	if rs.store == nil {
		rs.store = storage.NewFSFragmentStore(destRoot)
	}

	rs.global = g.globalVariables(ctx, rs)
	rs.header = g.readPart(ctx, rs, g.cfg.Header, "header")
	rs.footer = g.readPart(ctx, rs, g.cfg.Footer, "footer")

	rs.expander = transclude.New(transclude.Options{
		SourceRoot:      srcRoot,
		DestRoot:        destRoot,
		Global:          rs.global,
		MaxDepth:        g.cfg.Variables.MaxDepth,
		Overwrite:       g.cfg.Overwrite,
		ParameterizeIDs: true,
		Sink:            rs.sink,
	})
	rs.converter = convert.New(convert.Options{
		Attributes: g.cfg.Conversion.Attributes,
		TOCDepth:   g.cfg.TOC.Depth,
	})
	if g.cfg.PDF.Enabled && g.renderer != nil {
		rs.pdfs = pdf.NewQueue(g.renderer, g.cfg.PDF.Interval, g.cfg.Overwrite, rs.sink)
	}
	return rs, nil
}

// globalVariables layers the global keyref file and the conref sections,
// both published under site.data.
func (g *Generator) globalVariables(ctx context.Context, rs *run) variables.Maps {
	var global variables.Maps
	if g.cfg.KeyrefFile != "" {
		data, err := variables.LoadYAMLFile(g.cfg.KeyrefFile)
		switch {
		case err != nil:
			g.reportErr(ctx, rs, err)
		case data == nil:
			g.report(ctx, rs, errors.NotFoundError("keyref file not found").
				WithContext("path", g.cfg.KeyrefFile).
				Warning())
		default:
			global = global.With(variables.SiteData(data))
		}
	}

	text, err := textio.ReadText(filepath.Join(rs.srcRoot, ConrefFilename))
	if err != nil {
		if !os.IsNotExist(err) {
			g.reportErr(ctx, rs, err)
		}
		return global
	}
	content := make(map[string]any)
	for id, section := range markdown.ScanSections(text) {
		content[id] = section
	}
	return global.With(variables.SiteData(map[string]any{"content": content}))
}

// readPart loads a header or footer file; an empty path yields "".
func (g *Generator) readPart(ctx context.Context, rs *run, path, name string) string {
	if path == "" {
		return ""
	}
	text, err := textio.ReadText(path)
	if err != nil {
		g.report(ctx, rs, errors.WrapError(err, errors.CategoryFileSystem, "failed to read "+name+" file").
			WithContext("path", path).
			Warning())
		return ""
	}
	return text
}

func (g *Generator) stage(ctx context.Context, rs *run, name StageName, fn func(context.Context)) {
	if ctx.Err() != nil {
		return
	}
	ctx = observability.WithStage(ctx, string(name))
	start := time.Now()
	fn(ctx)
	d := time.Since(start)
	rs.report.StageDurations[name] = d
	g.recorder.ObserveStageDuration(string(name), d)
	observability.Log(ctx, g.logger, slog.LevelDebug, "Stage finished",
		logfields.DurationMS(float64(d.Microseconds())/1000))
}

func (g *Generator) finish(ctx context.Context, rs *run) *Report {
	r := rs.report
	r.Warnings = int(rs.sink.n.Load())
	r.finish(ctx.Err() != nil)

	g.recorder.ObserveRunDuration(r.End.Sub(r.Start))
	g.recorder.IncRunOutcome(string(r.Outcome))

	// The ledger and publisher must still run when the build was canceled.
	outCtx := context.WithoutCancel(ctx)
	if g.ledger != nil {
		if err := g.ledger.RecordRun(outCtx, r.Run(rs.srcRoot, rs.destRoot), r.Files); err != nil {
			observability.Log(ctx, g.logger, slog.LevelWarn, "Failed to record run history", logfields.Error(err))
		}
	}
	if g.publisher != nil {
		event := notify.RunCompleted{
			RunID:       r.RunID,
			Source:      rs.srcRoot,
			Destination: rs.destRoot,
			Outcome:     string(r.Outcome),
			Converted:   r.Converted,
			Copied:      r.Copied,
			Skipped:     r.Skipped,
			Warnings:    r.Warnings,
			DurationMS:  r.End.Sub(r.Start).Milliseconds(),
			FinishedAt:  r.End,
		}
		if err := g.publisher.Publish(outCtx, event); err != nil {
			observability.Log(ctx, g.logger, slog.LevelWarn, "Failed to publish run event", logfields.Error(err))
		}
	}

	observability.Log(ctx, g.logger, slog.LevelInfo, "Run finished", slog.String("summary", r.Summary()))
	return r
}

func (g *Generator) report(ctx context.Context, rs *run, eb *errors.ErrorBuilder) {
	rs.sink.Report(ctx, eb.Build())
}

// reportErr reports err, classifying it as a filesystem warning when it
// carries no classification of its own.
func (g *Generator) reportErr(ctx context.Context, rs *run, err error) {
	if ce, ok := errors.AsClassified(err); ok {
		rs.sink.Report(ctx, ce)
		return
	}
	g.report(ctx, rs, errors.WrapError(err, errors.CategoryFileSystem, "file operation failed").Warning())
}

func (g *Generator) recordFile(rs *run, path string, fingerprint string, result metrics.ResultLabel) {
	rel, err := filepath.Rel(rs.srcRoot, path)
	if err != nil {
		rel = path
	}
	rs.report.Files = append(rs.report.Files, history.FileRecord{
		Path:        filepath.ToSlash(rel),
		Fingerprint: fingerprint,
		Result:      string(result),
	})
	switch result {
	case metrics.ResultConverted:
		rs.report.Converted++
	case metrics.ResultCopied:
		rs.report.Copied++
	default:
		rs.report.Skipped++
	}
	g.recorder.IncFileResult(result)
}
