package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/logfields"
	"git.home.luguber.info/inful/docpress/internal/observability"
	"git.home.luguber.info/inful/docpress/internal/plugin"
	"git.home.luguber.info/inful/docpress/internal/textio"
	"git.home.luguber.info/inful/docpress/internal/toc"
)

// tocDir writes the TOC files of srcDir's output folder after those of its
// subfolders, so link entries pointing at a subfolder TOC find it written.
func (g *Generator) tocDir(ctx context.Context, rs *run, srcDir, destDir string) {
	ctx = observability.WithFolder(ctx, srcDir)
	for _, e := range g.list(ctx, rs, srcDir) {
		if ctx.Err() != nil {
			return
		}
		if !e.isDir || !g.shouldProcess(rs, e) {
			continue
		}
		sub := filepath.Join(destDir, e.name)
		if fi, err := os.Stat(sub); err != nil || !fi.IsDir() {
			g.report(ctx, rs, errors.ReferenceError("folder excluded from toc generation because it has no output folder").
				WithContext("folder", e.path).
				Warning())
			continue
		}
		g.tocDir(ctx, rs, e.path, sub)
	}

	doc, source, lines, ok := g.tocSources(ctx, rs, srcDir)
	if !ok {
		return
	}
	for _, ad := range rs.adapters {
		if ctx.Err() != nil {
			return
		}
		b := &toc.Builder{
			Adapter:   ad,
			Fragments: rs.store,
			Hooks:     g.registry.TOCItemHooks(),
			Sink:      rs.sink,
		}
		var tree *toc.Tree
		if doc != nil {
			tree = b.BuildFromObject(ctx, destDir, source, doc)
		} else {
			tree = b.BuildFromLines(ctx, destDir, source, lines)
		}
		data, err := ad.Marshal(tree)
		if err != nil {
			g.report(ctx, rs, errors.WrapError(err, errors.CategoryInternal, "failed to serialize toc").
				WithContext("toc", source).
				WithContext("format", ad.Name()).
				Warning())
			continue
		}
		destPath := filepath.Join(destDir, ad.Filename())
		data = g.registry.TOCComplete(ctx, data, plugin.TOCCompleteContext{
			Format:      ad.Name(),
			SourcePath:  srcDir,
			Destination: destPath,
		})
		g.writeTOC(ctx, rs, destPath, ad.Name(), data)
	}
}

// writeTOC writes a TOC file. An existing file is only replaced when
// overwrite is on, and never when it is not a regular file.
func (g *Generator) writeTOC(ctx context.Context, rs *run, destPath, format string, data []byte) {
	if fi, err := os.Lstat(destPath); err == nil && !fi.Mode().IsRegular() {
		g.report(ctx, rs, errors.FileSystemError("toc output path is not a regular file").
			WithContext("toc", destPath).
			Warning())
		return
	}
	err := textio.WriteFile(destPath, data, g.cfg.Overwrite)
	switch {
	case stderrors.Is(err, textio.ErrExists):
		g.report(ctx, rs, errors.FileSystemError("toc file exists and overwrite is off").
			WithContext("toc", destPath).
			Warning())
		return
	case err != nil:
		g.reportErr(ctx, rs, err)
		return
	}
	rs.report.TOCs++
	g.recorder.IncTOCWritten(format)
	observability.Log(ctx, g.logger, slog.LevelDebug, "TOC written", logfields.TOC(destPath), logfields.Format(format))
}
