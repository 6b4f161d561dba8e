package pipeline

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/frontmatter"
	"git.home.luguber.info/inful/docpress/internal/history"
	"git.home.luguber.info/inful/docpress/internal/markdown"
	"git.home.luguber.info/inful/docpress/internal/metrics"
	"git.home.luguber.info/inful/docpress/internal/observability"
	"git.home.luguber.info/inful/docpress/internal/plugin"
	"git.home.luguber.info/inful/docpress/internal/storage"
	"git.home.luguber.info/inful/docpress/internal/textio"
	"git.home.luguber.info/inful/docpress/internal/toc"
	"git.home.luguber.info/inful/docpress/internal/transclude"
	"git.home.luguber.info/inful/docpress/internal/variables"
)

const (
	legacyTOCFilename = "toc"
	yamlTOCFilename   = "toc.yaml"
)

// copyExtensions are the non-markdown files mirrored into the output.
var copyExtensions = []string{
	".html", ".pdf", ".css", ".bmp", ".jpg", ".png", ".gif", ".mp4", ".svg", ".js", ".txt", ".xml", ".json",
}

// reservedFiles are source inputs consumed by the run itself.
var reservedFiles = map[string]bool{
	legacyTOCFilename: true,
	yamlTOCFilename:   true,
	ConrefFilename:    true,
}

var (
	bodyOpenRe  = regexp.MustCompile(`(?i)<body[\s>]`)
	htmlOpenRe  = regexp.MustCompile(`(?i)<html[\s>]`)
	bodyCloseRe = regexp.MustCompile(`(?i)</body\s*>`)
	htmlCloseRe = regexp.MustCompile(`(?i)</html\s*>`)
)

// entry is one item of a folder listing.
type entry struct {
	name  string
	path  string
	isDir bool
}

// list returns the folder's entries in listing order after the DirFiles hook.
// Names that vanished or were added by plugins without existing are reported.
func (g *Generator) list(ctx context.Context, rs *run, dir string) []entry {
	des, err := os.ReadDir(dir)
	if err != nil {
		g.report(ctx, rs, errors.WrapError(err, errors.CategoryFileSystem, "failed to read folder").
			WithContext("folder", dir).
			Warning())
		return nil
	}
	names := make([]string, 0, len(des))
	for _, de := range des {
		names = append(names, de.Name())
	}
	names = g.registry.DirFiles(ctx, names, plugin.DirContext{SourcePath: dir})

	out := make([]entry, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		fi, err := os.Stat(p)
		if err != nil {
			// Transclusion targets are often listed by plugins without existing.
			if name != transclude.IncludesDir {
				g.report(ctx, rs, errors.NotFoundError("listed file does not exist").
					WithContext("file", p).
					Warning())
			}
			continue
		}
		out = append(out, entry{name: name, path: p, isDir: fi.IsDir()})
	}
	return out
}

// shouldProcess applies the default filter and the plugin hooks. Hidden
// files and folders are excluded unless a plugin says otherwise.
func (g *Generator) shouldProcess(rs *run, e entry) bool {
	if e.isDir && (e.path == rs.destRoot || e.name == storage.TempDirName) {
		return false
	}
	return g.registry.ShouldProcess(!strings.HasPrefix(e.name, "."), plugin.FileContext{SourcePath: e.path, IsDir: e.isDir})
}

// convertDir converts srcDir into destDir, depth first in listing order.
func (g *Generator) convertDir(ctx context.Context, rs *run, srcDir, destDir string) {
	ctx = observability.WithFolder(ctx, srcDir)
	entries := g.list(ctx, rs, srcDir)

	folderVars := rs.global
	local, err := variables.LoadYAMLFile(filepath.Join(srcDir, transclude.KeyrefFilename))
	if err != nil {
		g.reportErr(ctx, rs, err)
	} else if local != nil {
		folderVars = folderVars.With(variables.SiteData(local))
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		if !g.shouldProcess(rs, e) {
			if !e.isDir {
				g.recordFile(rs, e.path, "", metrics.ResultSkipped)
			}
			continue
		}
		dest := filepath.Join(destDir, e.name)
		switch {
		case e.isDir:
			if err := os.MkdirAll(dest, 0o755); err != nil {
				g.report(ctx, rs, errors.WrapError(err, errors.CategoryFileSystem, "failed to create output folder").
					WithContext("folder", dest).
					Warning())
				continue
			}
			g.convertDir(ctx, rs, e.path, dest)
		case reservedFiles[e.name] || e.name == transclude.KeyrefFilename:
			continue
		case strings.EqualFold(filepath.Ext(e.name), ".md"):
			g.convertPage(ctx, rs, e.path, destDir, folderVars)
		case slices.Contains(copyExtensions, strings.ToLower(filepath.Ext(e.name))):
			g.copyAsset(ctx, rs, e.path, dest)
		}
	}
}

func (g *Generator) copyAsset(ctx context.Context, rs *run, src, dest string) {
	err := textio.CopyFile(src, dest, g.cfg.Overwrite)
	switch {
	case err == nil:
		g.recordFile(rs, src, "", metrics.ResultCopied)
	case stderrors.Is(err, textio.ErrExists):
		g.recordFile(rs, src, "", metrics.ResultSkipped)
	default:
		g.reportErr(ctx, rs, err)
		g.recordFile(rs, src, "", metrics.ResultFailed)
	}
}

// convertPage turns one markdown file into destDir/<stem>.html, records its
// heading fragment for the TOC phase and queues its PDF.
func (g *Generator) convertPage(ctx context.Context, rs *run, srcPath, destDir string, folderVars variables.Maps) {
	raw, err := os.ReadFile(srcPath)
	if err != nil {
		g.reportErr(ctx, rs, err)
		g.recordFile(rs, srcPath, "", metrics.ResultFailed)
		return
	}
	fingerprint := history.Fingerprint(raw)
	text, err := textio.Decode(raw)
	if err != nil {
		g.report(ctx, rs, errors.WrapError(err, errors.CategoryParse, "failed to decode file").
			WithContext("file", srcPath).
			Warning())
		g.recordFile(rs, srcPath, fingerprint, metrics.ResultFailed)
		return
	}

	matter := frontmatter.Matter{}
	if g.cfg.Conversion.FrontMatter {
		m, body, err := frontmatter.Extract([]byte(text))
		if err != nil {
			g.report(ctx, rs, errors.WrapError(err, errors.CategoryParse, "invalid front matter").
				WithContext("file", srcPath).
				Warning())
		} else {
			matter, text = m, string(body)
		}
	}

	name := filepath.Base(srcPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	added := g.registry.VariablesAdd(ctx, variables.Map{}, plugin.VariablesContext{
		SourcePath: srcPath,
		Text:       text,
		Sections:   markdown.ScanSections(text),
	})
	vars := folderVars.With(added).ReplaceAll(markdown.FilenamePlaceholder, stem)

	text = variables.NewResolver(vars,
		variables.WithMaxDepth(g.cfg.Variables.MaxDepth),
		variables.WithSink(rs.sink),
		variables.WithSource(srcPath),
	).Resolve(ctx, text)
	text = rs.expander.Expand(ctx, srcPath, destDir, text)

	htmlName := stem + ".html"
	res, err := rs.converter.Convert([]byte(text), htmlName)
	if err != nil {
		g.reportErr(ctx, rs, err)
		g.recordFile(rs, srcPath, fingerprint, metrics.ResultFailed)
		return
	}

	destPath := filepath.Join(destDir, htmlName)
	page := g.registry.HTMLComplete(ctx, res.HTML, plugin.HTMLContext{
		SourcePath: srcPath,
		DestPath:   destPath,
		Variables:  vars,
	})
	page = g.decorate(ctx, rs, page, srcPath, vars.With(variables.Map(matter.WithDocumentTitle(res.Title))))

	result := metrics.ResultConverted
	err = textio.WriteFile(destPath, []byte(page), g.cfg.Overwrite)
	switch {
	case stderrors.Is(err, textio.ErrExists):
		// The earlier output stays valid for the TOC, so its fragment is still stored.
		g.report(ctx, rs, errors.FileSystemError("output exists and overwrite is off").
			WithContext("file", destPath).
			Info())
		result = metrics.ResultSkipped
	case err != nil:
		g.reportErr(ctx, rs, err)
		g.recordFile(rs, srcPath, fingerprint, metrics.ResultFailed)
		return
	}

	for _, ad := range rs.adapters {
		data, err := ad.Marshal(res.Fragment)
		if err == nil {
			err = rs.store.Put(ctx, destDir, name, ad.Filename(), data)
		}
		if err != nil {
			g.report(ctx, rs, errors.WrapError(err, errors.CategoryFileSystem, "failed to store toc fragment").
				WithContext("file", srcPath).
				WithContext("format", ad.Name()).
				Warning())
		}
	}
	if rs.pdfs != nil && result == metrics.ResultConverted {
		rs.pdfs.Add(destPath, filepath.Join(destDir, stem+".pdf"))
	}
	g.recordFile(rs, srcPath, fingerprint, result)
}

// decorate adds the header and footer, resolved against the page variables
// and its front matter, and makes sure the page has html and body elements.
func (g *Generator) decorate(ctx context.Context, rs *run, page, srcPath string, vars variables.Maps) string {
	resolve := func(text string) string {
		if text == "" {
			return ""
		}
		return variables.NewResolver(vars,
			variables.WithMaxDepth(g.cfg.Variables.MaxDepth),
			variables.WithSink(rs.sink),
			variables.WithSource(srcPath),
		).Resolve(ctx, text)
	}
	return wrapDocument(resolve(rs.header) + page + resolve(rs.footer))
}

func wrapDocument(page string) string {
	if !bodyOpenRe.MatchString(page) {
		page = "<body>" + page
	}
	if !htmlOpenRe.MatchString(page) {
		page = "<html>" + page
	}
	if !bodyCloseRe.MatchString(page) {
		page += "</body>"
	}
	if !htmlCloseRe.MatchString(page) {
		page += "</html>"
	}
	return page
}

// tocSources returns the TOC inputs of a folder: a plugin supplied or YAML
// document, else the legacy file's text.
func (g *Generator) tocSources(ctx context.Context, rs *run, srcDir string) (doc *toc.Document, source, lines string, ok bool) {
	if doc = g.registry.TOCGet(ctx, plugin.TOCGetContext{SourcePath: srcDir}); doc != nil {
		return doc, srcDir, "", true
	}
	yamlPath := filepath.Join(srcDir, yamlTOCFilename)
	doc, err := toc.LoadDocument(yamlPath)
	if err != nil {
		g.reportErr(ctx, rs, err)
	}
	if doc != nil {
		return doc, yamlPath, "", true
	}
	legacyPath := filepath.Join(srcDir, legacyTOCFilename)
	text, err := textio.ReadText(legacyPath)
	if err != nil {
		if !os.IsNotExist(err) {
			g.reportErr(ctx, rs, err)
		}
		return nil, "", "", false
	}
	return nil, legacyPath, text, true
}
