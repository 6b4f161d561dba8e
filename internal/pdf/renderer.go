package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/logfields"
)

// Renderer turns one generated HTML file into a PDF.
//
// Swapping the wkhtmltopdf binary (WkHTMLToPDF) for NoopRenderer keeps the
// queue usable in tests and on hosts without the tool.
type Renderer interface {
	Render(ctx context.Context, htmlPath, pdfPath string, overwrite bool) error
}

// WkHTMLToPDF invokes the wkhtmltopdf binary. The HTML is piped on stdin with
// a <base> element pointing at its directory so relative resources resolve.
type WkHTMLToPDF struct {
	Binary  string
	Args    []string
	Version string
}

// NewWkHTMLToPDF verifies that binary runs ("-V") and loads extra command line
// options from optionsFile when it is set.
func NewWkHTMLToPDF(ctx context.Context, binary, optionsFile string) (*WkHTMLToPDF, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotFound, "PDF generation requires wkhtmltopdf on the PATH").
			WithContext("binary", binary).
			Build()
	}

	// #nosec G204 -- binary comes from configuration
	out, err := exec.CommandContext(ctx, path, "-V").Output()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to run wkhtmltopdf").
			WithContext("binary", path).
			Build()
	}

	w := &WkHTMLToPDF{Binary: path, Version: strings.TrimSpace(string(out))}
	if optionsFile != "" {
		args, err := LoadOptions(optionsFile)
		if err != nil {
			return nil, err
		}
		w.Args = args
	}
	return w, nil
}

func (w *WkHTMLToPDF) Render(ctx context.Context, htmlPath, pdfPath string, overwrite bool) error {
	content, err := os.ReadFile(htmlPath)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to read HTML").
			WithContext("file", htmlPath).
			Build()
	}
	abs, err := filepath.Abs(filepath.Dir(htmlPath))
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve HTML directory").Build()
	}
	page, err := InjectBase(content, abs)
	if err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	// #nosec G304 -- pdfPath is derived from the destination root
	f, err := os.OpenFile(pdfPath, flags, 0o644)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to open PDF for writing").
			WithContext("file", pdfPath).
			Build()
	}
	defer func() { _ = f.Close() }()

	args := append(append([]string{"--quiet"}, w.Args...), "-", "-")
	// #nosec G204 -- binary and options come from configuration
	cmd := exec.CommandContext(ctx, w.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(page)
	cmd.Stdout = f
	cmd.Stderr = &stderr

	slog.Debug("Invoking wkhtmltopdf", logfields.File(htmlPath))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		return errors.WrapError(fmt.Errorf("%w: %s", err, msg), errors.CategoryRender, "wkhtmltopdf failed").
			WithContext("file", htmlPath).
			Build()
	}
	return nil
}

// NoopRenderer records requests without producing PDFs.
type NoopRenderer struct {
	Rendered []string
}

func (n *NoopRenderer) Render(_ context.Context, htmlPath, _ string, _ bool) error {
	slog.Debug("NoopRenderer skipping PDF", logfields.File(htmlPath))
	n.Rendered = append(n.Rendered, htmlPath)
	return nil
}
