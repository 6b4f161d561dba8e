package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

func TestInjectBase_AddsBaseToExistingHead(t *testing.T) {
	out, err := InjectBase([]byte("<html><head><title>x</title></head><body><p>hi</p></body></html>"), "/docs/out")
	require.NoError(t, err)
	assert.Contains(t, string(out), `<head><base href="file:///docs/out/"/><title>x</title>`)
	assert.Contains(t, string(out), "<p>hi</p>")
}

func TestInjectBase_SynthesizesHead(t *testing.T) {
	out, err := InjectBase([]byte("<p>body only</p>"), "/tmp/")
	require.NoError(t, err)
	assert.Contains(t, string(out), `<head><base href="file:///tmp/"/></head>`)
}

func TestLoadOptions_OrdersAndDashesNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pageSize": "A4", "grayscale": true, "noOutline": false, "dpi": 300}`), 0o600))

	args, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"--dpi", "300", "--grayscale", "--page-size", "A4"}, args)
}

func TestLoadOptions_MissingFileIsConfigError(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestNewWkHTMLToPDF_MissingBinary(t *testing.T) {
	_, err := NewWkHTMLToPDF(context.Background(), "docpress-no-such-binary", "")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

type failingRenderer struct{ calls int }

func (f *failingRenderer) Render(context.Context, string, string, bool) error {
	f.calls++
	return errors.RenderError("boom").Build()
}

func TestQueue_DrainsInOrder(t *testing.T) {
	r := &NoopRenderer{}
	q := NewQueue(r, time.Millisecond, false, nil)
	q.Add("a.html", "a.pdf")
	q.Add("b.html", "b.pdf")
	require.Equal(t, 2, q.Len())

	n, err := q.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a.html", "b.html"}, r.Rendered)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_FailuresAreReported(t *testing.T) {
	r := &failingRenderer{}
	sink := diag.NewCollector()
	q := NewQueue(r, time.Millisecond, true, sink)
	q.Add("a.html", "a.pdf")

	n, err := q.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, 1, sink.Count(errors.CategoryRender))
}

func TestQueue_StopsOnCancel(t *testing.T) {
	q := NewQueue(&NoopRenderer{}, time.Hour, false, nil)
	q.Add("a.html", "a.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := q.Drain(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, q.Len())
}
