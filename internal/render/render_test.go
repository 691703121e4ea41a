package render

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/csvcharts/internal/analysis"
)

type fakeChart struct {
	kind      Kind
	title     string
	destroyed *int
}

func (f *fakeChart) Kind() Kind    { return f.kind }
func (f *fakeChart) Title() string { return f.title }
func (f *fakeChart) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, f.title)
	return int64(n), err
}
func (f *fakeChart) Destroy() { *f.destroyed++ }

type fakeBackend struct {
	built     int
	destroyed int
	fail      bool
}

func (b *fakeBackend) Name() string        { return "fake" }
func (b *fakeBackend) Extension() string   { return ".txt" }
func (b *fakeBackend) ContentType() string { return "text/plain" }
func (b *fakeBackend) Build(spec Spec) (Chart, error) {
	if b.fail {
		return nil, errors.New("boom")
	}
	b.built++
	return &fakeChart{kind: KindFor(spec.Result.Mode), title: spec.Title, destroyed: &b.destroyed}, nil
}

func barSpec(title string) Spec {
	return Spec{Title: title, Result: analysis.Result{
		Mode:       analysis.ModeBar,
		Categories: []analysis.CategoryCount{{Label: "A", Count: 3}, {Label: "B", Count: 2}},
	}}
}

func scatterSpec(title string) Spec {
	return Spec{Title: title, Result: analysis.Result{
		Mode:   analysis.ModeScatter,
		Points: []analysis.Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
	}}
}

func TestSurface_RerenderKeepsOneLiveChart(t *testing.T) {
	b := &fakeBackend{}
	s := NewSurface(b)

	_, err := s.Render(barSpec("first"))
	require.NoError(t, err)
	_, err = s.Render(barSpec("second"))
	require.NoError(t, err)
	c, err := s.Render(scatterSpec("third"))
	require.NoError(t, err)

	assert.Equal(t, 3, b.built)
	assert.Equal(t, 2, b.destroyed)
	assert.Equal(t, 1, s.Live())
	assert.Equal(t, KindScatter, c.Kind())
	assert.Equal(t, "third", s.Current().Title())

	var buf bytes.Buffer
	_, err = s.Current().WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "third", buf.String())

	s.Close()
	assert.Equal(t, 0, s.Live())
	assert.Nil(t, s.Current())
}

func TestSurface_DestroyIsIdempotent(t *testing.T) {
	b := &fakeBackend{}
	s := NewSurface(b)
	c, err := s.Render(barSpec("x"))
	require.NoError(t, err)
	c.Destroy()
	c.Destroy()
	assert.Equal(t, 1, b.destroyed)
	assert.Equal(t, 0, s.Live())
	_, err = s.Render(barSpec("y"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Live())
}

func TestSurface_BuildFailureLeavesNoChart(t *testing.T) {
	b := &fakeBackend{}
	s := NewSurface(b)
	_, err := s.Render(barSpec("x"))
	require.NoError(t, err)
	b.fail = true
	_, err = s.Render(barSpec("y"))
	require.Error(t, err)
	assert.Equal(t, 0, s.Live())
	assert.Nil(t, s.Current())
}

func TestEChartsBackend_Bar(t *testing.T) {
	s := NewSurface(NewEChartsBackend(640, 480))
	c, err := s.Render(barSpec(`Barras: Frecuencia por "state" (claims.csv)`))
	require.NoError(t, err)
	assert.Equal(t, KindBar, c.Kind())

	var buf bytes.Buffer
	_, err = c.WriteTo(&buf)
	require.NoError(t, err)
	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "\"bar\"")
	assert.Contains(t, html, "640px")
}

func TestEChartsBackend_ScatterAndDestroy(t *testing.T) {
	s := NewSurface(NewEChartsBackend(0, 0))
	first, err := s.Render(scatterSpec("Dispersión: a vs b"))
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = first.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\"scatter\"")

	_, err = s.Render(barSpec("next"))
	require.NoError(t, err)
	_, err = first.WriteTo(io.Discard)
	assert.ErrorIs(t, err, ErrDestroyed)
	assert.Equal(t, 1, s.Live())
}

func TestEChartsBackend_EmptyResult(t *testing.T) {
	s := NewSurface(NewEChartsBackend(0, 0))
	_, err := s.Render(Spec{Title: "empty", Result: analysis.Result{Mode: analysis.ModeHistogram}})
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = s.Current().WriteTo(&buf)
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}

func TestPlotBackend_PNG(t *testing.T) {
	s := NewSurface(NewPlotBackend("png", 320, 240))
	_, err := s.Render(Spec{Title: "hist", Result: analysis.Histogram([]string{"1", "2", "2", "3"}, 3)})
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = s.Current().WriteTo(&buf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), "not a png")
}

func TestPlotBackend_SVGScatterAndEmpty(t *testing.T) {
	s := NewSurface(NewPlotBackend("svg", 320, 240))
	_, err := s.Render(scatterSpec("pts"))
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = s.Current().WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<svg")

	_, err = s.Render(Spec{Title: "none", Result: analysis.Result{Mode: analysis.ModeScatter}})
	require.NoError(t, err)
	buf.Reset()
	_, err = s.Current().WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Live())
}

func TestBackendFor(t *testing.T) {
	b, err := BackendFor("", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, ".html", b.Extension())
	b, err = BackendFor("SVG", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", b.ContentType())
	_, err = BackendFor("pdf", 0, 0)
	assert.Error(t, err)
}
