package render

import (
	"image/color"
	"io"
	"math"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var fillColor = color.RGBA{R: 54, G: 162, B: 235, A: 255}

// PlotBackend renders PNG or SVG images with gonum/plot.
type PlotBackend struct {
	Format string
	Width  vg.Length
	Height vg.Length
}

// NewPlotBackend returns a raster/vector backend; width and height are pixels
// at 96 dpi.
func NewPlotBackend(format string, width, height int) *PlotBackend {
	if format != "svg" {
		format = "png"
	}
	if width <= 0 {
		width = 900
	}
	if height <= 0 {
		height = 500
	}
	return &PlotBackend{
		Format: format,
		Width:  vg.Length(width) * vg.Inch / 96,
		Height: vg.Length(height) * vg.Inch / 96,
	}
}

func (b *PlotBackend) Name() string      { return "plot-" + b.Format }
func (b *PlotBackend) Extension() string { return "." + b.Format }

func (b *PlotBackend) ContentType() string {
	if b.Format == "svg" {
		return "image/svg+xml"
	}
	return "image/png"
}

type plotChart struct {
	mu     sync.Mutex
	kind   Kind
	title  string
	p      *plot.Plot
	format string
	w, h   vg.Length
}

func (c *plotChart) Kind() Kind    { return c.kind }
func (c *plotChart) Title() string { return c.title }

func (c *plotChart) WriteTo(w io.Writer) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.p == nil {
		return 0, ErrDestroyed
	}
	wt, err := c.p.WriterTo(c.w, c.h, c.format)
	if err != nil {
		return 0, err
	}
	return wt.WriteTo(w)
}

func (c *plotChart) Destroy() {
	c.mu.Lock()
	c.p = nil
	c.mu.Unlock()
}

// Build draws the result; an empty result yields an empty unit-range plot.
func (b *PlotBackend) Build(spec Spec) (Chart, error) {
	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel

	kind := KindFor(spec.Result.Mode)
	if spec.Result.Len() == 0 {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
	} else if kind == KindScatter {
		xys := make(plotter.XYs, len(spec.Result.Points))
		for i, pt := range spec.Result.Points {
			xys[i].X, xys[i].Y = pt.X, pt.Y
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = fillColor
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
	} else {
		values := plotter.Values(spec.Result.Values())
		width := vg.Points(math.Max(2, 480/float64(len(values))))
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return nil, err
		}
		bars.Color = fillColor
		bars.LineStyle.Width = 0
		p.Add(bars)
		p.NominalX(spec.Result.Labels()...)
		p.Y.Min = 0
	}
	return &plotChart{kind: kind, title: spec.Title, p: p, format: b.Format, w: b.Width, h: b.Height}, nil
}
