package render

import (
	"bytes"
	"io"
	"strconv"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const seriesColor = "rgba(54,162,235,0.5)"

// EChartsBackend renders self-contained HTML pages with go-echarts.
type EChartsBackend struct {
	Width  int
	Height int
}

// NewEChartsBackend returns an HTML backend with the given pixel size.
func NewEChartsBackend(width, height int) *EChartsBackend {
	if width <= 0 {
		width = 900
	}
	if height <= 0 {
		height = 500
	}
	return &EChartsBackend{Width: width, Height: height}
}

func (b *EChartsBackend) Name() string        { return "echarts" }
func (b *EChartsBackend) Extension() string   { return ".html" }
func (b *EChartsBackend) ContentType() string { return "text/html; charset=utf-8" }

type pageRenderer interface {
	Render(w io.Writer) error
}

type echartsChart struct {
	mu    sync.Mutex
	kind  Kind
	title string
	page  pageRenderer
}

func (c *echartsChart) Kind() Kind    { return c.kind }
func (c *echartsChart) Title() string { return c.title }

func (c *echartsChart) WriteTo(w io.Writer) (int64, error) {
	c.mu.Lock()
	page := c.page
	c.mu.Unlock()
	if page == nil {
		return 0, ErrDestroyed
	}
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return 0, err
	}
	return buf.WriteTo(w)
}

func (c *echartsChart) Destroy() {
	c.mu.Lock()
	c.page = nil
	c.mu.Unlock()
}

// Build draws a bar chart for categorical and histogram results, or a
// scatter plot for coordinate results.
func (b *EChartsBackend) Build(spec Spec) (Chart, error) {
	kind := KindFor(spec.Result.Mode)
	var page pageRenderer
	if kind == KindScatter {
		page = b.scatter(spec)
	} else {
		page = b.bar(spec)
	}
	return &echartsChart{kind: kind, title: spec.Title, page: page}, nil
}

func (b *EChartsBackend) globals(spec Spec, xType string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: spec.Title,
			Width:     strconv.Itoa(b.Width) + "px",
			Height:    strconv.Itoa(b.Height) + "px",
		}),
		charts.WithTitleOpts(opts.Title{Title: spec.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Name: spec.XLabel, Type: xType}),
		charts.WithYAxisOpts(opts.YAxis{Name: spec.YLabel, Type: "value"}),
	}
}

func (b *EChartsBackend) bar(spec Spec) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(b.globals(spec, "category")...)
	values := spec.Result.Values()
	data := make([]opts.BarData, len(values))
	for i, v := range values {
		data[i] = opts.BarData{Value: v}
	}
	bar.SetXAxis(spec.Result.Labels()).
		AddSeries(spec.Title, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: seriesColor}),
		)
	return bar
}

func (b *EChartsBackend) scatter(spec Spec) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(b.globals(spec, "value")...)
	data := make([]opts.ScatterData, len(spec.Result.Points))
	for i, p := range spec.Result.Points {
		data[i] = opts.ScatterData{Value: []float64{p.X, p.Y}, SymbolSize: 6}
	}
	sc.AddSeries(spec.Title, data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: seriesColor}),
	)
	return sc
}
