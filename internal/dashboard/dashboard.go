package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/csvcharts/internal/analysis"
	"github.com/KaramelBytes/csvcharts/internal/dataset"
	"github.com/KaramelBytes/csvcharts/internal/loader"
	"github.com/KaramelBytes/csvcharts/internal/render"
)

// Loader fetches a dataset by path or URL.
type Loader interface {
	Load(ctx context.Context, src string) (*dataset.Dataset, error)
}

// Selection is the current state of the chart controls.
type Selection struct {
	X    string
	Y    string
	Mode analysis.Mode
	Bins int
}

// Outcome describes one render pass.
type Outcome struct {
	Title   string
	Mode    analysis.Mode
	Result  analysis.Result
	Chart   render.Chart
	Warning error
}

// Controller owns the dashboard state: the loaded dataset, the control
// selection, the summary text and the drawing surface.
type Controller struct {
	loader     Loader
	aggregator analysis.Aggregator
	surface    *render.Surface
	log        logrus.FieldLogger

	mu        sync.Mutex
	ds        *dataset.Dataset
	sel       Selection
	summary   string
	cancelCur context.CancelFunc
	seq       uint64
}

// New builds a controller drawing on surface.
func New(l Loader, agg analysis.Aggregator, surface *render.Surface, log logrus.FieldLogger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{loader: l, aggregator: agg, surface: surface, log: log}
}

// Open loads src and makes it the current dataset. A load that fails leaves
// the previous dataset in place and replaces the summary with the error.
// Starting a new Open cancels one still in flight.
func (c *Controller) Open(ctx context.Context, src string) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.cancelCur != nil {
		c.cancelCur()
	}
	c.cancelCur = cancel
	c.seq++
	seq := c.seq
	c.mu.Unlock()
	defer cancel()

	ds, err := c.loader.Load(ctx, src)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return fmt.Errorf("open %s: %w", src, context.Canceled)
	}
	c.cancelCur = nil
	if err != nil {
		c.summary = "Error: " + err.Error()
		c.log.WithError(err).WithField("source", src).Warn("dataset load failed")
		return err
	}
	c.ds = ds
	c.summary = analysis.Summarize(ds, c.aggregator.Inferencer).Text()
	if !ds.HasColumn(c.sel.X) {
		c.sel = Selection{Mode: analysis.ModeAuto}
		if h := ds.Headers(); len(h) > 0 {
			c.sel.X = h[0]
		}
	} else if c.sel.Y != "" && !ds.HasColumn(c.sel.Y) {
		c.sel.Y = ""
	}
	c.log.WithFields(logrus.Fields{"source": src, "rows": ds.Len()}).Info("dataset opened")
	return nil
}

// Dataset returns the current dataset, or nil before the first successful Open.
func (c *Controller) Dataset() *dataset.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ds
}

// Summary returns the text for the summary region.
func (c *Controller) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// Selection returns the current control selection.
func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// Surface returns the drawing surface.
func (c *Controller) Surface() *render.Surface { return c.surface }

// ErrNoDataset is returned when rendering before any dataset was opened.
var ErrNoDataset = errors.New("no dataset loaded")

// Render aggregates the current dataset for sel and draws it on the surface.
// An empty selection X falls back to the current one. Results with no usable
// values are still drawn and reported through Outcome.Warning.
func (c *Controller) Render(sel Selection) (*Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.render(sel)
}

// RenderTo renders sel and writes the chart to w before any other render can
// replace it.
func (c *Controller) RenderTo(sel Selection, w io.Writer) (*Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, err := c.render(sel)
	if err != nil {
		return nil, err
	}
	if _, err := out.Chart.WriteTo(w); err != nil {
		return nil, fmt.Errorf("write chart: %w", err)
	}
	return out, nil
}

func (c *Controller) render(sel Selection) (*Outcome, error) {
	if c.ds == nil {
		return nil, ErrNoDataset
	}
	if sel.X == "" {
		sel.X = c.sel.X
	}
	if sel.Mode == "" {
		sel.Mode = analysis.ModeAuto
	}
	res, err := c.aggregator.Aggregate(c.ds, analysis.Request{X: sel.X, Y: sel.Y, Mode: sel.Mode, Bins: sel.Bins})
	if err != nil {
		return nil, err
	}
	c.sel = sel
	out := &Outcome{Mode: res.Mode, Result: res, Title: Title(res.Mode, sel.X, sel.Y, c.ds.Name)}
	if res.Empty() {
		out.Warning = &analysis.EmptyResultError{Mode: res.Mode, X: sel.X, Y: sel.Y}
	}
	chart, err := c.surface.Render(render.Spec{
		Title:  out.Title,
		XLabel: sel.X,
		YLabel: yLabel(res.Mode, sel.Y),
		Result: res,
	})
	if err != nil {
		return nil, err
	}
	out.Chart = chart
	c.log.WithFields(logrus.Fields{
		"x":      sel.X,
		"y":      sel.Y,
		"mode":   res.Mode,
		"points": res.Len(),
	}).Debug("chart rendered")
	return out, nil
}

// Title names a chart after the selection and the dataset file.
func Title(mode analysis.Mode, x, y, name string) string {
	file := filepath.Base(name)
	switch mode {
	case analysis.ModeHistogram:
		return fmt.Sprintf("Histograma de %q (%s)", x, file)
	case analysis.ModeScatter:
		return fmt.Sprintf("Dispersión: %s vs %s (%s)", x, y, file)
	default:
		if y != "" {
			return fmt.Sprintf("Barras: %q (%s)", x, file)
		}
		return fmt.Sprintf("Barras: Frecuencia por %q (%s)", x, file)
	}
}

func yLabel(mode analysis.Mode, y string) string {
	if mode == analysis.ModeScatter {
		return y
	}
	return "Frecuencia"
}

// IsLoadError reports whether err came from fetching a dataset.
func IsLoadError(err error) bool {
	var le *loader.LoadError
	return errors.As(err, &le)
}
