package render

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/KaramelBytes/csvcharts/internal/analysis"
)

// ErrDestroyed is returned when writing a chart that has been destroyed.
var ErrDestroyed = errors.New("chart destroyed")

// Kind is the visual type of a chart.
type Kind string

const (
	KindBar     Kind = "bar"
	KindScatter Kind = "scatter"
)

// KindFor maps an aggregation mode to the chart type that displays it.
func KindFor(m analysis.Mode) Kind {
	if m == analysis.ModeScatter {
		return KindScatter
	}
	return KindBar
}

// Spec is everything a backend needs to draw one chart.
type Spec struct {
	Title  string
	XLabel string
	YLabel string
	Result analysis.Result
}

// Chart is one drawn chart bound to a surface.
type Chart interface {
	Kind() Kind
	Title() string
	WriteTo(w io.Writer) (int64, error)
	Destroy()
}

// Backend draws charts in one output format.
type Backend interface {
	Name() string
	Extension() string
	ContentType() string
	Build(spec Spec) (Chart, error)
}

// BackendFor returns the backend for an output format: html, png or svg.
func BackendFor(format string, width, height int) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "html":
		return NewEChartsBackend(width, height), nil
	case "png", "svg":
		return NewPlotBackend(strings.ToLower(format), width, height), nil
	default:
		return nil, fmt.Errorf("unsupported --format: %s (use html|png|svg)", format)
	}
}

// Surface is a drawing target holding at most one live chart. Every Render
// destroys the previous chart before building the next one.
type Surface struct {
	mu      sync.Mutex
	backend Backend
	current Chart
	live    atomic.Int64
}

// NewSurface binds a surface to a backend.
func NewSurface(b Backend) *Surface {
	return &Surface{backend: b}
}

// Backend returns the backend the surface draws with.
func (s *Surface) Backend() Backend { return s.backend }

// Render replaces the current chart with one built from spec.
func (s *Surface) Render(spec Spec) (Chart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Destroy()
		s.current = nil
	}
	c, err := s.backend.Build(spec)
	if err != nil {
		return nil, fmt.Errorf("build %s chart: %w", s.backend.Name(), err)
	}
	s.live.Add(1)
	s.current = &tracked{Chart: c, release: s.release}
	return s.current, nil
}

// Current returns the live chart, or nil.
func (s *Surface) Current() Chart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Live reports how many charts built by this surface have not been destroyed.
func (s *Surface) Live() int { return int(s.live.Load()) }

// Close destroys the current chart.
func (s *Surface) Close() {
	s.mu.Lock()
	c := s.current
	s.current = nil
	s.mu.Unlock()
	if c != nil {
		c.Destroy()
	}
}

func (s *Surface) release() { s.live.Add(-1) }

type tracked struct {
	Chart
	once    sync.Once
	release func()
}

func (t *tracked) Destroy() {
	t.once.Do(func() {
		t.Chart.Destroy()
		t.release()
	})
}
