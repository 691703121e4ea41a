package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/csvcharts/internal/dataset"
)

const (
	// DefaultBins is the histogram bin count when none is requested.
	DefaultBins = 10
	// MaxBins bounds the histogram bin count; larger requests are clamped.
	MaxBins = 1000
	// DefaultMaxCategories caps the bars of a categorical frequency chart.
	DefaultMaxCategories = 40
)

// Mode selects the aggregation performed on the selected columns.
type Mode string

const (
	ModeAuto      Mode = "auto"
	ModeBar       Mode = "bar"
	ModeHistogram Mode = "histogram"
	ModeScatter   Mode = "scatter"
)

// ParseMode maps user input to a Mode. Empty input means auto.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "bar", "bars":
		return ModeBar, nil
	case "histogram", "hist":
		return ModeHistogram, nil
	case "scatter":
		return ModeScatter, nil
	default:
		return "", fmt.Errorf("unsupported chart kind: %s (use auto|bar|histogram|scatter)", s)
	}
}

// CategoryCount is one bar of a frequency chart.
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Bin is a histogram interval [Lo, Hi). The last bin of a histogram is closed.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Point is one scatter coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is chart-ready series data. Exactly one of Categories, Bins or Points
// is populated according to Mode.
type Result struct {
	Mode       Mode            `json:"mode"`
	Categories []CategoryCount `json:"categories,omitempty"`
	Bins       []Bin           `json:"bins,omitempty"`
	Min        float64         `json:"min,omitempty"`
	Max        float64         `json:"max,omitempty"`
	Step       float64         `json:"step,omitempty"`
	Points     []Point         `json:"points,omitempty"`
}

// Len returns the number of series entries.
func (r Result) Len() int {
	switch r.Mode {
	case ModeBar:
		return len(r.Categories)
	case ModeHistogram:
		return len(r.Bins)
	case ModeScatter:
		return len(r.Points)
	}
	return 0
}

// Empty reports whether the result carries no usable values.
func (r Result) Empty() bool {
	if r.Mode == ModeHistogram {
		for _, b := range r.Bins {
			if b.Count > 0 {
				return false
			}
		}
		return true
	}
	return r.Len() == 0
}

// Labels returns category labels, or histogram bin starts formatted with one decimal.
func (r Result) Labels() []string {
	switch r.Mode {
	case ModeBar:
		out := make([]string, len(r.Categories))
		for i, c := range r.Categories {
			out[i] = c.Label
		}
		return out
	case ModeHistogram:
		out := make([]string, len(r.Bins))
		for i, b := range r.Bins {
			out[i] = strconv.FormatFloat(b.Lo, 'f', 1, 64)
		}
		return out
	}
	return nil
}

// Values returns the bar heights for bar and histogram results.
func (r Result) Values() []float64 {
	switch r.Mode {
	case ModeBar:
		out := make([]float64, len(r.Categories))
		for i, c := range r.Categories {
			out[i] = float64(c.Count)
		}
		return out
	case ModeHistogram:
		out := make([]float64, len(r.Bins))
		for i, b := range r.Bins {
			out[i] = float64(b.Count)
		}
		return out
	}
	return nil
}

// CountCategories counts non-empty trimmed values, most frequent first. Ties keep
// first-seen order. limit <= 0 keeps every category.
func CountCategories(values []string, limit int) []CategoryCount {
	pos := map[string]int{}
	var out []CategoryCount
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if i, ok := pos[v]; ok {
			out[i].Count++
			continue
		}
		pos[v] = len(out)
		out = append(out, CategoryCount{Label: v, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Histogram assigns the finite numbers among values to bins equal-width bins
// spanning [min, max]. A constant column uses a step of 1. bins is clamped to
// MaxBins.
func Histogram(values []string, bins int) Result {
	if bins <= 0 {
		bins = DefaultBins
	}
	if bins > MaxBins {
		bins = MaxBins
	}
	res := Result{Mode: ModeHistogram}
	nums := make([]float64, 0, len(values))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		x, ok := ParseNumber(v)
		if !ok {
			continue
		}
		nums = append(nums, x)
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if len(nums) == 0 {
		return res
	}
	n := float64(bins)
	span := hi - lo
	// Spans wider than MaxFloat64 are divided before subtracting.
	wide := math.IsInf(span, 0)
	step := span / n
	if wide {
		step = hi/n - lo/n
	}
	if hi == lo {
		step = 1
	}
	edge := func(i int) float64 {
		e := lo + float64(i)*step
		if math.IsInf(e, 0) {
			f := float64(i) / n
			e = lo*(1-f) + hi*f
		}
		return e
	}
	res.Min, res.Max, res.Step = lo, hi, step
	res.Bins = make([]Bin, bins)
	for i := range res.Bins {
		res.Bins[i].Lo = edge(i)
		res.Bins[i].Hi = edge(i + 1)
	}
	if hi != lo {
		res.Bins[bins-1].Hi = hi
	}
	for _, x := range nums {
		pos := (x - lo) / step
		if wide {
			pos = x/step - lo/step
		}
		idx := 0
		if !math.IsNaN(pos) {
			idx = int(math.Max(0, math.Min(math.Floor(pos), n-1)))
		}
		res.Bins[idx].Count++
	}
	return res
}

// Scatter pairs xs[i] with ys[i], keeping only rows where both parse.
func Scatter(xs, ys []string) []Point {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	var out []Point
	for i := 0; i < n; i++ {
		x, ok := ParseNumber(xs[i])
		if !ok {
			continue
		}
		y, ok := ParseNumber(ys[i])
		if !ok {
			continue
		}
		out = append(out, Point{X: x, Y: y})
	}
	return out
}

// Request is one column selection to aggregate.
type Request struct {
	X    string
	Y    string
	Mode Mode
	Bins int
}

// Aggregator turns a dataset and a selection into chart series.
type Aggregator struct {
	Inferencer    Inferencer
	MaxCategories int
	DefaultBins   int
}

// DefaultAggregator returns an aggregator with the stock thresholds and limits.
func DefaultAggregator() Aggregator {
	return Aggregator{
		Inferencer:    DefaultInferencer(),
		MaxCategories: DefaultMaxCategories,
		DefaultBins:   DefaultBins,
	}
}

// Resolve picks the concrete mode for req, inferring column kinds when auto.
func (a Aggregator) Resolve(ds *dataset.Dataset, req Request) (Mode, error) {
	if !ds.HasColumn(req.X) {
		return "", &ColumnError{Axis: "X", Column: req.X}
	}
	if req.Y != "" && !ds.HasColumn(req.Y) {
		return "", &ColumnError{Axis: "Y", Column: req.Y}
	}
	switch req.Mode {
	case ModeBar, ModeHistogram:
		return req.Mode, nil
	case ModeScatter:
		if req.Y == "" {
			return "", ErrYColumnRequired
		}
		return ModeScatter, nil
	case ModeAuto, "":
	default:
		return "", fmt.Errorf("unsupported chart kind: %s", req.Mode)
	}
	xKind := a.Inferencer.Column(ds, req.X)
	if req.Y == "" {
		if xKind == Numeric {
			return ModeHistogram, nil
		}
		return ModeBar, nil
	}
	if xKind == Numeric && a.Inferencer.Column(ds, req.Y) == Numeric {
		return ModeScatter, nil
	}
	return ModeBar, nil
}

// Aggregate computes the series for req over every row of ds. Columns with no
// usable values yield an empty result, not an error.
func (a Aggregator) Aggregate(ds *dataset.Dataset, req Request) (Result, error) {
	mode, err := a.Resolve(ds, req)
	if err != nil {
		return Result{}, err
	}
	switch mode {
	case ModeHistogram:
		bins := req.Bins
		if bins <= 0 {
			bins = a.DefaultBins
		}
		return Histogram(ds.Column(req.X), bins), nil
	case ModeScatter:
		return Result{Mode: ModeScatter, Points: Scatter(ds.Column(req.X), ds.Column(req.Y))}, nil
	default:
		return Result{Mode: ModeBar, Categories: CountCategories(ds.Column(req.X), a.MaxCategories)}, nil
	}
}
