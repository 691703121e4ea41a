package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/csvcharts/internal/dataset"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{" 3.5 ", 3.5, true},
		{"1,234,567.25", 1234567.25, true},
		{"-2e3", -2000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"12%", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9, "input %q", tc.in)
		}
	}
}

func TestInferKind_NumericWithSeparators(t *testing.T) {
	samples := [][]string{
		{"1", "2", "3"},
		{"1,000", "2,500.75", "12"},
		{"0.5"},
		{"-1", "1e6", "3,141"},
	}
	for _, s := range samples {
		assert.Equal(t, Numeric, InferKind(s, DefaultNumericThreshold), "sample %v", s)
	}
}

func TestInferKind_Threshold(t *testing.T) {
	// 8 of 10 is exactly 0.8, which is not above the threshold.
	atThreshold := []string{"1", "2", "3", "4", "5", "6", "7", "8", "x", "y"}
	assert.Equal(t, Categorical, InferKind(atThreshold, DefaultNumericThreshold))

	above := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "y"}
	assert.Equal(t, Numeric, InferKind(above, DefaultNumericThreshold))

	assert.Equal(t, Categorical, InferKind([]string{"OH", "IN", "12"}, DefaultNumericThreshold))
	assert.Equal(t, Categorical, InferKind(nil, DefaultNumericThreshold))
}

func TestInferencer_UsesPrefixSample(t *testing.T) {
	var b strings.Builder
	b.WriteString("v\n")
	for i := 0; i < 50; i++ {
		b.WriteString(strconv.Itoa(i) + "\n")
	}
	for i := 0; i < 200; i++ {
		b.WriteString("text\n")
	}
	ds, err := dataset.ParseString(b.String(), "p.csv")
	require.NoError(t, err)
	assert.Equal(t, Numeric, DefaultInferencer().Column(ds, "v"))
	assert.Equal(t, Categorical, Inferencer{SampleSize: 250, Threshold: 0.8}.Column(ds, "v"))
}

func TestCountCategories(t *testing.T) {
	got := CountCategories([]string{"A", "B", "A", "C", "B", "A"}, DefaultMaxCategories)
	assert.Equal(t, []CategoryCount{{"A", 3}, {"B", 2}, {"C", 1}}, got)
}

func TestCountCategories_TrimSkipEmptyAndStableTies(t *testing.T) {
	got := CountCategories([]string{" z", "y", "", "x", "z ", "  ", "y", "x"}, 0)
	assert.Equal(t, []CategoryCount{{"z", 2}, {"y", 2}, {"x", 2}}, got)
}

func TestCountCategories_TruncatesToHighest(t *testing.T) {
	var vals []string
	for i := 0; i < 50; i++ {
		label := fmt.Sprintf("c%02d", i)
		for j := 0; j <= i; j++ {
			vals = append(vals, label)
		}
	}
	got := CountCategories(vals, DefaultMaxCategories)
	require.Len(t, got, 40)
	assert.Equal(t, "c49", got[0].Label)
	assert.Equal(t, 50, got[0].Count)
	assert.Equal(t, "c10", got[39].Label)
}

func TestHistogram_OneToHundred(t *testing.T) {
	vals := make([]string, 100)
	for i := range vals {
		vals[i] = strconv.Itoa(i + 1)
	}
	res := Histogram(vals, 10)
	require.Len(t, res.Bins, 10)
	for i, b := range res.Bins {
		assert.Equal(t, 10, b.Count, "bin %d", i)
	}
	assert.Equal(t, 1.0, res.Bins[0].Lo)
	assert.Equal(t, 100.0, res.Bins[9].Hi)
	assert.Equal(t, 1.0, res.Min)
	assert.Equal(t, 100.0, res.Max)
	assert.Equal(t, "1.0", res.Labels()[0])
}

func TestHistogram_ConstantValues(t *testing.T) {
	res := Histogram([]string{"5", "5", "5", "5"}, 10)
	require.Len(t, res.Bins, 10)
	assert.Equal(t, 4, res.Bins[0].Count)
	for _, b := range res.Bins[1:] {
		assert.Zero(t, b.Count)
	}
	assert.Equal(t, 1.0, res.Step)
	assert.False(t, res.Empty())
}

func TestHistogram_SkipsBadCellsAndDefaultsBins(t *testing.T) {
	res := Histogram([]string{"1", "oops", "", "3", "2,000"}, 0)
	require.Len(t, res.Bins, DefaultBins)
	total := 0
	for _, b := range res.Bins {
		total += b.Count
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, res.Bins[DefaultBins-1].Count)
}

func TestHistogram_ExtremeRangeStaysFinite(t *testing.T) {
	res := Histogram([]string{"-1e308", "0", "1e308"}, 10)
	require.Len(t, res.Bins, 10)
	assert.False(t, math.IsInf(res.Step, 0) || math.IsNaN(res.Step), "step %v", res.Step)
	for i, b := range res.Bins {
		assert.False(t, math.IsInf(b.Lo, 0) || math.IsNaN(b.Lo), "bin %d lo %v", i, b.Lo)
		assert.False(t, math.IsInf(b.Hi, 0) || math.IsNaN(b.Hi), "bin %d hi %v", i, b.Hi)
	}
	assert.Equal(t, 1, res.Bins[0].Count)
	assert.Equal(t, 1, res.Bins[5].Count)
	assert.Equal(t, 1, res.Bins[9].Count)
	assert.Equal(t, -1e308, res.Bins[0].Lo)
	assert.Equal(t, 1e308, res.Bins[9].Hi)
	for _, l := range res.Labels() {
		assert.NotContains(t, l, "NaN")
		assert.NotContains(t, l, "Inf")
	}
	_, err := json.Marshal(res)
	require.NoError(t, err)
}

func TestHistogram_ClampsBinCount(t *testing.T) {
	res := Histogram([]string{"1", "2", "3"}, MaxBins*2_000_000)
	assert.Len(t, res.Bins, MaxBins)

	ds := newDataset(t, "amount\n1\n2\n3\n")
	res, err := DefaultAggregator().Aggregate(ds, Request{X: "amount", Bins: MaxBins + 1})
	require.NoError(t, err)
	assert.Len(t, res.Bins, MaxBins)
}

func TestHistogram_NoNumbers(t *testing.T) {
	res := Histogram([]string{"a", "b"}, 10)
	assert.True(t, res.Empty())
	assert.Equal(t, 0, res.Len())
}

func TestScatter_DropsUnparseableRows(t *testing.T) {
	got := Scatter([]string{"1", "a"}, []string{"2", "3"})
	assert.Equal(t, []Point{{X: 1, Y: 2}}, got)
}

func newDataset(t *testing.T, text string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ParseString(text, "d.csv")
	require.NoError(t, err)
	return ds
}

func TestAggregate_AutoResolution(t *testing.T) {
	ds := newDataset(t, "state,amount,age\nOH,100,30\nIN,200,41\nOH,300,25\n")
	agg := DefaultAggregator()

	cases := []struct {
		req  Request
		mode Mode
	}{
		{Request{X: "amount"}, ModeHistogram},
		{Request{X: "state"}, ModeBar},
		{Request{X: "amount", Y: "age"}, ModeScatter},
		{Request{X: "state", Y: "amount"}, ModeBar},
		{Request{X: "amount", Y: "state"}, ModeBar},
		{Request{X: "amount", Mode: ModeBar}, ModeBar},
		{Request{X: "state", Mode: ModeHistogram}, ModeHistogram},
	}
	for _, tc := range cases {
		res, err := agg.Aggregate(ds, tc.req)
		require.NoError(t, err, "req %+v", tc.req)
		assert.Equal(t, tc.mode, res.Mode, "req %+v", tc.req)
	}
}

func TestAggregate_EmptyResultNotError(t *testing.T) {
	ds := newDataset(t, "state\nOH\nIN\n")
	res, err := DefaultAggregator().Aggregate(ds, Request{X: "state", Mode: ModeHistogram, Bins: 5})
	require.NoError(t, err)
	assert.Equal(t, ModeHistogram, res.Mode)
	assert.True(t, res.Empty())

	res, err = DefaultAggregator().Aggregate(newDataset(t, "a,b\n"), Request{X: "a"})
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestAggregate_SelectionErrors(t *testing.T) {
	ds := newDataset(t, "a,b\n1,2\n")
	agg := DefaultAggregator()

	_, err := agg.Aggregate(ds, Request{X: "nope"})
	var colErr *ColumnError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, "X", colErr.Axis)

	_, err = agg.Aggregate(ds, Request{X: "a", Y: "zz"})
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, "Y", colErr.Axis)

	_, err = agg.Aggregate(ds, Request{X: "a", Mode: ModeScatter})
	assert.ErrorIs(t, err, ErrYColumnRequired)
}

func TestAggregate_HistogramBinsFromRequest(t *testing.T) {
	ds := newDataset(t, "v\n1\n2\n3\n4\n")
	res, err := DefaultAggregator().Aggregate(ds, Request{X: "v", Bins: 4})
	require.NoError(t, err)
	require.Len(t, res.Bins, 4)
	assert.Equal(t, []float64{1, 1, 1, 1}, res.Values())
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAuto, "AUTO": ModeAuto, "hist": ModeHistogram, "bar": ModeBar, "scatter": ModeScatter} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("pie")
	assert.Error(t, err)
}
