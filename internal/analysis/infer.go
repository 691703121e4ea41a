package analysis

import (
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/csvcharts/internal/dataset"
)

// DefaultNumericThreshold is the share of parseable values above which a column is numeric.
const DefaultNumericThreshold = 0.8

// Kind classifies a column.
type Kind int

const (
	Categorical Kind = iota
	Numeric
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

// Label is the display name used in the summary report.
func (k Kind) Label() string {
	if k == Numeric {
		return "numérica"
	}
	return "categórica"
}

// ParseNumber strips thousands separators and parses s as a finite float.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, ",", "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// InferKind classifies a sample of non-empty values. More than threshold of the
// values must parse as numbers for the column to be Numeric; an empty sample is
// Categorical.
func InferKind(sample []string, threshold float64) Kind {
	if len(sample) == 0 {
		return Categorical
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultNumericThreshold
	}
	ok := 0
	for _, v := range sample {
		if _, isNum := ParseNumber(v); isNum {
			ok++
		}
	}
	if float64(ok)/float64(len(sample)) > threshold {
		return Numeric
	}
	return Categorical
}

// Inferencer classifies dataset columns from a bounded prefix sample.
type Inferencer struct {
	SampleSize int
	Threshold  float64
}

// DefaultInferencer returns the inferencer used when no configuration is given.
func DefaultInferencer() Inferencer {
	return Inferencer{SampleSize: dataset.DefaultSampleSize, Threshold: DefaultNumericThreshold}
}

// Sample returns the column sample the inferencer would classify.
func (in Inferencer) Sample(ds *dataset.Dataset, col string) []string {
	return ds.Sample(col, in.SampleSize)
}

// Column infers the kind of col in ds.
func (in Inferencer) Column(ds *dataset.Dataset, col string) Kind {
	return InferKind(in.Sample(ds, col), in.Threshold)
}
