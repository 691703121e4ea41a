package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/csvcharts/internal/dataset"
)

// ColumnKind is the inferred type of one column and the sample size it came from.
type ColumnKind struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Sample int    `json:"sample"`
}

// Summary is the plain-text profile shown next to the chart.
type Summary struct {
	Rows    int          `json:"rows"`
	Columns []ColumnKind `json:"columns"`
}

// Summarize infers every column kind from a prefix sample.
func Summarize(ds *dataset.Dataset, in Inferencer) Summary {
	s := Summary{Rows: ds.Len()}
	for _, h := range ds.Headers() {
		sample := in.Sample(ds, h)
		s.Columns = append(s.Columns, ColumnKind{
			Name:   h,
			Kind:   InferKind(sample, in.Threshold).String(),
			Sample: len(sample),
		})
	}
	return s
}

// Text renders the summary block.
func (s Summary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Filas: %d\n", s.Rows)
	fmt.Fprintf(&b, "Columnas: %d\n", len(s.Columns))
	for _, c := range s.Columns {
		label := Categorical.Label()
		if c.Kind == Numeric.String() {
			label = Numeric.Label()
		}
		fmt.Fprintf(&b, "%s: %s (muestra %d)\n", c.Name, label, c.Sample)
	}
	return b.String()
}
