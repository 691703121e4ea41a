package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/csvcharts/internal/dataset"
)

// Options controls the extended column profile.
type Options struct {
	// TopValues limits the categories listed per categorical column.
	TopValues int
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
}

// DefaultOptions returns reasonable defaults for profiling.
func DefaultOptions() Options {
	return Options{TopValues: 8, SampleRows: 5}
}

// Report is a markdown-friendly profile of a dataset.
type Report struct {
	Name    string
	Rows    int
	Cols    []ColumnSummary
	Samples [][]string
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    Kind
	NonNull int
	Missing int
	Unique  int
	// Numeric stats over every parseable value
	Count int
	Min   float64
	Max   float64
	Mean  float64
	Std   float64
	// Categorical top values
	TopValues []CategoryCount
}

// Profile walks every row once and summarizes each column. The kind comes from
// the inferencer sample so it always agrees with the chart mode resolution.
func Profile(ds *dataset.Dataset, in Inferencer, opt Options) *Report {
	if opt.TopValues <= 0 {
		opt.TopValues = 8
	}
	rep := &Report{Name: ds.Name, Rows: ds.Len()}
	for i := 0; i < ds.Len() && i < opt.SampleRows; i++ {
		rep.Samples = append(rep.Samples, ds.Row(i).Values())
	}
	for _, h := range ds.Headers() {
		col := ds.Column(h)
		s := ColumnSummary{Name: h, Kind: in.Column(ds, h), Min: math.Inf(1), Max: math.Inf(-1)}
		// Welford
		var m2 float64
		for _, v := range col {
			if strings.TrimSpace(v) == "" {
				s.Missing++
				continue
			}
			s.NonNull++
			x, ok := ParseNumber(v)
			if !ok {
				continue
			}
			s.Count++
			s.Min = math.Min(s.Min, x)
			s.Max = math.Max(s.Max, x)
			delta := x - s.Mean
			s.Mean += delta / float64(s.Count)
			m2 += delta * (x - s.Mean)
		}
		if s.Count > 1 {
			s.Std = math.Sqrt(m2 / float64(s.Count-1))
		}
		if s.Count == 0 {
			s.Min, s.Max = 0, 0
		}
		if s.Kind == Categorical {
			all := CountCategories(col, 0)
			s.Unique = len(all)
			if len(all) > opt.TopValues {
				all = all[:opt.TopValues]
			}
			s.TopValues = all
		}
		rep.Cols = append(rep.Cols, s)
	}
	return rep
}

// Markdown renders a compact report for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", r.Name)
	}
	fmt.Fprintf(&b, "Rows: %d\n", r.Rows)
	fmt.Fprintf(&b, "Columns: %d\n\n", len(r.Cols))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		fmt.Fprintf(&b, "- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct)
		switch c.Kind {
		case Numeric:
			if c.Count > 0 {
				fmt.Fprintf(&b, " — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std)
			}
		case Categorical:
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s(%d)", safeVal(kv.Label), kv.Count)
				}
				if c.Unique > len(c.TopValues) {
					fmt.Fprintf(&b, "; unique=%d", c.Unique)
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n|")
		b.WriteString(strings.Repeat(" --- |", len(r.Cols)))
		b.WriteString("\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if rs := []rune(val); len(rs) > 80 {
					val = string(rs[:77]) + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
