package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultSampleSize is the number of leading rows a column sample is drawn from.
const DefaultSampleSize = 50

// Dataset is an in-memory table loaded from a delimited text source.
// It is never mutated after Parse returns.
type Dataset struct {
	Name    string
	Source  string
	headers []string
	index   map[string]int
	rows    []Row
}

// Row is one data record. Cells are aligned with the dataset headers.
type Row struct {
	cells []string
	index map[string]int
}

// Get returns the raw cell for the named column.
func (r Row) Get(col string) (string, bool) {
	i, ok := r.index[col]
	if !ok || i >= len(r.cells) {
		return "", false
	}
	return r.cells[i], true
}

// Values returns a copy of the row cells in header order.
func (r Row) Values() []string {
	out := make([]string, len(r.cells))
	copy(out, r.cells)
	return out
}

// ParseOptions controls CSV parsing.
type ParseOptions struct {
	// Delimiter for fields. If 0, ',' is used.
	Delimiter rune
}

// Parse reads a header row followed by data rows. Blank lines are skipped and
// cells are kept as raw strings.
func Parse(r io.Reader, name string, opt ParseOptions) (*Dataset, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
	}
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	ds := &Dataset{Name: name, index: map[string]int{}}
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ds, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	ds.headers = make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		ds.headers[i] = h
		if _, dup := ds.index[h]; !dup {
			ds.index[h] = i
		}
	}
	ncol := len(ds.headers)
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(ds.rows)+1, err)
		}
		if isBlank(rec) {
			continue
		}
		cells := make([]string, ncol)
		copy(cells, rec)
		ds.rows = append(ds.rows, Row{cells: cells, index: ds.index})
	}
	return ds, nil
}

// ParseString is a convenience wrapper around Parse for in-memory text.
func ParseString(text, name string) (*Dataset, error) {
	return Parse(strings.NewReader(text), name, ParseOptions{})
}

// csv.Reader already drops empty lines; a line of only delimiters is blank too.
func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Headers returns the column names in file order.
func (d *Dataset) Headers() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.headers))
	copy(out, d.headers)
	return out
}

// HasColumn reports whether col is one of the headers.
func (d *Dataset) HasColumn(col string) bool {
	if d == nil {
		return false
	}
	_, ok := d.index[col]
	return ok
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// NumColumns returns the number of headers.
func (d *Dataset) NumColumns() int {
	if d == nil {
		return 0
	}
	return len(d.headers)
}

// Row returns the i-th data row.
func (d *Dataset) Row(i int) Row { return d.rows[i] }

// Column returns every raw value of col, one per row.
func (d *Dataset) Column(col string) []string {
	if !d.HasColumn(col) {
		return nil
	}
	out := make([]string, len(d.rows))
	for i, r := range d.rows {
		out[i], _ = r.Get(col)
	}
	return out
}

// Sample returns the non-empty trimmed values of col within the first n rows.
func (d *Dataset) Sample(col string, n int) []string {
	if !d.HasColumn(col) {
		return nil
	}
	if n <= 0 {
		n = DefaultSampleSize
	}
	if n > len(d.rows) {
		n = len(d.rows)
	}
	out := make([]string, 0, n)
	for _, r := range d.rows[:n] {
		v, _ := r.Get(col)
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
