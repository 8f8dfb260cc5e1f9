// Package dataset provides the tabular data representation shared by the
// pipeline steps: a string-typed frame for cleaning and validation work, CSV
// round-tripping, and conversion to golearn instances for the modeling steps.
package dataset

import (
	"math"
	"strconv"

	"mlpipe/pkg/serrors"
)

// Frame is an in-memory tabular dataset: an ordered header and string-typed
// rows. Cleaning and validation operate on the string representation so that
// missing and malformed values survive until a step decides what to do with
// them.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// New constructs a Frame and verifies every row matches the header width.
func New(columns []string, rows [][]string) (*Frame, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, serrors.With(serrors.ErrInvalidData,
				"row %d has %d fields, header has %d", i, len(row), len(columns))
		}
	}

	return &Frame{Columns: columns, Rows: rows}, nil
}

// NumRows returns the number of data rows.
func (f *Frame) NumRows() int { return len(f.Rows) }

// ColumnIndex returns the position of the named column.
func (f *Frame) ColumnIndex(name string) (int, bool) {
	for i, c := range f.Columns {
		if c == name {
			return i, true
		}
	}

	return 0, false
}

// Column returns the raw string values of the named column.
func (f *Frame) Column(name string) ([]string, error) {
	idx, ok := f.ColumnIndex(name)
	if !ok {
		return nil, serrors.With(serrors.ErrInvalidData, "unknown column %q", name)
	}

	values := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		values[i] = row[idx]
	}

	return values, nil
}

// FloatColumn parses the named column as float64. Empty or unparsable values
// become NaN so callers can count and skip them explicitly.
func (f *Frame) FloatColumn(name string) ([]float64, error) {
	raw, err := f.Column(name)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(raw))
	for i, s := range raw {
		v, parseErr := strconv.ParseFloat(s, 64)
		if s == "" || parseErr != nil {
			values[i] = math.NaN()

			continue
		}
		values[i] = v
	}

	return values, nil
}

// Filter returns a new Frame containing only the rows for which keep returns
// true. The header is shared, rows are not copied.
func (f *Frame) Filter(keep func(row []string) bool) *Frame {
	out := &Frame{Columns: f.Columns}
	for _, row := range f.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}

	return out
}

// Select returns a new Frame with the rows at the given indices, in order.
func (f *Frame) Select(indices []int) *Frame {
	rows := make([][]string, 0, len(indices))
	for _, i := range indices {
		rows = append(rows, f.Rows[i])
	}

	return &Frame{Columns: f.Columns, Rows: rows}
}
