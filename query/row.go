package query

import (
	"math"

	"github.com/zygoslab/zygosdb/format"
	"github.com/zygoslab/zygosdb/section"
)

// Row is one decoded record: a genomic position plus one value per declared
// column. Rows are produced on demand by a query and owned by the caller;
// their string values are copies and outlive the client.
type Row struct {
	position uint64
	columns  []section.ColumnHeader
	cells    []cell
}

// cell holds one decoded value. Numeric values live in bits (two's
// complement for integers, IEEE-754 for floats); both string column kinds
// resolve to str.
type cell struct {
	bits uint64
	str  string
}

// Position returns the row's genomic position.
func (r *Row) Position() uint64 {
	return r.position
}

// NumColumns returns the number of columns in the row.
func (r *Row) NumColumns() int {
	return len(r.cells)
}

// Int returns the value of the i-th column. It reports false if i is out of
// range or the column is not an Integer column.
func (r *Row) Int(i int) (int64, bool) {
	if i < 0 || i >= len(r.cells) || r.columns[i].Type != format.ColumnInteger {
		return 0, false
	}

	return int64(r.cells[i].bits), true
}

// Float returns the value of the i-th column. It reports false if i is out
// of range or the column is not a Float column.
func (r *Row) Float(i int) (float64, bool) {
	if i < 0 || i >= len(r.cells) || r.columns[i].Type != format.ColumnFloat {
		return 0, false
	}

	return math.Float64frombits(r.cells[i].bits), true
}

// String returns the value of the i-th column. It reports false if i is out
// of range or the column is not a string column. HashtableString values are
// already resolved through the table dictionary.
func (r *Row) String(i int) (string, bool) {
	if i < 0 || i >= len(r.cells) {
		return "", false
	}
	switch r.columns[i].Type {
	case format.ColumnVolatileString, format.ColumnHashtableString:
		return r.cells[i].str, true
	default:
		return "", false
	}
}

// Value returns the i-th column value as int64, float64, or string.
func (r *Row) Value(i int) (any, bool) {
	if i < 0 || i >= len(r.cells) {
		return nil, false
	}
	switch r.columns[i].Type {
	case format.ColumnInteger:
		return int64(r.cells[i].bits), true
	case format.ColumnFloat:
		return math.Float64frombits(r.cells[i].bits), true
	default:
		return r.cells[i].str, true
	}
}
