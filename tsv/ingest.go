package tsv

import (
	"fmt"
	"io"
	"strconv"

	"github.com/zygoslab/zygosdb/build"
	"github.com/zygoslab/zygosdb/errs"
	"github.com/zygoslab/zygosdb/format"
	"github.com/zygoslab/zygosdb/section"
)

// Ingest parses records from r according to the table's column schema and
// appends them to tb. Records must arrive sorted by their position column.
// It returns the number of rows ingested.
func Ingest(tb *build.TableBuilder, columns []section.ColumnHeader, r *Reader) (int, error) {
	rows := 0
	for {
		fields, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if len(fields) != len(columns) {
			return rows, fmt.Errorf("%w: line %d has %d fields, schema has %d columns",
				errs.ErrColumnMismatch, r.Line(), len(fields), len(columns))
		}

		cells := make([]any, len(fields))
		for i, field := range fields {
			cells[i], err = parseCell(columns[i], field)
			if err != nil {
				return rows, fmt.Errorf("line %d: %w", r.Line(), err)
			}
		}

		if err := tb.Append(cells...); err != nil {
			return rows, fmt.Errorf("line %d: %w", r.Line(), err)
		}
		rows++
	}
}

func parseCell(col section.ColumnHeader, field string) (any, error) {
	switch col.Type {
	case format.ColumnInteger:
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %q is not an integer", errs.ErrColumnMismatch, col.Name, field)
		}

		return v, nil

	case format.ColumnFloat:
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %q is not a float", errs.ErrColumnMismatch, col.Name, field)
		}

		return v, nil

	case format.ColumnVolatileString, format.ColumnHashtableString:
		return field, nil

	default:
		return nil, fmt.Errorf("%w: column %q", errs.ErrInvalidColumnType, col.Name)
	}
}
