package query

import (
	"fmt"
	"math"

	"github.com/zygoslab/zygosdb/encoding"
	"github.com/zygoslab/zygosdb/errs"
	"github.com/zygoslab/zygosdb/format"
	"github.com/zygoslab/zygosdb/section"
)

// rowScanner sequentially decodes rows from a shared decompressed segment.
// Each scanner owns its decode state; concurrent workers never share one.
type rowScanner struct {
	r       *encoding.Reader
	columns []section.ColumnHeader
	dict    *encoding.StringDict
}

func newRowScanner(t *TableIndex, from int) *rowScanner {
	r := encoding.NewReader(t.seg)
	r.SetOffset(from)

	return &rowScanner{r: r, columns: t.columns, dict: t.dict}
}

// scan decodes rows from the current offset up to the stop bound, appending
// to out every row whose position lies in [start, end].
//
// Rows before start are skipped without decoding their trailing columns;
// the first row past end terminates the scan. A row that straddles the stop
// bound means the segment does not line up with its index and is reported
// as corruption.
func (s *rowScanner) scan(stop int, start, end uint64, out []Row) ([]Row, error) {
	for s.r.Offset() < stop {
		pos, err := s.r.Int64()
		if err != nil {
			return nil, err
		}
		if pos < 0 {
			return nil, fmt.Errorf("%w: negative position %d", errs.ErrRowCorruption, pos)
		}

		position := uint64(pos)
		if position > end {
			return out, nil
		}
		if position < start {
			if err := s.skipRow(); err != nil {
				return nil, err
			}
			if s.r.Offset() > stop {
				return nil, fmt.Errorf("%w: row crosses scan boundary at offset %d", errs.ErrRowCorruption, stop)
			}

			continue
		}

		row, err := s.decodeRow(position)
		if err != nil {
			return nil, err
		}
		if s.r.Offset() > stop {
			return nil, fmt.Errorf("%w: row crosses scan boundary at offset %d", errs.ErrRowCorruption, stop)
		}
		out = append(out, row)
	}

	return out, nil
}

// decodeRow decodes the columns after the already-read position column.
func (s *rowScanner) decodeRow(position uint64) (Row, error) {
	cells := make([]cell, len(s.columns))
	cells[0] = cell{bits: position}

	for i := 1; i < len(s.columns); i++ {
		switch s.columns[i].Type {
		case format.ColumnInteger:
			v, err := s.r.Int64()
			if err != nil {
				return Row{}, err
			}
			cells[i] = cell{bits: uint64(v)}

		case format.ColumnFloat:
			v, err := s.r.Float64()
			if err != nil {
				return Row{}, err
			}
			cells[i] = cell{bits: math.Float64bits(v)}

		case format.ColumnVolatileString:
			v, err := s.r.StringU8()
			if err != nil {
				return Row{}, err
			}
			cells[i] = cell{str: v}

		case format.ColumnHashtableString:
			idx, err := s.r.DictIndex()
			if err != nil {
				return Row{}, err
			}
			v, err := s.dict.At(idx)
			if err != nil {
				return Row{}, err
			}
			cells[i] = cell{str: v}
		}
	}

	return Row{position: position, columns: s.columns, cells: cells}, nil
}

// skipRow advances past the columns after the position column without
// decoding values.
func (s *rowScanner) skipRow() error {
	for i := 1; i < len(s.columns); i++ {
		var err error
		switch s.columns[i].Type {
		case format.ColumnInteger:
			err = s.r.Skip(encoding.IntegerWidth)
		case format.ColumnFloat:
			err = s.r.Skip(encoding.FloatWidth)
		case format.ColumnVolatileString:
			err = s.r.SkipStringU8()
		case format.ColumnHashtableString:
			err = s.r.Skip(encoding.DictIndexWidth)
		}
		if err != nil {
			return err
		}
	}

	return nil
}
