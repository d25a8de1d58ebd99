// Package build constructs zygosdb database files.
//
// A Builder assembles datasets and their per-chromosome tables in memory,
// then writes the complete file in one pass: database header, then for each
// table its (possibly compressed) row segment followed by its index block.
// Databases are append-built and immutable once written; there is no update
// path.
package build

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zygoslab/zygosdb/compress"
	"github.com/zygoslab/zygosdb/encoding"
	"github.com/zygoslab/zygosdb/endian"
	"github.com/zygoslab/zygosdb/errs"
	"github.com/zygoslab/zygosdb/format"
	"github.com/zygoslab/zygosdb/internal/options"
	"github.com/zygoslab/zygosdb/section"
)

// DefaultIndexInterval is the default number of rows between sparse index
// samples. Smaller intervals shorten query scans at the cost of a larger
// index block.
const DefaultIndexInterval = 256

// Option configures a Builder.
type Option = options.Option[*Builder]

// WithIndexInterval sets the sparse index sampling interval in rows.
func WithIndexInterval(rows int) Option {
	return options.New(func(b *Builder) error {
		if rows < 1 {
			return fmt.Errorf("index interval must be at least 1, got %d", rows)
		}
		b.indexInterval = rows

		return nil
	})
}

// WithLogger sets the logger used for build progress. The default discards
// nothing but logs at debug level only.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(b *Builder) {
		b.logger = logger
	})
}

// Builder assembles a database file in memory.
type Builder struct {
	datasets      []*DatasetBuilder
	indexInterval int
	logger        *slog.Logger
}

// NewBuilder creates an empty database builder.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{
		indexInterval: DefaultIndexInterval,
		logger:        slog.Default(),
	}
	if err := options.Apply(b, opts...); err != nil {
		return nil, err
	}

	return b, nil
}

// Dataset adds a dataset with the given column schema and segment
// compression. The first column is the position column and must be an
// Integer column; its value orders the rows of every table.
func (b *Builder) Dataset(name string, compression format.CompressionType, columns []section.ColumnHeader) (*DatasetBuilder, error) {
	if len(b.datasets) >= section.MaxSectionCount {
		return nil, fmt.Errorf("%w: %d datasets", errs.ErrLimitExceeded, len(b.datasets)+1)
	}
	if len(name) == 0 || len(name) > section.MaxNameLength {
		return nil, fmt.Errorf("%w: dataset name %q", errs.ErrStringTooLong, name)
	}
	if !compression.Valid() {
		return nil, fmt.Errorf("%w: id %d", errs.ErrInvalidCompressionType, compression)
	}
	if len(columns) == 0 || len(columns) > section.MaxSectionCount {
		return nil, fmt.Errorf("%w: dataset %q needs 1-%d columns", errs.ErrLimitExceeded, name, section.MaxSectionCount)
	}
	if columns[0].Type != format.ColumnInteger {
		return nil, fmt.Errorf("%w: position column %q must be an Integer column", errs.ErrColumnMismatch, columns[0].Name)
	}
	for _, col := range columns {
		if !col.Type.Valid() {
			return nil, fmt.Errorf("%w: column %q", errs.ErrInvalidColumnType, col.Name)
		}
		if len(col.Name) > section.MaxNameLength {
			return nil, fmt.Errorf("%w: column name %q", errs.ErrStringTooLong, col.Name)
		}
	}
	for _, ds := range b.datasets {
		if ds.name == name {
			return nil, fmt.Errorf("dataset %q already exists", name)
		}
	}

	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	ds := &DatasetBuilder{
		builder:     b,
		name:        name,
		compression: compression,
		codec:       codec,
		columns:     columns,
	}
	b.datasets = append(b.datasets, ds)

	return ds, nil
}

// DatasetBuilder assembles the tables of one dataset.
type DatasetBuilder struct {
	builder     *Builder
	name        string
	compression format.CompressionType
	codec       compress.Codec
	columns     []section.ColumnHeader
	tables      []*TableBuilder
}

// Table adds the table for a chromosome. Each chromosome may appear once
// per dataset.
func (d *DatasetBuilder) Table(chromosome uint8) (*TableBuilder, error) {
	if len(d.tables) >= section.MaxSectionCount {
		return nil, fmt.Errorf("%w: %d tables in dataset %q", errs.ErrLimitExceeded, len(d.tables)+1, d.name)
	}
	for _, t := range d.tables {
		if t.chromosome == chromosome {
			return nil, fmt.Errorf("dataset %q already has chromosome %d", d.name, chromosome)
		}
	}

	t := &TableBuilder{
		dataset:    d,
		chromosome: chromosome,
		interval:   d.builder.indexInterval,
		dict:       encoding.NewStringDict(),
		engine:     endian.GetBigEndianEngine(),
	}
	d.tables = append(d.tables, t)

	return t, nil
}

// TableBuilder encodes the rows of one per-chromosome table.
type TableBuilder struct {
	dataset    *DatasetBuilder
	chromosome uint8
	interval   int
	engine     endian.EndianEngine

	dict    *encoding.StringDict
	rows    []byte
	entries []section.IndexEntry // offsets relative to the rows buffer

	rowCount     int
	lastPosition uint64
	// entryDue marks that the sampling interval elapsed and the next row
	// that starts a fresh position should become an index entry. Entries
	// must never land on the second of two equal-position rows, or queries
	// for that position would start past its first row.
	entryDue bool
}

// Append encodes one row. Cells must match the dataset's column schema:
// int64 (or int) for Integer, float64 for Float, string for both string
// column kinds. The first cell is the genomic position; rows must arrive in
// non-decreasing position order.
func (t *TableBuilder) Append(cells ...any) error {
	cols := t.dataset.columns
	if len(cells) != len(cols) {
		return fmt.Errorf("%w: got %d cells, schema has %d columns", errs.ErrColumnMismatch, len(cells), len(cols))
	}

	pos, err := intCell(cells[0])
	if err != nil {
		return fmt.Errorf("%w: position column: %v", errs.ErrColumnMismatch, err)
	}
	if pos < 0 {
		return fmt.Errorf("%w: %d", errs.ErrInvalidPosition, pos)
	}
	position := uint64(pos)
	if t.rowCount > 0 && position < t.lastPosition {
		return fmt.Errorf("%w: position %d after %d", errs.ErrPositionOrder, position, t.lastPosition)
	}

	if t.rowCount%t.interval == 0 {
		t.entryDue = true
	}
	if t.entryDue && (t.rowCount == 0 || position > t.lastPosition) {
		t.entries = append(t.entries, section.IndexEntry{
			Position: position,
			Offset:   uint64(len(t.rows)),
		})
		t.entryDue = false
	}

	// Encode into a scratch tail so a mid-row type error leaves the buffer
	// untouched.
	encoded, err := t.encodeRow(t.rows, cells)
	if err != nil {
		return err
	}
	t.rows = encoded

	t.lastPosition = position
	t.rowCount++

	return nil
}

func (t *TableBuilder) encodeRow(buf []byte, cells []any) ([]byte, error) {
	start := len(buf)
	cols := t.dataset.columns

	for i, col := range cols {
		switch col.Type {
		case format.ColumnInteger:
			v, err := intCell(cells[i])
			if err != nil {
				return buf[:start], fmt.Errorf("%w: column %q: %v", errs.ErrColumnMismatch, col.Name, err)
			}
			buf = encoding.AppendInt64(t.engine, buf, v)

		case format.ColumnFloat:
			v, ok := cells[i].(float64)
			if !ok {
				return buf[:start], fmt.Errorf("%w: column %q: want float64, got %T", errs.ErrColumnMismatch, col.Name, cells[i])
			}
			buf = encoding.AppendFloat64(t.engine, buf, v)

		case format.ColumnVolatileString:
			v, ok := cells[i].(string)
			if !ok {
				return buf[:start], fmt.Errorf("%w: column %q: want string, got %T", errs.ErrColumnMismatch, col.Name, cells[i])
			}
			var err error
			buf, err = encoding.AppendStringU8(buf, v)
			if err != nil {
				return buf[:start], fmt.Errorf("column %q: %w", col.Name, err)
			}

		case format.ColumnHashtableString:
			v, ok := cells[i].(string)
			if !ok {
				return buf[:start], fmt.Errorf("%w: column %q: want string, got %T", errs.ErrColumnMismatch, col.Name, cells[i])
			}
			idx, err := t.dict.Add(v)
			if err != nil {
				return buf[:start], fmt.Errorf("column %q: %w", col.Name, err)
			}
			buf = encoding.AppendDictIndex(t.engine, buf, idx)
		}
	}

	return buf, nil
}

// RowCount returns the number of rows appended so far.
func (t *TableBuilder) RowCount() int {
	return t.rowCount
}

func intCell(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("want int64, got %T", v)
	}
}

// builtTable is one table's finished segment, ready for layout.
type builtTable struct {
	chromosome uint8
	stored     []byte
	block      section.TableIndexBlock
}

// finish assembles the decompressed segment (dictionary + rows), rebases
// the index entries past the dictionary, and compresses the segment.
func (t *TableBuilder) finish() (*builtTable, error) {
	dictLen := t.dict.EncodedSize()

	segment := make([]byte, 0, dictLen+len(t.rows))
	segment = t.dict.AppendTo(segment)
	segment = append(segment, t.rows...)

	entries := make([]section.IndexEntry, len(t.entries))
	for i, e := range t.entries {
		entries[i] = section.IndexEntry{Position: e.Position, Offset: e.Offset + uint64(dictLen)}
	}

	stored, err := t.dataset.codec.Compress(segment)
	if err != nil {
		return nil, fmt.Errorf("compress segment for chromosome %d: %w", t.chromosome, err)
	}

	return &builtTable{
		chromosome: t.chromosome,
		stored:     stored,
		block: section.TableIndexBlock{
			MaxPosition:   t.lastPosition,
			EndOffset:     uint64(len(segment)),
			SegmentLength: uint64(len(stored)),
			Entries:       entries,
		},
	}, nil
}

// WriteTo lays out and writes the complete database file. It returns the
// number of bytes written.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	header := section.DatabaseHeader{Version: section.FormatVersion}
	for _, ds := range b.datasets {
		header.Datasets = append(header.Datasets, section.DatasetHeader{
			Name:        ds.name,
			Compression: ds.compression,
			Columns:     ds.columns,
			Tables:      make([]section.TableRef, len(ds.tables)),
		})
	}
	if err := header.Validate(); err != nil {
		return 0, err
	}

	// Finish every table first; segment sizes decide the layout.
	built := make([][]*builtTable, len(b.datasets))
	for i, ds := range b.datasets {
		built[i] = make([]*builtTable, len(ds.tables))
		for j, table := range ds.tables {
			bt, err := table.finish()
			if err != nil {
				return 0, err
			}
			built[i][j] = bt

			b.logger.Debug("table segment built",
				"dataset", ds.name,
				"chromosome", bt.chromosome,
				"rows", table.rowCount,
				"index_entries", len(bt.block.Entries),
				"segment_bytes", bt.block.EndOffset,
				"stored_bytes", bt.block.SegmentLength,
			)
		}
	}

	// Lay out segments and index blocks after the header, in dataset and
	// table order, and back-fill the offsets.
	offset := uint64(header.EncodedSize())
	for i := range built {
		for j, bt := range built[i] {
			bt.block.SegmentOffset = offset
			offset += bt.block.SegmentLength

			header.Datasets[i].Tables[j] = section.TableRef{
				Chromosome: bt.chromosome,
				Offset:     offset,
			}
			offset += uint64(bt.block.EncodedSize())
		}
	}

	var written int64
	n, err := w.Write(header.AppendTo(nil))
	written += int64(n)
	if err != nil {
		return written, err
	}
	for i := range built {
		for _, bt := range built[i] {
			n, err = w.Write(bt.stored)
			written += int64(n)
			if err != nil {
				return written, err
			}
			n, err = w.Write(bt.block.AppendTo(nil))
			written += int64(n)
			if err != nil {
				return written, err
			}
		}
	}

	b.logger.Info("database written", "datasets", len(b.datasets), "bytes", written)

	return written, nil
}

// WriteFile writes the database to path, replacing any existing file.
func (b *Builder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := b.WriteTo(f); err != nil {
		_ = f.Close()

		return err
	}

	return f.Close()
}
