package section

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/zygoslab/zygosdb/endian"
	"github.com/zygoslab/zygosdb/errs"
	"github.com/zygoslab/zygosdb/format"
)

// ColumnHeader describes one typed column of a dataset.
type ColumnHeader struct {
	Type format.ColumnType
	Name string
}

// TableRef points at the index block of one per-chromosome table. The offset
// is absolute within the file.
type TableRef struct {
	Chromosome uint8
	Offset     uint64
}

// DatasetHeader describes one named table family. The column order is fixed
// and shared by every table of the dataset.
type DatasetHeader struct {
	Name        string
	Compression format.CompressionType
	Columns     []ColumnHeader
	Tables      []TableRef
}

// DatabaseHeader is the parsed top-level header of a database file.
type DatabaseHeader struct {
	Version  uint8
	Datasets []DatasetHeader
}

// headerReader wraps sequential header parsing over an io.Reader, mapping
// short reads to the errs sentinels.
type headerReader struct {
	r      io.Reader
	engine endian.EndianEngine
	buf    [8]byte
}

func (hr *headerReader) bytes(n int) ([]byte, error) {
	b := hr.buf[:n]
	if _, err := io.ReadFull(hr.r, b); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUnexpectedEOF, err)
	}

	return b, nil
}

func (hr *headerReader) uint8() (uint8, error) {
	b, err := hr.bytes(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (hr *headerReader) uint64() (uint64, error) {
	b, err := hr.bytes(8)
	if err != nil {
		return 0, err
	}

	return hr.engine.Uint64(b), nil
}

// pascalString reads a 1-byte length prefix followed by that many UTF-8 bytes.
func (hr *headerReader) pascalString() (string, error) {
	n, err := hr.uint8()
	if err != nil {
		return "", err
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(hr.r, b); err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrUnexpectedEOF, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: name is not valid UTF-8", errs.ErrInvalidName)
	}

	return string(b), nil
}

func (hr *headerReader) magic(want string) error {
	b := make([]byte, len(want))
	if _, err := io.ReadFull(hr.r, b); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrUnexpectedEOF, err)
	}
	if string(b) != want {
		return fmt.Errorf("%w: expected %q, got %q", errs.ErrInvalidMagicNumber, want, b)
	}

	return nil
}

// ParseDatabaseHeader parses the database header from the start of r.
//
// The magic bytes and version are validated before any other byte is
// interpreted. Column and compression type ids are validated as they are
// read, so a corrupt header fails here rather than at query time.
func ParseDatabaseHeader(r io.Reader) (*DatabaseHeader, error) {
	hr := &headerReader{r: r, engine: endian.GetBigEndianEngine()}

	if err := hr.magic(MagicDatabase); err != nil {
		return nil, err
	}

	version, err := hr.uint8()
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", errs.ErrUnsupportedVersion, version, FormatVersion)
	}

	datasetCount, err := hr.uint8()
	if err != nil {
		return nil, err
	}

	header := &DatabaseHeader{
		Version:  version,
		Datasets: make([]DatasetHeader, 0, datasetCount),
	}

	for i := 0; i < int(datasetCount); i++ {
		ds, err := parseDatasetHeader(hr)
		if err != nil {
			return nil, fmt.Errorf("dataset %d: %w", i, err)
		}
		header.Datasets = append(header.Datasets, ds)
	}

	return header, nil
}

func parseDatasetHeader(hr *headerReader) (DatasetHeader, error) {
	var ds DatasetHeader

	name, err := hr.pascalString()
	if err != nil {
		return ds, err
	}
	ds.Name = name

	comp, err := hr.uint8()
	if err != nil {
		return ds, err
	}
	ds.Compression = format.CompressionType(comp)
	if !ds.Compression.Valid() {
		return ds, fmt.Errorf("%w: id %d", errs.ErrInvalidCompressionType, comp)
	}

	columnCount, err := hr.uint8()
	if err != nil {
		return ds, err
	}
	ds.Columns = make([]ColumnHeader, 0, columnCount)
	for i := 0; i < int(columnCount); i++ {
		typ, err := hr.uint8()
		if err != nil {
			return ds, err
		}
		colType := format.ColumnType(typ)
		if !colType.Valid() {
			return ds, fmt.Errorf("%w: column %d has type id %d", errs.ErrInvalidColumnType, i, typ)
		}

		colName, err := hr.pascalString()
		if err != nil {
			return ds, err
		}
		ds.Columns = append(ds.Columns, ColumnHeader{Type: colType, Name: colName})
	}

	tableCount, err := hr.uint8()
	if err != nil {
		return ds, err
	}
	ds.Tables = make([]TableRef, 0, tableCount)
	for i := 0; i < int(tableCount); i++ {
		chromosome, err := hr.uint8()
		if err != nil {
			return ds, err
		}
		offset, err := hr.uint64()
		if err != nil {
			return ds, err
		}
		ds.Tables = append(ds.Tables, TableRef{Chromosome: chromosome, Offset: offset})
	}

	return ds, nil
}

// Dataset returns the dataset with the given name.
func (h *DatabaseHeader) Dataset(name string) (*DatasetHeader, bool) {
	for i := range h.Datasets {
		if h.Datasets[i].Name == name {
			return &h.Datasets[i], true
		}
	}

	return nil, false
}

// Table returns the table ref for the given chromosome.
func (d *DatasetHeader) Table(chromosome uint8) (*TableRef, bool) {
	for i := range d.Tables {
		if d.Tables[i].Chromosome == chromosome {
			return &d.Tables[i], true
		}
	}

	return nil, false
}

// Validate checks the count and name-length limits of the header encoding.
// The builder calls this before serializing; parsed headers satisfy the
// limits by construction.
func (h *DatabaseHeader) Validate() error {
	if len(h.Datasets) > MaxSectionCount {
		return fmt.Errorf("%w: %d datasets", errs.ErrLimitExceeded, len(h.Datasets))
	}
	for i := range h.Datasets {
		ds := &h.Datasets[i]
		if len(ds.Name) > MaxNameLength {
			return fmt.Errorf("%w: dataset name %q", errs.ErrStringTooLong, ds.Name)
		}
		if len(ds.Columns) > MaxSectionCount {
			return fmt.Errorf("%w: dataset %q has %d columns", errs.ErrLimitExceeded, ds.Name, len(ds.Columns))
		}
		if len(ds.Tables) > MaxSectionCount {
			return fmt.Errorf("%w: dataset %q has %d tables", errs.ErrLimitExceeded, ds.Name, len(ds.Tables))
		}
		if !ds.Compression.Valid() {
			return fmt.Errorf("%w: dataset %q", errs.ErrInvalidCompressionType, ds.Name)
		}
		for j := range ds.Columns {
			col := &ds.Columns[j]
			if len(col.Name) > MaxNameLength {
				return fmt.Errorf("%w: column name %q", errs.ErrStringTooLong, col.Name)
			}
			if !col.Type.Valid() {
				return fmt.Errorf("%w: column %q", errs.ErrInvalidColumnType, col.Name)
			}
		}
	}

	return nil
}

// EncodedSize returns the exact number of bytes AppendTo will produce.
func (h *DatabaseHeader) EncodedSize() int {
	size := len(MagicDatabase) + 2 // magic + version + dataset count
	for i := range h.Datasets {
		ds := &h.Datasets[i]
		size += 1 + len(ds.Name) // name
		size += 1                // compression
		size += 1                // column count
		for j := range ds.Columns {
			size += 2 + len(ds.Columns[j].Name) // type + name
		}
		size += 1 // table count
		size += len(ds.Tables) * 9
	}

	return size
}

// AppendTo serializes the header and appends it to buf. Callers must have
// validated the header first; limits are enforced by Validate.
func (h *DatabaseHeader) AppendTo(buf []byte) []byte {
	engine := endian.GetBigEndianEngine()

	buf = append(buf, MagicDatabase...)
	buf = append(buf, FormatVersion)
	buf = append(buf, uint8(len(h.Datasets)))

	for i := range h.Datasets {
		ds := &h.Datasets[i]
		buf = append(buf, uint8(len(ds.Name)))
		buf = append(buf, ds.Name...)
		buf = append(buf, uint8(ds.Compression))

		buf = append(buf, uint8(len(ds.Columns)))
		for j := range ds.Columns {
			col := &ds.Columns[j]
			buf = append(buf, uint8(col.Type))
			buf = append(buf, uint8(len(col.Name)))
			buf = append(buf, col.Name...)
		}

		buf = append(buf, uint8(len(ds.Tables)))
		for j := range ds.Tables {
			buf = append(buf, ds.Tables[j].Chromosome)
			buf = engine.AppendUint64(buf, ds.Tables[j].Offset)
		}
	}

	return buf
}
