package encoding

import (
	"fmt"

	"github.com/zygoslab/zygosdb/endian"
	"github.com/zygoslab/zygosdb/errs"
)

// StringDict is the per-table string dictionary backing HashtableString
// columns. Each distinct string is stored once; rows reference it by index.
//
// The dictionary is serialized at the head of the table's row segment:
//
//	count(4) (len(1) bytes...)...
//
// A dictionary built during encoding deduplicates via Add; a dictionary
// parsed from a segment is immutable and safe to share across decode
// goroutines.
type StringDict struct {
	values []string
	index  map[string]uint32
}

// NewStringDict creates an empty dictionary for building a table.
func NewStringDict() *StringDict {
	return &StringDict{index: make(map[string]uint32)}
}

// Add returns the index of s, inserting it if it has not been seen before.
func (d *StringDict) Add(s string) (uint32, error) {
	if idx, ok := d.index[s]; ok {
		return idx, nil
	}
	if len(s) > MaxStringLength {
		return 0, fmt.Errorf("%w: dictionary value of %d bytes", errs.ErrStringTooLong, len(s))
	}

	idx := uint32(len(d.values))
	d.values = append(d.values, s)
	d.index[s] = idx

	return idx, nil
}

// At resolves a dictionary index decoded from a row.
func (d *StringDict) At(idx uint32) (string, error) {
	if int(idx) >= len(d.values) {
		return "", fmt.Errorf("%w: dictionary index %d, %d entries", errs.ErrRowCorruption, idx, len(d.values))
	}

	return d.values[idx], nil
}

// Len returns the number of distinct entries.
func (d *StringDict) Len() int {
	return len(d.values)
}

// AppendTo serializes the dictionary block and appends it to buf.
func (d *StringDict) AppendTo(buf []byte) []byte {
	engine := endian.GetBigEndianEngine()

	buf = engine.AppendUint32(buf, uint32(len(d.values)))
	for _, v := range d.values {
		buf = append(buf, uint8(len(v)))
		buf = append(buf, v...)
	}

	return buf
}

// EncodedSize returns the exact number of bytes AppendTo will produce.
func (d *StringDict) EncodedSize() int {
	size := 4
	for _, v := range d.values {
		size += 1 + len(v)
	}

	return size
}

// ParseStringDict reads a dictionary block from the head of a decompressed
// row segment. The reader is left positioned at the first row.
func ParseStringDict(r *Reader) (*StringDict, error) {
	count, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	// Each entry occupies at least its 1-byte length prefix, so a count
	// beyond the remaining bytes is provably corrupt. Checking before the
	// allocation keeps a corrupt count from forcing a huge slice.
	if uint64(count) > uint64(r.Remaining()) {
		return nil, fmt.Errorf("%w: dictionary count %d exceeds %d remaining bytes",
			errs.ErrRowCorruption, count, r.Remaining())
	}

	d := &StringDict{values: make([]string, 0, count)}
	for i := uint32(0); i < count; i++ {
		v, err := r.StringU8()
		if err != nil {
			return nil, fmt.Errorf("dictionary entry %d: %w", i, err)
		}
		d.values = append(d.values, v)
	}

	return d, nil
}
