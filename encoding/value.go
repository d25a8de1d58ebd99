package encoding

import (
	"fmt"
	"math"

	"github.com/zygoslab/zygosdb/endian"
	"github.com/zygoslab/zygosdb/errs"
)

// MaxStringLength is the longest string value the 1-byte length prefix can
// carry.
const MaxStringLength = 255

// Fixed encoded widths in bytes.
const (
	IntegerWidth   = 8
	FloatWidth     = 8
	DictIndexWidth = 4
)

// AppendInt64 appends an Integer column value.
func AppendInt64(engine endian.EndianEngine, buf []byte, v int64) []byte {
	return engine.AppendUint64(buf, uint64(v))
}

// AppendFloat64 appends a Float column value.
func AppendFloat64(engine endian.EndianEngine, buf []byte, v float64) []byte {
	return engine.AppendUint64(buf, math.Float64bits(v))
}

// AppendDictIndex appends a HashtableString column value: the dictionary
// index of the string.
func AppendDictIndex(engine endian.EndianEngine, buf []byte, idx uint32) []byte {
	return engine.AppendUint32(buf, idx)
}

// AppendStringU8 appends a VolatileString column value: a 1-byte length
// prefix followed by the string bytes.
func AppendStringU8(buf []byte, s string) ([]byte, error) {
	if len(s) > MaxStringLength {
		return buf, fmt.Errorf("%w: %d bytes", errs.ErrStringTooLong, len(s))
	}
	buf = append(buf, uint8(len(s)))
	buf = append(buf, s...)

	return buf, nil
}

// Reader decodes fixed-order column values from a decompressed row segment.
//
// A Reader never reads past the end of its data; any decode that would is
// reported as errs.ErrRowCorruption. Readers are cheap to create and each
// decode goroutine owns its own, so no Reader state is ever shared.
type Reader struct {
	data   []byte
	off    int
	engine endian.EndianEngine
}

// NewReader creates a Reader over the given segment bytes.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, engine: endian.GetBigEndianEngine()}
}

// Offset returns the current decode offset within the segment.
func (r *Reader) Offset() int {
	return r.off
}

// SetOffset positions the reader at the given offset. The offset must have
// come from an index entry or a prior Offset call.
func (r *Reader) SetOffset(off int) {
	r.off = off
}

// Remaining returns the number of undecoded bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.off+n > len(r.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, segment ends at %d",
			errs.ErrRowCorruption, n, r.off, len(r.data))
	}
	b := r.data[r.off : r.off+n]
	r.off += n

	return b, nil
}

// Int64 decodes an Integer column value.
func (r *Reader) Int64() (int64, error) {
	b, err := r.take(IntegerWidth)
	if err != nil {
		return 0, err
	}

	return int64(r.engine.Uint64(b)), nil
}

// Float64 decodes a Float column value.
func (r *Reader) Float64() (float64, error) {
	b, err := r.take(FloatWidth)
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(r.engine.Uint64(b)), nil
}

// DictIndex decodes a HashtableString column value.
func (r *Reader) DictIndex() (uint32, error) {
	b, err := r.take(DictIndexWidth)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint32(b), nil
}

// StringU8 decodes a VolatileString column value. The returned string owns
// its bytes and stays valid after the segment buffer is released.
func (r *Reader) StringU8() (string, error) {
	lb, err := r.take(1)
	if err != nil {
		return "", err
	}
	b, err := r.take(int(lb[0]))
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// Uint32 decodes a fixed-width unsigned 32-bit value, used by the dictionary
// block header.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint32(b), nil
}

// Skip advances the reader by n bytes without decoding.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)

	return err
}

// SkipStringU8 advances past a VolatileString value without decoding it.
func (r *Reader) SkipStringU8() error {
	lb, err := r.take(1)
	if err != nil {
		return err
	}

	return r.Skip(int(lb[0]))
}
