package section

import (
	"fmt"
	"io"
	"math"

	"github.com/zygoslab/zygosdb/endian"
	"github.com/zygoslab/zygosdb/errs"
)

// IndexEntry is one sparse index sample: the genomic position of a row and
// the byte offset of that row within the decompressed row segment.
type IndexEntry struct {
	Position uint64
	Offset   uint64
}

// TableIndexBlock is the parsed on-disk index block of one table.
//
// EndOffset is the decompressed row segment length in bytes and bounds every
// decode scan. SegmentOffset and SegmentLength locate the stored (possibly
// compressed) segment bytes in the file.
type TableIndexBlock struct {
	MaxPosition   uint64
	EndOffset     uint64
	SegmentOffset uint64
	SegmentLength uint64
	Entries       []IndexEntry
}

// ReadTableIndexBlock reads and validates the index block at the given
// absolute file offset.
//
// Every embedded offset and declared length is bounds-checked against
// fileSize before use, and the construction invariants of the entry list are
// verified: positions strictly increasing, offsets non-decreasing and within
// the segment.
func ReadTableIndexBlock(r io.ReaderAt, offset int64, fileSize int64) (*TableIndexBlock, error) {
	engine := endian.GetBigEndianEngine()

	if offset < 0 || offset+int64(indexBlockPreludeSize) > fileSize {
		return nil, fmt.Errorf("%w: index block at %d, file size %d", errs.ErrOffsetOutOfRange, offset, fileSize)
	}

	prelude := make([]byte, indexBlockPreludeSize)
	if _, err := r.ReadAt(prelude, offset); err != nil {
		return nil, fmt.Errorf("read index block: %w", err)
	}

	if string(prelude[:len(MagicIndex)]) != MagicIndex {
		return nil, fmt.Errorf("%w: expected %q at offset %d", errs.ErrInvalidMagicNumber, MagicIndex, offset)
	}

	p := len(MagicIndex)
	block := &TableIndexBlock{
		MaxPosition:   engine.Uint64(prelude[p:]),
		EndOffset:     engine.Uint64(prelude[p+8:]),
		SegmentOffset: engine.Uint64(prelude[p+16:]),
		SegmentLength: engine.Uint64(prelude[p+24:]),
	}
	entryCount := engine.Uint64(prelude[p+32:])

	if block.SegmentLength > math.MaxInt64 ||
		block.SegmentOffset > math.MaxInt64 ||
		int64(block.SegmentOffset)+int64(block.SegmentLength) > fileSize {
		return nil, fmt.Errorf("%w: segment [%d, +%d), file size %d",
			errs.ErrOffsetOutOfRange, block.SegmentOffset, block.SegmentLength, fileSize)
	}

	entriesOffset := offset + int64(indexBlockPreludeSize)
	if entryCount > uint64((fileSize-entriesOffset)/IndexEntrySize) {
		return nil, fmt.Errorf("%w: %d index entries declared at offset %d", errs.ErrUnexpectedEOF, entryCount, offset)
	}

	raw := make([]byte, entryCount*IndexEntrySize)
	if _, err := r.ReadAt(raw, entriesOffset); err != nil {
		return nil, fmt.Errorf("read index entries: %w", err)
	}

	block.Entries = make([]IndexEntry, entryCount)
	for i := range block.Entries {
		block.Entries[i] = IndexEntry{
			Position: engine.Uint64(raw[i*IndexEntrySize:]),
			Offset:   engine.Uint64(raw[i*IndexEntrySize+8:]),
		}
	}

	if err := block.verify(); err != nil {
		return nil, err
	}

	return block, nil
}

// verify checks the sortedness invariants the builder guarantees.
func (b *TableIndexBlock) verify() error {
	for i, e := range b.Entries {
		if e.Offset >= b.EndOffset {
			return fmt.Errorf("%w: entry %d offset %d beyond segment end %d",
				errs.ErrOffsetOutOfRange, i, e.Offset, b.EndOffset)
		}
		if i == 0 {
			continue
		}
		prev := b.Entries[i-1]
		if e.Position <= prev.Position {
			return fmt.Errorf("%w: entry %d position %d after %d", errs.ErrInvalidIndexOrder, i, e.Position, prev.Position)
		}
		if e.Offset < prev.Offset {
			return fmt.Errorf("%w: entry %d offset %d before %d", errs.ErrInvalidIndexOrder, i, e.Offset, prev.Offset)
		}
	}
	if n := len(b.Entries); n > 0 && b.Entries[n-1].Position > b.MaxPosition {
		return fmt.Errorf("%w: last entry position %d exceeds max position %d",
			errs.ErrInvalidIndexOrder, b.Entries[n-1].Position, b.MaxPosition)
	}

	return nil
}

// EncodedSize returns the exact number of bytes AppendTo will produce.
func (b *TableIndexBlock) EncodedSize() int {
	return indexBlockPreludeSize + len(b.Entries)*IndexEntrySize
}

// AppendTo serializes the index block and appends it to buf.
func (b *TableIndexBlock) AppendTo(buf []byte) []byte {
	engine := endian.GetBigEndianEngine()

	buf = append(buf, MagicIndex...)
	buf = engine.AppendUint64(buf, b.MaxPosition)
	buf = engine.AppendUint64(buf, b.EndOffset)
	buf = engine.AppendUint64(buf, b.SegmentOffset)
	buf = engine.AppendUint64(buf, b.SegmentLength)
	buf = engine.AppendUint64(buf, uint64(len(b.Entries)))
	for _, e := range b.Entries {
		buf = engine.AppendUint64(buf, e.Position)
		buf = engine.AppendUint64(buf, e.Offset)
	}

	return buf
}
