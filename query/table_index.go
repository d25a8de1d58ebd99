package query

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zygoslab/zygosdb/compress"
	"github.com/zygoslab/zygosdb/encoding"
	"github.com/zygoslab/zygosdb/errs"
	"github.com/zygoslab/zygosdb/format"
	"github.com/zygoslab/zygosdb/internal/pool"
	"github.com/zygoslab/zygosdb/section"
)

// TableIndex is the in-memory sparse index of one (dataset, chromosome)
// table: a position-sorted array of (position, offset) samples plus the
// table's bounds.
//
// The index, its string dictionary, and the decompressed row segment are
// loaded once per client session and never mutated afterwards, so a
// TableIndex is safe to share across any number of query goroutines.
type TableIndex struct {
	dataset     string
	chromosome  uint8
	columns     []section.ColumnHeader
	compression format.CompressionType
	codec       compress.Codec
	block       *section.TableIndexBlock
	file        *mappedFile

	// Row segment state, loaded lazily on the first query that needs it.
	segOnce  sync.Once
	segErr   error
	seg      []byte
	dict     *encoding.StringDict
	rowStart int
}

// Dataset returns the owning dataset's name.
func (t *TableIndex) Dataset() string {
	return t.dataset
}

// Chromosome returns the table's chromosome id.
func (t *TableIndex) Chromosome() uint8 {
	return t.chromosome
}

// Columns returns the dataset's column headers in declared order. The
// returned slice is shared and must be treated as read-only.
func (t *TableIndex) Columns() []section.ColumnHeader {
	return t.columns
}

// MinPosition returns the smallest genomic position present in the table,
// or 0 for an empty table.
func (t *TableIndex) MinPosition() uint64 {
	if len(t.block.Entries) == 0 {
		return 0
	}

	return t.block.Entries[0].Position
}

// MaxPosition returns the largest genomic position present in the table.
func (t *TableIndex) MaxPosition() uint64 {
	return t.block.MaxPosition
}

// EntryCount returns the number of sparse index samples.
func (t *TableIndex) EntryCount() int {
	return len(t.block.Entries)
}

// locate returns the index of the greatest entry whose position is at or
// before pos, or -1 if every entry lies after pos.
func (t *TableIndex) locate(pos uint64) int {
	entries := t.block.Entries

	return sort.Search(len(entries), func(i int) bool {
		return entries[i].Position > pos
	}) - 1
}

// scanBounds returns the byte range of the decompressed segment that covers
// [start, end]: the offset of the located scan start and the exclusive stop
// bound taken from the first entry past end, or the segment end.
func (t *TableIndex) scanBounds(start, end uint64) (from, stop int) {
	entries := t.block.Entries

	i := t.locate(start)
	if i < 0 {
		i = 0
	}
	from = int(entries[i].Offset)

	j := sort.Search(len(entries), func(i int) bool {
		return entries[i].Position > end
	})
	if j < len(entries) {
		stop = int(entries[j].Offset)
	} else {
		stop = int(t.block.EndOffset)
	}

	return from, stop
}

// loadSegment reads, decompresses, and caches the table's row segment and
// string dictionary. The sync.Once guard makes concurrent first queries
// build the segment exactly once; afterwards every reader shares the same
// immutable buffer.
func (t *TableIndex) loadSegment() error {
	t.segOnce.Do(func() {
		t.segErr = t.readSegment()
	})

	return t.segErr
}

func (t *TableIndex) readSegment() error {
	stored := int(t.block.SegmentLength)

	var seg []byte
	if t.compression == format.CompressionNone {
		// Uncompressed segments are read straight into their long-lived
		// buffer; there is nothing transient to stage.
		seg = make([]byte, stored)
		if err := t.file.readAt(seg, int64(t.block.SegmentOffset)); err != nil {
			return fmt.Errorf("read row segment: %w", err)
		}
	} else {
		buf := pool.GetSegmentBuffer()
		defer pool.PutSegmentBuffer(buf)
		buf.Grow(stored)
		buf.B = buf.B[:stored]

		if err := t.file.readAt(buf.B, int64(t.block.SegmentOffset)); err != nil {
			return fmt.Errorf("read row segment: %w", err)
		}

		var err error
		seg, err = compress.Decompress(t.codec, buf.B, int(t.block.EndOffset))
		if err != nil {
			return err
		}
	}

	if uint64(len(seg)) != t.block.EndOffset {
		return fmt.Errorf("%w: segment decompressed to %d bytes, index declares %d",
			errs.ErrDecompression, len(seg), t.block.EndOffset)
	}

	r := encoding.NewReader(seg)
	dict, err := encoding.ParseStringDict(r)
	if err != nil {
		return fmt.Errorf("table dictionary: %w", err)
	}

	t.seg = seg
	t.dict = dict
	t.rowStart = r.Offset()

	return nil
}

// QueryRange returns the rows whose position lies in [start, end], in
// ascending position order.
//
// A window outside the table's [MinPosition, MaxPosition] returns an empty
// result without touching the file. start > end is rejected with
// errs.ErrInvalidRange before any work is done. A failed query returns no
// partial rows.
func (t *TableIndex) QueryRange(start, end uint64) ([]Row, error) {
	if err := t.checkRange(start, end); err != nil {
		return nil, err
	}
	if t.outsideBounds(start, end) {
		return nil, nil
	}
	if err := t.loadSegment(); err != nil {
		return nil, err
	}

	from, stop := t.scanBounds(start, end)
	s := newRowScanner(t, from)

	return s.scan(stop, start, end, nil)
}

func (t *TableIndex) checkRange(start, end uint64) error {
	if start > end {
		return fmt.Errorf("%w: start %d > end %d", errs.ErrInvalidRange, start, end)
	}

	return nil
}

// outsideBounds reports whether [start, end] cannot intersect the table.
func (t *TableIndex) outsideBounds(start, end uint64) bool {
	if len(t.block.Entries) == 0 {
		return true
	}

	return start > t.MaxPosition() || end < t.MinPosition()
}
