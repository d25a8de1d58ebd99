package section

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zygoslab/zygosdb/errs"
)

func sampleIndexBlock() *TableIndexBlock {
	return &TableIndexBlock{
		MaxPosition:   5000,
		EndOffset:     2048,
		SegmentOffset: 20,
		SegmentLength: 40,
		Entries: []IndexEntry{
			{Position: 10, Offset: 0},
			{Position: 250, Offset: 480},
			{Position: 4000, Offset: 1760},
		},
	}
}

// readerAt wraps a byte slice placed at a base offset, simulating an index
// block embedded in a larger file.
func blockAt(t *testing.T, block *TableIndexBlock, base int64, fileSize int64) (io.ReaderAt, int64) {
	t.Helper()
	file := make([]byte, fileSize)
	data := block.AppendTo(nil)
	copy(file[base:], data)

	return bytes.NewReader(file), base
}

func TestTableIndexBlock_RoundTrip(t *testing.T) {
	original := sampleIndexBlock()
	data := original.AppendTo(nil)
	require.Len(t, data, original.EncodedSize())

	parsed, err := ReadTableIndexBlock(bytes.NewReader(data), 0, int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, original.MaxPosition, parsed.MaxPosition)
	require.Equal(t, original.EndOffset, parsed.EndOffset)
	require.Equal(t, original.SegmentOffset, parsed.SegmentOffset)
	require.Equal(t, original.SegmentLength, parsed.SegmentLength)
	require.Equal(t, original.Entries, parsed.Entries)
}

func TestReadTableIndexBlock_AtOffset(t *testing.T) {
	block := sampleIndexBlock()
	r, base := blockAt(t, block, 4096, 8192)

	parsed, err := ReadTableIndexBlock(r, base, 8192)
	require.NoError(t, err)
	require.Equal(t, block.Entries, parsed.Entries)
}

func TestReadTableIndexBlock_Errors(t *testing.T) {
	t.Run("offset beyond file", func(t *testing.T) {
		data := sampleIndexBlock().AppendTo(nil)
		_, err := ReadTableIndexBlock(bytes.NewReader(data), int64(len(data))-4, int64(len(data)))
		require.ErrorIs(t, err, errs.ErrOffsetOutOfRange)
	})

	t.Run("bad magic", func(t *testing.T) {
		data := sampleIndexBlock().AppendTo(nil)
		data[0] = 'x'
		_, err := ReadTableIndexBlock(bytes.NewReader(data), 0, int64(len(data)))
		require.ErrorIs(t, err, errs.ErrInvalidMagicNumber)
	})

	t.Run("entry count past file end", func(t *testing.T) {
		block := sampleIndexBlock()
		data := block.AppendTo(nil)
		// Truncate the last entry; the declared count now runs past the end.
		data = data[:len(data)-IndexEntrySize]
		_, err := ReadTableIndexBlock(bytes.NewReader(data), 0, int64(len(data)))
		require.ErrorIs(t, err, errs.ErrUnexpectedEOF)
	})

	t.Run("segment out of bounds", func(t *testing.T) {
		block := sampleIndexBlock()
		block.SegmentOffset = 1 << 40
		data := block.AppendTo(nil)
		_, err := ReadTableIndexBlock(bytes.NewReader(data), 0, int64(len(data)))
		require.ErrorIs(t, err, errs.ErrOffsetOutOfRange)
	})

	t.Run("positions not strictly increasing", func(t *testing.T) {
		block := sampleIndexBlock()
		block.Entries[1].Position = block.Entries[0].Position
		data := block.AppendTo(nil)
		_, err := ReadTableIndexBlock(bytes.NewReader(data), 0, int64(len(data)))
		require.ErrorIs(t, err, errs.ErrInvalidIndexOrder)
	})

	t.Run("offsets decreasing", func(t *testing.T) {
		block := sampleIndexBlock()
		block.Entries[2].Offset = 10
		data := block.AppendTo(nil)
		_, err := ReadTableIndexBlock(bytes.NewReader(data), 0, int64(len(data)))
		require.ErrorIs(t, err, errs.ErrInvalidIndexOrder)
	})

	t.Run("entry offset beyond segment end", func(t *testing.T) {
		block := sampleIndexBlock()
		block.Entries[2].Offset = block.EndOffset
		data := block.AppendTo(nil)
		_, err := ReadTableIndexBlock(bytes.NewReader(data), 0, int64(len(data)))
		require.ErrorIs(t, err, errs.ErrOffsetOutOfRange)
	})
}
