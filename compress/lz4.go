package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/zygoslab/zygosdb/errs"
)

// lz4CompressorPool reuses lz4.Compressor instances; they hold hash-table
// state that benefits from reuse across segments.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// Stored LZ4 segments carry a 1-byte marker. The block format cannot
// represent incompressible input (CompressBlock reports it as a zero-length
// result), so such segments are stored raw behind the marker.
const (
	lz4MarkerRaw   = 0x00
	lz4MarkerBlock = 0x01
)

// LZ4Codec compresses row segments with LZ4 block compression. It is the
// fast option: decompression speed dominates query latency for compressed
// datasets, and LZ4 decompresses several times faster than gzip.
type LZ4Codec struct{}

var _ Codec = LZ4Codec{}
var _ SizedDecompressor = LZ4Codec{}

func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, 1+lz4.CompressBlockBound(len(data)))
	dst[0] = lz4MarkerBlock

	c, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(c)

	n, err := c.CompressBlock(data, dst[1:])
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 || n >= len(data) {
		// Incompressible segment; store it raw.
		out := make([]byte, 1+len(data))
		out[0] = lz4MarkerRaw
		copy(out[1:], data)

		return out, nil
	}

	return dst[:1+n], nil
}

// Decompress decompresses a stored LZ4 segment of unknown decompressed
// size.
//
// The block format does not record that size, so the buffer starts at 4x
// the stored size and doubles on short-buffer failures. Growth stops at
// 255x the stored size, the block format's expansion limit; input needing
// more than that is corrupt. Callers that know the decompressed size should
// use DecompressSize instead.
func (LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	block, err := lz4Payload(data)
	if err != nil {
		return nil, err
	}
	if data[0] == lz4MarkerRaw {
		return append([]byte(nil), block...), nil
	}

	// lz4 blocks cannot expand beyond 255x.
	maxSize := len(block) * 255

	for bufSize := len(block) * 4; ; bufSize *= 2 {
		if bufSize > maxSize {
			bufSize = maxSize
		}
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(block, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				continue
			}

			return nil, fmt.Errorf("%w: lz4: %w", errs.ErrDecompression, err)
		}

		return buf[:n], nil
	}
}

// DecompressSize decompresses a stored LZ4 segment whose decompressed size
// is known, allocating exactly once.
func (LZ4Codec) DecompressSize(data []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: lz4: negative decompressed size %d", errs.ErrDecompression, size)
	}
	if len(data) == 0 {
		if size != 0 {
			return nil, fmt.Errorf("%w: lz4: empty input, %d bytes expected", errs.ErrDecompression, size)
		}

		return nil, nil
	}

	block, err := lz4Payload(data)
	if err != nil {
		return nil, err
	}
	if data[0] == lz4MarkerRaw {
		return append([]byte(nil), block...), nil
	}

	buf := make([]byte, size)
	n, err := lz4.UncompressBlock(block, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %w", errs.ErrDecompression, err)
	}

	return buf[:n], nil
}

func lz4Payload(data []byte) ([]byte, error) {
	switch data[0] {
	case lz4MarkerRaw, lz4MarkerBlock:
		return data[1:], nil
	default:
		return nil, fmt.Errorf("%w: lz4: unknown segment marker 0x%02x", errs.ErrDecompression, data[0])
	}
}
