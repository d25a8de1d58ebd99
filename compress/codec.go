// Package compress provides the pluggable compression layer applied to row
// segments.
//
// A dataset selects one algorithm at build time; it is recorded in the
// dataset header and every row segment of the dataset is compressed as a
// single whole-segment stream under it. Queries decompress a segment once
// and share the resulting buffer read-only.
package compress

import (
	"fmt"

	"github.com/zygoslab/zygosdb/format"
)

// Codec compresses and decompresses whole row segments.
//
// Implementations must be safe for concurrent use: one codec instance serves
// every table of a dataset, and parallel queries may decompress different
// tables at the same time.
//
// Both methods return a newly allocated slice owned by the caller, except
// the None codec, which passes its input through without copying.
type Codec interface {
	// Compress compresses the segment bytes.
	Compress(data []byte) ([]byte, error)
	// Decompress reverses Compress. Corrupt or truncated input fails with an
	// error wrapping errs.ErrDecompression; the failure is not retryable.
	Decompress(data []byte) ([]byte, error)
}

// SizedDecompressor is implemented by codecs that can put a known
// decompressed size to use. LZ4 blocks do not record their decompressed
// size, so the sized path is the only way to decompress a large block
// without guessing at buffer sizes.
type SizedDecompressor interface {
	// DecompressSize reverses Compress for input whose decompressed size is
	// known to be size bytes.
	DecompressSize(data []byte, size int) ([]byte, error)
}

// Decompress decompresses data with codec, taking the sized path when the
// codec supports it. size is the expected decompressed length; callers
// verify the result length regardless.
func Decompress(codec Codec, data []byte, size int) ([]byte, error) {
	if sized, ok := codec.(SizedDecompressor); ok {
		return sized.DecompressSize(data, size)
	}

	return codec.Decompress(data)
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NoopCodec{},
	format.CompressionGzip: GzipCodec{},
	format.CompressionLZ4:  LZ4Codec{},
	format.CompressionZstd: ZstdCodec{},
}

// GetCodec returns the built-in codec for the given compression type.
func GetCodec(compression format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compression]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compression)
}
