package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/zygoslab/zygosdb/errs"
)

// gzipWriterPool reuses gzip writers; their deflate state is expensive to
// build per segment.
var gzipWriterPool = sync.Pool{
	New: func() any {
		return gzip.NewWriter(io.Discard)
	},
}

// GzipCodec compresses row segments with gzip at the default level. Gzip
// trades speed for broad toolability: segments can be inspected with
// standard tooling, which matters for genomic pipelines that already handle
// bgzf/gzip flat files.
type GzipCodec struct{}

var _ Codec = GzipCodec{}

func (GzipCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data) / 2)

	w, _ := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}

	return buf.Bytes(), nil
}

func (GzipCodec) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", errs.ErrDecompression, err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", errs.ErrDecompression, err)
	}
	if err := r.Close(); err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", errs.ErrDecompression, err)
	}

	return out, nil
}
