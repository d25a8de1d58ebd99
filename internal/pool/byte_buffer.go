// Package pool provides pooled byte buffers for segment assembly and
// transient decompression scratch.
package pool

import (
	"io"
	"sync"
)

const (
	// SegmentBufferDefaultSize is the initial capacity of pooled buffers.
	SegmentBufferDefaultSize = 64 * 1024
	// segmentBufferMaxRetained caps the capacity of buffers returned to the
	// pool; oversized one-off buffers are dropped instead of retained.
	segmentBufferMaxRetained = 8 * 1024 * 1024
)

// ByteBuffer is a growable byte slice with an amortized growth strategy.
type ByteBuffer struct {
	B []byte
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Reset empties the buffer, retaining its allocation.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Grow ensures the buffer can hold n more bytes without reallocating.
// Small buffers grow by a fixed step, large ones by a quarter of their
// capacity, so repeated appends stay amortized.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}

	growBy := SegmentBufferDefaultSize
	if cap(bb.B) > 4*SegmentBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < n {
		growBy = n
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends data, growing the buffer as needed. It never fails; the
// error return satisfies io.Writer.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)

	return len(data), nil
}

// WriteTo writes the buffer contents to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)

	return int64(n), err
}

var segmentBufferPool = sync.Pool{
	New: func() any {
		return &ByteBuffer{B: make([]byte, 0, SegmentBufferDefaultSize)}
	},
}

// GetSegmentBuffer returns an empty pooled buffer.
func GetSegmentBuffer() *ByteBuffer {
	bb, _ := segmentBufferPool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// PutSegmentBuffer returns a buffer to the pool. Buffers that grew beyond
// the retention threshold are dropped.
func PutSegmentBuffer(bb *ByteBuffer) {
	if bb == nil || cap(bb.B) > segmentBufferMaxRetained {
		return
	}
	segmentBufferPool.Put(bb)
}
