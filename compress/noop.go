package compress

// NoopCodec passes segment bytes through unchanged. It backs the None
// compression type and is the zero-copy path: both methods return the input
// slice itself, so callers must not mutate segment buffers they hand in.
type NoopCodec struct{}

var _ Codec = NoopCodec{}

func (NoopCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (NoopCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
