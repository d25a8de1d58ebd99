package query

import (
	"fmt"

	"golang.org/x/exp/mmap"
)

// mappedFile is a read-only memory-mapped database file. The mapping is
// shared by every table index and query worker of a client; it is never
// written to, so concurrent ReadAt calls need no synchronization.
type mappedFile struct {
	r    *mmap.ReaderAt
	size int64
}

func openMapped(path string) (*mappedFile, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	return &mappedFile{r: r, size: int64(r.Len())}, nil
}

// readAt reads exactly len(p) bytes at off. Bounds are checked up front so a
// corrupt offset surfaces as an error, not a fault on the mapping.
func (m *mappedFile) readAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > m.size {
		return fmt.Errorf("read [%d, +%d) beyond file size %d", off, len(p), m.size)
	}
	if _, err := m.r.ReadAt(p, off); err != nil {
		return err
	}

	return nil
}

// ReadAt implements io.ReaderAt for header and index block parsing.
func (m *mappedFile) ReadAt(p []byte, off int64) (int, error) {
	return m.r.ReadAt(p, off)
}

func (m *mappedFile) Close() error {
	if m.r == nil {
		return nil
	}
	err := m.r.Close()
	m.r = nil

	return err
}
