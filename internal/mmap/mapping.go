package mmap

import (
	"sync/atomic"
)

// Mapping owns a mapped byte slice and is responsible for unmapping it.
type Mapping struct {
	data   []byte
	size   int
	closed atomic.Bool
	// sync and unmap are platform-specific; sync is nil for anonymous mappings.
	sync  func([]byte) error
	unmap func([]byte) error
}

func newMapping(data []byte, sync, unmap func([]byte) error) *Mapping {
	return &Mapping{
		data:  data,
		size:  len(data),
		sync:  sync,
		unmap: unmap,
	}
}

// MapFile establishes a shared read-write mapping of length bytes of the file
// identified by fd, starting at offset. offset must be page-aligned and the
// file must already be at least offset+length bytes long.
func MapFile(fd uintptr, offset int64, length int) (*Mapping, error) {
	if length <= 0 {
		return nil, ErrInvalidSize
	}
	if offset < 0 || offset%int64(PageSize()) != 0 {
		return nil, ErrInvalidOffset
	}

	data, syncFunc, unmapFunc, err := osMapFile(fd, offset, length)
	if err != nil {
		return nil, err
	}
	return newMapping(data, syncFunc, unmapFunc), nil
}

// MapAnon creates an anonymous, private, read-write mapping of size bytes.
func MapAnon(size int) (*Mapping, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	data, unmapFunc, err := osMapAnon(size)
	if err != nil {
		return nil, err
	}
	return newMapping(data, nil, unmapFunc), nil
}

// Bytes returns the underlying byte slice.
// Warning: The slice is valid only until Close() is called.
// Accessing the slice after Close() results in undefined behavior (likely a crash).
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the size of the mapping in bytes.
func (m *Mapping) Size() int {
	return m.size
}

// Sync blocks until the modified pages are written back to the backing file.
// It is a no-op for anonymous mappings.
func (m *Mapping) Sync() error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.sync == nil {
		return nil
	}
	return m.sync(m.data)
}

// Close unmaps the memory. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil // Already closed
	}
	if m.unmap != nil && m.data != nil {
		return m.unmap(m.data)
	}
	return nil
}
