package pagemap

import "context"

var (
	defaultWriter    = NewWriter()
	defaultAllocator = NewAllocator()
)

// WriteAt writes payload at offset into the file at path with a default
// Writer and returns once the bytes are durable. See Writer.WriteAt.
func WriteAt(path string, offset int64, payload []byte) error {
	return defaultWriter.WriteAt(context.Background(), path, offset, payload)
}

// AllocateAndCopy returns a fresh anonymous region of size bytes, seeded from
// src when src is non-nil. See Allocator.AllocateAndCopy.
func AllocateAndCopy(src []byte, size int) (*Region, error) {
	return defaultAllocator.AllocateAndCopy(context.Background(), src, size)
}
