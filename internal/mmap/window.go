package mmap

import "fmt"

// Window is the page-aligned part of a file that is mapped to service one write.
//
// Start is a multiple of the page size, Offset is the position of the first
// requested byte inside the window and always lies in [0, pageSize), and
// Length == Offset + requested length.
type Window struct {
	Start  int64
	Length int
	Offset int
}

// End returns the file offset one past the last byte of the window.
func (w Window) End() int64 {
	return w.Start + int64(w.Length)
}

// ComputeWindow returns the window covering length bytes at offset.
//
// pageSize must be a positive power of two and offset must be non-negative;
// anything else is a programming error and panics.
func ComputeWindow(offset int64, length int, pageSize int) Window {
	if pageSize <= 0 || pageSize&(pageSize-1) != 0 {
		panic(fmt.Sprintf("mmap: page size %d is not a power of two", pageSize))
	}
	if offset < 0 || length < 0 {
		panic(fmt.Sprintf("mmap: negative window request (offset=%d, length=%d)", offset, length))
	}

	start := offset &^ int64(pageSize-1)
	inWindow := int(offset - start)

	return Window{
		Start:  start,
		Length: inWindow + length,
		Offset: inWindow,
	}
}

// PageIndex returns the index of the page containing offset.
func PageIndex(offset int64, pageSize int) uint64 {
	return uint64(offset) / uint64(pageSize)
}
