package mmap

import "errors"

var (
	// ErrClosed is returned when attempting to use a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned when a mapping length is not positive.
	ErrInvalidSize = errors.New("mmap: invalid size")
	// ErrInvalidOffset is returned when the offset is negative or not page-aligned.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
	// ErrInjected is returned by FaultyMapper when the fault carries no Err.
	ErrInjected = errors.New("mmap: injected fault")
)
