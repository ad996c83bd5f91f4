//go:build windows

package mmap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// allocationGranularity is the alignment MapViewOfFile requires for offsets.
const allocationGranularity = 64 * 1024

// PageSize returns the granularity at which file offsets can be mapped.
// On Windows this is the allocation granularity, not the hardware page size.
func PageSize() int {
	return allocationGranularity
}

func osMapFile(fd uintptr, offset int64, length int) ([]byte, func([]byte) error, func([]byte) error, error) {
	handle := windows.Handle(fd)

	// A zero maximum size maps the whole (already grown) file.
	h, err := windows.CreateFileMapping(handle, nil, windows.PAGE_READWRITE, 0, 0, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	// The view keeps its own reference to the mapping object.
	defer windows.CloseHandle(h)

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE,
		uint32(uint64(offset)>>32), uint32(offset), uintptr(length))
	if err != nil {
		return nil, nil, nil, err
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)

	syncFunc := func(b []byte) error {
		if err := windows.FlushViewOfFile(addr, uintptr(len(b))); err != nil {
			return err
		}
		// FlushViewOfFile only queues dirty pages; FlushFileBuffers waits for the device.
		return windows.FlushFileBuffers(handle)
	}
	unmapFunc := func(b []byte) error {
		return windows.UnmapViewOfFile(addr)
	}

	return data, syncFunc, unmapFunc, nil
}

func osMapAnon(size int) ([]byte, func([]byte) error, error) {
	// VirtualAlloc commits on demand, like an anonymous mmap.
	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, nil, err
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)

	return data, func(b []byte) error {
		return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
	}, nil
}
