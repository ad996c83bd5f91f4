//go:build unix

package mmap

import (
	"golang.org/x/sys/unix"
)

// PageSize returns the granularity at which file offsets can be mapped.
func PageSize() int {
	return unix.Getpagesize()
}

func osMapFile(fd uintptr, offset int64, length int) ([]byte, func([]byte) error, func([]byte) error, error) {
	prot := unix.PROT_READ | unix.PROT_WRITE
	flags := unix.MAP_SHARED

	data, err := unix.Mmap(int(fd), offset, length, prot, flags)
	if err != nil {
		return nil, nil, nil, err
	}

	return data, msync, unix.Munmap, nil
}

func msync(data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}

func osMapAnon(size int) ([]byte, func([]byte) error, error) {
	prot := unix.PROT_READ | unix.PROT_WRITE
	flags := unix.MAP_ANON | unix.MAP_PRIVATE

	data, err := unix.Mmap(-1, 0, size, prot, flags)
	if err != nil {
		return nil, nil, err
	}

	return data, unix.Munmap, nil
}
