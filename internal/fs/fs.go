package fs

import (
	"io"
	"os"
)

// File represents an open file.
type File interface {
	io.Closer
	// Fd returns the OS descriptor (a HANDLE on Windows).
	Fd() uintptr
	Name() string
	Stat() (os.FileInfo, error)
	Truncate(size int64) error
}

// FileSystem abstracts file system operations for testability.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
}

// LocalFS implements FileSystem using the local os package.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Default is the default local file system.
var Default FileSystem = LocalFS{}
