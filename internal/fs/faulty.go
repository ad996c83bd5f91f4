package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrInjected is the error returned by an injected fault when the rule sets no Err.
var ErrInjected = errors.New("fs: injected fault")

// Fault defines specific failure behavior.
type Fault struct {
	FailOnOpen     bool
	FailOnStat     bool
	FailOnTruncate bool
	// FailOnClose still closes the underlying file before reporting the error.
	FailOnClose bool
	Err         error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	FS      FileSystem
	mu      sync.Mutex
	rules   map[string]Fault // Filename pattern -> Fault
	Default Fault            // Fallback

	open   atomic.Int64
	opened atomic.Int64
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:    fs,
		rules: make(map[string]Fault),
	}
}

// AddRule adds a fault injection rule for names containing pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

// ClearRules drops every rule; Default still applies.
func (f *FaultyFS) ClearRules() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = make(map[string]Fault)
}

// OpenFiles returns the number of handles opened through f and not yet closed.
func (f *FaultyFS) OpenFiles() int64 {
	return f.open.Load()
}

// Opened returns the total number of successful opens.
func (f *FaultyFS) Opened() int64 {
	return f.opened.Load()
}

func (f *FaultyFS) faultFor(name string) Fault {
	f.mu.Lock()
	defer f.mu.Unlock()
	fault := f.Default
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) {
			fault = rule
		}
	}
	return fault
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	fault := f.faultFor(name)
	if fault.FailOnOpen {
		return nil, &os.PathError{Op: "open", Path: name, Err: fault.err()}
	}

	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}

	f.open.Add(1)
	f.opened.Add(1)
	return &faultyFile{File: file, fs: f, fault: fault}, nil
}

type faultyFile struct {
	File
	fs     *FaultyFS
	fault  Fault
	closed atomic.Bool
}

func (ff *faultyFile) Stat() (os.FileInfo, error) {
	if ff.fault.FailOnStat {
		return nil, &os.PathError{Op: "stat", Path: ff.Name(), Err: ff.fault.err()}
	}
	return ff.File.Stat()
}

func (ff *faultyFile) Truncate(size int64) error {
	if ff.fault.FailOnTruncate {
		return &os.PathError{Op: "truncate", Path: ff.Name(), Err: ff.fault.err()}
	}
	return ff.File.Truncate(size)
}

func (ff *faultyFile) Close() error {
	if ff.closed.Swap(true) {
		return os.ErrClosed
	}
	err := ff.File.Close()
	ff.fs.open.Add(-1)
	if ff.fault.FailOnClose {
		return &os.PathError{Op: "close", Path: ff.Name(), Err: ff.fault.err()}
	}
	return err
}
