package pagemap

import (
	"context"
	"path/filepath"
	"slices"
	"sync"

	"github.com/hupe1980/pagemap/internal/hash"
	"github.com/hupe1980/pagemap/internal/mmap"
)

// DefaultLockStripes is the stripe count used when NewRegionLocks gets n <= 0.
const DefaultLockStripes = 2048

// RegionLocks provides caller-owned mutual exclusion keyed by file region.
//
// A region is an (absolute path, page index) pair hashed onto a fixed set of
// mutexes. Unrelated regions may share a stripe, which only costs
// parallelism. Locking a byte range takes every stripe its pages map to in
// ascending order, so overlapping ranges never deadlock.
type RegionLocks struct {
	stripes []sync.Mutex
}

// NewRegionLocks creates a lock table with n stripes.
func NewRegionLocks(n int) *RegionLocks {
	if n <= 0 {
		n = DefaultLockStripes
	}
	return &RegionLocks{stripes: make([]sync.Mutex, n)}
}

// Lock blocks until the byte range [offset, offset+length) of path is held
// and returns the function that releases it. A zero length locks the page
// containing offset.
//
// Relative paths are resolved against the working directory, so "f" and its
// absolute form share stripes. Symlinks and hard links are not resolved.
func (l *RegionLocks) Lock(path string, offset int64, length int, pageSize int) (unlock func()) {
	idx := l.stripesFor(regionPath(path), max(offset, 0), length, pageSize)
	for _, i := range idx {
		l.stripes[i].Lock()
	}
	return func() {
		for i := len(idx) - 1; i >= 0; i-- {
			l.stripes[idx[i]].Unlock()
		}
	}
}

// regionPath returns the absolute form of path, or the cleaned path if the
// working directory cannot be determined.
func regionPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func (l *RegionLocks) stripesFor(path string, offset int64, length int, pageSize int) []int {
	first := mmap.PageIndex(offset, pageSize)
	last := first
	if length > 0 {
		last = mmap.PageIndex(offset+int64(length)-1, pageSize)
	}

	n := uint64(len(l.stripes))
	if last-first+1 >= n {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}

	idx := make([]int, 0, last-first+1)
	for page := first; page <= last; page++ {
		idx = append(idx, int(uint64(hash.RegionKey(path, page))%n))
	}
	slices.Sort(idx)
	return slices.Compact(idx)
}

// LockedWriter serializes WriteAt calls on overlapping regions.
type LockedWriter struct {
	w     *Writer
	locks *RegionLocks
}

// NewLockedWriter wraps w. If locks is nil a table with DefaultLockStripes
// stripes is created.
func NewLockedWriter(w *Writer, locks *RegionLocks) *LockedWriter {
	if locks == nil {
		locks = NewRegionLocks(0)
	}
	return &LockedWriter{w: w, locks: locks}
}

// WriteAt holds the region of the payload for the duration of w.WriteAt.
func (lw *LockedWriter) WriteAt(ctx context.Context, path string, offset int64, payload []byte) error {
	unlock := lw.locks.Lock(path, offset, len(payload), lw.w.PageSize())
	defer unlock()
	return lw.w.WriteAt(ctx, path, offset, payload)
}
