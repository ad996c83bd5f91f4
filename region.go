package pagemap

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hupe1980/pagemap/internal/mmap"
	"github.com/hupe1980/pagemap/resource"
)

// Region is an anonymous, process-private, read-write memory region.
// It has no backing file. The caller owns it and must Close it.
type Region struct {
	m        *mmap.Mapping
	rc       *resource.Controller
	released atomic.Bool
}

// Bytes returns the region's memory.
// Warning: The slice is valid only until Close() is called.
func (r *Region) Bytes() []byte {
	return r.m.Bytes()
}

// Len returns the size of the region in bytes.
func (r *Region) Len() int {
	return r.m.Size()
}

// Close unmaps the region. It is idempotent.
func (r *Region) Close() error {
	if r.released.Swap(true) {
		return nil
	}
	err := r.m.Close()
	r.rc.ReleaseMemory(int64(r.m.Size()))
	return err
}

// Allocator hands out anonymous regions.
type Allocator struct {
	mapper  mmap.Mapper
	logger  *Logger
	metrics MetricsCollector
	rc      *resource.Controller
}

// NewAllocator creates an Allocator. WithFileMode has no effect on it.
func NewAllocator(opts ...Option) *Allocator {
	o := applyOptions(opts)
	return &Allocator{
		mapper:  o.mapper,
		logger:  o.logger,
		metrics: o.metricsCollector,
		rc:      o.resources,
	}
}

// AllocateAndCopy maps a fresh anonymous region of exactly size bytes and,
// if src is non-nil, copies the first size bytes of src into it.
//
// src is never modified and must hold at least size bytes. Without src the
// contents are unspecified (in practice zeroed by the OS). With a memory limit
// attached, the call blocks until the region fits or ctx is done.
func (a *Allocator) AllocateAndCopy(ctx context.Context, src []byte, size int) (r *Region, err error) {
	start := time.Now()
	defer func() {
		a.metrics.RecordAllocate(size, time.Since(start), err)
		a.logger.LogAllocate(ctx, size, src != nil, err)
	}()

	if size <= 0 {
		return nil, newError(KindAllocationFailed, "mmap", "", mmap.ErrInvalidSize)
	}
	if src != nil && len(src) < size {
		return nil, newError(KindAllocationFailed, "copy", "", errShortSource)
	}

	if err := a.rc.AcquireMemory(ctx, int64(size)); err != nil {
		return nil, newError(KindAllocationFailed, "reserve", "", err)
	}

	m, err := a.mapper.MapAnon(size)
	if err != nil {
		a.rc.ReleaseMemory(int64(size))
		return nil, newError(KindAllocationFailed, "mmap", "", err)
	}

	if src != nil {
		copy(m.Bytes(), src[:size])
	}

	return &Region{m: m, rc: a.rc}, nil
}
