package resource

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits. Zero values disable the corresponding limit.
type Config struct {
	// MemoryLimitBytes caps the bytes held by live anonymous regions.
	// If 0, usage is tracked but never blocks.
	MemoryLimitBytes int64

	// MaxBackgroundWorkers is the number of WriteAll requests in flight.
	// If 0, defaults to 1.
	MaxBackgroundWorkers int64

	// IOLimitBytesPerSec paces the payload bytes copied into file mappings.
	// The burst equals one second of budget. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// ErrExceedsLimit is returned for a reservation larger than the configured
// limit, which could never be granted.
var ErrExceedsLimit = errors.New("resource: request exceeds limit")

// budget is a byte reservation with an optional hard cap.
type budget struct {
	cap   *semaphore.Weighted // nil when uncapped
	limit int64
	used  atomic.Int64
}

func (b *budget) acquire(ctx context.Context, n int64) error {
	if b.cap != nil {
		if n > b.limit {
			return ErrExceedsLimit
		}
		if err := b.cap.Acquire(ctx, n); err != nil {
			return err
		}
	}
	b.used.Add(n)
	return nil
}

func (b *budget) tryAcquire(n int64) bool {
	if b.cap != nil && !b.cap.TryAcquire(n) {
		return false
	}
	b.used.Add(n)
	return true
}

func (b *budget) release(n int64) {
	if b.cap != nil {
		b.cap.Release(n)
	}
	b.used.Add(-n)
}

// Controller arbitrates region memory, fan-out workers and write bandwidth
// between every Writer and Allocator it is attached to.
//
// All methods accept a nil receiver and then impose no limit.
type Controller struct {
	workers int64

	memory  budget
	slots   *semaphore.Weighted
	limiter *rate.Limiter // nil when unpaced
}

// NewController creates a Controller from cfg.
func NewController(cfg Config) *Controller {
	workers := max(cfg.MaxBackgroundWorkers, 1)

	c := &Controller{
		workers: workers,
		slots:   semaphore.NewWeighted(workers),
	}
	if cfg.MemoryLimitBytes > 0 {
		c.memory.cap = semaphore.NewWeighted(cfg.MemoryLimitBytes)
		c.memory.limit = cfg.MemoryLimitBytes
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// AcquireMemory reserves bytes for a region, blocking while the limit would
// be exceeded. A request above the limit fails with ErrExceedsLimit.
// Non-positive amounts are ignored.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	return c.memory.acquire(ctx, bytes)
}

// TryAcquireMemory reserves bytes without blocking and reports success.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	return c.memory.tryAcquire(bytes)
}

// ReleaseMemory returns a reservation made by AcquireMemory or TryAcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	c.memory.release(bytes)
}

// MemoryUsage returns the bytes currently reserved.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memory.used.Load()
}

// MaxBackgroundWorkers returns the number of worker slots, or 0 for a nil Controller.
func (c *Controller) MaxBackgroundWorkers() int64 {
	if c == nil {
		return 0
	}
	return c.workers
}

// AcquireBackground blocks until a worker slot is free or ctx is done.
func (c *Controller) AcquireBackground(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.slots.Acquire(ctx, 1)
}

// TryAcquireBackground takes a worker slot if one is free.
func (c *Controller) TryAcquireBackground() bool {
	if c == nil {
		return true
	}
	return c.slots.TryAcquire(1)
}

// ReleaseBackground frees a worker slot.
func (c *Controller) ReleaseBackground() {
	if c == nil {
		return
	}
	c.slots.Release(1)
}

// AcquireIO waits until bytes may be written. Amounts above the burst are
// paced in burst-sized steps, so a single large payload is never rejected.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.limiter == nil {
		return nil
	}

	burst := c.limiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.limiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// TryAcquireIO takes IO tokens for bytes if they are available now.
func (c *Controller) TryAcquireIO(bytes int) bool {
	if c == nil || c.limiter == nil {
		return true
	}
	return c.limiter.AllowN(time.Now(), bytes)
}
