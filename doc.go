// Package pagemap writes byte payloads into files through memory mappings and
// hands out anonymous memory regions.
//
// # Mapped Writes
//
// WriteAt writes a payload at an arbitrary byte offset, growing the file when
// needed, and returns only after the bytes are on stable storage:
//
//	if err := pagemap.WriteAt("data.bin", 4096, []byte("hello")); err != nil {
//	    return err
//	}
//
// Each call runs a fixed sequence: open (creating the file), stat, grow,
// map the page-aligned window that covers the target range, copy, flush
// synchronously, unmap, close. Every resource acquired along the way is
// released on every exit path.
//
// A Writer carries the configuration:
//
//	w := pagemap.NewWriter(
//	    pagemap.WithLogger(pagemap.NewTextLogger(slog.LevelDebug)),
//	    pagemap.WithMetricsCollector(&pagemap.BasicMetricsCollector{}),
//	    pagemap.WithResourceController(resource.NewController(resource.Config{
//	        IOLimitBytesPerSec: 64 << 20,
//	    })),
//	)
//	err := w.WriteAt(ctx, "data.bin", 0, payload)
//
// WriteBatch applies several extents to one file, mapping each run of
// contiguous touched pages once. WriteAll fans WriteAt calls out over
// goroutines.
//
// # Errors
//
// Every failed step is reported as an *Error whose Kind names the step.
// Cancellation before a write opens its file is the exception and returns
// ctx.Err() as is. Compare with the sentinels:
//
//	switch {
//	case errors.Is(err, pagemap.ErrGrowFailed):
//	    // out of space, file size limit, ...
//	case pagemap.IsDurable(err):
//	    // unmap or close failed after the flush: the payload is safe
//	}
//
// Nothing is retried internally.
//
// # Concurrency
//
// Calls are synchronous and share no state. Writes to overlapping ranges of
// the same file race; wrap the Writer in a LockedWriter (or hold a
// RegionLocks entry) to serialize them.
//
// # Anonymous Regions
//
// AllocateAndCopy maps a private anonymous region, optionally seeded from an
// existing buffer, for relocating data outside the Go heap:
//
//	r, err := pagemap.AllocateAndCopy(buf, len(buf))
//	if err != nil { ... }
//	defer r.Close()
package pagemap
