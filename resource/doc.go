// Package resource implements the Controller that governs mapped writes and
// anonymous region allocation.
//
// The Controller manages three resource types:
//
//   - Memory: bytes held by anonymous regions (blocking acquire with a hard limit;
//     a single request above the limit fails with ErrExceedsLimit)
//   - Concurrency: worker slots for fan-out writes
//   - IO: a token bucket pacing the bytes written through mappings
//
// # Usage
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:     1 << 30,           // 1GB of anonymous regions
//	    MaxBackgroundWorkers: 8,                 // concurrent writes in WriteAll
//	    IOLimitBytesPerSec:   100 * 1024 * 1024, // 100MB/s of mapped writes
//	})
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully; they become no-ops that
// never block. This allows optional resource limiting without nil checks.
package resource
