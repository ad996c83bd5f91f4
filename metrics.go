package pagemap

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordWrite is called after each WriteAt.
	// bytes is the payload length, err is nil if successful.
	RecordWrite(bytes int, duration time.Duration, err error)

	// RecordBatch is called after each WriteBatch.
	// windows is the number of mappings that were established.
	RecordBatch(extents, windows int, duration time.Duration, err error)

	// RecordAllocate is called after each AllocateAndCopy.
	RecordAllocate(size int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordWrite(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordBatch(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordAllocate(int, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WriteBytes      atomic.Int64
	WriteTotalNanos atomic.Int64
	DurableFailures atomic.Int64
	BatchCount      atomic.Int64
	BatchExtents    atomic.Int64
	BatchWindows    atomic.Int64
	BatchErrors     atomic.Int64
	AllocateCount   atomic.Int64
	AllocateBytes   atomic.Int64
	AllocateErrors  atomic.Int64
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(bytes int, duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
		if IsDurable(err) {
			b.DurableFailures.Add(1)
		}
		return
	}
	b.WriteBytes.Add(int64(bytes))
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(extents, windows int, _ time.Duration, err error) {
	b.BatchCount.Add(1)
	b.BatchExtents.Add(int64(extents))
	b.BatchWindows.Add(int64(windows))
	if err != nil {
		b.BatchErrors.Add(1)
	}
}

// RecordAllocate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAllocate(size int, _ time.Duration, err error) {
	b.AllocateCount.Add(1)
	if err != nil {
		b.AllocateErrors.Add(1)
		return
	}
	b.AllocateBytes.Add(int64(size))
}

// AverageWriteLatency returns the mean WriteAt duration.
func (b *BasicMetricsCollector) AverageWriteLatency() time.Duration {
	count := b.WriteCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(b.WriteTotalNanos.Load() / count)
}
