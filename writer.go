package pagemap

import (
	"context"
	"math"
	"os"
	"time"

	"github.com/hupe1980/pagemap/internal/fs"
	"github.com/hupe1980/pagemap/internal/mmap"
	"github.com/hupe1980/pagemap/resource"
)

// Writer writes payloads into files through page-aligned shared mappings.
//
// Every call is synchronous and returns only after the written pages have been
// flushed to stable storage. A Writer holds no per-file state and is safe for
// concurrent use; concurrent calls on overlapping byte ranges race (see
// LockedWriter for per-region serialization).
type Writer struct {
	fs       fs.FileSystem
	mapper   mmap.Mapper
	fileMode os.FileMode
	logger   *Logger
	metrics  MetricsCollector
	rc       *resource.Controller
}

// NewWriter creates a Writer.
func NewWriter(opts ...Option) *Writer {
	o := applyOptions(opts)
	return &Writer{
		fs:       o.fileSystem,
		mapper:   o.mapper,
		fileMode: o.fileMode,
		logger:   o.logger,
		metrics:  o.metricsCollector,
		rc:       o.resources,
	}
}

// PageSize returns the mapping granularity used to align windows.
func (w *Writer) PageSize() int {
	return w.mapper.PageSize()
}

// WriteAt writes payload into the file at path starting at byte offset.
//
// The file is created if missing and grown to offset+len(payload) if shorter;
// it is never shrunk. On success the bytes are durable. On failure the file
// may already have been grown and, for failures at or after the mapping step,
// part of the payload may be visible in the page cache.
//
// ctx is consulted only before any resource is acquired (and while waiting
// for the IO limit of an attached resource controller); an in-flight write
// runs to completion.
func (w *Writer) WriteAt(ctx context.Context, path string, offset int64, payload []byte) (err error) {
	start := time.Now()
	defer func() {
		w.metrics.RecordWrite(len(payload), time.Since(start), err)
		w.logger.LogWrite(ctx, path, offset, len(payload), err)
	}()

	if offset < 0 {
		return newError(KindInvalidArgument, "write", path, errNegativeOffset)
	}
	required, ok := requiredSize(offset, len(payload))
	if !ok {
		return newError(KindGrowFailed, "truncate", path, errSizeOverflow)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.rc.AcquireIO(ctx, len(payload)); err != nil {
		return err
	}

	f, err := w.open(path)
	if err != nil {
		return err
	}
	durable := false
	defer func() { err = w.release(ctx, f, path, durable, err) }()

	if _, err := w.growTo(f, path, required); err != nil {
		return err
	}

	// Nothing to map; mmap rejects zero-length mappings.
	if len(payload) == 0 {
		return nil
	}

	win := mmap.ComputeWindow(offset, len(payload), w.mapper.PageSize())
	durable, err = w.writeWindow(ctx, f, path, win, func(dst []byte) {
		copy(dst[win.Offset:], payload)
	})
	return err
}

// open opens path for read/write, creating it when absent.
func (w *Writer) open(path string) (fs.File, error) {
	f, err := w.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, w.fileMode)
	if err != nil {
		return nil, newError(KindOpenFailed, "open", path, err)
	}
	return f, nil
}

// release closes f and folds the result into err. A close failure is only
// reported when nothing failed before it; otherwise it is logged.
func (w *Writer) release(ctx context.Context, f fs.File, path string, durable bool, err error) error {
	cerr := f.Close()
	if cerr == nil {
		return err
	}
	if err != nil {
		w.logger.LogCleanup(ctx, "close", path, cerr)
		return err
	}
	return &Error{Kind: KindCloseFailed, Op: "close", Path: path, Durable: durable, Err: cerr}
}

// growTo extends f to exactly required bytes if it is shorter and returns the
// resulting file size.
func (w *Writer) growTo(f fs.File, path string, required int64) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, newError(KindStatFailed, "stat", path, err)
	}

	size := info.Size()
	if size >= required {
		return size, nil
	}
	if err := f.Truncate(required); err != nil {
		return 0, newError(KindGrowFailed, "truncate", path, err)
	}
	return required, nil
}

// writeWindow maps win, lets fill populate it, flushes and unmaps.
// flushed reports whether the flush succeeded, which makes any later
// failure a durable one.
func (w *Writer) writeWindow(ctx context.Context, f fs.File, path string, win mmap.Window, fill func(dst []byte)) (flushed bool, err error) {
	m, err := w.mapper.MapFile(f.Fd(), win.Start, win.Length)
	if err != nil {
		return false, newError(KindMapFailed, "mmap", path, err)
	}
	defer func() {
		uerr := m.Close()
		switch {
		case uerr == nil:
		case err != nil:
			w.logger.LogCleanup(ctx, "munmap", path, uerr)
		default:
			err = &Error{Kind: KindUnmapFailed, Op: "munmap", Path: path, Durable: flushed, Err: uerr}
		}
	}()

	fill(m.Bytes())

	if err := m.Sync(); err != nil {
		return false, newError(KindSyncFailed, "msync", path, err)
	}
	return true, nil
}

// requiredSize returns offset+n, or false if it overflows int64.
func requiredSize(offset int64, n int) (int64, bool) {
	if int64(n) > math.MaxInt64-offset {
		return 0, false
	}
	return offset + int64(n), true
}
