package pagemap

import (
	"context"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/pagemap/internal/mmap"
)

// Extent is one payload of a vectored write.
type Extent struct {
	Offset int64
	Data   []byte
}

// WriteBatch writes several extents into one file with a single open, stat
// and grow.
//
// The pages touched by the extents are collected in a bitmap and every run of
// contiguous pages is serviced by one mapping, which is flushed and unmapped
// before the next run is mapped. Extents are applied in order, so a later
// extent wins where two overlap. Error kinds and unwinding are those of
// WriteAt; a failure in a later run leaves earlier runs durable.
func (w *Writer) WriteBatch(ctx context.Context, path string, extents []Extent) (err error) {
	start := time.Now()
	windows := 0
	defer func() {
		w.metrics.RecordBatch(len(extents), windows, time.Since(start), err)
		w.logger.LogBatch(ctx, path, len(extents), windows, err)
	}()

	required := int64(0)
	total := 0
	for _, e := range extents {
		if e.Offset < 0 {
			return newError(KindInvalidArgument, "write", path, errNegativeOffset)
		}
		end, ok := requiredSize(e.Offset, len(e.Data))
		if !ok {
			return newError(KindGrowFailed, "truncate", path, errSizeOverflow)
		}
		required = max(required, end)
		total += len(e.Data)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.rc.AcquireIO(ctx, total); err != nil {
		return err
	}

	f, err := w.open(path)
	if err != nil {
		return err
	}
	durable := false
	defer func() { err = w.release(ctx, f, path, durable, err) }()

	size, err := w.growTo(f, path, required)
	if err != nil {
		return err
	}

	ps := w.mapper.PageSize()
	runs := pageRuns(touchedPages(extents, ps))
	for _, r := range runs {
		runStart := int64(r.first) * int64(ps)
		runEnd := min(int64(r.last+1)*int64(ps), size)
		win := mmap.ComputeWindow(runStart, int(runEnd-runStart), ps)

		windows++
		durable, err = w.writeWindow(ctx, f, path, win, func(dst []byte) {
			fillWindow(dst, win, extents)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// touchedPages returns the set of page indexes covered by non-empty extents.
func touchedPages(extents []Extent, pageSize int) *roaring64.Bitmap {
	pages := roaring64.New()
	for _, e := range extents {
		if len(e.Data) == 0 {
			continue
		}
		first := mmap.PageIndex(e.Offset, pageSize)
		last := mmap.PageIndex(e.Offset+int64(len(e.Data))-1, pageSize)
		pages.AddRange(first, last+1)
	}
	return pages
}

type pageRun struct {
	first, last uint64
}

// pageRuns splits a page set into maximal runs of consecutive pages.
func pageRuns(pages *roaring64.Bitmap) []pageRun {
	var runs []pageRun
	it := pages.Iterator()
	for it.HasNext() {
		p := it.Next()
		if n := len(runs); n > 0 && runs[n-1].last+1 == p {
			runs[n-1].last = p
			continue
		}
		runs = append(runs, pageRun{first: p, last: p})
	}
	return runs
}

// fillWindow copies the part of every extent that falls inside win.
func fillWindow(dst []byte, win mmap.Window, extents []Extent) {
	for _, e := range extents {
		lo := max(e.Offset, win.Start)
		hi := min(e.Offset+int64(len(e.Data)), win.End())
		if lo >= hi {
			continue
		}
		copy(dst[lo-win.Start:hi-win.Start], e.Data[lo-e.Offset:hi-e.Offset])
	}
}
