package pagemap

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Request is one WriteAt call of a WriteAll fan-out.
type Request struct {
	Path   string
	Offset int64
	Data   []byte
}

// WriteAll runs every request through WriteAt concurrently and returns the
// first error.
//
// Concurrency is bounded by the background worker slots of the attached
// resource controller, or by GOMAXPROCS without one. After the first failure
// requests that have not started are skipped. Requests are not ordered with
// respect to each other; overlapping requests race.
func (w *Writer) WriteAll(ctx context.Context, reqs []Request) error {
	g, gctx := errgroup.WithContext(ctx)
	if w.rc == nil {
		g.SetLimit(runtime.GOMAXPROCS(0))
	}

	var acquireErr error
	for _, r := range reqs {
		if err := w.rc.AcquireBackground(gctx); err != nil {
			acquireErr = err
			break
		}
		g.Go(func() error {
			defer w.rc.ReleaseBackground()
			return w.WriteAt(gctx, r.Path, r.Offset, r.Data)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return acquireErr
}
