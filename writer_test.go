package pagemap

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/pagemap/internal/fs"
	"github.com/hupe1980/pagemap/internal/mmap"
	"github.com/hupe1980/pagemap/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T, opts ...Option) (*Writer, *fs.FaultyFS, *mmap.FaultyMapper) {
	t.Helper()

	ffs := fs.NewFaultyFS(nil)
	fm := mmap.NewFaultyMapper(nil)
	w := NewWriter(append([]Option{withFileSystem(ffs), withMapper(fm)}, opts...)...)
	return w, ffs, fm
}

func assertNoLeaks(t *testing.T, ffs *fs.FaultyFS, fm *mmap.FaultyMapper) {
	t.Helper()
	assert.Zero(t, ffs.OpenFiles(), "leaked file handles")
	assert.Zero(t, fm.Active(), "leaked mappings")
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i%251)
	}
	return b
}

func TestWriteAt_CreatesAndGrows(t *testing.T) {
	w, ffs, fm := newTestWriter(t)
	path := filepath.Join(t.TempDir(), "f")

	require.NoError(t, w.WriteAt(context.Background(), path, 4096, []byte("hello")))

	data := readFile(t, path)
	require.Len(t, data, 4101)
	assert.Equal(t, "hello", string(data[4096:]))
	assert.Equal(t, make([]byte, 4096), data[:4096])
	assertNoLeaks(t, ffs, fm)
}

func TestWriteAt_ExistingFileKeepsSize(t *testing.T) {
	w, ffs, fm := newTestWriter(t)
	path := filepath.Join(t.TempDir(), "f")
	writeFile(t, path, []byte("0123456789"))

	require.NoError(t, w.WriteAt(context.Background(), path, 3, []byte("XY")))

	assert.Equal(t, "012XY56789", string(readFile(t, path)))
	assertNoLeaks(t, ffs, fm)
}

func TestWriteAt_RoundTripAndGrowth(t *testing.T) {
	ps := mmap.PageSize()

	tests := []struct {
		name     string
		initial  int
		offset   int64
		length   int
		wantSize int
	}{
		{"empty file at zero", 0, 0, 5, 5},
		{"inside existing", 3 * ps, 10, 100, 3 * ps},
		{"one before boundary", 0, int64(ps - 1), 1, ps},
		{"straddles boundary", 0, int64(ps - 1), 2, ps + 1},
		{"on boundary", 0, int64(ps), 7, ps + 7},
		{"ends exactly on boundary", 2 * ps, int64(ps) + 100, ps - 100, 2 * ps},
		{"spans many pages", 0, int64(ps) + 17, 5*ps + 3, 6*ps + 20},
		{"extends existing tail", ps + 10, int64(ps), 100, ps + 100},
		{"far beyond eof", 10, int64(8 * ps), 1, 8*ps + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ffs, fm := newTestWriter(t)
			path := filepath.Join(t.TempDir(), "f")

			initial := pattern(tt.initial, 1)
			writeFile(t, path, initial)
			payload := pattern(tt.length, 99)

			require.NoError(t, w.WriteAt(context.Background(), path, tt.offset, payload))

			data := readFile(t, path)
			require.Len(t, data, tt.wantSize)
			end := int(tt.offset) + tt.length
			assert.Equal(t, payload, data[tt.offset:end])

			// Bytes outside the payload keep their old value, or zero past the old EOF.
			want := make([]byte, tt.wantSize)
			copy(want, initial)
			copy(want[tt.offset:], payload)
			assert.True(t, bytes.Equal(want, data), "bytes outside the payload changed")

			assertNoLeaks(t, ffs, fm)
			assert.Equal(t, int64(1), fm.Mapped())
		})
	}
}

func TestWriteAt_Idempotent(t *testing.T) {
	w, _, _ := newTestWriter(t)
	dir := t.TempDir()
	once := filepath.Join(dir, "once")
	twice := filepath.Join(dir, "twice")
	payload := pattern(3000, 7)

	for _, p := range []string{once, twice} {
		writeFile(t, p, pattern(5000, 3))
	}

	require.NoError(t, w.WriteAt(context.Background(), once, 4000, payload))
	require.NoError(t, w.WriteAt(context.Background(), twice, 4000, payload))
	require.NoError(t, w.WriteAt(context.Background(), twice, 4000, payload))

	assert.Equal(t, readFile(t, once), readFile(t, twice))
}

func TestWriteAt_ZeroLengthPayload(t *testing.T) {
	t.Run("within file", func(t *testing.T) {
		w, ffs, fm := newTestWriter(t)
		path := filepath.Join(t.TempDir(), "f")
		writeFile(t, path, []byte("abcdef"))

		require.NoError(t, w.WriteAt(context.Background(), path, 2, nil))
		assert.Equal(t, "abcdef", string(readFile(t, path)))
		assert.Zero(t, fm.Mapped())
		assertNoLeaks(t, ffs, fm)
	})

	t.Run("beyond eof grows", func(t *testing.T) {
		w, ffs, fm := newTestWriter(t)
		path := filepath.Join(t.TempDir(), "f")
		writeFile(t, path, []byte("abc"))

		require.NoError(t, w.WriteAt(context.Background(), path, 10, []byte{}))
		assert.Equal(t, append([]byte("abc"), make([]byte, 7)...), readFile(t, path))
		assertNoLeaks(t, ffs, fm)
	})

	t.Run("creates file", func(t *testing.T) {
		w, _, _ := newTestWriter(t)
		path := filepath.Join(t.TempDir(), "f")

		require.NoError(t, w.WriteAt(context.Background(), path, 0, nil))
		assert.Empty(t, readFile(t, path))
	})
}

func TestWriteAt_InvalidArguments(t *testing.T) {
	w, ffs, fm := newTestWriter(t)
	path := filepath.Join(t.TempDir(), "f")

	err := w.WriteAt(context.Background(), path, -1, []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, err, errNegativeOffset)

	err = w.WriteAt(context.Background(), path, math.MaxInt64-2, []byte("12345"))
	assert.ErrorIs(t, err, ErrGrowFailed)
	assert.ErrorIs(t, err, errSizeOverflow)

	assert.Zero(t, ffs.Opened(), "nothing may be opened for rejected arguments")
	assert.Zero(t, fm.Mapped())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteAt_CanceledContext(t *testing.T) {
	w, ffs, _ := newTestWriter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.WriteAt(ctx, filepath.Join(t.TempDir(), "f"), 0, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Kind(0), KindOf(err), "cancellation is returned unwrapped")
	assert.Zero(t, ffs.Opened())

	err = w.WriteBatch(ctx, filepath.Join(t.TempDir(), "g"), []Extent{{Data: []byte("x")}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Kind(0), KindOf(err))
	assert.Zero(t, ffs.Opened())
}

func TestWriteAt_IOLimitWaitHonorsContext(t *testing.T) {
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 10})
	w, ffs, _ := newTestWriter(t, WithResourceController(rc))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Two bursts of 10 bytes need a full second of budget.
	err := w.WriteAt(ctx, filepath.Join(t.TempDir(), "f"), 0, make([]byte, 20))
	require.Error(t, err)
	assert.Equal(t, Kind(0), KindOf(err))
	assert.Zero(t, ffs.Opened())
}

func TestWriteAt_OpenFailsForMissingDirectory(t *testing.T) {
	w, ffs, fm := newTestWriter(t)

	err := w.WriteAt(context.Background(), filepath.Join(t.TempDir(), "missing", "f"), 0, []byte("x"))
	assert.ErrorIs(t, err, ErrOpenFailed)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, KindOpenFailed, KindOf(err))
	assertNoLeaks(t, ffs, fm)
}

func TestWriteAt_FaultInjection(t *testing.T) {
	injected := errors.New("injected")

	tests := []struct {
		name        string
		fsFault     fs.Fault
		mapFault    mmap.Fault
		wantKind    Kind
		wantDurable bool
	}{
		{name: "open", fsFault: fs.Fault{FailOnOpen: true, Err: injected}, wantKind: KindOpenFailed},
		{name: "stat", fsFault: fs.Fault{FailOnStat: true, Err: injected}, wantKind: KindStatFailed},
		{name: "grow", fsFault: fs.Fault{FailOnTruncate: true, Err: injected}, wantKind: KindGrowFailed},
		{name: "map", mapFault: mmap.Fault{FailOnMap: true, Err: injected}, wantKind: KindMapFailed},
		{name: "sync", mapFault: mmap.Fault{FailOnSync: true, Err: injected}, wantKind: KindSyncFailed},
		{name: "unmap", mapFault: mmap.Fault{FailOnUnmap: true, Err: injected}, wantKind: KindUnmapFailed, wantDurable: true},
		{name: "close", fsFault: fs.Fault{FailOnClose: true, Err: injected}, wantKind: KindCloseFailed, wantDurable: true},
		{
			name:     "sync then close",
			fsFault:  fs.Fault{FailOnClose: true, Err: injected},
			mapFault: mmap.Fault{FailOnSync: true, Err: injected},
			wantKind: KindSyncFailed,
		},
		{
			name:     "sync then unmap",
			mapFault: mmap.Fault{FailOnSync: true, FailOnUnmap: true, Err: injected},
			wantKind: KindSyncFailed,
		},
		{
			name:        "unmap then close",
			fsFault:     fs.Fault{FailOnClose: true, Err: injected},
			mapFault:    mmap.Fault{FailOnUnmap: true, Err: injected},
			wantKind:    KindUnmapFailed,
			wantDurable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ffs, fm := newTestWriter(t)
			ffs.AddRule("target", tt.fsFault)
			fm.SetFault(tt.mapFault)
			path := filepath.Join(t.TempDir(), "target")

			err := w.WriteAt(context.Background(), path, 100, []byte("payload"))
			require.Error(t, err)

			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.ErrorIs(t, err, injected)
			assert.Equal(t, tt.wantDurable, IsDurable(err))
			assertNoLeaks(t, ffs, fm)

			if tt.wantDurable {
				data := readFile(t, path)
				assert.Equal(t, "payload", string(data[100:]))
			}
		})
	}
}

func TestWriteAt_GrowFailureBeforeAnyMapping(t *testing.T) {
	w, ffs, fm := newTestWriter(t)
	ffs.AddRule("short", fs.Fault{FailOnTruncate: true})
	path := filepath.Join(t.TempDir(), "short")

	// A file that is already long enough never calls truncate.
	writeFile(t, path, make([]byte, 64))
	require.NoError(t, w.WriteAt(context.Background(), path, 0, []byte("ok")))

	err := w.WriteAt(context.Background(), path, 60, []byte("too long"))
	assert.ErrorIs(t, err, ErrGrowFailed)
	assert.ErrorIs(t, err, fs.ErrInjected)
	assert.Equal(t, int64(1), fm.Mapped())
	assertNoLeaks(t, ffs, fm)
}

func TestWriteAt_WithResourceController(t *testing.T) {
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	w, _, _ := newTestWriter(t, WithResourceController(rc))
	path := filepath.Join(t.TempDir(), "f")

	payload := pattern(3<<20/2, 5) // larger than one burst
	require.NoError(t, w.WriteAt(context.Background(), path, 0, payload))
	assert.Equal(t, payload, readFile(t, path))
}

func TestWriteAt_FileMode(t *testing.T) {
	w, _, _ := newTestWriter(t, WithFileMode(0o600))
	path := filepath.Join(t.TempDir(), "f")

	require.NoError(t, w.WriteAt(context.Background(), path, 0, []byte("x")))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&0o077)
}

func TestWriteAt_MetricsAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mc := &BasicMetricsCollector{}
	w, ffs, _ := newTestWriter(t, WithLogger(logger), WithMetricsCollector(mc))
	dir := t.TempDir()

	require.NoError(t, w.WriteAt(context.Background(), filepath.Join(dir, "ok"), 0, []byte("abc")))

	ffs.AddRule("bad", fs.Fault{FailOnStat: true})
	require.Error(t, w.WriteAt(context.Background(), filepath.Join(dir, "bad"), 0, []byte("abc")))

	ffs.ClearRules()
	ffs.AddRule("late", fs.Fault{FailOnClose: true})
	require.Error(t, w.WriteAt(context.Background(), filepath.Join(dir, "late"), 0, []byte("abc")))

	assert.Equal(t, int64(3), mc.WriteCount.Load())
	assert.Equal(t, int64(2), mc.WriteErrors.Load())
	assert.Equal(t, int64(1), mc.DurableFailures.Load())
	assert.Equal(t, int64(3), mc.WriteBytes.Load())
	assert.Positive(t, mc.AverageWriteLatency())

	out := buf.String()
	assert.Contains(t, out, `"msg":"write completed"`)
	assert.Contains(t, out, `"msg":"write failed"`)
	assert.Contains(t, out, `"kind":"stat failed"`)
	assert.Contains(t, out, `"msg":"write durable but release failed"`)
}

func TestWriteAt_PackageLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")

	require.NoError(t, WriteAt(path, 4096, []byte("hello")))
	data := readFile(t, path)
	assert.Len(t, data, 4101)
	assert.Equal(t, "hello", string(data[4096:]))
}
