package pagemap

import (
	"errors"
	"strconv"
)

// Kind classifies the step at which an operation failed.
type Kind int

const (
	// KindInvalidArgument is reported before any resource is acquired.
	KindInvalidArgument Kind = iota + 1
	KindAllocationFailed
	KindOpenFailed
	KindStatFailed
	KindGrowFailed
	KindMapFailed
	KindSyncFailed
	KindUnmapFailed
	KindCloseFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindAllocationFailed:
		return "allocation failed"
	case KindOpenFailed:
		return "open failed"
	case KindStatFailed:
		return "stat failed"
	case KindGrowFailed:
		return "grow failed"
	case KindMapFailed:
		return "map failed"
	case KindSyncFailed:
		return "sync failed"
	case KindUnmapFailed:
		return "unmap failed"
	case KindCloseFailed:
		return "close failed"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Error is returned for every failed step of an operation in this package.
//
// A write whose ctx is done before the file is opened, or while it waits for
// the IO limit or a WriteAll worker slot, returns ctx.Err() unwrapped so that
// errors.Is(err, context.Canceled) and context.Cause keep working. Allocations
// wrap the same condition in ErrAllocationFailed.
//
// Match the failing step with errors.Is against the sentinels below and the
// OS reason with errors.Is against the underlying errno:
//
//	if errors.Is(err, pagemap.ErrGrowFailed) && errors.Is(err, syscall.ENOSPC) { ... }
type Error struct {
	Kind Kind
	// Op is the step that failed ("open", "stat", "truncate", "mmap", "msync", ...).
	Op   string
	Path string
	// Durable is set when the failure happened after the payload was flushed.
	// The data is on stable storage; only resource release failed.
	Durable bool
	Err     error
}

func (e *Error) Error() string {
	msg := "pagemap: "
	if e.Op != "" {
		msg += e.Op
	} else {
		msg += e.Kind.String()
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Durable {
		msg += " (payload durable)"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Err != nil || t.Op != "" {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels, one per Kind.
var (
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
	ErrAllocationFailed = &Error{Kind: KindAllocationFailed}
	ErrOpenFailed       = &Error{Kind: KindOpenFailed}
	ErrStatFailed       = &Error{Kind: KindStatFailed}
	ErrGrowFailed       = &Error{Kind: KindGrowFailed}
	ErrMapFailed        = &Error{Kind: KindMapFailed}
	ErrSyncFailed       = &Error{Kind: KindSyncFailed}
	ErrUnmapFailed      = &Error{Kind: KindUnmapFailed}
	ErrCloseFailed      = &Error{Kind: KindCloseFailed}
)

var (
	// errNegativeOffset is wrapped by ErrInvalidArgument.
	errNegativeOffset = errors.New("offset must not be negative")
	// errSizeOverflow is wrapped by ErrGrowFailed when offset+len overflows int64.
	errSizeOverflow = errors.New("required file size overflows int64")
	// errShortSource is wrapped by ErrAllocationFailed when src is shorter than size.
	errShortSource = errors.New("source is shorter than requested size")
)

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the Kind of err, or 0 if err was not produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsDurable reports whether err is a release failure that happened after the
// payload was flushed to stable storage.
func IsDurable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Durable
}
