package pagemap

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with pagemap-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// LogWrite logs a mapped write.
// Failures after the flush are logged at warn level since the payload is durable.
func (l *Logger) LogWrite(ctx context.Context, path string, offset int64, n int, err error) {
	switch {
	case err == nil:
		l.DebugContext(ctx, "write completed",
			"path", path,
			"offset", offset,
			"bytes", n,
		)
	case IsDurable(err):
		l.WarnContext(ctx, "write durable but release failed",
			"path", path,
			"offset", offset,
			"bytes", n,
			"error", err,
		)
	default:
		l.ErrorContext(ctx, "write failed",
			"path", path,
			"offset", offset,
			"bytes", n,
			"kind", KindOf(err).String(),
			"error", err,
		)
	}
}

// LogBatch logs a vectored write.
func (l *Logger) LogBatch(ctx context.Context, path string, extents, windows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch write failed",
			"path", path,
			"extents", extents,
			"windows", windows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "batch write completed",
			"path", path,
			"extents", extents,
			"windows", windows,
		)
	}
}

// LogAllocate logs an anonymous region allocation.
func (l *Logger) LogAllocate(ctx context.Context, size int, copied bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "allocate failed",
			"size", size,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "allocate completed",
			"size", size,
			"copied", copied,
		)
	}
}

// LogCleanup logs a secondary failure while unwinding after an earlier error.
// These are never returned to the caller.
func (l *Logger) LogCleanup(ctx context.Context, op, path string, err error) {
	l.WarnContext(ctx, "cleanup failed",
		"op", op,
		"path", path,
		"error", err,
	)
}
