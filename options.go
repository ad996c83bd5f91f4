package pagemap

import (
	"os"

	"github.com/hupe1980/pagemap/internal/fs"
	"github.com/hupe1980/pagemap/internal/mmap"
	"github.com/hupe1980/pagemap/resource"
)

// DefaultFileMode is the permission used when WriteAt creates a file
// (subject to the process umask).
const DefaultFileMode os.FileMode = 0o666

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	resources        *resource.Controller
	fileMode         os.FileMode
	fileSystem       fs.FileSystem
	mapper           mmap.Mapper
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		fileMode:         DefaultFileMode,
		fileSystem:       fs.Default,
		mapper:           mmap.Default,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Option configures a Writer or an Allocator.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithResourceController attaches a resource controller.
//
// The controller paces written bytes (IOLimitBytesPerSec), bounds the fan-out
// of WriteAll (MaxBackgroundWorkers) and caps the memory held by anonymous
// regions (MemoryLimitBytes). Nil disables all limits.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithFileMode sets the permission used when a missing file is created.
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		o.fileMode = mode
	}
}

// withFileSystem replaces the filesystem seam (tests only).
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fileSystem = fsys
	}
}

// withMapper replaces the mapping seam (tests only).
func withMapper(m mmap.Mapper) Option {
	return func(o *options) {
		o.mapper = m
	}
}
