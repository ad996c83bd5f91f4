package mmap

// Mapper creates mappings. Callers depend on it rather than on the package
// functions so that tests can inject failures.
type Mapper interface {
	MapFile(fd uintptr, offset int64, length int) (*Mapping, error)
	MapAnon(size int) (*Mapping, error)
	PageSize() int
}

// OSMapper maps through the operating system.
type OSMapper struct{}

func (OSMapper) MapFile(fd uintptr, offset int64, length int) (*Mapping, error) {
	return MapFile(fd, offset, length)
}

func (OSMapper) MapAnon(size int) (*Mapping, error) { return MapAnon(size) }

func (OSMapper) PageSize() int { return PageSize() }

// Default is the operating system mapper.
var Default Mapper = OSMapper{}
