package mmap

import (
	"sync"
	"sync/atomic"
)

// Fault defines which mapping step fails.
type Fault struct {
	FailOnMap  bool
	FailOnSync bool
	// FailOnUnmap still releases the underlying mapping before reporting the error.
	FailOnUnmap bool
	Err         error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

// FaultyMapper is a Mapper wrapper that can inject errors and counts live mappings.
type FaultyMapper struct {
	Mapper Mapper

	mu    sync.Mutex
	fault Fault

	active atomic.Int64
	mapped atomic.Int64
}

// NewFaultyMapper wraps m (or Default if nil).
func NewFaultyMapper(m Mapper) *FaultyMapper {
	if m == nil {
		m = Default
	}
	return &FaultyMapper{Mapper: m}
}

// SetFault replaces the fault applied to subsequent mappings.
func (f *FaultyMapper) SetFault(fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fault = fault
}

// Active returns the number of mappings created through f and not yet unmapped.
func (f *FaultyMapper) Active() int64 {
	return f.active.Load()
}

// Mapped returns the total number of mappings created through f.
func (f *FaultyMapper) Mapped() int64 {
	return f.mapped.Load()
}

func (f *FaultyMapper) current() Fault {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fault
}

func (f *FaultyMapper) MapFile(fd uintptr, offset int64, length int) (*Mapping, error) {
	fault := f.current()
	if fault.FailOnMap {
		return nil, fault.err()
	}
	m, err := f.Mapper.MapFile(fd, offset, length)
	if err != nil {
		return nil, err
	}
	return f.wrap(m, fault), nil
}

func (f *FaultyMapper) MapAnon(size int) (*Mapping, error) {
	fault := f.current()
	if fault.FailOnMap {
		return nil, fault.err()
	}
	m, err := f.Mapper.MapAnon(size)
	if err != nil {
		return nil, err
	}
	return f.wrap(m, fault), nil
}

func (f *FaultyMapper) PageSize() int {
	return f.Mapper.PageSize()
}

func (f *FaultyMapper) wrap(inner *Mapping, fault Fault) *Mapping {
	f.active.Add(1)
	f.mapped.Add(1)

	syncFunc := func(b []byte) error {
		if fault.FailOnSync {
			return fault.err()
		}
		return inner.Sync()
	}
	unmapFunc := func(b []byte) error {
		err := inner.Close()
		f.active.Add(-1)
		if fault.FailOnUnmap {
			return fault.err()
		}
		return err
	}

	return newMapping(inner.data, syncFunc, unmapFunc)
}
