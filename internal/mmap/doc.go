// Package mmap provides the memory-mapping primitives behind the mapped writer.
//
// # Overview
//
// Two kinds of mappings are supported:
//
//   - File-backed shared mappings ([MapFile]): writes land in the page cache of
//     the backing file and become durable after [Mapping.Sync].
//   - Anonymous private mappings ([MapAnon]): off-heap process memory with no
//     backing file.
//
// # Page Alignment
//
// A file mapping must start at a multiple of the page size. [ComputeWindow]
// translates a byte offset into a page-aligned window plus the offset of the
// requested byte inside that window:
//
//	win := mmap.ComputeWindow(offset, len(payload), mmap.PageSize())
//	m, err := mmap.MapFile(f.Fd(), win.Start, win.Length)
//	copy(m.Bytes()[win.Offset:], payload)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2), msync(2) with MS_SYNC, munmap(2)
//   - Windows: CreateFileMapping/MapViewOfFile, FlushViewOfFile followed by
//     FlushFileBuffers, VirtualAlloc for anonymous memory. Windows aligns views
//     to the allocation granularity, which [PageSize] reports instead of the
//     hardware page size.
//
// # Testing
//
// [Mapper] is the seam used by callers. [FaultyMapper] wraps any Mapper to
// inject map/sync/unmap failures and to count live mappings.
package mmap
