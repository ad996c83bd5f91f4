// Package hash provides the hashing used to spread file regions over lock stripes.
//
// Keys are CRC32-Castagnoli checksums, which Go's hash/crc32 computes with
// hardware instructions when available (SSE4.2 on x86-64, CRC on ARM64).
//
//	stripe := hash.RegionKey(path, page) % uint32(len(stripes))
package hash
