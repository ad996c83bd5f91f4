package hash

import (
	"encoding/binary"
	"hash/crc32"
)

// crc32cTable is pre-computed for CRC32-Castagnoli polynomial.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// RegionKey hashes a (file, page index) pair: the CRC32-Castagnoli checksum
// of the path followed by the little-endian page index.
func RegionKey(path string, page uint64) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], page)

	sum := crc32.Update(0, crc32cTable, []byte(path))
	return crc32.Update(sum, crc32cTable, buf[:])
}
