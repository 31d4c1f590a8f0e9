package zekta

import (
	"encoding/binary"
	"math"
)

const (
	// TimeRange is the width of a bucket in time units. A timestamp t maps
	// to bucket id floor(t / TimeRange).
	TimeRange = 512

	// timeBytes is the on-disk width of a record's timestamp.
	timeBytes = 8
)

// Entry is a single (time, value) record. The value length is fixed per
// series; on disk an entry is the 8-byte little-endian IEEE-754 time
// followed by the value bytes.
type Entry struct {
	Time  float64
	Value []byte
}

// putEntry writes one record at the start of dst.
func putEntry(dst []byte, t float64, value []byte) {
	binary.LittleEndian.PutUint64(dst, math.Float64bits(t))
	copy(dst[timeBytes:], value)
}

// timeAt decodes the timestamp of the record starting at off.
func timeAt(buf []byte, off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
}
