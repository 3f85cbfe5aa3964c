package bcfile

import (
	"encoding/binary"
	"fmt"
	"math"
)

// reader is writer's inverse: a cursor over a byte slice that records
// the first out-of-range access instead of panicking, so a truncated
// file surfaces as a clean error from Load rather than a crash.
type reader struct {
	data []byte
	pos  int
	err  error
}

func newReader(data []byte) *reader { return &reader{data: data} }

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("bcfile: truncated at offset %d, need %d more bytes", r.pos, n)
		return false
	}
	return true
}

func (r *reader) bytesN(n int) []byte {
	if !r.need(n) {
		return make([]byte, n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.bytesN(1)
	return b[0]
}

func (r *reader) u16() uint16 {
	return binary.BigEndian.Uint16(r.bytesN(2))
}

func (r *reader) u32() uint32 {
	return binary.BigEndian.Uint32(r.bytesN(4))
}

func (r *reader) i64() int64 {
	return int64(binary.BigEndian.Uint64(r.bytesN(8)))
}

func (r *reader) f64() float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(r.bytesN(8)))
}

func (r *reader) boolean() bool {
	return r.u8() != 0
}

func (r *reader) str() string {
	n := r.u32()
	return string(r.bytesN(int(n)))
}
