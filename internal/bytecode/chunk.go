package bytecode

import "encoding/binary"

// DebugInfo stores source location for each emitted byte, keyed by
// position in Code (one entry per byte, matching the opcode byte so a
// trap at ip can report a line/column without a side table lookup).
type DebugInfo struct {
	Line     int
	Column   int
	File     string
	Function string
}

// Chunk is one function's (or the main entry's) compiled instruction
// stream: a flat byte-oriented Code vector, its constant pool, and
// parallel per-byte debug info (spec §4.1, §4.5).
type Chunk struct {
	Code      []byte
	Constants []interface{}
	Debug     []DebugInfo
}

func NewChunk() *Chunk {
	return &Chunk{
		Code:      []byte{},
		Constants: []interface{}{},
		Debug:     []DebugInfo{},
	}
}

func (c *Chunk) WriteOp(op OpCode) {
	c.Code = append(c.Code, byte(op))
	c.Debug = append(c.Debug, DebugInfo{})
}

func (c *Chunk) WriteOpWithDebug(op OpCode, debug DebugInfo) {
	c.Code = append(c.Code, byte(op))
	c.Debug = append(c.Debug, debug)
}

func (c *Chunk) WriteByte(b byte) {
	c.Code = append(c.Code, b)
	c.Debug = append(c.Debug, DebugInfo{})
}

func (c *Chunk) WriteByteWithDebug(b byte, debug DebugInfo) {
	c.Code = append(c.Code, b)
	c.Debug = append(c.Debug, debug)
}

// WriteU16/WriteU32 append a fixed-width big-endian operand, carrying the
// same debug info across every byte of the operand so GetDebugInfo works
// no matter which byte of a multi-byte operand the VM traps at.
func (c *Chunk) WriteU16(v uint16, debug DebugInfo) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	for _, b := range buf {
		c.WriteByteWithDebug(b, debug)
	}
}

func (c *Chunk) WriteU32(v uint32, debug DebugInfo) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	for _, b := range buf {
		c.WriteByteWithDebug(b, debug)
	}
}

func (c *Chunk) ReadU16(ip int) uint16 {
	return binary.BigEndian.Uint16(c.Code[ip : ip+2])
}

func (c *Chunk) ReadU32(ip int) uint32 {
	return binary.BigEndian.Uint32(c.Code[ip : ip+4])
}

// PatchU32 overwrites a previously-reserved 4-byte operand at byte offset
// pos — used for branch targets, whose destination is only known after
// the branch's body has been emitted (spec §4.1: "Targets are byte
// offsets patched after emission").
func (c *Chunk) PatchU32(pos int, v uint32) {
	binary.BigEndian.PutUint32(c.Code[pos:pos+4], v)
}

func (c *Chunk) AddConstant(val interface{}) int {
	c.Constants = append(c.Constants, val)
	return len(c.Constants) - 1
}

func (c *Chunk) GetDebugInfo(ip int) DebugInfo {
	if ip >= 0 && ip < len(c.Debug) {
		return c.Debug[ip]
	}
	return DebugInfo{}
}

// Len reports the current length of the code stream — the byte offset
// the next emitted instruction will occupy.
func (c *Chunk) Len() int {
	return len(c.Code)
}
