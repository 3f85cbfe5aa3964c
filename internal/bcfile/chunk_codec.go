package bcfile

import (
	"fmt"

	"juliacore/internal/bytecode"
)

// Constant type tags. Chunk.Constants only ever holds the handful of Go
// types internal/compiler's emit.go/emit_calls.go push through
// AddConstant: string, int64, float64, bool, rune (int32) and a
// []interface{} of keyword-argument names.
const (
	constTagString = iota
	constTagInt64
	constTagFloat64
	constTagBool
	constTagRune
	constTagNameList
)

func writeChunk(w *writer, c *bytecode.Chunk) {
	w.u32(uint32(len(c.Code)))
	w.bytes(c.Code)
	w.u32(uint32(len(c.Constants)))
	for _, k := range c.Constants {
		writeConstant(w, k)
	}
	// Per-byte debug info (file/line/column/function) is not persisted:
	// the round-trip property (spec §8) is about execution behavior, not
	// diagnostic fidelity, and reconstructing it doubles the file size
	// for no behavioral benefit. Loaded chunks get zero-value DebugInfo.
}

func readChunk(r *reader) *bytecode.Chunk {
	n := int(r.u32())
	code := append([]byte{}, r.bytesN(n)...)
	nc := int(r.u32())
	consts := make([]interface{}, nc)
	for i := range consts {
		consts[i] = readConstant(r)
	}
	return &bytecode.Chunk{
		Code:      code,
		Constants: consts,
		Debug:     make([]bytecode.DebugInfo, len(code)),
	}
}

func writeConstant(w *writer, v interface{}) {
	switch k := v.(type) {
	case string:
		w.u8(constTagString)
		w.str(k)
	case int64:
		w.u8(constTagInt64)
		w.i64(k)
	case float64:
		w.u8(constTagFloat64)
		w.f64(k)
	case bool:
		w.u8(constTagBool)
		w.boolean(k)
	case rune:
		w.u8(constTagRune)
		w.i64(int64(k))
	case []interface{}:
		w.u8(constTagNameList)
		w.u32(uint32(len(k)))
		for _, n := range k {
			w.str(fmt.Sprint(n))
		}
	default:
		// Lowering never emits any other constant shape; fall back to a
		// string rendering rather than losing the slot entirely.
		w.u8(constTagString)
		w.str(fmt.Sprint(v))
	}
}

func readConstant(r *reader) interface{} {
	switch r.u8() {
	case constTagString:
		return r.str()
	case constTagInt64:
		return r.i64()
	case constTagFloat64:
		return r.f64()
	case constTagBool:
		return r.boolean()
	case constTagRune:
		return rune(r.i64())
	case constTagNameList:
		n := int(r.u32())
		out := make([]interface{}, n)
		for i := range out {
			out[i] = r.str()
		}
		return out
	}
	return nil
}
