package vm

import "juliacore/internal/bytecode"

// Frame is one active call's state (spec §4.2 "Frame layout"): the
// instruction pointer into its function's Chunk, a slot-indexed locals
// array, the operand stack's saved base (truncated to on Return), and
// which function/file it belongs to for diagnostics.
type Frame struct {
	FuncName  string
	Chunk     *bytecode.Chunk
	IP        int
	Locals    []Value
	StackBase int
	TryTargets []int // active catch byte offsets, innermost last
}

func newFrame(name string, chunk *bytecode.Chunk, numLocals, stackBase int) *Frame {
	return &Frame{
		FuncName:  name,
		Chunk:     chunk,
		Locals:    make([]Value, numLocals),
		StackBase: stackBase,
	}
}
