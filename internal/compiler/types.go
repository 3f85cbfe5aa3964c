package compiler

import (
	"juliacore/internal/bytecode"
	"juliacore/internal/core"
	"juliacore/internal/dispatch"
)

// CompiledFunction is one compiled function: its instruction chunk plus
// enough calling-convention metadata for the VM's Call protocol (spec
// §4.2) to bind arguments without re-reading the Core IR.
type CompiledFunction struct {
	Name       string
	ParamNames []string
	Varargs    bool
	KwNames    []string
	KwDefaults []*bytecode.Chunk // one tiny chunk per keyword default expression
	Chunk      *bytecode.Chunk
	NumLocals  int
	IsPrelude  bool
}

// GlobalInfo records a top-level binding's slot and declared/init type.
type GlobalInfo struct {
	Name  string
	Index int
}

// CompiledProgram is the compiler's public contract output (spec §4.1):
// instruction vectors for every function and the main entry, the flat
// struct-def table, the method table, the globals table, and the
// abstract-type subtyping index.
type CompiledProgram struct {
	Functions     []*CompiledFunction
	Main          *bytecode.Chunk
	GlobalInit    *bytecode.Chunk
	Structs       *dispatch.StructTable
	Methods       *dispatch.MethodTable
	Globals       []GlobalInfo
	GlobalIndex   map[string]int
	TypeIndex     *core.TypeIndex
	BaseFunctionCount int
}

func (p *CompiledProgram) FuncIndexOf(name string) (int, bool) {
	for i, f := range p.Functions {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}
