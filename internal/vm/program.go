package vm

import (
	"juliacore/internal/bytecode"
	"juliacore/internal/core"
	"juliacore/internal/dispatch"
)

// FuncDef is the VM's calling-convention view of one compiled function:
// enough to bind arguments and push a Frame without reaching back into
// the compiler's own CompiledFunction (spec §4.2 "Call protocol"). The
// link step that turns a compiler.CompiledProgram into a vm.Program
// (internal/engine) copies these fields across the package boundary so
// internal/vm never needs to import internal/compiler.
type FuncDef struct {
	Name       string
	ParamNames []string
	Varargs    bool
	KwNames    []string
	KwDefaults []*bytecode.Chunk
	Chunk      *bytecode.Chunk
	NumLocals  int
	IsPrelude  bool
}

// GlobalInfo mirrors compiler.GlobalInfo: a top-level binding's name and
// stable slot index.
type GlobalInfo struct {
	Name  string
	Index int
}

// Program is everything Vm.Run needs to execute a compiled unit: the
// function table, the main entry and global-init chunks, and the
// struct/method/abstract-type tables built at compile time (spec §4.1
// "Public contract" output, consumed read-only by the VM per spec §4.2).
type Program struct {
	Functions         []FuncDef
	Main              *bytecode.Chunk
	GlobalInit        *bytecode.Chunk
	Structs           *dispatch.StructTable
	Methods           *dispatch.MethodTable
	Globals           []GlobalInfo
	GlobalIndex       map[string]int
	TypeIndex         *core.TypeIndex
	BaseFunctionCount int
}

func (p *Program) FuncIndexOf(name string) (int, bool) {
	for i, f := range p.Functions {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}
