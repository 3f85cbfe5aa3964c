// Package engine is the thin link step between compilation and
// execution: it copies a compiler.CompiledProgram's fields into a
// vm.Program, so internal/vm never needs to import internal/compiler
// (vm.FuncDef's own doc comment names this package). Nothing here
// inspects or transforms bytecode; it exists purely to keep the two
// packages' otherwise near-identical structs from forcing a dependency
// cycle.
package engine

import (
	"juliacore/internal/compiler"
	"juliacore/internal/vm"
)

// Link turns a freshly compiled program into the read-only view the VM
// executes (spec §4.1 "Public contract": CompileProgram's output feeds
// Vm::run unchanged).
func Link(cp *compiler.CompiledProgram) *vm.Program {
	functions := make([]vm.FuncDef, len(cp.Functions))
	for i, f := range cp.Functions {
		functions[i] = vm.FuncDef{
			Name:       f.Name,
			ParamNames: f.ParamNames,
			Varargs:    f.Varargs,
			KwNames:    f.KwNames,
			KwDefaults: f.KwDefaults,
			Chunk:      f.Chunk,
			NumLocals:  f.NumLocals,
			IsPrelude:  f.IsPrelude,
		}
	}

	globals := make([]vm.GlobalInfo, len(cp.Globals))
	for i, g := range cp.Globals {
		globals[i] = vm.GlobalInfo{Name: g.Name, Index: g.Index}
	}

	return &vm.Program{
		Functions:         functions,
		Main:              cp.Main,
		GlobalInit:        cp.GlobalInit,
		Structs:           cp.Structs,
		Methods:           cp.Methods,
		Globals:           globals,
		GlobalIndex:       cp.GlobalIndex,
		TypeIndex:         cp.TypeIndex,
		BaseFunctionCount: cp.BaseFunctionCount,
	}
}
