package bcfile

import (
	"juliacore/internal/bytecode"
	"juliacore/internal/core"
	"juliacore/internal/dispatch"
	"juliacore/internal/lattice"
	"juliacore/internal/vm"
)

// writeProgram lays out the tables spec §4.5 lists, in this order:
// struct-def table, abstract-type table, global-var table, method table,
// function table, main instruction blob, global-initializer chunk,
// prelude boundary. The method table isn't named explicitly in §4.5 but
// is required to rebuild a working Program, so it is written between the
// global-var table and the function table.
func writeProgram(w *writer, p *vm.Program) {
	writeStructTable(w, p.Structs)
	writeTypeIndex(w, p.TypeIndex)
	writeGlobals(w, p.Globals)
	writeMethodTable(w, p.Methods)
	writeFunctionTable(w, p.Functions)
	writeChunk(w, p.Main)
	writeChunk(w, p.GlobalInit)
	w.u32(uint32(p.BaseFunctionCount))
}

func readProgram(r *reader) (*vm.Program, error) {
	structs := readStructTable(r)
	typeIdx := readTypeIndex(r)
	globals := readGlobals(r)
	methods := readMethodTable(r, typeIdx)
	functions := readFunctionTable(r)
	main := readChunk(r)
	globalInit := readChunk(r)
	baseFnCount := int(r.u32())

	if r.err != nil {
		return nil, r.err
	}

	globalIndex := make(map[string]int, len(globals))
	for _, g := range globals {
		globalIndex[g.Name] = g.Index
	}

	return &vm.Program{
		Functions:         functions,
		Main:              main,
		GlobalInit:        globalInit,
		Structs:           structs,
		Methods:           methods,
		Globals:           globals,
		GlobalIndex:       globalIndex,
		TypeIndex:         typeIdx,
		BaseFunctionCount: baseFnCount,
	}, nil
}

func writeStructTable(w *writer, st *dispatch.StructTable) {
	all := st.All()
	w.u32(uint32(len(all)))
	for _, info := range all {
		w.str(info.Name)
		w.boolean(info.Mutable)
		w.str(info.Parent)
		w.u32(uint32(len(info.TypeArgs)))
		for _, ta := range info.TypeArgs {
			writeConcrete(w, ta)
		}
		w.u32(uint32(len(info.Fields)))
		for _, f := range info.Fields {
			w.str(f.Name)
			writeType(w, f.Type)
		}
	}
}

func readStructTable(r *reader) *dispatch.StructTable {
	st := dispatch.NewStructTable()
	n := int(r.u32())
	for i := 0; i < n; i++ {
		name := r.str()
		mutable := r.boolean()
		parent := r.str()
		nta := int(r.u32())
		typeArgs := make([]lattice.ConcreteType, nta)
		for j := range typeArgs {
			typeArgs[j] = readConcrete(r)
		}
		nf := int(r.u32())
		fields := make([]dispatch.FieldInfo, nf)
		for j := range fields {
			fname := r.str()
			ftype := readType(r)
			fields[j] = dispatch.FieldInfo{Name: fname, Type: ftype}
		}
		st.Intern(dispatch.StructInfo{
			Name:     name,
			Mutable:  mutable,
			Parent:   parent,
			TypeArgs: typeArgs,
			Fields:   fields,
		})
	}
	return st
}

func writeTypeIndex(w *writer, idx *core.TypeIndex) {
	pairs := idx.Pairs()
	w.u32(uint32(len(pairs)))
	for k, v := range pairs {
		w.str(k)
		w.str(v)
	}
}

func readTypeIndex(r *reader) *core.TypeIndex {
	n := int(r.u32())
	pairs := make(map[string]string, n)
	for i := 0; i < n; i++ {
		k := r.str()
		v := r.str()
		pairs[k] = v
	}
	return core.NewTypeIndexFromPairs(pairs)
}

func writeGlobals(w *writer, gs []vm.GlobalInfo) {
	w.u32(uint32(len(gs)))
	for _, g := range gs {
		w.str(g.Name)
		w.u32(uint32(g.Index))
	}
}

func readGlobals(r *reader) []vm.GlobalInfo {
	n := int(r.u32())
	out := make([]vm.GlobalInfo, n)
	for i := range out {
		out[i] = vm.GlobalInfo{Name: r.str(), Index: int(r.u32())}
	}
	return out
}

func writeMethodTable(w *writer, mt *dispatch.MethodTable) {
	names := mt.Names()
	w.u32(uint32(len(names)))
	for _, name := range names {
		methods := mt.Methods(name)
		w.str(name)
		w.u32(uint32(len(methods)))
		for _, m := range methods {
			w.u32(uint32(len(m.ArgTypes)))
			for _, at := range m.ArgTypes {
				writeType(w, at)
			}
			w.boolean(m.Varargs)
			writeType(w, m.ReturnType)
			w.u32(uint32(m.FuncIndex))
		}
	}
}

func readMethodTable(r *reader, typeIdx *core.TypeIndex) *dispatch.MethodTable {
	mt := dispatch.NewMethodTableWithIndex(typeIdx)
	nNames := int(r.u32())
	for i := 0; i < nNames; i++ {
		name := r.str()
		nMethods := int(r.u32())
		for j := 0; j < nMethods; j++ {
			nArgs := int(r.u32())
			argTypes := make([]lattice.Type, nArgs)
			for k := range argTypes {
				argTypes[k] = readType(r)
			}
			varargs := r.boolean()
			retType := readType(r)
			funcIndex := int(r.u32())
			mt.Add(dispatch.Method{
				Name:       name,
				ArgTypes:   argTypes,
				Varargs:    varargs,
				ReturnType: retType,
				FuncIndex:  funcIndex,
			})
		}
	}
	return mt
}

func writeFunctionTable(w *writer, fns []vm.FuncDef) {
	w.u32(uint32(len(fns)))
	for _, f := range fns {
		w.str(f.Name)
		w.u32(uint32(len(f.ParamNames)))
		for _, p := range f.ParamNames {
			w.str(p)
		}
		w.boolean(f.Varargs)
		w.u32(uint32(len(f.KwNames)))
		for _, k := range f.KwNames {
			w.str(k)
		}
		w.u32(uint32(len(f.KwDefaults)))
		for _, kd := range f.KwDefaults {
			writeChunk(w, kd)
		}
		writeChunk(w, f.Chunk)
		w.u32(uint32(f.NumLocals))
		w.boolean(f.IsPrelude)
	}
}

func readFunctionTable(r *reader) []vm.FuncDef {
	n := int(r.u32())
	out := make([]vm.FuncDef, n)
	for i := range out {
		name := r.str()
		nParams := int(r.u32())
		params := make([]string, nParams)
		for j := range params {
			params[j] = r.str()
		}
		varargs := r.boolean()
		nKw := int(r.u32())
		kwNames := make([]string, nKw)
		for j := range kwNames {
			kwNames[j] = r.str()
		}
		nKwDef := int(r.u32())
		kwDefaults := make([]*bytecode.Chunk, nKwDef)
		for j := range kwDefaults {
			kwDefaults[j] = readChunk(r)
		}
		chunk := readChunk(r)
		numLocals := int(r.u32())
		isPrelude := r.boolean()
		out[i] = vm.FuncDef{
			Name:       name,
			ParamNames: params,
			Varargs:    varargs,
			KwNames:    kwNames,
			KwDefaults: kwDefaults,
			Chunk:      chunk,
			NumLocals:  numLocals,
			IsPrelude:  isPrelude,
		}
	}
	return out
}
