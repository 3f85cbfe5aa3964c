package vm

import "juliacore/internal/lattice"

// RuntimeType computes a Value's concrete JuliaType (spec §4.2 "Method
// dispatch at runtime"), resolving a StructRef through the heap to
// recover the concrete struct name including type parameters.
func (vm *Vm) RuntimeType(v Value) lattice.ConcreteType {
	switch v.Kind {
	case KInt8:
		return lattice.ConcreteType{Kind: lattice.KindInt8}
	case KInt16:
		return lattice.ConcreteType{Kind: lattice.KindInt16}
	case KInt32:
		return lattice.ConcreteType{Kind: lattice.KindInt32}
	case KInt64:
		return lattice.ConcreteType{Kind: lattice.KindInt64}
	case KInt128:
		return lattice.ConcreteType{Kind: lattice.KindInt128}
	case KUInt8:
		return lattice.ConcreteType{Kind: lattice.KindUInt8}
	case KUInt16:
		return lattice.ConcreteType{Kind: lattice.KindUInt16}
	case KUInt32:
		return lattice.ConcreteType{Kind: lattice.KindUInt32}
	case KUInt64:
		return lattice.ConcreteType{Kind: lattice.KindUInt64}
	case KUInt128:
		return lattice.ConcreteType{Kind: lattice.KindUInt128}
	case KFloat16:
		return lattice.ConcreteType{Kind: lattice.KindFloat16}
	case KFloat32:
		return lattice.ConcreteType{Kind: lattice.KindFloat32}
	case KFloat64:
		return lattice.ConcreteType{Kind: lattice.KindFloat64}
	case KBool:
		return lattice.ConcreteType{Kind: lattice.KindBool}
	case KChar:
		return lattice.ConcreteType{Kind: lattice.KindChar}
	case KString:
		return lattice.ConcreteType{Kind: lattice.KindString}
	case KSymbol:
		return lattice.ConcreteType{Kind: lattice.KindSymbol}
	case KNothing:
		return lattice.ConcreteType{Kind: lattice.KindNothing}
	case KMissing:
		return lattice.ConcreteType{Kind: lattice.KindMissing}
	case KArray:
		var elem *lattice.ConcreteType
		if v.Arr != nil {
			e := arrayElemConcreteType(v.Arr)
			elem = &e
		}
		return lattice.ConcreteType{Kind: lattice.KindArray, Elem: elem}
	case KRange:
		kind := lattice.KindInt64
		if v.Rng != nil && v.Rng.IsFloat {
			kind = lattice.KindFloat64
		}
		e := lattice.ConcreteType{Kind: kind}
		return lattice.ConcreteType{Kind: lattice.KindRange, Elem: &e}
	case KTuple:
		elems := make([]lattice.ConcreteType, len(v.Tup))
		for i, e := range v.Tup {
			elems[i] = vm.RuntimeType(e)
		}
		return lattice.ConcreteType{Kind: lattice.KindTuple, Elems: elems}
	case KStruct:
		if v.Struct != nil {
			return vm.structConcreteType(v.Struct.TypeID)
		}
	case KStructRef:
		if v.SRef >= 0 && v.SRef < vm.Heap.Len() {
			return vm.structConcreteType(vm.Heap.Get(v.SRef).TypeID)
		}
	}
	return lattice.ConcreteType{Kind: lattice.KindAny}
}

func (vm *Vm) structConcreteType(typeID int) lattice.ConcreteType {
	info, ok := vm.Program.Structs.Lookup(typeID)
	if !ok {
		return lattice.ConcreteType{Kind: lattice.KindAny}
	}
	return lattice.ConcreteType{Kind: lattice.KindStruct, Name: info.Name, TypeArgs: info.TypeArgs}
}

func arrayElemConcreteType(a *ArrayValue) lattice.ConcreteType {
	switch a.ElemKind {
	case ElemF64, ElemComplexF32, ElemComplexF64:
		return lattice.ConcreteType{Kind: lattice.KindFloat64}
	case ElemI64:
		return lattice.ConcreteType{Kind: lattice.KindInt64}
	case ElemBool:
		return lattice.ConcreteType{Kind: lattice.KindBool}
	case ElemString:
		return lattice.ConcreteType{Kind: lattice.KindString}
	case ElemChar:
		return lattice.ConcreteType{Kind: lattice.KindChar}
	default:
		return lattice.ConcreteType{Kind: lattice.KindAny}
	}
}

// RuntimeLatticeType lifts RuntimeType into the full lattice (used to
// build the argument-type vector for method dispatch, spec §4.2).
func (vm *Vm) RuntimeLatticeType(v Value) lattice.Type {
	return lattice.Concrete(vm.RuntimeType(v))
}

// TypeName formats the display name typeof() returns, e.g. "Point{Int64}"
// for a parametric struct instantiation (spec §3.2 "Concrete names are
// Base{ArgName, …} with canonical formatting").
func (vm *Vm) TypeName(v Value) string {
	return vm.RuntimeType(v).String()
}

// IsA implements isa(value, T) (spec §4.2): normalize T, and if it names
// a user-defined abstract type or a struct with declared parents, walk
// the parent chain; otherwise delegate to lattice subtyping.
func (vm *Vm) IsA(v Value, typeName string) bool {
	rt := vm.RuntimeType(v)
	if rt.Kind == lattice.KindStruct && vm.Program.TypeIndex != nil {
		if vm.Program.TypeIndex.IsA(rt.Name, typeName) {
			return true
		}
	}
	target, ok := concreteTypeByName(typeName)
	if !ok {
		return rt.Kind == lattice.KindStruct && rt.Name == typeName
	}
	return lattice.ConcreteSubtype(rt, target)
}

var namedKinds = map[string]lattice.ConcreteKind{
	"Int8": lattice.KindInt8, "Int16": lattice.KindInt16, "Int32": lattice.KindInt32,
	"Int64": lattice.KindInt64, "Int128": lattice.KindInt128,
	"UInt8": lattice.KindUInt8, "UInt16": lattice.KindUInt16, "UInt32": lattice.KindUInt32,
	"UInt64": lattice.KindUInt64, "UInt128": lattice.KindUInt128,
	"Float16": lattice.KindFloat16, "Float32": lattice.KindFloat32, "Float64": lattice.KindFloat64,
	"Bool": lattice.KindBool, "Char": lattice.KindChar, "String": lattice.KindString,
	"Nothing": lattice.KindNothing, "Missing": lattice.KindMissing, "Symbol": lattice.KindSymbol,
	"Array": lattice.KindArray, "Range": lattice.KindRange, "Tuple": lattice.KindTuple,
	"Any": lattice.KindAny,
}

func concreteTypeByName(name string) (lattice.ConcreteType, bool) {
	if k, ok := namedKinds[name]; ok {
		return lattice.ConcreteType{Kind: k}, true
	}
	return lattice.ConcreteType{}, false
}
