package vm

import (
	"fmt"

	"juliacore/internal/bytecode"
	"juliacore/internal/errors"
)

// elemKindByName maps a type-expression name (as stored in the constant
// pool by the compiler, e.g. for `Array{Int64}`) to the specialized
// array storage it selects (spec §3.3).
func elemKindByName(name string) ElemKind {
	switch name {
	case "Float64", "Float32", "Float16":
		return ElemF64
	case "ComplexF32":
		return ElemComplexF32
	case "ComplexF64":
		return ElemComplexF64
	case "Int8", "Int16", "Int32", "Int64", "Int128",
		"UInt8", "UInt16", "UInt32", "UInt64", "UInt128":
		return ElemI64
	case "Bool":
		return ElemBool
	case "String":
		return ElemString
	case "Char":
		return ElemChar
	default:
		return ElemAny
	}
}

// inferElemKind picks the narrowest specialized storage that every
// element in vals actually fits (spec §3.3 "Array storage is specialized
// per element kind"), falling back to Any for a heterogeneous literal.
func inferElemKind(vals []Value) ElemKind {
	if len(vals) == 0 {
		return ElemAny
	}
	k := vals[0].Kind
	for _, v := range vals[1:] {
		if v.Kind != k {
			return ElemAny
		}
	}
	switch k {
	case KFloat64, KFloat32, KFloat16:
		return ElemF64
	case KInt64, KInt32, KInt16, KInt8, KUInt64, KUInt32, KUInt16, KUInt8:
		return ElemI64
	case KBool:
		return ElemBool
	case KString:
		return ElemString
	case KChar:
		return ElemChar
	case KStructRef:
		return ElemStructRefs
	default:
		return ElemAny
	}
}

func newArrayFrom(kind ElemKind, vals []Value, shape []int) *ArrayValue {
	a := NewArray(kind, shape)
	for i, v := range vals {
		a.Set(i, v)
	}
	return a
}

// execCollectionOp handles array/dict/set/memory construction, indexing
// and mutation (spec §4.1 "Collections").
func (vm *Vm) execCollectionOp(fr *Frame, op bytecode.OpCode) error {
	switch op {
	case bytecode.OpNewArray:
		n := int(vm.u32(fr))
		vals := vm.popN(n)
		kind := inferElemKind(vals)
		vm.push(Value{Kind: KArray, Arr: newArrayFrom(kind, vals, []int{n})})
		return nil

	case bytecode.OpNewArrayTyped:
		typeIdx := vm.u32(fr)
		n := int(vm.u32(fr))
		vals := vm.popN(n)
		kind := elemKindByName(vm.constStr(fr, typeIdx))
		vm.push(Value{Kind: KArray, Arr: newArrayFrom(kind, vals, []int{n})})
		return nil

	case bytecode.OpFinalizeArray, bytecode.OpFinalizeArrayTyped:
		var kind ElemKind
		if op == bytecode.OpFinalizeArrayTyped {
			typeIdx := vm.u32(fr)
			kind = elemKindByName(vm.constStr(fr, typeIdx))
		}
		ndims := int(vm.u16(fr))
		dimVals := vm.popN(ndims)
		shape := make([]int, ndims)
		total := 1
		for i, d := range dimVals {
			shape[i] = int(asInt(d))
			total *= shape[i]
		}
		vals := vm.popN(total)
		if op == bytecode.OpFinalizeArray {
			kind = inferElemKind(vals)
		}
		vm.push(Value{Kind: KArray, Arr: newArrayFrom(kind, vals, shape)})
		return nil

	case bytecode.OpNewDict:
		vm.push(Value{Kind: KDict, Dict: NewDict("Any", "Any")})
		return nil
	case bytecode.OpNewDictTyped:
		kIdx := vm.u32(fr)
		vIdx := vm.u32(fr)
		vm.push(Value{Kind: KDict, Dict: NewDict(vm.constStr(fr, kIdx), vm.constStr(fr, vIdx))})
		return nil
	case bytecode.OpNewSet:
		vm.push(Value{Kind: KSet, Set: NewSet("Any")})
		return nil

	case bytecode.OpNewMemory:
		typeIdx := vm.u32(fr)
		n := int(vm.u32(fr))
		kind := elemKindByName(vm.constStr(fr, typeIdx))
		vm.push(Value{Kind: KMemory, Mem: &MemoryValue{ElemKind: kind, Data: NewArray(kind, []int{n})}})
		return nil
	case bytecode.OpNewMemoryDynamic:
		typeIdx := vm.u32(fr)
		n := int(asInt(vm.pop()))
		kind := elemKindByName(vm.constStr(fr, typeIdx))
		vm.push(Value{Kind: KMemory, Mem: &MemoryValue{ElemKind: kind, Data: NewArray(kind, []int{n})}})
		return nil

	case bytecode.OpAllocUndefTyped:
		vm.u32(fr)
		vm.push(Undef())
		return nil

	case bytecode.OpIndexLoad:
		ndims := int(vm.u16(fr))
		idxVals := vm.popN(ndims)
		obj := vm.pop()
		v, err := vm.indexLoad(obj, idxVals)
		if err != nil {
			return err
		}
		vm.push(v)
		return nil

	case bytecode.OpIndexStore:
		ndims := int(vm.u16(fr))
		val := vm.pop()
		idxVals := vm.popN(ndims)
		obj := vm.pop()
		return vm.indexStore(obj, idxVals, val)

	case bytecode.OpArrayPush:
		v := vm.pop()
		arr := vm.peek()
		if arr.Kind != KArray {
			return errors.NewTypeError("push! target is not an Array")
		}
		arr.Arr.Push(v)
		return nil

	case bytecode.OpSetAdd:
		v := vm.pop()
		s := vm.peek()
		if s.Kind != KSet {
			return errors.NewTypeError("push! target is not a Set")
		}
		s.Set.Add(v)
		return nil

	case bytecode.OpDictSet:
		v := vm.pop()
		k := vm.pop()
		d := vm.peek()
		if d.Kind != KDict {
			return errors.NewTypeError("setindex! target is not a Dict")
		}
		d.Dict.Set(k, v)
		return nil
	}
	return errors.NewNotImplemented(fmt.Sprintf("collection op %s", op.Name()))
}

func indicesToInts(idx []Value) []int {
	out := make([]int, len(idx))
	for i, v := range idx {
		out[i] = int(asInt(v))
	}
	return out
}

func (vm *Vm) indexLoad(obj Value, idx []Value) (Value, error) {
	switch obj.Kind {
	case KArray:
		ints := indicesToInts(idx)
		flat := ColMajorIndex(obj.Arr.Shape, ints)
		if flat < 0 || flat >= obj.Arr.Len() {
			return Value{}, errors.NewIndexOutOfBounds(ints, obj.Arr.Shape)
		}
		return obj.Arr.Get(flat), nil
	case KMemory:
		if len(idx) != 1 {
			return Value{}, errors.NewDimensionMismatch([]int{1}, []int{len(idx)})
		}
		i := int(asInt(idx[0]))
		if i < 0 || i >= obj.Mem.Data.Len() {
			return Value{}, errors.NewIndexOutOfBounds([]int{i}, obj.Mem.Data.Shape)
		}
		return obj.Mem.Data.Get(i), nil
	case KTuple:
		i := int(asInt(idx[0]))
		if i < 0 || i >= len(obj.Tup) {
			return Value{}, errors.NewIndexOutOfBounds([]int{i}, []int{len(obj.Tup)})
		}
		return obj.Tup[i], nil
	case KDict:
		if len(idx) != 1 {
			return Value{}, errors.NewDimensionMismatch([]int{1}, []int{len(idx)})
		}
		v, ok := obj.Dict.Get(idx[0])
		if !ok {
			return Value{}, errors.NewErrorException("key not found")
		}
		return v, nil
	case KString:
		i := int(asInt(idx[0]))
		runes := []rune(obj.S)
		if i < 0 || i >= len(runes) {
			return Value{}, errors.NewIndexOutOfBounds([]int{i}, []int{len(runes)})
		}
		return Char(runes[i]), nil
	case KRange:
		i := int(asInt(idx[0]))
		if i < 0 || i >= obj.Rng.Len() {
			return Value{}, errors.NewIndexOutOfBounds([]int{i}, []int{obj.Rng.Len()})
		}
		return obj.Rng.At(i), nil
	}
	return Value{}, errors.NewTypeError(fmt.Sprintf("cannot index %s", obj.Kind.String()))
}

func (vm *Vm) indexStore(obj Value, idx []Value, val Value) error {
	switch obj.Kind {
	case KArray:
		ints := indicesToInts(idx)
		flat := ColMajorIndex(obj.Arr.Shape, ints)
		if flat < 0 || flat >= obj.Arr.Len() {
			return errors.NewIndexOutOfBounds(ints, obj.Arr.Shape)
		}
		obj.Arr.Set(flat, val)
		return nil
	case KMemory:
		i := int(asInt(idx[0]))
		if i < 0 || i >= obj.Mem.Data.Len() {
			return errors.NewIndexOutOfBounds([]int{i}, obj.Mem.Data.Shape)
		}
		obj.Mem.Data.Set(i, val)
		return nil
	case KDict:
		obj.Dict.Set(idx[0], val)
		return nil
	}
	return errors.NewTypeError(fmt.Sprintf("cannot assign into %s", obj.Kind.String()))
}

// Reshape validates the new shape preserves logical element count (spec
// §3.3 invariant (iii), §8 "Reshape preserves element count").
func Reshape(a *ArrayValue, newShape []int) (*ArrayValue, error) {
	n := 1
	for _, d := range newShape {
		n *= d
	}
	if n != a.Len() {
		return nil, errors.NewDimensionMismatch([]int{a.Len()}, []int{n})
	}
	out := &ArrayValue{ElemKind: a.ElemKind, Shape: append([]int{}, newShape...), StructTypeID: a.StructTypeID}
	out.F64, out.I64, out.B, out.Str, out.Ch, out.Refs, out.Any = a.F64, a.I64, a.B, a.Str, a.Ch, a.Refs, a.Any
	return out, nil
}
