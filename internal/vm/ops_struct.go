package vm

import (
	"fmt"

	"juliacore/internal/bytecode"
	"juliacore/internal/errors"
)

// execStructOp handles struct construction and field access (spec §4.1
// "Struct-table construction", §9 "Mutable struct graphs"). Immutable
// structs are pushed inline (OpNewStruct); mutable ones are allocated on
// the VM's struct heap and referenced by a StructRef handle
// (OpNewStructRef) so every alias observes the same field writes.
func (vm *Vm) execStructOp(fr *Frame, op bytecode.OpCode) error {
	switch op {
	case bytecode.OpNewStruct, bytecode.OpNewStructRef:
		typeID := int(vm.u32(fr))
		nfields := int(vm.u16(fr))
		fields := vm.popN(nfields)
		if op == bytecode.OpNewStructRef {
			ref := vm.Heap.Alloc(typeID, fields)
			vm.push(Value{Kind: KStructRef, SRef: ref})
		} else {
			vm.push(Value{Kind: KStruct, Struct: &StructValue{TypeID: typeID, Fields: fields}})
		}
		return nil

	case bytecode.OpGetField:
		idx := vm.u32(fr)
		name := vm.constStr(fr, idx)
		obj := vm.pop()
		v, err := vm.getField(obj, name)
		if err != nil {
			return err
		}
		vm.push(v)
		return nil

	case bytecode.OpSetField:
		idx := vm.u32(fr)
		name := vm.constStr(fr, idx)
		val := vm.pop()
		obj := vm.pop()
		return vm.setField(obj, name, val)
	}
	return errors.NewNotImplemented(fmt.Sprintf("struct op %s", op.Name()))
}

// getField resolves name against obj's shape: struct fields via the
// struct table (spec §4.1), NamedTuple by stored name, and the "first"/
// "second" convention the compiler's iterate() destructuring relies on
// (compileForEachInline, emit_calls.go) for any 2-element Pair-shaped
// NamedTuple.
func (vm *Vm) getField(obj Value, name string) (Value, error) {
	switch obj.Kind {
	case KStruct:
		return vm.structField(obj.Struct.TypeID, obj.Struct.Fields, name)
	case KStructRef:
		if obj.SRef < 0 || obj.SRef >= vm.Heap.Len() {
			return Value{}, errors.NewIndexOutOfBounds([]int{obj.SRef}, []int{vm.Heap.Len()})
		}
		inst := vm.Heap.Get(obj.SRef)
		return vm.structField(inst.TypeID, inst.Fields, name)
	case KNamedTuple:
		for i, n := range obj.NT.Names {
			if n == name {
				return obj.NT.Values[i], nil
			}
		}
	case KModule:
		return Value{Kind: KDataType, DType: &DataTypeValue{Name: obj.Mod.Name + "." + name}}, nil
	}
	return Value{}, errors.NewTypeError(fmt.Sprintf("no field %q on %s", name, obj.Kind.String()))
}

func (vm *Vm) structField(typeID int, fields []Value, name string) (Value, error) {
	i, ok := vm.Program.Structs.FieldIndex(typeID, name)
	if !ok || i >= len(fields) {
		return Value{}, errors.NewTypeError(fmt.Sprintf("no field %q", name))
	}
	return fields[i], nil
}

// setField writes through a StructRef's heap slot (mutation visible to
// every alias, spec §8 "Struct aliasing") or an inline Struct's own
// Fields slice (legal only because immutable structs are never supposed
// to reach here — the compiler only emits SetField against declared
// `mutable struct` targets, so an inline Struct here indicates the
// source program violated that and is treated as a type error rather
// than silently mutating a supposedly-immutable value).
func (vm *Vm) setField(obj Value, name string, val Value) error {
	switch obj.Kind {
	case KStructRef:
		if obj.SRef < 0 || obj.SRef >= vm.Heap.Len() {
			return errors.NewIndexOutOfBounds([]int{obj.SRef}, []int{vm.Heap.Len()})
		}
		inst := vm.Heap.Get(obj.SRef)
		i, ok := vm.Program.Structs.FieldIndex(inst.TypeID, name)
		if !ok || i >= len(inst.Fields) {
			return errors.NewTypeError(fmt.Sprintf("no field %q", name))
		}
		inst.Fields[i] = val
		return nil
	case KStruct:
		return errors.NewTypeError(fmt.Sprintf("type is immutable, cannot set field %q", name))
	}
	return errors.NewTypeError(fmt.Sprintf("cannot set field %q on %s", name, obj.Kind.String()))
}
