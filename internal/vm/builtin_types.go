package vm

import (
	"juliacore/internal/bytecode"
	"juliacore/internal/errors"
)

// dispatchTypesBuiltin owns isa/supertype/fieldnames/nameof/missing (spec
// §4.2 "types/reflection" group; spec §9 "Reflection surface"), plus the
// two runtime-valued corners of the quote/macro group that don't need a
// compile-time-constant operand the way Expr/QuoteNode/LineNumberNode/
// GlobalRef do (emit.go's compileMacroConstructor): converting an
// arbitrary runtime value to a Symbol, and generating a hygienic one.
func (vm *Vm) dispatchTypesBuiltin(id bytecode.BuiltinId, args []Value) (Value, bool, error) {
	switch id {
	case BuiltinIsa:
		name := args[1].S
		if args[1].Kind == KDataType {
			name = args[1].DType.Name
		}
		return Bool(vm.IsA(args[0], name)), true, nil

	case BuiltinSupertype:
		name := args[0].S
		if args[0].Kind == KDataType {
			name = args[0].DType.Name
		}
		if vm.Program.TypeIndex != nil {
			if p := vm.Program.TypeIndex.Parent(name); p != "" {
				return Value{Kind: KDataType, DType: &DataTypeValue{Name: p}}, true, nil
			}
		}
		return Value{Kind: KDataType, DType: &DataTypeValue{Name: "Any"}}, true, nil

	case BuiltinFieldnames:
		typeID, ok := vm.structTypeIDOf(args[0])
		if !ok {
			return Value{}, true, errors.NewTypeError("fieldnames expects a struct value or type")
		}
		info, ok := vm.Program.Structs.Lookup(typeID)
		if !ok {
			return Value{}, true, errors.NewTypeError("unknown struct type")
		}
		out := make([]Value, len(info.Fields))
		for i, f := range info.Fields {
			out[i] = Symbol(f.Name)
		}
		return Value{Kind: KTuple, Tup: out}, true, nil

	case BuiltinNameof:
		switch args[0].Kind {
		case KDataType:
			return Symbol(args[0].DType.Name), true, nil
		default:
			return Symbol(vm.TypeName(args[0])), true, nil
		}

	case BuiltinMissing:
		return MissingV(), true, nil

	case BuiltinSymbolOf:
		// Runtime conversion to a Symbol (spec §6 "Quoted AST literals");
		// the compile-time form `:name` never reaches here, it's lowered
		// straight to OpMakeSymbol (emit.go compileLiteral).
		if args[0].Kind == KSymbol {
			return args[0], true, nil
		}
		return Symbol(valueToDisplayString(args[0])), true, nil

	case BuiltinGensym:
		base := ""
		if len(args) > 0 {
			base = valueToDisplayString(args[0])
		}
		return Symbol(vm.Gensym.Next(base)), true, nil
	}
	return Value{}, false, nil
}

func (vm *Vm) structTypeIDOf(v Value) (int, bool) {
	switch v.Kind {
	case KStruct:
		return v.Struct.TypeID, true
	case KStructRef:
		if v.SRef >= 0 && v.SRef < vm.Heap.Len() {
			return vm.Heap.Get(v.SRef).TypeID, true
		}
	case KDataType:
		return vm.Program.Structs.LookupByName(v.DType.Name)
	}
	return 0, false
}
