package vm

import (
	"juliacore/internal/bytecode"
	"juliacore/internal/errors"
)

// dispatchDictSetBuiltin owns get/haskey/keys/values/delete! (spec §4.2
// "dicts/sets" group; Dict{K,V}/Set{T} semantics per spec §3.3).
func (vm *Vm) dispatchDictSetBuiltin(id bytecode.BuiltinId, args []Value) (Value, bool, error) {
	switch id {
	case BuiltinGet:
		if args[0].Kind != KDict {
			return Value{}, true, errors.NewTypeError("get expects a Dict")
		}
		if v, ok := args[0].Dict.Get(args[1]); ok {
			return v, true, nil
		}
		if len(args) == 3 {
			return args[2], true, nil
		}
		return Nil(), true, nil

	case BuiltinHaskey:
		switch args[0].Kind {
		case KDict:
			_, ok := args[0].Dict.Get(args[1])
			return Bool(ok), true, nil
		case KSet:
			return Bool(args[0].Set.Has(args[1])), true, nil
		}
		return Value{}, true, errors.NewTypeError("haskey expects a Dict or Set")

	case BuiltinKeys:
		if args[0].Kind != KDict {
			return Value{}, true, errors.NewTypeError("keys expects a Dict")
		}
		out := append([]Value{}, args[0].Dict.Keys...)
		return Value{Kind: KArray, Arr: newArrayFrom(inferElemKind(out), out, []int{len(out)})}, true, nil

	case BuiltinValues:
		if args[0].Kind != KDict {
			return Value{}, true, errors.NewTypeError("values expects a Dict")
		}
		out := append([]Value{}, args[0].Dict.Vals...)
		return Value{Kind: KArray, Arr: newArrayFrom(inferElemKind(out), out, []int{len(out)})}, true, nil

	case BuiltinDeleteBang:
		switch args[0].Kind {
		case KDict:
			args[0].Dict.Delete(args[1])
			return args[0], true, nil
		case KSet:
			args[0].Set.Delete(args[1])
			return args[0], true, nil
		}
		return Value{}, true, errors.NewTypeError("delete! expects a Dict or Set")
	}
	return Value{}, false, nil
}
