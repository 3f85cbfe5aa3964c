package vm

import (
	"strings"

	"juliacore/internal/bytecode"
	"juliacore/internal/errors"
)

// dispatchStringsBuiltin owns string/split/join/uppercase/lowercase/
// replace/strip/startswith/endswith (spec §4.2 "strings" group).
func (vm *Vm) dispatchStringsBuiltin(id bytecode.BuiltinId, args []Value) (Value, bool, error) {
	switch id {
	case BuiltinString:
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = valueToDisplayString(a)
		}
		return Str(strings.Join(parts, "")), true, nil

	case BuiltinSplit:
		if len(args) != 2 {
			return Value{}, true, errors.NewDispatchFailure("split", argKindNames(args))
		}
		parts := strings.Split(args[0].S, args[1].S)
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = Str(p)
		}
		return Value{Kind: KArray, Arr: newArrayFrom(ElemString, out, []int{len(out)})}, true, nil

	case BuiltinJoin:
		vals, err := vm.collectAll(args[0])
		if err != nil {
			return Value{}, true, err
		}
		sep := ""
		if len(args) == 2 {
			sep = args[1].S
		}
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = valueToDisplayString(v)
		}
		return Str(strings.Join(parts, sep)), true, nil

	case BuiltinUppercase:
		return Str(strings.ToUpper(args[0].S)), true, nil
	case BuiltinLowercase:
		return Str(strings.ToLower(args[0].S)), true, nil

	case BuiltinReplace:
		if len(args) != 3 {
			return Value{}, true, errors.NewDispatchFailure("replace", argKindNames(args))
		}
		return Str(strings.ReplaceAll(args[0].S, args[1].S, args[2].S)), true, nil

	case BuiltinStrip:
		return Str(strings.TrimSpace(args[0].S)), true, nil

	case BuiltinStartswith:
		return Bool(strings.HasPrefix(args[0].S, args[1].S)), true, nil
	case BuiltinEndswith:
		return Bool(strings.HasSuffix(args[0].S, args[1].S)), true, nil
	}
	return Value{}, false, nil
}
