package vm

import (
	"fmt"

	"juliacore/internal/errors"
)

// callDynamic dispatches OpCallDynamic: the callee is a runtime Value
// already resolved to a Function, Closure or ComposedFunction (spec
// §4.2 "Call protocol": "CallDynamic(argc) pops a callable value first,
// then dispatches... if the callable is a ComposedFunction(outer,
// inner), apply inner to the arg, then outer to the result").
func (vm *Vm) callDynamic(callee Value, args []Value) (Value, error) {
	switch callee.Kind {
	case KFunction:
		if callee.Fn.FuncIndex >= 0 {
			return vm.callFunction(callee.Fn.FuncIndex, args, nil)
		}
		return vm.CallByName(callee.Fn.Name, args)
	case KClosure:
		// Upvalues are bound as the function's leading parameters: the
		// compiler's MakeClosure emission generates the closed-over
		// function so its first len(Upvalues) parameters are exactly
		// the captured names, in capture order.
		bound := append(append([]Value{}, callee.Clos.Upvalues...), args...)
		return vm.callFunction(callee.Clos.FuncIndex, bound, nil)
	case KComposedFunction:
		inner, err := vm.callDynamic(callee.Comp.Inner, args)
		if err != nil {
			return Value{}, err
		}
		return vm.callDynamic(callee.Comp.Outer, []Value{inner})
	}
	return Value{}, errors.NewTypeError(fmt.Sprintf("%s is not callable", callee.Kind.String()))
}

// DisplayValue is valueToDisplayString's exported form, for callers
// outside this package that need to print a result value (e.g. the CLI
// front door's run/exec commands, spec §6).
func DisplayValue(v Value) string { return valueToDisplayString(v) }

// valueToDisplayString renders a Value the way `print`/`println` and the
// top-level REPL echo do (spec §7 "REPL echoes the type of the last
// result"; here, the VM-level textual form any builtin/OpPrint needs).
func valueToDisplayString(v Value) string {
	switch v.Kind {
	case KNothing:
		return ""
	case KMissing:
		return "missing"
	case KUndef:
		return "#undef"
	case KBool:
		return fmt.Sprint(v.I != 0)
	case KChar:
		return string(rune(v.I))
	case KString, KSymbol:
		return v.S
	case KFloat64, KFloat32, KFloat16:
		return formatFloat(v.F)
	case KInt8, KInt16, KInt32, KInt64, KInt128,
		KUInt8, KUInt16, KUInt32, KUInt64, KUInt128:
		return fmt.Sprintf("%d", v.I)
	case KBigInt:
		if v.Big != nil {
			return v.Big.String()
		}
		return "0"
	case KBigFloat:
		if v.BigF != nil {
			return v.BigF.Text('g', -1)
		}
		return "0.0"
	case KArray:
		return displayArray(v.Arr)
	case KTuple:
		parts := make([]string, len(v.Tup))
		for i, e := range v.Tup {
			parts[i] = valueToDisplayString(e)
		}
		return "(" + joinComma(parts) + ")"
	case KRange:
		return fmt.Sprintf("%s:%s", formatFloat(v.Rng.Start), formatFloat(v.Rng.Stop))
	case KDict:
		parts := make([]string, len(v.Dict.Keys))
		for i := range v.Dict.Keys {
			parts[i] = valueToDisplayString(v.Dict.Keys[i]) + " => " + valueToDisplayString(v.Dict.Vals[i])
		}
		return "Dict(" + joinComma(parts) + ")"
	case KSet:
		parts := make([]string, len(v.Set.Items))
		for i, it := range v.Set.Items {
			parts[i] = valueToDisplayString(it)
		}
		return "Set(" + joinComma(parts) + ")"
	case KStruct, KStructRef:
		return "<struct>"
	case KExpr, KQuoteNode, KLineNumberNode, KGlobalRef:
		return EvalQuoted(v)
	case KDataType:
		return v.DType.Name
	case KFunction:
		return "function " + v.Fn.Name
	case KIO:
		return "IO(" + v.Io.Kind + ")"
	}
	return v.Kind.String()
}

func displayArray(a *ArrayValue) string {
	n := a.Len()
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = valueToDisplayString(a.Get(i))
	}
	return "[" + joinComma(parts) + "]"
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}
