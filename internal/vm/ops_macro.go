package vm

import (
	"fmt"

	"juliacore/internal/bytecode"
	"juliacore/internal/errors"
)

// exprArgsSentinel marks an OpMakeExpr whose argument list was built
// through an accumulator Array rather than a fixed positional count —
// the path splat interpolation `$(xs...)` inside a quote needs, since
// the number of values a splat contributes isn't known until runtime
// (spec §9 "Quasi-quotation": "splat interpolation... lowers to a
// designated builtin call that flattens the array into the surrounding
// arg list during expansion").
const exprArgsSentinel = 0xFFFF

// execMacroOp builds the Expr/Symbol/QuoteNode/LineNumberNode/GlobalRef
// values the quote/macro runtime evaluates at run time (spec §6 "Quoted
// AST literals", §9 "Quasi-quotation").
func (vm *Vm) execMacroOp(fr *Frame, op bytecode.OpCode) error {
	switch op {
	case bytecode.OpMakeSymbol:
		idx := vm.u32(fr)
		vm.push(Symbol(vm.constStr(fr, idx)))
		return nil

	case bytecode.OpMakeExpr:
		headIdx := vm.u32(fr)
		nargs := vm.u16(fr)
		var args []Value
		if nargs == exprArgsSentinel {
			acc := vm.pop()
			if acc.Kind != KArray {
				return errors.NewTypeError("Expr splat-argument accumulator must be an Array")
			}
			args = make([]Value, acc.Arr.Len())
			for i := range args {
				args[i] = acc.Arr.Get(i)
			}
		} else {
			args = vm.popN(int(nargs))
		}
		vm.push(Value{Kind: KExpr, Expr: &ExprValue{Head: vm.constStr(fr, headIdx), Args: args}})
		return nil

	case bytecode.OpMakeQuoteNode:
		inner := vm.pop()
		vm.push(Value{Kind: KQuoteNode, QNode: &QuoteNodeValue{Inner: inner}})
		return nil

	case bytecode.OpMakeLineNumberNode:
		lineIdx := vm.u32(fr)
		fileIdx := vm.u32(fr)
		line := int(asInt(goValueToValue(vm.constAt(fr, lineIdx))))
		vm.push(Value{Kind: KLineNumberNode, LNNode: &LineNumberNodeValue{Line: line, File: vm.constStr(fr, fileIdx)}})
		return nil

	case bytecode.OpMakeGlobalRef:
		modIdx := vm.u32(fr)
		nameIdx := vm.u32(fr)
		vm.push(Value{Kind: KGlobalRef, GRef: &GlobalRefValue{Module: vm.constStr(fr, modIdx), Name: vm.constStr(fr, nameIdx)}})
		return nil

	case bytecode.OpSpliceSplat:
		src := vm.pop()
		acc := vm.peek()
		if acc.Kind != KArray {
			return errors.NewTypeError("splat-interpolation target is not an argument accumulator")
		}
		switch src.Kind {
		case KArray:
			for i := 0; i < src.Arr.Len(); i++ {
				acc.Arr.Push(src.Arr.Get(i))
			}
		case KTuple:
			for _, v := range src.Tup {
				acc.Arr.Push(v)
			}
		default:
			return errors.NewTypeError(fmt.Sprintf("cannot splice %s into argument list", src.Kind.String()))
		}
		return nil
	}
	return errors.NewNotImplemented(fmt.Sprintf("macro op %s", op.Name()))
}

// Eval evaluates a quoted Expr/Symbol/QuoteNode/LineNumberNode/GlobalRef
// value at run time (spec §9 "Quasi-quotation", the `eval` builtin), by
// walking the tree directly rather than re-entering the compiler:
// operators are evaluated with the VM's generic binary/unary operator
// helpers, without consulting the method table, and other named calls
// go through the builtin table and then the method table (CallByName).
// Like Julia's own top-level `eval`, this runs against global
// scope (vm.Globals), not the calling frame's locals — locals have no
// runtime name table to resolve against (spec §4.2 "Call protocol" binds
// locals by slot, not name). Grounded on
// `src/vm/builtins_macro/eval.rs`'s `eval_expr_value`/`eval_expr_ast`/
// `eval_call`.
func (vm *Vm) Eval(v Value) (Value, error) {
	switch v.Kind {
	case KQuoteNode:
		return v.QNode.Inner, nil
	case KSymbol:
		if gi, ok := vm.Program.GlobalIndex[v.S]; ok {
			return vm.Globals[gi], nil
		}
		return v, nil
	case KExpr:
		return vm.evalExprAST(v.Expr)
	default:
		return v, nil
	}
}

// evalExprAST evaluates one Expr node by its head, mirroring eval.rs's
// "call"/"block"/"comparison"/"&&"/"||"/"=" arms — the set of forms the
// quote constructor (compileMacroConstructor) and quasi-quotation
// literals can actually produce (spec §9).
func (vm *Vm) evalExprAST(ex *ExprValue) (Value, error) {
	switch ex.Head {
	case "call":
		if len(ex.Args) == 0 {
			return Value{}, errors.NewTypeError("eval: call expression requires a function name")
		}
		name, ok := evalSymbolName(ex.Args[0])
		if !ok {
			return Value{}, errors.NewTypeError("eval: call expression's function must be a Symbol")
		}
		args := make([]Value, len(ex.Args)-1)
		for i, a := range ex.Args[1:] {
			v, err := vm.Eval(a)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		return vm.evalCall(name, args)

	case "block":
		result := Nil()
		for _, a := range ex.Args {
			if a.Kind == KLineNumberNode {
				continue
			}
			v, err := vm.Eval(a)
			if err != nil {
				return Value{}, err
			}
			result = v
		}
		return result, nil

	case "comparison":
		if len(ex.Args) < 3 {
			return Value{}, errors.NewTypeError("eval: comparison requires at least 3 args")
		}
		left, err := vm.Eval(ex.Args[0])
		if err != nil {
			return Value{}, err
		}
		op, ok := evalSymbolName(ex.Args[1])
		if !ok {
			return Value{}, errors.NewTypeError("eval: comparison operator must be a Symbol")
		}
		right, err := vm.Eval(ex.Args[2])
		if err != nil {
			return Value{}, err
		}
		return genericBinaryOp(op, left, right)

	case "&&":
		if len(ex.Args) != 2 {
			return Value{}, errors.NewTypeError("eval: && requires 2 args")
		}
		left, err := vm.Eval(ex.Args[0])
		if err != nil {
			return Value{}, err
		}
		if !left.IsTruthy() {
			return Bool(false), nil
		}
		return vm.Eval(ex.Args[1])

	case "||":
		if len(ex.Args) != 2 {
			return Value{}, errors.NewTypeError("eval: || requires 2 args")
		}
		left, err := vm.Eval(ex.Args[0])
		if err != nil {
			return Value{}, err
		}
		if left.IsTruthy() {
			return Bool(true), nil
		}
		return vm.Eval(ex.Args[1])

	case "=":
		if len(ex.Args) != 2 {
			return Value{}, errors.NewTypeError("eval: assignment requires exactly 2 args")
		}
		name, ok := evalSymbolName(ex.Args[0])
		if !ok {
			return Value{}, errors.NewTypeError("eval: assignment target must be a Symbol")
		}
		val, err := vm.Eval(ex.Args[1])
		if err != nil {
			return Value{}, err
		}
		gi, ok := vm.Program.GlobalIndex[name]
		if !ok {
			return Value{}, errors.NewErrorException(fmt.Sprintf("eval: %q is not a global variable", name))
		}
		vm.Globals[gi] = val
		return val, nil
	}
	return Value{}, errors.NewNotImplemented(fmt.Sprintf("eval: unsupported Expr head %q", ex.Head))
}

func evalSymbolName(v Value) (string, bool) {
	if v.Kind != KSymbol {
		return "", false
	}
	return v.S, true
}

// evalCall applies a named function/operator to already-evaluated
// arguments. Arithmetic, comparison and boolean operators fall through
// to the same genericBinaryOp/genericUnaryOp the compiled
// OpBinaryDispatch/OpUnaryDispatch path falls back to, so eval's
// arithmetic never diverges from compiled arithmetic's type-stability
// rules; anything else is looked up by name first through BuiltinNames
// (sqrt, abs, sin, cos, ...) and then through the method table, so a
// quoted call to a user function dispatches exactly like a compiled one.
func (vm *Vm) evalCall(name string, args []Value) (Value, error) {
	switch name {
	case "-":
		if len(args) == 1 {
			return genericUnaryOp("-", args[0])
		}
	case "!", "+":
		if len(args) == 1 {
			return genericUnaryOp(name, args[0])
		}
	}
	switch name {
	case "+", "-", "*", "/", "^", "%", "mod", "==", "!=", "<", ">", "<=", ">=", "&&", "||":
		if len(args) != 2 {
			return Value{}, errors.NewTypeError(fmt.Sprintf("eval: %q requires 2 arguments", name))
		}
		return genericBinaryOp(name, args[0], args[1])
	}
	if id, ok := BuiltinNames[name]; ok {
		return vm.dispatchBuiltin(id, args)
	}
	return vm.CallByName(name, args)
}

// dispatchMacroBuiltin owns BuiltinEval, the `eval(expr)` entry point
// into Eval above (spec §9).
func (vm *Vm) dispatchMacroBuiltin(id bytecode.BuiltinId, args []Value) (Value, bool, error) {
	if id != BuiltinEval {
		return Value{}, false, nil
	}
	if len(args) != 1 {
		return Value{}, true, errors.NewTypeError("eval requires exactly 1 argument")
	}
	v, err := vm.Eval(args[0])
	return v, true, err
}

// EvalQuoted materializes a quoted Expr/Symbol/QuoteNode tree back into
// source-shaped text, used by the macro runtime's error messages and by
// `dump`-style reflection — display, not execution; see Eval above for
// running a quoted tree.
func EvalQuoted(v Value) string {
	switch v.Kind {
	case KSymbol:
		return ":" + v.S
	case KQuoteNode:
		return "QuoteNode(" + EvalQuoted(v.QNode.Inner) + ")"
	case KLineNumberNode:
		return fmt.Sprintf("#= %s:%d =#", v.LNNode.File, v.LNNode.Line)
	case KGlobalRef:
		return v.GRef.Module + "." + v.GRef.Name
	case KExpr:
		parts := make([]string, len(v.Expr.Args))
		for i, a := range v.Expr.Args {
			parts[i] = EvalQuoted(a)
		}
		return fmt.Sprintf(":(%s(%v))", v.Expr.Head, parts)
	default:
		return valueToDisplayString(v)
	}
}
