package vm

import (
	"fmt"
	"math"

	"juliacore/internal/bytecode"
	"juliacore/internal/errors"
	"juliacore/internal/lattice"
)

// execBinaryIntrinsic handles the type-specialized arithmetic/comparison
// opcodes the compiler emits when both operand static types are known
// concrete numeric/string types (spec §4.1 "Specialization policy").
func (vm *Vm) execBinaryIntrinsic(op bytecode.OpCode) error {
	b := vm.pop()
	a := vm.pop()
	switch op {
	case bytecode.OpAddI64:
		vm.push(Int64(a.I + b.I))
	case bytecode.OpSubI64:
		vm.push(Int64(a.I - b.I))
	case bytecode.OpMulI64:
		vm.push(Int64(a.I * b.I))
	case bytecode.OpDivI64:
		if b.I == 0 {
			return errors.NewErrorException("integer division by zero")
		}
		vm.push(Float64(float64(a.I) / float64(b.I)))
	case bytecode.OpModI64:
		if b.I == 0 {
			return errors.NewErrorException("integer division by zero")
		}
		vm.push(Int64(a.I % b.I))
	case bytecode.OpPowI64:
		if b.I < 0 {
			vm.push(Float64(math.Pow(float64(a.I), float64(b.I))))
		} else {
			vm.push(Int64(intPow(a.I, b.I)))
		}
	case bytecode.OpAddF64:
		vm.push(Float64(asFloat(a) + asFloat(b)))
	case bytecode.OpSubF64:
		vm.push(Float64(asFloat(a) - asFloat(b)))
	case bytecode.OpMulF64:
		vm.push(Float64(asFloat(a) * asFloat(b)))
	case bytecode.OpDivF64:
		vm.push(Float64(asFloat(a) / asFloat(b)))
	case bytecode.OpPowF64:
		vm.push(Float64(math.Pow(asFloat(a), asFloat(b))))
	case bytecode.OpLtI64:
		vm.push(Bool(a.I < b.I))
	case bytecode.OpLeI64:
		vm.push(Bool(a.I <= b.I))
	case bytecode.OpGtI64:
		vm.push(Bool(a.I > b.I))
	case bytecode.OpGeI64:
		vm.push(Bool(a.I >= b.I))
	case bytecode.OpLtF64:
		vm.push(Bool(asFloat(a) < asFloat(b)))
	case bytecode.OpLeF64:
		vm.push(Bool(asFloat(a) <= asFloat(b)))
	case bytecode.OpGtF64:
		vm.push(Bool(asFloat(a) > asFloat(b)))
	case bytecode.OpGeF64:
		vm.push(Bool(asFloat(a) >= asFloat(b)))
	case bytecode.OpEqAny:
		vm.push(Bool(valuesEqual(a, b)))
	case bytecode.OpNeAny:
		vm.push(Bool(!valuesEqual(a, b)))
	case bytecode.OpStringConcat:
		vm.push(Str(a.S + b.S))
	case bytecode.OpStringRepeat:
		n := asInt(b)
		if n < 0 {
			n = 0
		}
		out := make([]byte, 0, len(a.S)*int(n))
		for i := int64(0); i < n; i++ {
			out = append(out, a.S...)
		}
		vm.push(Str(string(out)))
	default:
		return errors.NewNotImplemented(fmt.Sprintf("binary intrinsic %s", op.Name()))
	}
	return nil
}

func (vm *Vm) execUnaryIntrinsic(op bytecode.OpCode) error {
	a := vm.pop()
	switch op {
	case bytecode.OpNegI64:
		vm.push(Int64(-a.I))
	case bytecode.OpNegF64:
		vm.push(Float64(-asFloat(a)))
	case bytecode.OpNot:
		vm.push(Bool(!a.IsTruthy()))
	default:
		return errors.NewNotImplemented(fmt.Sprintf("unary intrinsic %s", op.Name()))
	}
	return nil
}

func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		if isNumericKind(a.Kind) && isNumericKind(b.Kind) {
			return asFloat(a) == asFloat(b)
		}
		return false
	}
	switch a.Kind {
	case KString, KSymbol:
		return a.S == b.S
	case KFloat64, KFloat32, KFloat16:
		return a.F == b.F
	case KNothing, KMissing, KUndef:
		return true
	case KStructRef:
		return a.SRef == b.SRef
	default:
		return a.I == b.I
	}
}

// intPow computes base^exp exactly over int64 by squaring (spec §4.1
// "Power `^` with integer exponent uses `powi`"); exp is assumed
// non-negative, the negative case is promoted to Float64 by the caller.
// Overflow wraps the same way any other int64 multiplication in this VM
// does, rather than rounding through float64 and losing precision for
// results that still fit exactly (e.g. 3^36 versus the old
// float64-round-trip behavior).
func intPow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func isNumericKind(k Kind) bool {
	switch k {
	case KInt8, KInt16, KInt32, KInt64, KInt128, KUInt8, KUInt16, KUInt32, KUInt64, KUInt128,
		KFloat16, KFloat32, KFloat64, KBool, KChar:
		return true
	}
	return false
}

// execBinaryDispatch implements the operator-overload fallback: resolve
// opName through the method table first (user struct operators), else
// fall back to the builtin numeric/string table (spec §4.1 "Dynamic
// struct operator fallback").
func (vm *Vm) execBinaryDispatch(opName string) error {
	b := vm.pop()
	a := vm.pop()
	argTypes := []lattice.Type{vm.RuntimeLatticeType(a), vm.RuntimeLatticeType(b)}
	if m, ok := vm.Program.Methods.Resolve(opName, argTypes); ok {
		v, err := vm.callFunction(m.FuncIndex, []Value{a, b}, nil)
		if err != nil {
			return err
		}
		vm.push(v)
		return nil
	}
	v, err := genericBinaryOp(opName, a, b)
	if err != nil {
		return err
	}
	vm.push(v)
	return nil
}

func (vm *Vm) execUnaryDispatch(opName string) error {
	a := vm.pop()
	argTypes := []lattice.Type{vm.RuntimeLatticeType(a)}
	if m, ok := vm.Program.Methods.Resolve(opName, argTypes); ok {
		v, err := vm.callFunction(m.FuncIndex, []Value{a}, nil)
		if err != nil {
			return err
		}
		vm.push(v)
		return nil
	}
	v, err := genericUnaryOp(opName, a)
	if err != nil {
		return err
	}
	vm.push(v)
	return nil
}

// genericBinaryOp is the builtin numeric/string fallback consulted when
// no user method matches an operator name (spec §4.2 dispatch-failure
// path ends in DispatchFailure, not a silent default).
func genericBinaryOp(name string, a, b Value) (Value, error) {
	isFloaty := a.Kind == KFloat64 || b.Kind == KFloat64
	switch name {
	case "+":
		if a.Kind == KString {
			return Str(a.S + b.S), nil
		}
		if isFloaty {
			return Float64(asFloat(a) + asFloat(b)), nil
		}
		return Int64(a.I + b.I), nil
	case "-":
		if isFloaty {
			return Float64(asFloat(a) - asFloat(b)), nil
		}
		return Int64(a.I - b.I), nil
	case "*":
		if a.Kind == KString {
			return Str(a.S + b.S), nil
		}
		if isFloaty {
			return Float64(asFloat(a) * asFloat(b)), nil
		}
		return Int64(a.I * b.I), nil
	case "/":
		return Float64(asFloat(a) / asFloat(b)), nil
	case "^":
		if !isFloaty {
			exp := asInt(b)
			if exp >= 0 {
				return Int64(intPow(asInt(a), exp)), nil
			}
		}
		return Float64(math.Pow(asFloat(a), asFloat(b))), nil
	case "%", "mod":
		return Int64(asInt(a) % asInt(b)), nil
	case "==":
		return Bool(valuesEqual(a, b)), nil
	case "!=":
		return Bool(!valuesEqual(a, b)), nil
	case "<":
		return Bool(asFloat(a) < asFloat(b)), nil
	case "<=":
		return Bool(asFloat(a) <= asFloat(b)), nil
	case ">":
		return Bool(asFloat(a) > asFloat(b)), nil
	case ">=":
		return Bool(asFloat(a) >= asFloat(b)), nil
	case "&&":
		return Bool(a.IsTruthy() && b.IsTruthy()), nil
	case "||":
		return Bool(a.IsTruthy() || b.IsTruthy()), nil
	}
	return Value{}, errors.NewDispatchFailure(name, []string{a.Kind.String(), b.Kind.String()})
}

func genericUnaryOp(name string, a Value) (Value, error) {
	switch name {
	case "-":
		if a.Kind == KFloat64 {
			return Float64(-a.F), nil
		}
		return Int64(-a.I), nil
	case "+":
		return a, nil
	case "!":
		return Bool(!a.IsTruthy()), nil
	}
	return Value{}, errors.NewDispatchFailure(name, []string{a.Kind.String()})
}
