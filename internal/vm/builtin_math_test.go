package vm

import (
	"math"
	"testing"

	"juliacore/internal/bytecode"
)

func TestDispatchMathBuiltinUnary(t *testing.T) {
	v := &Vm{}
	got, handled, err := v.dispatchMathBuiltin(BuiltinSqrt, []Value{Float64(9)})
	if err != nil || !handled {
		t.Fatalf("sqrt(9): handled=%v err=%v", handled, err)
	}
	if got.Kind != KFloat64 || got.F != 3 {
		t.Errorf("sqrt(9) = %v, want 3", got)
	}
}

func TestDispatchMathBuiltinSqrtNegative(t *testing.T) {
	v := &Vm{}
	_, handled, err := v.dispatchMathBuiltin(BuiltinSqrt, []Value{Float64(-1)})
	if !handled || err == nil {
		t.Fatalf("sqrt(-1) should error, got handled=%v err=%v", handled, err)
	}
}

func TestDispatchMathBuiltinAbsPreservesIntKind(t *testing.T) {
	v := &Vm{}
	got, _, err := v.dispatchMathBuiltin(BuiltinAbs, []Value{Int64(-5)})
	if err != nil {
		t.Fatalf("abs(-5): %v", err)
	}
	if got.Kind != KInt64 || got.I != 5 {
		t.Errorf("abs(-5) = %v, want Int64(5)", got)
	}
}

func TestDispatchMathBuiltinMinMaxAllInt(t *testing.T) {
	v := &Vm{}
	got, _, err := v.dispatchMathBuiltin(BuiltinMax, []Value{Int64(1), Int64(7), Int64(3)})
	if err != nil {
		t.Fatalf("max(1,7,3): %v", err)
	}
	if got.Kind != KInt64 || got.I != 7 {
		t.Errorf("max(1,7,3) = %v, want Int64(7)", got)
	}
}

func TestDispatchMathBuiltinMinMaxMixedIsFloat(t *testing.T) {
	v := &Vm{}
	got, _, err := v.dispatchMathBuiltin(BuiltinMin, []Value{Int64(1), Float64(0.5)})
	if err != nil {
		t.Fatalf("min(1, 0.5): %v", err)
	}
	if got.Kind != KFloat64 || got.F != 0.5 {
		t.Errorf("min(1, 0.5) = %v, want Float64(0.5)", got)
	}
}

func TestDispatchMathBuiltinLogWithBase(t *testing.T) {
	v := &Vm{}
	got, _, err := v.dispatchMathBuiltin(BuiltinLog, []Value{Float64(2), Float64(8)})
	if err != nil {
		t.Fatalf("log(2, 8): %v", err)
	}
	if math.Abs(got.F-3) > 1e-9 {
		t.Errorf("log(2, 8) = %v, want 3", got.F)
	}
}

func TestDispatchMathBuiltinUnknownNotHandled(t *testing.T) {
	v := &Vm{}
	_, handled, _ := v.dispatchMathBuiltin(bytecode.BuiltinId(9999), nil)
	if handled {
		t.Errorf("unknown builtin id should not be handled by math group")
	}
}
