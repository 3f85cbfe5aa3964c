package vm

import (
	"testing"

	"juliacore/internal/bytecode"
)

func TestExecBinaryIntrinsicPowI64ExactForNonNegativeExponent(t *testing.T) {
	v := NewVm(&Program{})
	v.push(Int64(3))
	v.push(Int64(4))
	if err := v.execBinaryIntrinsic(bytecode.OpPowI64); err != nil {
		t.Fatalf("execBinaryIntrinsic: %v", err)
	}
	got := v.pop()
	if got.Kind != KInt64 || got.I != 81 {
		t.Errorf("3^4 = %v, want Int64(81)", got)
	}
}

func TestExecBinaryIntrinsicPowI64NegativeExponentPromotesToFloat(t *testing.T) {
	v := NewVm(&Program{})
	v.push(Int64(2))
	v.push(Int64(-1))
	if err := v.execBinaryIntrinsic(bytecode.OpPowI64); err != nil {
		t.Fatalf("execBinaryIntrinsic: %v", err)
	}
	got := v.pop()
	if got.Kind != KFloat64 || got.F != 0.5 {
		t.Errorf("2^(-1) = %v, want Float64(0.5)", got)
	}
}

func TestIntPowIsExactBeyondFloat64Mantissa(t *testing.T) {
	got := intPow(3, 36)
	want := int64(150094635296999121)
	if got != want {
		t.Errorf("intPow(3, 36) = %d, want %d", got, want)
	}
}

func TestGenericBinaryOpPowKeepsIntKindForIntOperands(t *testing.T) {
	got, err := genericBinaryOp("^", Int64(2), Int64(10))
	if err != nil {
		t.Fatalf("genericBinaryOp: %v", err)
	}
	if got.Kind != KInt64 || got.I != 1024 {
		t.Errorf("2^10 = %v, want Int64(1024)", got)
	}
}

func TestGenericBinaryOpPowNegativeExponentIsFloat(t *testing.T) {
	got, err := genericBinaryOp("^", Int64(2), Int64(-1))
	if err != nil {
		t.Fatalf("genericBinaryOp: %v", err)
	}
	if got.Kind != KFloat64 || got.F != 0.5 {
		t.Errorf("2^(-1) = %v, want Float64(0.5)", got)
	}
}

func TestGenericBinaryOpPowFloatOperandStaysFloat(t *testing.T) {
	got, err := genericBinaryOp("^", Float64(2), Int64(3))
	if err != nil {
		t.Fatalf("genericBinaryOp: %v", err)
	}
	if got.Kind != KFloat64 || got.F != 8 {
		t.Errorf("2.0^3 = %v, want Float64(8)", got)
	}
}
