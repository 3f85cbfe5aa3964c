package vm

import (
	"math"
	"testing"
)

func TestDispatchLinalgBuiltinDot(t *testing.T) {
	v := &Vm{}
	a := Value{Kind: KArray, Arr: newArrayFrom(ElemF64, []Value{Float64(1), Float64(2), Float64(3)}, []int{3})}
	b := Value{Kind: KArray, Arr: newArrayFrom(ElemF64, []Value{Float64(4), Float64(5), Float64(6)}, []int{3})}
	got, _, err := v.dispatchLinalgBuiltin(BuiltinDot, []Value{a, b})
	if err != nil {
		t.Fatalf("dot: %v", err)
	}
	if got.F != 32 {
		t.Errorf("dot([1,2,3],[4,5,6]) = %v, want 32", got.F)
	}
}

func TestDispatchLinalgBuiltinNorm(t *testing.T) {
	v := &Vm{}
	a := Value{Kind: KArray, Arr: newArrayFrom(ElemF64, []Value{Float64(3), Float64(4)}, []int{2})}
	got, _, err := v.dispatchLinalgBuiltin(BuiltinNorm, []Value{a})
	if err != nil {
		t.Fatalf("norm: %v", err)
	}
	if math.Abs(got.F-5) > 1e-9 {
		t.Errorf("norm([3,4]) = %v, want 5", got.F)
	}
}

func TestDispatchLinalgBuiltinTranspose(t *testing.T) {
	v := &Vm{}
	shape := []int{2, 3}
	arr := NewArray(ElemF64, shape)
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			arr.Set(ColMajorIndex(shape, []int{r, c}), Float64(float64(r*10+c)))
		}
	}
	got, _, err := v.dispatchLinalgBuiltin(BuiltinTranspose, []Value{{Kind: KArray, Arr: arr}})
	if err != nil {
		t.Fatalf("transpose: %v", err)
	}
	outShape := got.Arr.Shape
	if outShape[0] != 3 || outShape[1] != 2 {
		t.Fatalf("transpose shape = %v, want [3 2]", outShape)
	}
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			want := float64(r*10 + c)
			gotVal := got.Arr.Get(ColMajorIndex([]int{3, 2}, []int{c, r})).F
			if gotVal != want {
				t.Errorf("transpose[%d][%d] = %v, want %v", c, r, gotVal, want)
			}
		}
	}
}

func TestDispatchLinalgBuiltinMatmul(t *testing.T) {
	v := &Vm{}
	shape := []int{2, 2}
	a := NewArray(ElemF64, shape)
	b := NewArray(ElemF64, shape)
	aVals := map[[2]int]float64{{0, 0}: 1, {1, 0}: 3, {0, 1}: 2, {1, 1}: 4}
	bVals := map[[2]int]float64{{0, 0}: 5, {1, 0}: 7, {0, 1}: 6, {1, 1}: 8}
	for idx, val := range aVals {
		a.Set(ColMajorIndex(shape, idx[:]), Float64(val))
	}
	for idx, val := range bVals {
		b.Set(ColMajorIndex(shape, idx[:]), Float64(val))
	}

	got, _, err := v.dispatchLinalgBuiltin(BuiltinMatmul, []Value{{Kind: KArray, Arr: a}, {Kind: KArray, Arr: b}})
	if err != nil {
		t.Fatalf("matmul: %v", err)
	}
	want := map[[2]int]float64{{0, 0}: 19, {1, 0}: 43, {0, 1}: 22, {1, 1}: 50}
	for idx, w := range want {
		g := got.Arr.Get(ColMajorIndex(shape, idx[:])).F
		if g != w {
			t.Errorf("matmul result[%v] = %v, want %v", idx, g, w)
		}
	}
}
