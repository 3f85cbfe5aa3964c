package vm

import "testing"

func TestDispatchArraysBuiltinZerosOnes(t *testing.T) {
	v := &Vm{}
	z, _, err := v.dispatchArraysBuiltin(BuiltinZeros, []Value{Int64(3)})
	if err != nil {
		t.Fatalf("zeros(3): %v", err)
	}
	if z.Arr.Len() != 3 || z.Arr.Get(0).F != 0 {
		t.Errorf("zeros(3) = %v, want [0,0,0]", z)
	}

	o, _, err := v.dispatchArraysBuiltin(BuiltinOnes, []Value{Int64(2)})
	if err != nil {
		t.Fatalf("ones(2): %v", err)
	}
	if o.Arr.Len() != 2 || o.Arr.Get(1).F != 1 {
		t.Errorf("ones(2) = %v, want [1,1]", o)
	}
}

func TestDispatchArraysBuiltinFill(t *testing.T) {
	v := &Vm{}
	got, _, err := v.dispatchArraysBuiltin(BuiltinFill, []Value{Int64(7), Int64(3)})
	if err != nil {
		t.Fatalf("fill(7, 3): %v", err)
	}
	if got.Arr.Len() != 3 || got.Arr.Get(2).I != 7 {
		t.Errorf("fill(7, 3) = %v, want [7,7,7]", got)
	}
}

func TestDispatchArraysBuiltinSizeAndNdims(t *testing.T) {
	v := &Vm{}
	arr := Value{Kind: KArray, Arr: NewArray(ElemF64, []int{2, 3})}

	sz, _, err := v.dispatchArraysBuiltin(BuiltinSize, []Value{arr})
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if sz.Kind != KTuple || len(sz.Tup) != 2 || sz.Tup[0].I != 2 || sz.Tup[1].I != 3 {
		t.Errorf("size(2x3 array) = %v, want (2,3)", sz)
	}

	nd, _, err := v.dispatchArraysBuiltin(BuiltinNdims, []Value{arr})
	if err != nil {
		t.Fatalf("ndims: %v", err)
	}
	if nd.I != 2 {
		t.Errorf("ndims(2x3 array) = %v, want 2", nd)
	}
}

func TestDispatchArraysBuiltinVcatConcatenates(t *testing.T) {
	v := &Vm{}
	a := Value{Kind: KArray, Arr: newArrayFrom(ElemI64, []Value{Int64(1), Int64(2)}, []int{2})}
	b := Value{Kind: KArray, Arr: newArrayFrom(ElemI64, []Value{Int64(3)}, []int{1})}
	got, _, err := v.dispatchArraysBuiltin(BuiltinVcat, []Value{a, b})
	if err != nil {
		t.Fatalf("vcat: %v", err)
	}
	if got.Arr.Len() != 3 || got.Arr.Get(2).I != 3 {
		t.Errorf("vcat([1,2], [3]) = %v, want [1,2,3]", got)
	}
}

func TestDispatchArraysBuiltinMakeRange(t *testing.T) {
	v := &Vm{}
	got, _, err := v.dispatchArraysBuiltin(BuiltinMakeRange, []Value{Int64(1), Int64(5)})
	if err != nil {
		t.Fatalf("__make_range(1,5): %v", err)
	}
	if got.Kind != KRange || got.Rng.Len() != 5 {
		t.Errorf("__make_range(1,5) = %v, want a 5-element range", got)
	}
}
