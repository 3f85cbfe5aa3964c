package vm

import "testing"

func TestDispatchCollectionsBuiltinLength(t *testing.T) {
	v := &Vm{}
	arr := Value{Kind: KArray, Arr: newArrayFrom(ElemI64, []Value{Int64(1), Int64(2), Int64(3)}, []int{3})}
	got, _, err := v.dispatchCollectionsBuiltin(BuiltinLength, []Value{arr})
	if err != nil {
		t.Fatalf("length: %v", err)
	}
	if got.I != 3 {
		t.Errorf("length([1,2,3]) = %v, want 3", got)
	}
}

func TestDispatchCollectionsBuiltinPushPopBang(t *testing.T) {
	v := &Vm{}
	arr := Value{Kind: KArray, Arr: newArrayFrom(ElemI64, []Value{Int64(1)}, []int{1})}

	pushed, _, err := v.dispatchCollectionsBuiltin(BuiltinPushBang, []Value{arr, Int64(2)})
	if err != nil {
		t.Fatalf("push!: %v", err)
	}
	if pushed.Arr.Len() != 2 || pushed.Arr.Get(1).I != 2 {
		t.Errorf("push!([1], 2) = %v, want [1,2]", pushed)
	}

	popped, _, err := v.dispatchCollectionsBuiltin(BuiltinPopBang, []Value{arr})
	if err != nil {
		t.Fatalf("pop!: %v", err)
	}
	if popped.I != 2 || arr.Arr.Len() != 1 {
		t.Errorf("pop! returned %v and left len %d, want 2 and len 1", popped, arr.Arr.Len())
	}
}

func TestDispatchCollectionsBuiltinReverse(t *testing.T) {
	v := &Vm{}
	arr := Value{Kind: KArray, Arr: newArrayFrom(ElemI64, []Value{Int64(1), Int64(2), Int64(3)}, []int{3})}
	got, _, err := v.dispatchCollectionsBuiltin(BuiltinReverse, []Value{arr})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if got.Arr.Get(0).I != 3 || got.Arr.Get(2).I != 1 {
		t.Errorf("reverse([1,2,3]) = %v, want [3,2,1]", got)
	}
}

func TestDispatchCollectionsBuiltinSort(t *testing.T) {
	v := &Vm{}
	arr := Value{Kind: KArray, Arr: newArrayFrom(ElemI64, []Value{Int64(3), Int64(1), Int64(2)}, []int{3})}
	got, _, err := v.dispatchCollectionsBuiltin(BuiltinSort, []Value{arr})
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if got.Arr.Get(0).I != 1 || got.Arr.Get(1).I != 2 || got.Arr.Get(2).I != 3 {
		t.Errorf("sort([3,1,2]) = %v, want [1,2,3]", got)
	}
	if arr.Arr.Get(0).I != 3 {
		t.Errorf("non-bang sort mutated the original array")
	}
}

func TestDispatchCollectionsBuiltinSortBangMutatesInPlace(t *testing.T) {
	v := &Vm{}
	arr := Value{Kind: KArray, Arr: newArrayFrom(ElemI64, []Value{Int64(3), Int64(1), Int64(2)}, []int{3})}
	_, _, err := v.dispatchCollectionsBuiltin(BuiltinSortBang, []Value{arr})
	if err != nil {
		t.Fatalf("sort!: %v", err)
	}
	if arr.Arr.Get(0).I != 1 {
		t.Errorf("sort! should mutate in place, got %v", arr)
	}
}

func TestDispatchCollectionsBuiltinZip(t *testing.T) {
	v := &Vm{}
	a := Value{Kind: KArray, Arr: newArrayFrom(ElemI64, []Value{Int64(1), Int64(2)}, []int{2})}
	b := Value{Kind: KArray, Arr: newArrayFrom(ElemI64, []Value{Int64(10), Int64(20), Int64(30)}, []int{3})}
	got, _, err := v.dispatchCollectionsBuiltin(BuiltinZip, []Value{a, b})
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	if got.Arr.Len() != 2 {
		t.Fatalf("zip should clamp to shorter collection, got len %d", got.Arr.Len())
	}
	pair := got.Arr.Get(1)
	if pair.Tup[0].I != 2 || pair.Tup[1].I != 20 {
		t.Errorf("zip[1] = %v, want (2, 20)", pair.Tup)
	}
}

func TestDispatchCollectionsBuiltinEnumerateIsOneIndexed(t *testing.T) {
	v := &Vm{}
	arr := Value{Kind: KArray, Arr: newArrayFrom(ElemString, []Value{Str("a"), Str("b")}, []int{2})}
	got, _, err := v.dispatchCollectionsBuiltin(BuiltinEnumerate, []Value{arr})
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	first := got.Arr.Get(0)
	if first.Tup[0].I != 1 || first.Tup[1].S != "a" {
		t.Errorf("enumerate[0] = %v, want (1, \"a\")", first.Tup)
	}
}

func TestDispatchCollectionsBuiltinCollectRange(t *testing.T) {
	v := &Vm{}
	rng := Value{Kind: KRange, Rng: &RangeValue{Start: 1, Stop: 3, Step: 1}}
	got, _, err := v.dispatchCollectionsBuiltin(BuiltinCollect, []Value{rng})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got.Arr.Len() != 3 || got.Arr.Get(0).I != 1 || got.Arr.Get(2).I != 3 {
		t.Errorf("collect(1:3) = %v, want [1,2,3]", got)
	}
}
