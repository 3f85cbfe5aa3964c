package vm

import "testing"

func TestDispatchDictSetBuiltinGetAndHaskey(t *testing.T) {
	v := &Vm{}
	d := NewDict("String", "Int64")
	d.Set(Str("a"), Int64(1))
	dv := Value{Kind: KDict, Dict: d}

	got, _, err := v.dispatchDictSetBuiltin(BuiltinGet, []Value{dv, Str("a")})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.I != 1 {
		t.Errorf("get(d, \"a\") = %v, want 1", got)
	}

	def, _, err := v.dispatchDictSetBuiltin(BuiltinGet, []Value{dv, Str("missing"), Int64(-1)})
	if err != nil {
		t.Fatalf("get with default: %v", err)
	}
	if def.I != -1 {
		t.Errorf("get(d, missing, -1) = %v, want -1", def)
	}

	has, _, err := v.dispatchDictSetBuiltin(BuiltinHaskey, []Value{dv, Str("a")})
	if err != nil || !has.IsTruthy() {
		t.Errorf("haskey(d, \"a\") should be true, err=%v", err)
	}
}

func TestDispatchDictSetBuiltinKeysValues(t *testing.T) {
	v := &Vm{}
	d := NewDict("String", "Int64")
	d.Set(Str("a"), Int64(1))
	d.Set(Str("b"), Int64(2))
	dv := Value{Kind: KDict, Dict: d}

	keys, _, err := v.dispatchDictSetBuiltin(BuiltinKeys, []Value{dv})
	if err != nil || keys.Arr.Len() != 2 {
		t.Fatalf("keys: err=%v len=%v", err, keys)
	}
	values, _, err := v.dispatchDictSetBuiltin(BuiltinValues, []Value{dv})
	if err != nil || values.Arr.Len() != 2 {
		t.Fatalf("values: err=%v len=%v", err, values)
	}
}

func TestDispatchDictSetBuiltinDeleteBang(t *testing.T) {
	v := &Vm{}
	s := NewSet("Int64")
	s.Add(Int64(1))
	s.Add(Int64(2))
	sv := Value{Kind: KSet, Set: s}

	_, _, err := v.dispatchDictSetBuiltin(BuiltinDeleteBang, []Value{sv, Int64(1)})
	if err != nil {
		t.Fatalf("delete!: %v", err)
	}
	if s.Has(Int64(1)) {
		t.Errorf("delete!(set, 1) should remove 1")
	}
	if !s.Has(Int64(2)) {
		t.Errorf("delete!(set, 1) should leave 2")
	}
}
