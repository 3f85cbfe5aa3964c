package vm

import (
	"testing"

	"juliacore/internal/dispatch"
)

func TestDispatchBuiltinUnknownIdIsNotImplemented(t *testing.T) {
	v := NewVm(&Program{Structs: dispatch.NewStructTable()})
	_, err := v.dispatchBuiltin(numBuiltins, nil)
	if err == nil {
		t.Fatalf("dispatchBuiltin(numBuiltins) should fail, every real id is claimed below numBuiltins")
	}
}

func TestDispatchBuiltinRunsFirstMatchingGroup(t *testing.T) {
	v := NewVm(&Program{Structs: dispatch.NewStructTable()})

	got, err := v.dispatchBuiltin(BuiltinSqrt, []Value{Float64(16)})
	if err != nil || got.F != 4 {
		t.Errorf("dispatchBuiltin(sqrt, 16) = %v, %v, want 4", got, err)
	}

	got, err = v.dispatchBuiltin(BuiltinLength, []Value{{Kind: KArray, Arr: NewArray(ElemF64, []int{5})}})
	if err != nil || got.I != 5 {
		t.Errorf("dispatchBuiltin(length, [5 zeros]) = %v, %v, want 5", got, err)
	}

	got, err = v.dispatchBuiltin(BuiltinUppercase, []Value{Str("hi")})
	if err != nil || got.S != "HI" {
		t.Errorf("dispatchBuiltin(uppercase, \"hi\") = %v, %v, want HI", got, err)
	}
}
