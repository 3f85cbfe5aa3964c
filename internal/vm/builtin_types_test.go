package vm

import (
	"strings"
	"testing"

	"juliacore/internal/dispatch"
	"juliacore/internal/lattice"
)

func TestDispatchTypesBuiltinIsa(t *testing.T) {
	v := &Vm{}
	got, handled, err := v.dispatchTypesBuiltin(BuiltinIsa, []Value{Int64(1), {Kind: KDataType, DType: &DataTypeValue{Name: "Int64"}}})
	if err != nil || !handled {
		t.Fatalf("isa(1, Int64): handled=%v err=%v", handled, err)
	}
	if !got.IsTruthy() {
		t.Errorf("isa(1, Int64) should be true")
	}
}

func TestDispatchTypesBuiltinNameof(t *testing.T) {
	v := &Vm{}
	got, _, err := v.dispatchTypesBuiltin(BuiltinNameof, []Value{Int64(1)})
	if err != nil {
		t.Fatalf("nameof(1): %v", err)
	}
	if got.Kind != KSymbol || got.S != "Int64" {
		t.Errorf("nameof(1) = %v, want :Int64", got)
	}
}

func TestDispatchTypesBuiltinFieldnames(t *testing.T) {
	st := dispatch.NewStructTable()
	typeID := st.Intern(dispatch.StructInfo{
		Name: "Point",
		Fields: []dispatch.FieldInfo{
			{Name: "x", Type: lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindFloat64})},
			{Name: "y", Type: lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindFloat64})},
		},
	})
	v := NewVm(&Program{Structs: st, Globals: nil})
	structVal := Value{Kind: KStruct, Struct: &StructValue{TypeID: typeID}}

	got, _, err := v.dispatchTypesBuiltin(BuiltinFieldnames, []Value{structVal})
	if err != nil {
		t.Fatalf("fieldnames: %v", err)
	}
	if got.Kind != KTuple || len(got.Tup) != 2 || got.Tup[0].S != "x" || got.Tup[1].S != "y" {
		t.Errorf("fieldnames(Point) = %v, want (:x, :y)", got.Tup)
	}
}

func TestDispatchTypesBuiltinGensymIsHygienic(t *testing.T) {
	v := NewVm(&Program{Structs: dispatch.NewStructTable()})
	a, _, err := v.dispatchTypesBuiltin(BuiltinGensym, []Value{Str("tmp")})
	if err != nil {
		t.Fatalf("gensym: %v", err)
	}
	b, _, _ := v.dispatchTypesBuiltin(BuiltinGensym, []Value{Str("tmp")})
	if a.S == b.S {
		t.Errorf("gensym(\"tmp\") returned the same name twice: %q", a.S)
	}
	if !strings.Contains(a.S, "tmp") {
		t.Errorf("gensym(\"tmp\") = %q, want it to retain the base name", a.S)
	}
}

func TestDispatchTypesBuiltinSymbolOfRuntimeConversion(t *testing.T) {
	v := &Vm{}
	got, _, err := v.dispatchTypesBuiltin(BuiltinSymbolOf, []Value{Str("abc")})
	if err != nil {
		t.Fatalf("Symbol(\"abc\"): %v", err)
	}
	if got.Kind != KSymbol || got.S != "abc" {
		t.Errorf("Symbol(\"abc\") = %v, want :abc", got)
	}
}
