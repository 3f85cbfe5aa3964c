package lattice

import "testing"

func i64() Type  { return Concrete(ConcreteType{Kind: KindInt64}) }
func f64() Type  { return Concrete(ConcreteType{Kind: KindFloat64}) }
func str() Type  { return Concrete(ConcreteType{Kind: KindString}) }
func constI(n int64) Type { return ConstOf(ConstValue{Kind: ConstInt64, I: n}) }

func TestJoinCommutative(t *testing.T) {
	cases := []Type{Bottom, Top, i64(), f64(), str(), constI(3)}
	for _, a := range cases {
		for _, b := range cases {
			got := Join(a, b).String()
			want := Join(b, a).String()
			if got != want {
				t.Errorf("join(%v,%v)=%v != join(%v,%v)=%v", a, b, got, b, a, want)
			}
		}
	}
}

func TestJoinIdempotent(t *testing.T) {
	for _, a := range []Type{Bottom, Top, i64(), f64(), constI(3)} {
		if Join(a, a).String() != a.Widen().String() && Join(a, a).String() != a.String() {
			t.Errorf("join(%v,%v) not idempotent: got %v", a, a, Join(a, a))
		}
	}
}

func TestBottomIdentityForJoin(t *testing.T) {
	for _, a := range []Type{i64(), f64(), str(), constI(9)} {
		if Join(Bottom, a).String() != a.String() {
			t.Errorf("Bottom.join(%v) = %v, want %v", a, Join(Bottom, a), a)
		}
	}
}

func TestTopIdentityForMeet(t *testing.T) {
	for _, a := range []Type{i64(), f64(), str()} {
		if Meet(Top, a).String() != a.String() {
			t.Errorf("Top.meet(%v) = %v, want %v", a, Meet(Top, a), a)
		}
	}
}

func TestSubtypeViaJoin(t *testing.T) {
	// a <= b iff a.join(b) == b
	a, b := constI(5), i64()
	if !IsSubtypeOf(a, b) {
		t.Fatalf("expected Const(5) <: Int64")
	}
	if Join(a, b).String() != b.String() {
		t.Errorf("join(%v,%v) = %v, want %v", a, b, Join(a, b), b)
	}
}

func TestConstLiftsToConcrete(t *testing.T) {
	c := constI(42)
	if !IsSubtypeOf(c, i64()) {
		t.Fatalf("Const(42) should be subtype of Int64")
	}
	if IsSubtypeOf(i64(), c) {
		t.Fatalf("Int64 should not be subtype of Const(42)")
	}
}

func TestBottomLEQEverything(t *testing.T) {
	for _, a := range []Type{Top, i64(), f64(), str(), constI(1)} {
		if !IsSubtypeOf(Bottom, a) {
			t.Errorf("Bottom should be <: %v", a)
		}
	}
}

func TestTopGEQEverything(t *testing.T) {
	for _, a := range []Type{Bottom, i64(), f64(), str(), constI(1)} {
		if !IsSubtypeOf(a, Top) {
			t.Errorf("%v should be <: Top", a)
		}
	}
}

func TestNumericWidening(t *testing.T) {
	i8 := Concrete(ConcreteType{Kind: KindInt8})
	got := Join(i8, i64())
	if got.String() != "Int64" {
		t.Errorf("join(Int8,Int64) = %v, want Int64", got)
	}
}

func TestIntFloatJoinPromotesToFloat(t *testing.T) {
	got := Join(i64(), f64())
	if got.String() != "Float64" {
		t.Errorf("join(Int64,Float64) = %v, want Float64", got)
	}
}

func TestArrayElementJoin(t *testing.T) {
	ai := Concrete(ConcreteType{Kind: KindArray, Elem: &ConcreteType{Kind: KindInt64}})
	af := Concrete(ConcreteType{Kind: KindArray, Elem: &ConcreteType{Kind: KindFloat64}})
	got := Join(ai, af)
	want := "Array{Float64}"
	if got.String() != want {
		t.Errorf("join(Array{Int64},Array{Float64}) = %v, want %v", got, want)
	}
}

func TestStructCanonicalName(t *testing.T) {
	pt := ConcreteType{Kind: KindStruct, Name: "Point", TypeArgs: []ConcreteType{{Kind: KindInt64}}}
	if pt.CanonicalName() != "Point{Int64}" {
		t.Errorf("canonical name = %q, want Point{Int64}", pt.CanonicalName())
	}
}

func TestMeetIsLowerBound(t *testing.T) {
	a, b := i64(), f64()
	m := Meet(a, b)
	if !IsSubtypeOf(m, a) || !IsSubtypeOf(m, b) {
		t.Errorf("meet(%v,%v)=%v is not a lower bound", a, b, m)
	}
}
