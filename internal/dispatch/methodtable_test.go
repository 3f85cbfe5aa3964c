package dispatch

import (
	"testing"

	"juliacore/internal/lattice"
)

func i64t() lattice.Type { return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindInt64}) }
func f64t() lattice.Type { return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindFloat64}) }
func anyt() lattice.Type { return lattice.Any }

func TestResolvePicksMostSpecific(t *testing.T) {
	mt := NewMethodTable()
	mt.Add(Method{Name: "f", ArgTypes: []lattice.Type{anyt()}, FuncIndex: 0})
	mt.Add(Method{Name: "f", ArgTypes: []lattice.Type{i64t()}, FuncIndex: 1})

	m, ok := mt.Resolve("f", []lattice.Type{i64t()})
	if !ok || m.FuncIndex != 1 {
		t.Fatalf("expected the Int64-specialized method to win, got %+v ok=%v", m, ok)
	}

	m, ok = mt.Resolve("f", []lattice.Type{f64t()})
	if !ok || m.FuncIndex != 0 {
		t.Fatalf("expected the Any fallback for Float64, got %+v ok=%v", m, ok)
	}
}

func TestResolveNoMatch(t *testing.T) {
	mt := NewMethodTable()
	mt.Add(Method{Name: "f", ArgTypes: []lattice.Type{i64t()}, FuncIndex: 0})
	if _, ok := mt.Resolve("f", []lattice.Type{i64t(), i64t()}); ok {
		t.Fatalf("expected arity mismatch to fail to resolve")
	}
}

func TestVarargsMatch(t *testing.T) {
	mt := NewMethodTable()
	mt.Add(Method{Name: "g", ArgTypes: []lattice.Type{i64t()}, Varargs: true, FuncIndex: 0})
	if _, ok := mt.Resolve("g", []lattice.Type{i64t(), i64t(), i64t()}); !ok {
		t.Fatalf("expected varargs method to absorb extra Int64 args")
	}
}

func TestDeclarationOrderTieBreak(t *testing.T) {
	mt := NewMethodTable()
	mt.Add(Method{Name: "h", ArgTypes: []lattice.Type{anyt()}, FuncIndex: 0})
	mt.Add(Method{Name: "h", ArgTypes: []lattice.Type{anyt()}, FuncIndex: 1})
	m, ok := mt.Resolve("h", []lattice.Type{i64t()})
	if !ok || m.FuncIndex != 0 {
		t.Fatalf("expected first-declared method to win tie, got %+v", m)
	}
}

func TestDispatchMonotonicity(t *testing.T) {
	mt := NewMethodTable()
	mt.Add(Method{Name: "f", ArgTypes: []lattice.Type{anyt()}, FuncIndex: 0})
	mt.Add(Method{Name: "f", ArgTypes: []lattice.Type{i64t()}, FuncIndex: 1})
	constThree := lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstInt64, I: 3})
	// Const(3) <: Int64 pointwise, so the method chosen for the more
	// precise argument must be at least as specific as for the wider one.
	if !mt.Monotone("f", []lattice.Type{constThree}, []lattice.Type{i64t()}) {
		t.Fatalf("dispatch should be monotone: Const(3) <: Int64 pointwise")
	}
}
