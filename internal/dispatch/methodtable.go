// Package dispatch holds the method table, struct table and the
// specificity ordering multiple dispatch uses at both compile time and
// run time (spec §4.1, §4.4). The compiler builds these tables; the VM
// and the inference engine both consult them read-only, which is why
// they live in their own package rather than inside internal/compiler or
// internal/vm.
package dispatch

import (
	"sort"

	"golang.org/x/exp/slices"

	"juliacore/internal/core"
	"juliacore/internal/lattice"
)

// Method is one entry in a function's method table: concrete argument
// types (Any when unannotated), an optional varargs tail, a return type,
// and the compiled function it resolves to.
type Method struct {
	Name       string
	ArgTypes   []lattice.Type
	Varargs    bool // last ArgTypes entry is the varargs element type
	ReturnType lattice.Type
	FuncIndex  int
	DeclOrder  int // position in the table; breaks specificity ties (spec §4.1)
}

// Arity reports the number of declared parameter types. A non-varargs
// method matches exactly Arity arguments; a varargs method, whose last
// entry is the tail's element type, matches Arity-1 or more.
func (m Method) Arity() int {
	return len(m.ArgTypes)
}

// MethodTable is the compile-time-built, name-keyed table of all methods
// in a program, shared by the compiler (construction), VM (runtime
// dispatch) and inference engine (static dispatch).
type MethodTable struct {
	byName map[string][]Method
	// types is the abstract-type subtyping index (spec §4.1, §4.4):
	// when a declared parameter type names a user abstract type, struct
	// <: abstract resolution walks this index rather than relying on
	// lattice.ConcreteSubtype's name equality.
	types *core.TypeIndex
}

func NewMethodTable() *MethodTable {
	return &MethodTable{byName: make(map[string][]Method)}
}

// NewMethodTableWithIndex builds a MethodTable that consults idx for
// struct/abstract-type subtyping during dispatch.
func NewMethodTableWithIndex(idx *core.TypeIndex) *MethodTable {
	return &MethodTable{byName: make(map[string][]Method), types: idx}
}

// SetTypeIndex attaches (or replaces) the abstract-type index used for
// struct <: abstract resolution.
func (mt *MethodTable) SetTypeIndex(idx *core.TypeIndex) {
	mt.types = idx
}

// subtypeOf is IsSubtypeOf augmented with the abstract-type parent chain:
// two distinct Struct-kind names are still a match if the index says the
// first is-a the second.
func (mt *MethodTable) subtypeOf(a, b lattice.Type) bool {
	if lattice.IsSubtypeOf(a, b) {
		return true
	}
	if mt.types == nil {
		return false
	}
	ac, aok := a.AsConcrete()
	bc, bok := b.AsConcrete()
	if !aok || !bok || ac.Kind != lattice.KindStruct || bc.Kind != lattice.KindStruct {
		return false
	}
	return mt.types.IsA(ac.Name, bc.Name)
}

// Add appends a method to its name's list, in declaration order. Module-
// prefixed names (spec §4.1 "Base.X") are expected to have already been
// normalized to their bare name by the caller before Add is invoked, so
// that `Base.sin` and `sin` share one table entry.
func (mt *MethodTable) Add(m Method) {
	m.DeclOrder = len(mt.byName[m.Name])
	mt.byName[m.Name] = append(mt.byName[m.Name], m)
}

// Methods returns the method list for name in declaration order.
func (mt *MethodTable) Methods(name string) []Method {
	return mt.byName[name]
}

// Names returns every function name with at least one method, sorted for
// deterministic iteration (diagnostics, bytecode serialization).
func (mt *MethodTable) Names() []string {
	names := make([]string, 0, len(mt.byName))
	for n := range mt.byName {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// moreSpecific reports whether a is strictly more specific than b: every
// one of a's argument types is a subtype of the corresponding argument of
// b, and at least one is a strict subtype (spec §4.1).
func (mt *MethodTable) moreSpecific(a, b Method) bool {
	if a.Arity() != b.Arity() {
		// Varargs methods are considered less specific than any
		// fixed-arity method that also matches, so that exact-arity
		// overloads win over a catch-all varargs method.
		if a.Varargs != b.Varargs {
			return !a.Varargs
		}
		return false
	}
	strict := false
	for i := range a.ArgTypes {
		at, bt := a.ArgTypes[i], b.ArgTypes[i]
		if !mt.subtypeOf(at, bt) {
			return false
		}
		if at.String() != bt.String() {
			strict = true
		}
	}
	return strict
}

// matches reports whether argTypes satisfies m: same arity (or, for a
// varargs method, at least the fixed prefix's arity) with every
// argument a subtype of the corresponding declared parameter type.
func (mt *MethodTable) matches(m Method, argTypes []lattice.Type) bool {
	if m.Varargs {
		fixed := m.Arity() - 1
		if len(argTypes) < fixed {
			return false
		}
		for i := 0; i < fixed; i++ {
			if !mt.subtypeOf(argTypes[i], m.ArgTypes[i]) {
				return false
			}
		}
		tailType := m.ArgTypes[fixed]
		for i := fixed; i < len(argTypes); i++ {
			if !mt.subtypeOf(argTypes[i], tailType) {
				return false
			}
		}
		return true
	}
	if len(argTypes) != m.Arity() {
		return false
	}
	for i, t := range argTypes {
		if !mt.subtypeOf(t, m.ArgTypes[i]) {
			return false
		}
	}
	return true
}

// Resolve performs most-specific-first dispatch: it collects every
// method whose declared parameter types are satisfied by argTypes
// (dispatch strips Const(...) to concrete first — callers are expected
// to pass already-widened types, spec §4.4), then returns the one that
// is more specific than every other candidate, breaking ties by
// declaration order (spec §4.1, stable).
func (mt *MethodTable) Resolve(name string, argTypes []lattice.Type) (Method, bool) {
	candidates := make([]Method, 0, 4)
	for _, m := range mt.byName[name] {
		if mt.matches(m, argTypes) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return Method{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if mt.moreSpecific(candidates[i], candidates[j]) {
			return true
		}
		if mt.moreSpecific(candidates[j], candidates[i]) {
			return false
		}
		return candidates[i].DeclOrder < candidates[j].DeclOrder
	})
	best := candidates[0]
	for _, c := range candidates[1:] {
		if !mt.moreSpecific(best, c) && !mt.moreSpecific(c, best) && c.DeclOrder < best.DeclOrder {
			best = c
		}
	}
	return best, true
}

// Monotone reports, for testing the dispatch-monotonicity property (spec
// §8): given two argument-type vectors where lo[i] <: hi[i] pointwise,
// whether the method chosen for lo is at least as specific as the one
// chosen for hi.
func (mt *MethodTable) Monotone(name string, lo, hi []lattice.Type) bool {
	mLo, okLo := mt.Resolve(name, lo)
	mHi, okHi := mt.Resolve(name, hi)
	if !okLo || !okHi {
		return true
	}
	return mt.moreSpecific(mLo, mHi) || mLo.DeclOrder == mHi.DeclOrder || !mt.moreSpecific(mHi, mLo)
}
