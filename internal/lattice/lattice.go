// Package lattice implements the static type lattice used by the compiler
// and the inference engine: Top/Bottom/Concrete/Const, with join, meet and
// subtype relations.
package lattice

import (
	"fmt"
	"sort"
	"strings"
)

// ConcreteKind enumerates the fully named concrete types of the lattice.
type ConcreteKind int

const (
	KindInt8 ConcreteKind = iota
	KindInt16
	KindInt32
	KindInt64
	KindInt128
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindUInt128
	KindFloat16
	KindFloat32
	KindFloat64
	KindBool
	KindChar
	KindString
	KindNothing
	KindMissing
	KindSymbol
	KindArray
	KindRange
	KindTuple
	KindStruct
	KindUnion
	KindAny
)

func (k ConcreteKind) String() string {
	switch k {
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindInt128:
		return "Int128"
	case KindUInt8:
		return "UInt8"
	case KindUInt16:
		return "UInt16"
	case KindUInt32:
		return "UInt32"
	case KindUInt64:
		return "UInt64"
	case KindUInt128:
		return "UInt128"
	case KindFloat16:
		return "Float16"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindBool:
		return "Bool"
	case KindChar:
		return "Char"
	case KindString:
		return "String"
	case KindNothing:
		return "Nothing"
	case KindMissing:
		return "Missing"
	case KindSymbol:
		return "Symbol"
	case KindArray:
		return "Array"
	case KindRange:
		return "Range"
	case KindTuple:
		return "Tuple"
	case KindStruct:
		return "Struct"
	case KindUnion:
		return "Union"
	case KindAny:
		return "Any"
	}
	return "Unknown"
}

// isIntKind / isUIntKind / isFloatKind classify the numeric concrete kinds;
// used by the numeric-width join table.
func isIntKind(k ConcreteKind) bool {
	return k >= KindInt8 && k <= KindInt128
}

func isUIntKind(k ConcreteKind) bool {
	return k >= KindUInt8 && k <= KindUInt128
}

func isFloatKind(k ConcreteKind) bool {
	return k >= KindFloat16 && k <= KindFloat64
}

func intWidth(k ConcreteKind) int {
	switch k {
	case KindInt8, KindUInt8:
		return 8
	case KindInt16, KindUInt16:
		return 16
	case KindInt32, KindUInt32:
		return 32
	case KindInt64, KindUInt64:
		return 64
	case KindInt128, KindUInt128:
		return 128
	}
	return 0
}

func floatWidth(k ConcreteKind) int {
	switch k {
	case KindFloat16:
		return 16
	case KindFloat32:
		return 32
	case KindFloat64:
		return 64
	}
	return 0
}

// ConcreteType is a fully named concrete type: a scalar kind, or a
// structural kind (Array/Range/Tuple/Struct/Union) carrying nested types.
type ConcreteType struct {
	Kind     ConcreteKind
	Elem     *ConcreteType  // Array, Range element type
	Elems    []ConcreteType // Tuple element types, Union variants
	Name     string         // Struct base name ("Point")
	TypeArgs []ConcreteType // Struct type arguments (for Point{Int64})
}

// CanonicalName formats a struct/parametric name the way the compiler's
// struct table keys instantiations: "Base{Arg1, Arg2}".
func (c ConcreteType) CanonicalName() string {
	if c.Kind != KindStruct {
		return c.Kind.String()
	}
	if len(c.TypeArgs) == 0 {
		return c.Name
	}
	parts := make([]string, len(c.TypeArgs))
	for i, a := range c.TypeArgs {
		parts[i] = a.CanonicalName()
	}
	return fmt.Sprintf("%s{%s}", c.Name, strings.Join(parts, ", "))
}

func (c ConcreteType) String() string {
	switch c.Kind {
	case KindArray:
		if c.Elem != nil {
			return fmt.Sprintf("Array{%s}", c.Elem.String())
		}
		return "Array"
	case KindRange:
		if c.Elem != nil {
			return fmt.Sprintf("Range{%s}", c.Elem.String())
		}
		return "Range"
	case KindTuple:
		parts := make([]string, len(c.Elems))
		for i, e := range c.Elems {
			parts[i] = e.String()
		}
		return fmt.Sprintf("Tuple{%s}", strings.Join(parts, ", "))
	case KindUnion:
		parts := make([]string, len(c.Elems))
		for i, e := range c.Elems {
			parts[i] = e.String()
		}
		return fmt.Sprintf("Union{%s}", strings.Join(parts, ", "))
	case KindStruct:
		return c.CanonicalName()
	default:
		return c.Kind.String()
	}
}

// ConstKind enumerates the singleton-constant kinds that lattice.Const
// values carry.
type ConstKind int

const (
	ConstInt64 ConstKind = iota
	ConstFloat64
	ConstBool
	ConstString
	ConstSymbol
	ConstNothing
)

// ConstValue is a singleton constant lifted into the lattice: Const(c) is
// more precise than Concrete(typeof(c)).
type ConstValue struct {
	Kind ConstKind
	I    int64
	F    float64
	B    bool
	S    string
}

func (c ConstValue) String() string {
	switch c.Kind {
	case ConstInt64:
		return fmt.Sprintf("%d", c.I)
	case ConstFloat64:
		return fmt.Sprintf("%g", c.F)
	case ConstBool:
		return fmt.Sprintf("%t", c.B)
	case ConstString:
		return fmt.Sprintf("%q", c.S)
	case ConstSymbol:
		return ":" + c.S
	case ConstNothing:
		return "nothing"
	}
	return "?"
}

// TypeOf returns the ConcreteType that a constant widens to.
func (c ConstValue) TypeOf() ConcreteType {
	switch c.Kind {
	case ConstInt64:
		return ConcreteType{Kind: KindInt64}
	case ConstFloat64:
		return ConcreteType{Kind: KindFloat64}
	case ConstBool:
		return ConcreteType{Kind: KindBool}
	case ConstString:
		return ConcreteType{Kind: KindString}
	case ConstSymbol:
		return ConcreteType{Kind: KindSymbol}
	case ConstNothing:
		return ConcreteType{Kind: KindNothing}
	}
	return ConcreteType{Kind: KindAny}
}

// Tag discriminates the four-way disjoint union that is LatticeType.
type Tag int

const (
	TagBottom Tag = iota
	TagTop
	TagConcrete
	TagConst
)

// Type is the lattice element: Top, Bottom, Concrete(ConcreteType), or
// Const(ConstValue). Zero value is Bottom.
type Type struct {
	Tag      Tag
	Concrete ConcreteType
	Const    ConstValue
}

var (
	Bottom = Type{Tag: TagBottom}
	Top    = Type{Tag: TagTop}
	Any    = Concrete(ConcreteType{Kind: KindAny})
)

// Concrete lifts a ConcreteType into the lattice.
func Concrete(c ConcreteType) Type { return Type{Tag: TagConcrete, Concrete: c} }

// ConstOf lifts a ConstValue into the lattice.
func ConstOf(c ConstValue) Type { return Type{Tag: TagConst, Const: c} }

func (t Type) String() string {
	switch t.Tag {
	case TagBottom:
		return "Bottom"
	case TagTop:
		return "Any"
	case TagConcrete:
		return t.Concrete.String()
	case TagConst:
		return fmt.Sprintf("Const(%s)", t.Const.String())
	}
	return "?"
}

// Widen strips a Type down to its Concrete form, discarding Const
// precision. Top and Bottom are unaffected.
func (t Type) Widen() Type {
	if t.Tag == TagConst {
		return Concrete(t.Const.TypeOf())
	}
	return t
}

// AsConcrete returns the ConcreteType this lattice value lifts to, widening
// Const if necessary. Top widens to Any; Bottom has no concrete form and
// the second return is false.
func (t Type) AsConcrete() (ConcreteType, bool) {
	switch t.Tag {
	case TagConcrete:
		return t.Concrete, true
	case TagConst:
		return t.Const.TypeOf(), true
	case TagTop:
		return ConcreteType{Kind: KindAny}, true
	default:
		return ConcreteType{}, false
	}
}

// IsSubtypeOf implements `<:` in the lattice: Bottom <= everything,
// everything <= Top, Const(c) <= Concrete(typeof c).
func IsSubtypeOf(a, b Type) bool {
	if a.Tag == TagBottom {
		return true
	}
	if b.Tag == TagTop {
		return true
	}
	if b.Tag == TagBottom {
		return a.Tag == TagBottom
	}
	if a.Tag == TagTop {
		return false
	}
	if b.Tag == TagConst {
		return a.Tag == TagConst && constEqual(a.Const, b.Const)
	}
	ac, _ := a.AsConcrete()
	bc, _ := b.AsConcrete()
	return ConcreteSubtype(ac, bc)
}

// ConcreteSubtype decides a <: b for two fully concrete types: everything
// is a subtype of Any; Array, Range and Tuple compare their elements
// covariantly; a type is a subtype of a Union when it is a subtype of one
// of its variants, and a Union is a subtype of b when every variant is.
// Distinct kinds are otherwise unrelated (there is no relation between
// numeric widths), and two structs relate only when their names match and
// their type arguments relate. Abstract-type parents are not consulted
// here; dispatch.MethodTable and core.TypeIndex layer that on top.
func ConcreteSubtype(a, b ConcreteType) bool {
	if b.Kind == KindAny {
		return true
	}
	if a.Kind == KindAny {
		return b.Kind == KindAny
	}
	if a.Kind == b.Kind {
		switch a.Kind {
		case KindArray, KindRange:
			if a.Elem == nil || b.Elem == nil {
				return a.Elem == b.Elem
			}
			return ConcreteSubtype(*a.Elem, *b.Elem)
		case KindTuple:
			if len(a.Elems) != len(b.Elems) {
				return false
			}
			for i := range a.Elems {
				if !ConcreteSubtype(a.Elems[i], b.Elems[i]) {
					return false
				}
			}
			return true
		case KindStruct:
			if a.Name != b.Name {
				return false
			}
			if len(a.TypeArgs) != len(b.TypeArgs) {
				return false
			}
			for i := range a.TypeArgs {
				if !ConcreteSubtype(a.TypeArgs[i], b.TypeArgs[i]) {
					return false
				}
			}
			return true
		}
		return true
	}
	if b.Kind == KindUnion {
		for _, v := range b.Elems {
			if ConcreteSubtype(a, v) {
				return true
			}
		}
		return false
	}
	if a.Kind == KindUnion {
		for _, v := range a.Elems {
			if !ConcreteSubtype(v, b) {
				return false
			}
		}
		return len(a.Elems) > 0
	}
	return false
}

// Join computes the least upper bound of two lattice types.
func Join(a, b Type) Type {
	if a.Tag == TagBottom {
		return b
	}
	if b.Tag == TagBottom {
		return a
	}
	if a.Tag == TagTop || b.Tag == TagTop {
		return Top
	}
	if a.Tag == TagConst && b.Tag == TagConst {
		if constEqual(a.Const, b.Const) {
			return a
		}
	}
	ac, _ := a.AsConcrete()
	bc, _ := b.AsConcrete()
	return Concrete(concreteJoin(ac, bc))
}

func constEqual(a, b ConstValue) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ConstInt64:
		return a.I == b.I
	case ConstFloat64:
		return a.F == b.F
	case ConstBool:
		return a.B == b.B
	case ConstString, ConstSymbol:
		return a.S == b.S
	case ConstNothing:
		return true
	}
	return false
}

func concreteJoin(a, b ConcreteType) ConcreteType {
	if a.Kind == KindAny || b.Kind == KindAny {
		return ConcreteType{Kind: KindAny}
	}
	if a.Kind == b.Kind {
		switch a.Kind {
		case KindArray, KindRange:
			if a.Elem == nil || b.Elem == nil {
				return ConcreteType{Kind: a.Kind}
			}
			e := concreteJoin(*a.Elem, *b.Elem)
			return ConcreteType{Kind: a.Kind, Elem: &e}
		case KindTuple:
			if len(a.Elems) != len(b.Elems) {
				return unionOf(a, b)
			}
			elems := make([]ConcreteType, len(a.Elems))
			for i := range a.Elems {
				elems[i] = concreteJoin(a.Elems[i], b.Elems[i])
			}
			return ConcreteType{Kind: KindTuple, Elems: elems}
		case KindStruct:
			if a.Name == b.Name && sameArgs(a.TypeArgs, b.TypeArgs) {
				return a
			}
			return unionOf(a, b)
		}
		return a
	}
	if isIntKind(a.Kind) && isIntKind(b.Kind) {
		w := intWidth(a.Kind)
		if intWidth(b.Kind) > w {
			return b
		}
		return a
	}
	if isUIntKind(a.Kind) && isUIntKind(b.Kind) {
		w := intWidth(a.Kind)
		if intWidth(b.Kind) > w {
			return b
		}
		return a
	}
	if isFloatKind(a.Kind) && isFloatKind(b.Kind) {
		w := floatWidth(a.Kind)
		if floatWidth(b.Kind) > w {
			return b
		}
		return a
	}
	if (isIntKind(a.Kind) || isUIntKind(a.Kind)) && isFloatKind(b.Kind) {
		return b
	}
	if (isIntKind(b.Kind) || isUIntKind(b.Kind)) && isFloatKind(a.Kind) {
		return a
	}
	return unionOf(a, b)
}

func sameArgs(a, b []ConcreteType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].CanonicalName() != b[i].CanonicalName() {
			return false
		}
	}
	return true
}

func unionOf(a, b ConcreteType) ConcreteType {
	variants := []ConcreteType{}
	add := func(c ConcreteType) {
		if c.Kind == KindUnion {
			variants = append(variants, c.Elems...)
			return
		}
		variants = append(variants, c)
	}
	add(a)
	add(b)
	// de-dup by canonical string
	seen := map[string]bool{}
	out := variants[:0]
	for _, v := range variants {
		k := v.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	// order variants canonically so Join(a, b) and Join(b, a) agree
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	if len(out) == 1 {
		return out[0]
	}
	return ConcreteType{Kind: KindUnion, Elems: out}
}

// Meet computes the greatest lower bound of two lattice types.
func Meet(a, b Type) Type {
	if a.Tag == TagTop {
		return b
	}
	if b.Tag == TagTop {
		return a
	}
	if a.Tag == TagBottom || b.Tag == TagBottom {
		return Bottom
	}
	if IsSubtypeOf(a, b) {
		return a
	}
	if IsSubtypeOf(b, a) {
		return b
	}
	return Bottom
}
