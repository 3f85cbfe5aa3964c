package bcfile

import "juliacore/internal/lattice"

// Tag bytes for the lattice.Type disjoint union.
const (
	tagBottom = iota
	tagTop
	tagConcrete
	tagConst
)

// Kind bytes for ConstValue; kept distinct from lattice.ConstKind's own
// iota values so the on-disk format doesn't silently break if the lattice
// package ever reorders its constants.
const (
	constInt64 = iota
	constFloat64
	constBool
	constString
	constSymbol
	constNothing
)

func writeType(w *writer, t lattice.Type) {
	switch t.Tag {
	case lattice.TagBottom:
		w.u8(tagBottom)
	case lattice.TagTop:
		w.u8(tagTop)
	case lattice.TagConcrete:
		w.u8(tagConcrete)
		writeConcrete(w, t.Concrete)
	case lattice.TagConst:
		w.u8(tagConst)
		writeConst(w, t.Const)
	}
}

func readType(r *reader) lattice.Type {
	switch r.u8() {
	case tagBottom:
		return lattice.Bottom
	case tagTop:
		return lattice.Top
	case tagConcrete:
		return lattice.Concrete(readConcrete(r))
	case tagConst:
		return lattice.ConstOf(readConst(r))
	}
	return lattice.Top
}

func writeConcrete(w *writer, c lattice.ConcreteType) {
	w.u8(uint8(c.Kind))
	w.str(c.Name)
	if c.Elem != nil {
		w.boolean(true)
		writeConcrete(w, *c.Elem)
	} else {
		w.boolean(false)
	}
	w.u32(uint32(len(c.Elems)))
	for _, e := range c.Elems {
		writeConcrete(w, e)
	}
	w.u32(uint32(len(c.TypeArgs)))
	for _, a := range c.TypeArgs {
		writeConcrete(w, a)
	}
}

func readConcrete(r *reader) lattice.ConcreteType {
	c := lattice.ConcreteType{Kind: lattice.ConcreteKind(r.u8())}
	c.Name = r.str()
	if r.boolean() {
		e := readConcrete(r)
		c.Elem = &e
	}
	n := int(r.u32())
	c.Elems = make([]lattice.ConcreteType, n)
	for i := range c.Elems {
		c.Elems[i] = readConcrete(r)
	}
	n = int(r.u32())
	c.TypeArgs = make([]lattice.ConcreteType, n)
	for i := range c.TypeArgs {
		c.TypeArgs[i] = readConcrete(r)
	}
	return c
}

func writeConst(w *writer, c lattice.ConstValue) {
	switch c.Kind {
	case lattice.ConstInt64:
		w.u8(constInt64)
		w.i64(c.I)
	case lattice.ConstFloat64:
		w.u8(constFloat64)
		w.f64(c.F)
	case lattice.ConstBool:
		w.u8(constBool)
		w.boolean(c.B)
	case lattice.ConstString:
		w.u8(constString)
		w.str(c.S)
	case lattice.ConstSymbol:
		w.u8(constSymbol)
		w.str(c.S)
	case lattice.ConstNothing:
		w.u8(constNothing)
	}
}

func readConst(r *reader) lattice.ConstValue {
	switch r.u8() {
	case constInt64:
		return lattice.ConstValue{Kind: lattice.ConstInt64, I: r.i64()}
	case constFloat64:
		return lattice.ConstValue{Kind: lattice.ConstFloat64, F: r.f64()}
	case constBool:
		return lattice.ConstValue{Kind: lattice.ConstBool, B: r.boolean()}
	case constString:
		return lattice.ConstValue{Kind: lattice.ConstString, S: r.str()}
	case constSymbol:
		return lattice.ConstValue{Kind: lattice.ConstSymbol, S: r.str()}
	case constNothing:
		return lattice.ConstValue{Kind: lattice.ConstNothing}
	}
	return lattice.ConstValue{}
}
