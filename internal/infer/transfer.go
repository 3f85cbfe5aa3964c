package infer

import (
	"juliacore/internal/core"
	"juliacore/internal/lattice"
)

// concreteByName resolves the builtin scalar/collection type names the
// transfer-function registry and TypeExpr resolution both need; struct
// and abstract names are not known here (they only exist once a Program
// is in scope), so callers fall back to a Struct-kind ConcreteType.
func concreteByName(name string) (lattice.ConcreteType, bool) {
	switch name {
	case "Int8":
		return lattice.ConcreteType{Kind: lattice.KindInt8}, true
	case "Int16":
		return lattice.ConcreteType{Kind: lattice.KindInt16}, true
	case "Int32":
		return lattice.ConcreteType{Kind: lattice.KindInt32}, true
	case "Int64":
		return lattice.ConcreteType{Kind: lattice.KindInt64}, true
	case "Int128":
		return lattice.ConcreteType{Kind: lattice.KindInt128}, true
	case "UInt8":
		return lattice.ConcreteType{Kind: lattice.KindUInt8}, true
	case "UInt16":
		return lattice.ConcreteType{Kind: lattice.KindUInt16}, true
	case "UInt32":
		return lattice.ConcreteType{Kind: lattice.KindUInt32}, true
	case "UInt64":
		return lattice.ConcreteType{Kind: lattice.KindUInt64}, true
	case "UInt128":
		return lattice.ConcreteType{Kind: lattice.KindUInt128}, true
	case "Float16":
		return lattice.ConcreteType{Kind: lattice.KindFloat16}, true
	case "Float32":
		return lattice.ConcreteType{Kind: lattice.KindFloat32}, true
	case "Float64":
		return lattice.ConcreteType{Kind: lattice.KindFloat64}, true
	case "Bool":
		return lattice.ConcreteType{Kind: lattice.KindBool}, true
	case "Char":
		return lattice.ConcreteType{Kind: lattice.KindChar}, true
	case "String":
		return lattice.ConcreteType{Kind: lattice.KindString}, true
	case "Nothing":
		return lattice.ConcreteType{Kind: lattice.KindNothing}, true
	case "Missing":
		return lattice.ConcreteType{Kind: lattice.KindMissing}, true
	case "Symbol":
		return lattice.ConcreteType{Kind: lattice.KindSymbol}, true
	case "Any":
		return lattice.ConcreteType{Kind: lattice.KindAny}, true
	}
	return lattice.ConcreteType{}, false
}

var comparisonOps = map[string]bool{
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"===": true, "!==": true, "&&": true, "||": true,
}

// transferBinary is the transfer-function registry for binary operators
// (spec §4.3 "+": (I64,I64)->I64; (F64,_)->F64; (String,String)->String",
// generalized across the numeric width/float table lattice.Join already
// encodes, plus String concatenation and the boolean comparisons).
func transferBinary(op string, l, r lattice.Type) lattice.Type {
	if comparisonOps[op] {
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindBool})
	}
	lc, lok := l.Widen().AsConcrete()
	rc, rok := r.Widen().AsConcrete()
	if !lok || !rok {
		return lattice.Top
	}
	if op == "+" && lc.Kind == lattice.KindString && rc.Kind == lattice.KindString {
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindString})
	}
	switch op {
	case "+", "-", "*", "/", "%", "^", "div", "rem":
		if isNumeric(lc.Kind) && isNumeric(rc.Kind) {
			if op == "/" {
				return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindFloat64})
			}
			return promoteNumeric(lc, rc)
		}
	}
	return lattice.Top
}

func transferUnary(op string, v lattice.Type) lattice.Type {
	c, ok := v.Widen().AsConcrete()
	if !ok {
		return lattice.Top
	}
	switch op {
	case "-", "+":
		if isNumeric(c.Kind) {
			return lattice.Concrete(c)
		}
	case "!":
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindBool})
	}
	return lattice.Top
}

func isNumeric(k lattice.ConcreteKind) bool {
	return k >= lattice.KindInt8 && k <= lattice.KindFloat64
}

func promoteNumeric(a, b lattice.ConcreteType) lattice.Type {
	return lattice.Join(lattice.Concrete(a), lattice.Concrete(b))
}

// transferBuiltin covers the handful of free-standing builtin calls the
// engine can resolve precisely without recursing into a user function
// body: sizeof/length-style calls and the math unary family, which
// returns Float64 for a numeric argument except abs/floor/ceil/round,
// which keep the argument's own concrete type.
func transferBuiltin(name string, args []lattice.Type) (lattice.Type, bool) {
	switch name {
	case "length", "size", "ndims":
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindInt64}), true
	case "sqrt", "sin", "cos", "tan", "exp", "log", "log2", "log10", "abs", "floor", "ceil", "round":
		if len(args) == 1 {
			if c, ok := args[0].Widen().AsConcrete(); ok && isNumeric(c.Kind) {
				if name == "abs" || name == "floor" || name == "ceil" || name == "round" {
					return lattice.Concrete(c), true
				}
				return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindFloat64}), true
			}
		}
	case "string":
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindString}), true
	case "isa":
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindBool}), true
	}
	return lattice.Type{}, false
}

// foldBinary computes the actual value when both operands are Const, the
// engine's constant-folding pass (spec §4.3).
func foldBinary(op string, l, r lattice.Type) (lattice.Type, bool) {
	if l.Tag != lattice.TagConst || r.Tag != lattice.TagConst {
		return lattice.Type{}, false
	}
	a, b := l.Const, r.Const
	if a.Kind == lattice.ConstInt64 && b.Kind == lattice.ConstInt64 {
		switch op {
		case "+":
			return constInt(a.I + b.I), true
		case "-":
			return constInt(a.I - b.I), true
		case "*":
			return constInt(a.I * b.I), true
		case "/":
			if b.I != 0 {
				return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstFloat64, F: float64(a.I) / float64(b.I)}), true
			}
		case "==":
			return constBool(a.I == b.I), true
		case "!=":
			return constBool(a.I != b.I), true
		case "<":
			return constBool(a.I < b.I), true
		case "<=":
			return constBool(a.I <= b.I), true
		case ">":
			return constBool(a.I > b.I), true
		case ">=":
			return constBool(a.I >= b.I), true
		}
	}
	if (a.Kind == lattice.ConstFloat64 || a.Kind == lattice.ConstInt64) && (b.Kind == lattice.ConstFloat64 || b.Kind == lattice.ConstInt64) {
		af, bf := constFloatOf(a), constFloatOf(b)
		switch op {
		case "+":
			return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstFloat64, F: af + bf}), true
		case "-":
			return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstFloat64, F: af - bf}), true
		case "*":
			return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstFloat64, F: af * bf}), true
		case "/":
			if bf != 0 {
				return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstFloat64, F: af / bf}), true
			}
		}
	}
	if a.Kind == lattice.ConstString && b.Kind == lattice.ConstString && op == "+" {
		return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstString, S: a.S + b.S}), true
	}
	if op == "===" || op == "==" {
		return constBool(constEq(a, b)), true
	}
	if op == "!==" || op == "!=" {
		return constBool(!constEq(a, b)), true
	}
	return lattice.Type{}, false
}

func constEq(a, b lattice.ConstValue) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case lattice.ConstInt64:
		return a.I == b.I
	case lattice.ConstFloat64:
		return a.F == b.F
	case lattice.ConstBool:
		return a.B == b.B
	case lattice.ConstString, lattice.ConstSymbol:
		return a.S == b.S
	case lattice.ConstNothing:
		return true
	}
	return false
}

func constFloatOf(c lattice.ConstValue) float64 {
	if c.Kind == lattice.ConstInt64 {
		return float64(c.I)
	}
	return c.F
}

func constInt(i int64) lattice.Type {
	return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstInt64, I: i})
}

func constBool(b bool) lattice.Type {
	return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstBool, B: b})
}

func foldUnary(op string, v lattice.Type) (lattice.Type, bool) {
	if v.Tag != lattice.TagConst {
		return lattice.Type{}, false
	}
	c := v.Const
	switch op {
	case "-":
		if c.Kind == lattice.ConstInt64 {
			return constInt(-c.I), true
		}
		if c.Kind == lattice.ConstFloat64 {
			return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstFloat64, F: -c.F}), true
		}
	case "!":
		if c.Kind == lattice.ConstBool {
			return constBool(!c.B), true
		}
	}
	return lattice.Type{}, false
}

// narrow splits env into the positive branch (condition assumed true) and
// negative branch (condition assumed false), recognizing `isa(x, T)`,
// `x === nothing` and `x !== nothing`; `!cond` narrows cond and swaps the
// two branches. Comparisons against other constants (e.g. `x == 3`) are
// not narrowed: they, like any other condition shape, leave both
// branches identical to env.
func narrow(cond core.Expr, env TypeEnv) (pos, neg TypeEnv) {
	pos, neg = env.clone(), env.clone()
	switch c := cond.(type) {
	case *core.CallExpr:
		if name, ok := staticCalleeName(c.Callee); ok && name == "isa" && len(c.Args) == 2 {
			if v, ok := c.Args[0].Value.(*core.Variable); ok {
				if t, ok := c.Args[1].Value.(*core.Variable); ok {
					if ct, ok := concreteByName(t.Name); ok {
						pos[v.Name] = lattice.Concrete(ct)
					} else {
						pos[v.Name] = lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindStruct, Name: t.Name})
					}
				}
			}
		}
	case *core.BinaryExpr:
		if c.Op == "===" || c.Op == "!==" {
			v, isVar := c.Left.(*core.Variable)
			lit, isNil := c.Right.(*core.Literal)
			if !isVar || !isNil {
				if v2, ok := c.Right.(*core.Variable); ok {
					if lit2, ok := c.Left.(*core.Literal); ok {
						v, isVar, lit, isNil = v2, true, lit2, true
					}
				}
			}
			if isVar && isNil && lit.Kind == core.LitNothing {
				nothingTy := lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstNothing})
				if c.Op == "===" {
					pos[v.Name] = nothingTy
				} else {
					neg[v.Name] = nothingTy
				}
			}
		}
	case *core.UnaryExpr:
		if c.Op == "!" {
			p, n := narrow(c.Operand, env)
			return n, p
		}
	}
	return pos, neg
}
