package infer

import (
	"juliacore/internal/core"
	"juliacore/internal/lattice"
)

// inferExpr computes the LatticeType of ex under env, folding constants
// where both operands are Const (spec §4.3 "Constant folding for binary/
// unary operators when both operands are Const").
func (e *Engine) inferExpr(ex core.Expr, env TypeEnv) lattice.Type {
	switch x := ex.(type) {
	case *core.Literal:
		return literalType(x)

	case *core.Variable:
		if t, ok := env[x.Name]; ok {
			return t
		}
		return lattice.Top

	case *core.FieldAccess:
		return e.inferFieldAccess(x, env)

	case *core.IndexExpr:
		objTy := e.inferExpr(x.Object, env)
		if c, ok := objTy.AsConcrete(); ok && c.Elem != nil {
			return lattice.Concrete(*c.Elem)
		}
		return lattice.Top

	case *core.RangeExpr:
		startTy := e.inferExpr(x.Start, env).Widen()
		elem := lattice.ConcreteType{Kind: lattice.KindInt64}
		if c, ok := startTy.AsConcrete(); ok {
			elem = c
		}
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindRange, Elem: &elem})

	case *core.BinaryExpr:
		l := e.inferExpr(x.Left, env)
		r := e.inferExpr(x.Right, env)
		if folded, ok := foldBinary(x.Op, l, r); ok {
			return folded
		}
		return transferBinary(x.Op, l, r)

	case *core.UnaryExpr:
		v := e.inferExpr(x.Operand, env)
		if folded, ok := foldUnary(x.Op, v); ok {
			return folded
		}
		return transferUnary(x.Op, v)

	case *core.TernaryExpr:
		pos, neg := narrow(x.Cond, env)
		t := e.inferExpr(x.Then, pos)
		f := e.inferExpr(x.Else, neg)
		return lattice.Join(t, f)

	case *core.CallExpr:
		return e.inferCall(x, env)

	case *core.ModuleCallExpr:
		return e.inferCall(x.Call, env)

	case *core.BuiltinCallExpr:
		argTypes := make([]lattice.Type, len(x.Args))
		for i, a := range x.Args {
			argTypes[i] = e.inferExpr(a, env)
		}
		if t, ok := transferBuiltin(x.Builtin, argTypes); ok {
			return t
		}
		return lattice.Top

	case *core.ArrayLiteral:
		elem := lattice.Bottom
		for _, el := range x.Elements {
			elem = lattice.Join(elem, e.inferExpr(el, env))
		}
		if elem.Tag == lattice.TagBottom {
			elem = lattice.Any
		}
		elem = elem.Widen()
		ec, _ := elem.AsConcrete()
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindArray, Elem: &ec})

	case *core.TypedEmptyArray:
		ec := concreteFromTypeExpr(&x.ElemType)
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindArray, Elem: &ec})

	case *core.TupleLiteral:
		elems := make([]lattice.ConcreteType, len(x.Elements))
		for i, el := range x.Elements {
			c, _ := e.inferExpr(el, env).Widen().AsConcrete()
			elems[i] = c
		}
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindTuple, Elems: elems})

	case *core.StructLiteral:
		typeArgs := make([]lattice.ConcreteType, len(x.TypeArgs))
		for i := range x.TypeArgs {
			typeArgs[i] = concreteFromTypeExpr(&x.TypeArgs[i])
		}
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindStruct, Name: x.TypeName, TypeArgs: typeArgs})

	case *core.PairExpr:
		k, _ := e.inferExpr(x.Key, env).Widen().AsConcrete()
		v, _ := e.inferExpr(x.Value, env).Widen().AsConcrete()
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindTuple, Elems: []lattice.ConcreteType{k, v}})

	case *core.FieldSplat:
		return lattice.Top

	case *core.Comprehension:
		return e.inferComprehension(x.Vars, x.Iters, x.Result, env)

	case *core.Generator:
		return e.inferComprehension(x.Vars, x.Iters, x.Result, env)

	case *core.QuoteLiteral:
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindStruct, Name: "Expr"})
	}
	return lattice.Top
}

func (e *Engine) inferComprehension(vars []string, iters []core.Expr, result core.Expr, env TypeEnv) lattice.Type {
	loopEnv := env.clone()
	for i, v := range vars {
		if i >= len(iters) {
			break
		}
		iterTy := e.inferExpr(iters[i], loopEnv)
		elem := lattice.Top
		if c, ok := iterTy.AsConcrete(); ok && c.Elem != nil {
			elem = lattice.Concrete(*c.Elem)
		}
		loopEnv[v] = elem
	}
	resTy := e.inferExpr(result, loopEnv).Widen()
	ec, _ := resTy.AsConcrete()
	return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindArray, Elem: &ec})
}

func (e *Engine) inferFieldAccess(x *core.FieldAccess, env TypeEnv) lattice.Type {
	objTy := e.inferExpr(x.Object, env)
	c, ok := objTy.AsConcrete()
	if !ok || c.Kind != lattice.KindStruct {
		return lattice.Top
	}
	for _, sd := range e.Program.Structs {
		if sd.Name != c.Name {
			continue
		}
		for _, f := range sd.Fields {
			if f.Name == x.Field {
				return declaredOrAny(f.Type)
			}
		}
	}
	return lattice.Top
}

// inferCall resolves a statically-named call: map(f, arr) is special-cased
// (spec §4.3 "map(f, arr) is special-cased to recurse on f with the
// array's element type and wrap as Array{ret}"); any other named call
// recurses into the matching function definitions by argument types,
// joining over every candidate whose arity matches (dispatch proper is a
// runtime concern, spec §4.4 — this is the static approximation).
func (e *Engine) inferCall(x *core.CallExpr, env TypeEnv) lattice.Type {
	name, isStatic := staticCalleeName(x.Callee)
	if !isStatic {
		return lattice.Top
	}
	argTypes := make([]lattice.Type, len(x.Args))
	for i, a := range x.Args {
		argTypes[i] = e.inferExpr(a.Value, env)
	}

	if name == "map" && len(argTypes) == 2 {
		if c, ok := argTypes[1].AsConcrete(); ok && c.Elem != nil {
			if fnName, ok := staticCalleeName(x.Args[0].Value); ok {
				retTy := e.inferByName(fnName, []lattice.Type{lattice.Concrete(*c.Elem)})
				rc, _ := retTy.Widen().AsConcrete()
				return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindArray, Elem: &rc})
			}
		}
		return lattice.Top
	}

	if t, ok := transferBuiltin(name, argTypes); ok {
		return t
	}
	return e.inferByName(name, argTypes)
}

func staticCalleeName(ex core.Expr) (string, bool) {
	if v, ok := ex.(*core.Variable); ok {
		return v.Name, true
	}
	return "", false
}

func (e *Engine) inferByName(name string, argTypes []lattice.Type) lattice.Type {
	candidates := e.byName[name]
	if len(candidates) == 0 {
		return lattice.Top
	}
	ret := lattice.Bottom
	for _, fn := range candidates {
		if len(fn.Params) != len(argTypes) {
			continue
		}
		ret = lattice.Join(ret, e.InferFunctionWithArgTypes(fn, argTypes))
	}
	if ret.Tag == lattice.TagBottom {
		return lattice.Top
	}
	return ret
}

func literalType(l *core.Literal) lattice.Type {
	switch l.Kind {
	case core.LitInt:
		return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstInt64, I: l.I})
	case core.LitFloat:
		return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstFloat64, F: l.F})
	case core.LitBool:
		return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstBool, B: l.B})
	case core.LitString:
		return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstString, S: l.S})
	case core.LitChar:
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindChar})
	case core.LitNothing:
		return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstNothing})
	case core.LitMissing:
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindMissing})
	case core.LitSymbol:
		return lattice.ConstOf(lattice.ConstValue{Kind: lattice.ConstSymbol, S: l.S})
	case core.LitRegex:
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindStruct, Name: "Regex"})
	}
	return lattice.Top
}

func concreteFromTypeExpr(t *core.TypeExpr) lattice.ConcreteType {
	if t == nil {
		return lattice.ConcreteType{Kind: lattice.KindAny}
	}
	if c, ok := concreteByName(t.Name); ok {
		return c
	}
	if len(t.Args) > 0 {
		args := make([]lattice.ConcreteType, len(t.Args))
		for i := range t.Args {
			args[i] = concreteFromTypeExpr(&t.Args[i])
		}
		return lattice.ConcreteType{Kind: lattice.KindStruct, Name: t.Name, TypeArgs: args}
	}
	return lattice.ConcreteType{Kind: lattice.KindStruct, Name: t.Name}
}
