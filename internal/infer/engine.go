// Package infer implements the abstract-interpretation type inference
// engine (spec §4.3): an env-threading walk over the Core IR that
// produces a LatticeType per function, with call-site caching, cycle
// detection and widening. Follows the per-statement environment shape,
// the (name, arg_types) recursion guard and the widening trigger the
// original Rust implementation's engine/mod.rs and expr/infer/mod.rs
// describe (SPEC_FULL.md §4 "Abstract-interpretation engine internals").
package infer

import (
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"juliacore/internal/core"
	"juliacore/internal/lattice"
)

// TypeEnv maps a local name to its currently-inferred LatticeType (spec
// §4.3 "a TypeEnv (name -> LatticeType)"). Cloned (not shared) at every
// branch point so sibling branches don't observe each other's narrowing.
type TypeEnv map[string]lattice.Type

func (e TypeEnv) clone() TypeEnv {
	out := make(TypeEnv, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

func joinEnv(a, b TypeEnv) TypeEnv {
	out := make(TypeEnv, len(a))
	for k, va := range a {
		if vb, ok := b[k]; ok {
			out[k] = lattice.Join(va, vb)
		} else {
			out[k] = lattice.Top
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			out[k] = lattice.Top
		}
	}
	return out
}

// Diagnostic is a non-fatal report the engine emits for a true recursion
// cycle or an unresolved call (spec §7 "the inference engine emits
// diagnostics... but does not halt").
type Diagnostic struct {
	Reason  string
	Message string
}

// Engine is the abstract interpreter driving infer_function /
// infer_function_with_arg_types (spec §4.3 "Public contract").
type Engine struct {
	Program *core.Program

	MaxCallDepth    int
	MaxLoopFixpoint int

	cache       map[string]lattice.Type
	active      map[string]bool
	group       singleflight.Group
	depth       int
	diagnostics []Diagnostic
	byName      map[string][]*core.Function
}

// New builds an Engine scoped to prog; MaxCallDepth and MaxLoopFixpoint
// take the spec's defaults unless overridden on the returned Engine.
func New(prog *core.Program) *Engine {
	e := &Engine{
		Program:         prog,
		MaxCallDepth:    64,
		MaxLoopFixpoint: 16,
		cache:           map[string]lattice.Type{},
		active:          map[string]bool{},
		byName:          map[string][]*core.Function{},
	}
	for _, fn := range prog.Functions {
		e.byName[fn.Name] = append(e.byName[fn.Name], fn)
	}
	return e
}

func (e *Engine) Diagnostics() []Diagnostic { return e.diagnostics }

func (e *Engine) diagnose(reason, format string, args ...interface{}) {
	e.diagnostics = append(e.diagnostics, Diagnostic{Reason: reason, Message: fmt.Sprintf(format, args...)})
}

// InferFunction infers fn's return type using its declared (or Any)
// parameter types (spec §4.3 "InferenceEngine::infer_function(func)").
func (e *Engine) InferFunction(fn *core.Function) lattice.Type {
	argTypes := make([]lattice.Type, len(fn.Params))
	for i, p := range fn.Params {
		argTypes[i] = declaredOrAny(p.Type)
	}
	return e.InferFunctionWithArgTypes(fn, argTypes)
}

func declaredOrAny(t *core.TypeExpr) lattice.Type {
	if t == nil {
		return lattice.Any
	}
	if c, ok := concreteByName(t.Name); ok {
		return lattice.Concrete(c)
	}
	return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindStruct, Name: t.Name})
}

func cacheKey(name string, argTypes []lattice.Type) string {
	parts := make([]string, len(argTypes))
	for i, t := range argTypes {
		parts[i] = t.String()
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}

// InferFunctionWithArgTypes is the call-site entry point (spec §4.3):
// cache lookup, recursion-guard check, then an abstract-interpretation
// walk of fn's body with formals bound to argTypes.
func (e *Engine) InferFunctionWithArgTypes(fn *core.Function, argTypes []lattice.Type) lattice.Type {
	key := cacheKey(fn.Name, argTypes)
	if t, ok := e.cache[key]; ok {
		return t
	}
	if e.active[key] {
		e.diagnose("recursion-cycle", "recursive inference cycle detected for %s", fn.Name)
		return lattice.Top
	}
	if e.depth >= e.MaxCallDepth {
		e.diagnose("depth-exhausted", "call depth cap reached inferring %s", fn.Name)
		return lattice.Top
	}

	// singleflight de-dupes concurrent-looking re-entrant analysis
	// requests for the same (name, arg_types) into one computation
	// (SPEC_FULL.md §3 golang.org/x/sync/singleflight wiring).
	v, _, _ := e.group.Do(key, func() (interface{}, error) {
		e.active[key] = true
		e.depth++
		env := TypeEnv{}
		for i, p := range fn.Params {
			if i < len(argTypes) {
				env[p.Name] = argTypes[i]
			} else {
				env[p.Name] = lattice.Any
			}
		}
		_, ret, _ := e.inferBlock(fn.Body, env)
		e.depth--
		delete(e.active, key)
		if fn.ReturnType != nil {
			if c, ok := concreteByName(fn.ReturnType.Name); ok {
				ret = lattice.Concrete(c)
			}
		}
		e.cache[key] = ret
		return ret, nil
	})
	return v.(lattice.Type)
}

// inferBlock threads env through stmts, returning the (possibly
// narrowed) trailing env, the joined return type across every `return`
// reachable in this block, and whether every path returns.
func (e *Engine) inferBlock(b core.Block, env TypeEnv) (TypeEnv, lattice.Type, bool) {
	ret := lattice.Bottom
	returned := false
	for _, stmt := range b.Stmts {
		var stmtRet lattice.Type
		var stmtReturned bool
		env, stmtRet, stmtReturned = e.inferStmt(stmt, env)
		if stmtReturned {
			ret = lattice.Join(ret, stmtRet)
			returned = true
			break
		}
	}
	if !returned {
		ret = lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindNothing})
	}
	return env, ret, returned
}

func (e *Engine) inferStmt(stmt core.Stmt, env TypeEnv) (TypeEnv, lattice.Type, bool) {
	switch s := stmt.(type) {
	case *core.LetStmt:
		t := e.inferExpr(s.Expr, env)
		if s.Type != nil {
			if c, ok := concreteByName(s.Type.Name); ok {
				t = lattice.Concrete(c)
			}
		}
		env[s.Name] = t
		return env, lattice.Bottom, false

	case *core.AssignStmt:
		t := e.inferExpr(s.Expr, env)
		if v, ok := s.Target.(*core.Variable); ok {
			env[v.Name] = t
		}
		return env, lattice.Bottom, false

	case *core.CompoundAssignStmt:
		rhs := e.inferExpr(s.Expr, env)
		if v, ok := s.Target.(*core.Variable); ok {
			cur := env[v.Name]
			env[v.Name] = transferBinary(s.Op, cur, rhs)
		}
		return env, lattice.Bottom, false

	case *core.ReturnStmt:
		if s.Value == nil {
			return env, lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindNothing}), true
		}
		return env, e.inferExpr(s.Value, env), true

	case *core.BreakStmt, *core.ContinueStmt:
		return env, lattice.Bottom, false

	case *core.IfStmt:
		return e.inferIf(s, env)

	case *core.ForRangeStmt:
		return e.inferForRange(s, env)

	case *core.ForEachStmt:
		return e.inferForEach(s, env)

	case *core.WhileStmt:
		return e.inferLoopBody(s.Cond, s.Body, env)

	case *core.TryStmt:
		bodyEnv, _, _ := e.inferBlock(s.Body, env.clone())
		merged := bodyEnv
		if s.Catch != nil {
			catchEnv := env.clone()
			if s.Catch.ErrName != "" {
				catchEnv[s.Catch.ErrName] = lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindString})
			}
			ce, _, _ := e.inferBlock(s.Catch.Body, catchEnv)
			merged = joinEnv(merged, ce)
		}
		if s.Finally != nil {
			merged, _, _ = e.inferBlock(*s.Finally, merged)
		}
		return merged, lattice.Bottom, false

	case *core.ExprStmt:
		e.inferExpr(s.Expr, env)
		return env, lattice.Bottom, false
	}
	return env, lattice.Bottom, false
}

func (e *Engine) inferIf(s *core.IfStmt, env TypeEnv) (TypeEnv, lattice.Type, bool) {
	pos, neg := narrow(s.Cond, env)
	thenEnv, thenRet, thenReturned := e.inferBlock(s.Then, pos)

	elseEnv := neg
	elseRet := lattice.Bottom
	elseReturned := false
	handled := false
	for _, clause := range s.ElseIf {
		p2, n2 := narrow(clause.Cond, elseEnv)
		var cRet lattice.Type
		var cReturned bool
		elseEnv, cRet, cReturned = e.inferBlock(clause.Body, p2)
		if cReturned {
			elseRet = lattice.Join(elseRet, cRet)
		}
		elseReturned = elseReturned || cReturned
		elseEnv = joinEnv(elseEnv, n2)
		handled = true
	}
	if s.Else != nil {
		var eRet lattice.Type
		var eReturned bool
		elseEnv, eRet, eReturned = e.inferBlock(*s.Else, elseEnv)
		if eReturned {
			elseRet = lattice.Join(elseRet, eRet)
		}
		elseReturned = elseReturned || eReturned
		handled = true
	}

	mergedEnv := joinEnv(thenEnv, elseEnv)
	if thenReturned && elseReturned && handled {
		return mergedEnv, lattice.Join(thenRet, elseRet), true
	}
	if thenReturned && !handled {
		// no else branch: falling through means the condition was false;
		// the env carried past this stmt is env joined with thenEnv.
		return joinEnv(env, thenEnv), lattice.Bottom, false
	}
	return mergedEnv, lattice.Join(thenRet, elseRet), false
}

func (e *Engine) inferForRange(s *core.ForRangeStmt, env TypeEnv) (TypeEnv, lattice.Type, bool) {
	rangeTy := e.inferExpr(s.Range, env)
	elemTy := lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindInt64})
	if c, ok := rangeTy.AsConcrete(); ok && c.Kind == lattice.KindRange && c.Elem != nil {
		elemTy = lattice.Concrete(*c.Elem)
	}
	loopEnv := env.clone()
	loopEnv[s.Var] = elemTy
	return e.inferLoopBody(nil, s.Body, loopEnv)
}

func (e *Engine) inferForEach(s *core.ForEachStmt, env TypeEnv) (TypeEnv, lattice.Type, bool) {
	iterTy := e.inferExpr(s.Iter, env)
	elemTy := lattice.Top
	if c, ok := iterTy.AsConcrete(); ok && c.Elem != nil {
		elemTy = lattice.Concrete(*c.Elem)
	}
	loopEnv := env.clone()
	loopEnv[s.Var] = elemTy
	return e.inferLoopBody(nil, s.Body, loopEnv)
}

// inferLoopBody iterates the body to a fixpoint (spec §4.3 "Loops iterate
// until types stop changing or a fixpoint iteration cap is reached;
// after that, widening promotes changing slots toward Top").
func (e *Engine) inferLoopBody(cond core.Expr, body core.Block, env TypeEnv) (TypeEnv, lattice.Type, bool) {
	cur := env
	var ret lattice.Type = lattice.Bottom
	for i := 0; i < e.MaxLoopFixpoint; i++ {
		iterEnv := cur.clone()
		if cond != nil {
			pos, _ := narrow(cond, iterEnv)
			iterEnv = pos
		}
		next, r, _ := e.inferBlock(body, iterEnv)
		ret = lattice.Join(ret, r)
		merged := joinEnv(cur, next)
		if envEqual(merged, cur) {
			return merged, lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindNothing}), false
		}
		cur = merged
	}
	for k := range cur {
		cur[k] = lattice.Top
	}
	return cur, lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindNothing}), false
}

func envEqual(a, b TypeEnv) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k].String() != v.String() {
			return false
		}
	}
	return true
}
