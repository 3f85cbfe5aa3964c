package compiler

import (
	"juliacore/internal/bytecode"
	"juliacore/internal/core"
	"juliacore/internal/lattice"
)

// compileBlock compiles every statement in order. When tail is true and
// the last statement is a bare expression statement, its value is
// returned with OpReturn instead of popped — the function-body compiler uses this
// to implement Julia's "last expression is the return value" rule for
// the common straight-line case; control-flow-as-expression (the value
// of an if/for used as a function's tail) is not modeled and such
// functions must use an explicit `return` (documented simplification).
func (c *funcCompiler) compileBlock(b core.Block, tail bool) error {
	for i, s := range b.Stmts {
		isTail := tail && i == len(b.Stmts)-1
		if isTail {
			if es, ok := s.(*core.ExprStmt); ok {
				if err := c.compileExpr(es.Expr); err != nil {
					return err
				}
				c.op(bytecode.OpReturn, es.Span)
				return nil
			}
		}
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *funcCompiler) compileStmt(s core.Stmt) error {
	switch st := s.(type) {
	case *core.LetStmt:
		return c.compileLet(st)
	case *core.AssignStmt:
		return c.compileAssign(st)
	case *core.CompoundAssignStmt:
		return c.compileCompoundAssign(st)
	case *core.ReturnStmt:
		if st.Value == nil {
			c.op(bytecode.OpNil, st.Span)
		} else if err := c.compileExpr(st.Value); err != nil {
			return err
		}
		c.op(bytecode.OpReturn, st.Span)
		return nil
	case *core.BreakStmt:
		if len(c.breakStack) == 0 {
			return errMalformed("break outside a loop", st.Span)
		}
		pos := c.jumpPlaceholder(bytecode.OpJump, st.Span)
		top := len(c.breakStack) - 1
		c.breakStack[top] = append(c.breakStack[top], pos)
		return nil
	case *core.ContinueStmt:
		if len(c.contStack) == 0 {
			return errMalformed("continue outside a loop", st.Span)
		}
		pos := c.jumpPlaceholder(bytecode.OpJump, st.Span)
		top := len(c.contStack) - 1
		c.contStack[top] = append(c.contStack[top], pos)
		return nil
	case *core.IfStmt:
		return c.compileIf(st)
	case *core.ForRangeStmt:
		return c.compileForEachLoop(st.Var, st.Range, st.Body, st.Span)
	case *core.ForEachStmt:
		return c.compileForEachLoop(st.Var, st.Iter, st.Body, st.Span)
	case *core.WhileStmt:
		return c.compileWhile(st)
	case *core.TryStmt:
		return c.compileTry(st)
	case *core.ExprStmt:
		if err := c.compileExpr(st.Expr); err != nil {
			return err
		}
		c.op(bytecode.OpPop, st.Span)
		return nil
	}
	return errUnsupported("stmt", "unknown statement node", s.SpanOf())
}

func (c *funcCompiler) compileLet(st *core.LetStmt) error {
	if err := c.compileExpr(st.Expr); err != nil {
		return err
	}
	ty := c.exprType(st.Expr)
	if st.Type != nil {
		rt, err := c.tables.resolve(st.Type, c.typeParams, st.Span)
		if err != nil {
			return err
		}
		ty = rt
	}
	slot := c.declareLocal(st.Name, ty)
	c.op(storeOpFor(c.localType(slot)), st.Span)
	c.u16(uint16(slot), st.Span)
	return nil
}

func (c *funcCompiler) compileAssign(st *core.AssignStmt) error {
	switch target := st.Target.(type) {
	case *core.Variable:
		if err := c.compileExpr(st.Expr); err != nil {
			return err
		}
		ty := c.exprType(st.Expr)
		slot := c.declareLocal(target.Name, ty)
		c.op(storeOpFor(c.localType(slot)), st.Span)
		c.u16(uint16(slot), st.Span)
		return nil
	case *core.FieldAccess:
		if err := c.compileExpr(target.Object); err != nil {
			return err
		}
		if err := c.compileExpr(st.Expr); err != nil {
			return err
		}
		c.op(bytecode.OpSetField, st.Span)
		c.u32(c.constIdx(target.Field), st.Span)
		return nil
	case *core.IndexExpr:
		if err := c.compileExpr(target.Object); err != nil {
			return err
		}
		for _, idx := range target.Indices {
			if err := c.compileExpr(idx); err != nil {
				return err
			}
		}
		if err := c.compileExpr(st.Expr); err != nil {
			return err
		}
		c.op(bytecode.OpIndexStore, st.Span)
		c.u16(uint16(len(target.Indices)), st.Span)
		return nil
	}
	return errMalformed("unsupported assignment target", st.Span)
}

// compileCompoundAssign lowers `x += e` to `x = x op e`. For FieldAccess
// and IndexExpr targets the object/index sub-expressions are evaluated
// twice (once to read, once to write) — harmless for the side-effect-free
// expressions this subset's field/index targets are expected to be, but
// not sound in general; documented simplification.
func (c *funcCompiler) compileCompoundAssign(st *core.CompoundAssignStmt) error {
	bin := &core.BinaryExpr{Op: st.Op, Left: st.Target, Right: st.Expr}
	bin.Span = st.Span
	synthetic := &core.AssignStmt{Target: st.Target, Expr: bin}
	synthetic.Span = st.Span
	return c.compileAssign(synthetic)
}

func (c *funcCompiler) compileIf(st *core.IfStmt) error {
	if err := c.compileExpr(st.Cond); err != nil {
		return err
	}
	var endJumps []int
	nextJump := c.jumpPlaceholder(bytecode.OpJumpIfZero, st.Span)
	if err := c.compileBlock(st.Then, false); err != nil {
		return err
	}
	endJumps = append(endJumps, c.jumpPlaceholder(bytecode.OpJump, st.Span))
	c.patch(nextJump)

	for _, ei := range st.ElseIf {
		if err := c.compileExpr(ei.Cond); err != nil {
			return err
		}
		nj := c.jumpPlaceholder(bytecode.OpJumpIfZero, st.Span)
		if err := c.compileBlock(ei.Body, false); err != nil {
			return err
		}
		endJumps = append(endJumps, c.jumpPlaceholder(bytecode.OpJump, st.Span))
		c.patch(nj)
	}

	if st.Else != nil {
		if err := c.compileBlock(*st.Else, false); err != nil {
			return err
		}
	}
	for _, j := range endJumps {
		c.patch(j)
	}
	return nil
}

func (c *funcCompiler) compileWhile(st *core.WhileStmt) error {
	loopStart := c.chunk.Len()
	if err := c.compileExpr(st.Cond); err != nil {
		return err
	}
	exitJump := c.jumpPlaceholder(bytecode.OpJumpIfZero, st.Span)

	c.breakStack = append(c.breakStack, nil)
	c.contStack = append(c.contStack, nil)
	if err := c.compileBlock(st.Body, false); err != nil {
		return err
	}
	contTargets := c.contStack[len(c.contStack)-1]
	for _, p := range contTargets {
		c.patch(p)
	}
	breakTargets := c.breakStack[len(c.breakStack)-1]
	c.breakStack = c.breakStack[:len(c.breakStack)-1]
	c.contStack = c.contStack[:len(c.contStack)-1]

	c.op(bytecode.OpJump, st.Span)
	c.u32(uint32(loopStart), st.Span)
	c.patch(exitJump)
	for _, p := range breakTargets {
		c.patch(p)
	}
	return nil
}

// compileForEachLoop is the statement-level counterpart of
// compileForEachInline, with break targets patched to the loop's exit
// (comprehensions never need break, so that patching lives only here).
func (c *funcCompiler) compileForEachLoop(varName string, iter core.Expr, body core.Block, span core.Span) error {
	return c.compileForEachInline(varName, iter, span, func() error {
		return c.compileBlock(body, false)
	})
}

func (c *funcCompiler) compileTry(st *core.TryStmt) error {
	pushPos := c.jumpPlaceholder(bytecode.OpPushTry, st.Span)
	if err := c.compileBlock(st.Body, false); err != nil {
		return err
	}
	c.op(bytecode.OpPopTry, st.Span)
	if st.Else != nil {
		if err := c.compileBlock(*st.Else, false); err != nil {
			return err
		}
	}
	var skipCatch int
	hasCatchOrFinally := st.Catch != nil || st.Finally != nil
	if hasCatchOrFinally {
		skipCatch = c.jumpPlaceholder(bytecode.OpJump, st.Span)
	}
	c.patch(pushPos)
	if st.Catch != nil {
		if st.Catch.ErrName != "" {
			slot := c.declareLocal(st.Catch.ErrName, lattice.Any)
			c.op(bytecode.OpStoreAny, st.Span)
			c.u16(uint16(slot), st.Span)
		} else {
			c.op(bytecode.OpPop, st.Span)
		}
		if err := c.compileBlock(st.Catch.Body, false); err != nil {
			return err
		}
	} else if st.Finally != nil {
		// Bare try/finally: run Finally then re-raise before propagating.
		if err := c.compileBlock(*st.Finally, false); err != nil {
			return err
		}
		c.op(bytecode.OpThrow, st.Span)
	}
	if hasCatchOrFinally {
		c.patch(skipCatch)
	}
	if st.Finally != nil {
		if err := c.compileBlock(*st.Finally, false); err != nil {
			return err
		}
	}
	return nil
}
