package compiler

import (
	"fmt"

	"juliacore/internal/bytecode"
	"juliacore/internal/core"
	"juliacore/internal/lattice"
	"juliacore/internal/vm"
)

// funcCompiler emits one function body (or the main block) into a single
// Chunk. Locals are allocated to type-specialized slots; a variable
// whose static type changes across reassignment widens its slot to Any
// (spec §4.1 "Local handling").
type funcCompiler struct {
	tables      *Tables
	chunk       *bytecode.Chunk
	fn          string // enclosing function name, for DebugInfo
	file        string
	locals      map[string]int
	localTypes  []lattice.Type
	numLocals   int
	typeParams  map[string]*core.TypeExpr
	breakStack  [][]int // patch positions for `break` per enclosing loop
	contStack   [][]int // patch positions for `continue` per enclosing loop
	loopStarts  []int   // byte offset of each enclosing loop's condition re-check
	genCounter  *int
	extraFuncs  *[]*core.Function // synthetic functions created for generators
}

func newFuncCompiler(t *Tables, fnName, file string, typeParams map[string]*core.TypeExpr, genCounter *int, extraFuncs *[]*core.Function) *funcCompiler {
	return &funcCompiler{
		tables: t, chunk: bytecode.NewChunk(), fn: fnName, file: file,
		locals: make(map[string]int), typeParams: typeParams,
		genCounter: genCounter, extraFuncs: extraFuncs,
	}
}

func (c *funcCompiler) debug(span core.Span) bytecode.DebugInfo {
	return bytecode.DebugInfo{Line: span.StartLine, Column: span.StartCol, File: c.file, Function: c.fn}
}

func (c *funcCompiler) op(op bytecode.OpCode, span core.Span) {
	c.chunk.WriteOpWithDebug(op, c.debug(span))
}

func (c *funcCompiler) u16(v uint16, span core.Span) { c.chunk.WriteU16(v, c.debug(span)) }
func (c *funcCompiler) u32(v uint32, span core.Span) { c.chunk.WriteU32(v, c.debug(span)) }

func (c *funcCompiler) constIdx(v interface{}) uint32 {
	return uint32(c.chunk.AddConstant(v))
}

// jumpPlaceholder emits op followed by a reserved 4-byte operand,
// returning the operand's byte offset so it can be patched once the
// destination is known (spec §4.1: "Targets are byte offsets patched
// after emission").
func (c *funcCompiler) jumpPlaceholder(op bytecode.OpCode, span core.Span) int {
	c.op(op, span)
	pos := c.chunk.Len()
	c.u32(0, span)
	return pos
}

func (c *funcCompiler) patch(pos int) {
	c.chunk.PatchU32(pos, uint32(c.chunk.Len()))
}

func (c *funcCompiler) declareLocal(name string, ty lattice.Type) int {
	if slot, ok := c.locals[name]; ok {
		if c.localTypes[slot].String() != ty.Widen().String() {
			c.localTypes[slot] = lattice.Any
		}
		return slot
	}
	slot := c.numLocals
	c.numLocals++
	c.locals[name] = slot
	c.localTypes = append(c.localTypes, ty.Widen())
	return slot
}

func (c *funcCompiler) localType(slot int) lattice.Type {
	if slot < 0 || slot >= len(c.localTypes) {
		return lattice.Any
	}
	return c.localTypes[slot]
}

// loadOpFor / storeOpFor pick the type-specialized load/store instruction
// for a local slot's tracked static type (spec §4.1 "Load/store per type").
func loadOpFor(t lattice.Type) bytecode.OpCode {
	c, ok := t.AsConcrete()
	if !ok {
		return bytecode.OpLoadAny
	}
	switch c.Kind {
	case lattice.KindInt8, lattice.KindInt16, lattice.KindInt32, lattice.KindInt64, lattice.KindInt128,
		lattice.KindUInt8, lattice.KindUInt16, lattice.KindUInt32, lattice.KindUInt64, lattice.KindUInt128:
		return bytecode.OpLoadI64
	case lattice.KindFloat16, lattice.KindFloat32, lattice.KindFloat64:
		return bytecode.OpLoadF64
	case lattice.KindArray:
		return bytecode.OpLoadArray
	default:
		return bytecode.OpLoadAny
	}
}

func storeOpFor(t lattice.Type) bytecode.OpCode {
	switch loadOpFor(t) {
	case bytecode.OpLoadI64:
		return bytecode.OpStoreI64
	case bytecode.OpLoadF64:
		return bytecode.OpStoreF64
	case bytecode.OpLoadArray:
		return bytecode.OpStoreArray
	default:
		return bytecode.OpStoreAny
	}
}

// exprType makes a conservative best-effort static guess at an
// expression's type from locally tracked slot types and literal forms.
// It never needs to be exact: it only drives instruction selection, and
// every fast path it enables has a correct, if slower, OpBinaryDispatch/
// OpCallDynamic fallback when it returns Any. Full cross-statement
// precision is the inference engine's job (internal/infer), run
// separately over the same Core IR.
func (c *funcCompiler) exprType(e core.Expr) lattice.Type {
	switch ex := e.(type) {
	case *core.Literal:
		switch ex.Kind {
		case core.LitInt:
			return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindInt64})
		case core.LitFloat:
			return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindFloat64})
		case core.LitBool:
			return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindBool})
		case core.LitString:
			return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindString})
		case core.LitChar:
			return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindChar})
		case core.LitNothing:
			return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindNothing})
		case core.LitSymbol:
			return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindSymbol})
		}
		return lattice.Any
	case *core.Variable:
		if slot, ok := c.locals[ex.Name]; ok {
			return c.localType(slot)
		}
		return lattice.Any
	case *core.BinaryExpr:
		lt, rt := c.exprType(ex.Left), c.exprType(ex.Right)
		if isNumeric(lt) && isNumeric(rt) {
			return lattice.Join(lt, rt)
		}
		return lattice.Any
	case *core.UnaryExpr:
		return c.exprType(ex.Operand)
	}
	return lattice.Any
}

func isNumeric(t lattice.Type) bool {
	c, ok := t.AsConcrete()
	if !ok {
		return false
	}
	switch c.Kind {
	case lattice.KindInt8, lattice.KindInt16, lattice.KindInt32, lattice.KindInt64, lattice.KindInt128,
		lattice.KindUInt8, lattice.KindUInt16, lattice.KindUInt32, lattice.KindUInt64, lattice.KindUInt128,
		lattice.KindFloat16, lattice.KindFloat32, lattice.KindFloat64:
		return true
	}
	return false
}

func isFloaty(t lattice.Type) bool {
	c, ok := t.AsConcrete()
	return ok && (c.Kind == lattice.KindFloat16 || c.Kind == lattice.KindFloat32 || c.Kind == lattice.KindFloat64)
}

func isStructy(t lattice.Type) bool {
	c, ok := t.AsConcrete()
	return ok && c.Kind == lattice.KindStruct
}

// ---- expression compilation ----

func (c *funcCompiler) compileExpr(e core.Expr) error {
	switch ex := e.(type) {
	case *core.Literal:
		return c.compileLiteral(ex)
	case *core.Variable:
		return c.compileVariable(ex)
	case *core.BinaryExpr:
		return c.compileBinary(ex)
	case *core.UnaryExpr:
		return c.compileUnary(ex)
	case *core.TernaryExpr:
		return c.compileTernary(ex)
	case *core.FieldAccess:
		if err := c.compileExpr(ex.Object); err != nil {
			return err
		}
		c.op(bytecode.OpGetField, ex.Span)
		c.u32(c.constIdx(ex.Field), ex.Span)
		return nil
	case *core.IndexExpr:
		if err := c.compileExpr(ex.Object); err != nil {
			return err
		}
		for _, idx := range ex.Indices {
			if err := c.compileExpr(idx); err != nil {
				return err
			}
		}
		c.op(bytecode.OpIndexLoad, ex.Span)
		c.u16(uint16(len(ex.Indices)), ex.Span)
		return nil
	case *core.RangeExpr:
		return c.compileRange(ex)
	case *core.CallExpr:
		return c.compileCall(ex)
	case *core.ModuleCallExpr:
		return c.compileModuleCall(ex)
	case *core.BuiltinCallExpr:
		switch ex.Builtin {
		case "Expr", "QuoteNode", "LineNumberNode", "GlobalRef":
			return c.compileMacroConstructor(ex)
		}
		for _, a := range ex.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		id, ok := vm.BuiltinNames[ex.Builtin]
		if !ok {
			return errUnsupported("builtin", fmt.Sprintf("unknown builtin %q", ex.Builtin), ex.Span)
		}
		c.op(bytecode.OpCallBuiltin, ex.Span)
		c.u16(uint16(id), ex.Span)
		c.u16(uint16(len(ex.Args)), ex.Span)
		return nil
	case *core.ArrayLiteral:
		for _, el := range ex.Elements {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.op(bytecode.OpNewArray, ex.Span)
		c.u32(uint32(len(ex.Elements)), ex.Span)
		return nil
	case *core.TypedEmptyArray:
		c.op(bytecode.OpNewArrayTyped, ex.Span)
		c.u32(c.constIdx(ex.ElemType.Name), ex.Span)
		c.u32(0, ex.Span)
		return nil
	case *core.TupleLiteral:
		for _, el := range ex.Elements {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.op(bytecode.OpCallBuiltin, ex.Span)
		c.u16(uint16(vm.BuiltinMakeTuple), ex.Span)
		c.u16(uint16(len(ex.Elements)), ex.Span)
		return nil
	case *core.StructLiteral:
		return c.compileStructLiteral(ex)
	case *core.PairExpr:
		if err := c.compileExpr(ex.Key); err != nil {
			return err
		}
		if err := c.compileExpr(ex.Value); err != nil {
			return err
		}
		c.op(bytecode.OpCallBuiltin, ex.Span)
		c.u16(uint16(vm.BuiltinMakePair), ex.Span)
		c.u16(2, ex.Span)
		return nil
	case *core.Comprehension:
		return c.compileComprehension(ex, true)
	case *core.Generator:
		return c.compileGeneratorExpr(ex)
	case *core.QuoteLiteral:
		// Constructor is already the nested Expr/QuoteNode/... tree the
		// lowering stage built for this quote; $x interpolation already
		// lowered to an ordinary Var(x) read inside it (spec §9).
		return c.compileExpr(ex.Constructor)
	case *core.FieldSplat:
		return c.compileExpr(ex.Value)
	}
	return errUnsupported("expr", fmt.Sprintf("%T", e), e.SpanOf())
}

// compileMacroConstructor lowers the quote runtime's four structural
// builtins (Expr, QuoteNode, LineNumberNode, GlobalRef — spec §6 "Quoted
// AST literals", §9 "Quasi-quotation") to the dedicated Op* instructions
// (ops_macro.go) instead of the generic OpCallBuiltin path: unlike an
// ordinary builtin call, these need a compile-time-constant head/name
// operand and, for Expr, an accumulator for `$(xs...)` splat args whose
// count isn't known until run time.
func (c *funcCompiler) compileMacroConstructor(ex *core.BuiltinCallExpr) error {
	switch ex.Builtin {
	case "Expr":
		if len(ex.Args) == 0 {
			return errUnsupported("macro", "Expr() requires a head argument", ex.Span)
		}
		head, ok := literalStringOrSymbol(ex.Args[0])
		if !ok {
			return errUnsupported("macro", "Expr() head must be a literal symbol or string", ex.Span)
		}
		headIdx := c.constIdx(head)

		splatAt := -1
		for i, a := range ex.Args[1:] {
			if _, isSplat := a.(*core.FieldSplat); isSplat {
				splatAt = i + 1
				break
			}
		}
		if splatAt < 0 {
			for _, a := range ex.Args[1:] {
				if err := c.compileExpr(a); err != nil {
					return err
				}
			}
			c.op(bytecode.OpMakeExpr, ex.Span)
			c.u32(headIdx, ex.Span)
			c.u16(uint16(len(ex.Args)-1), ex.Span)
			return nil
		}

		c.op(bytecode.OpNewArray, ex.Span)
		c.u32(0, ex.Span)
		for _, a := range ex.Args[1:splatAt] {
			if err := c.compileExpr(a); err != nil {
				return err
			}
			c.op(bytecode.OpCallBuiltin, ex.Span)
			c.u16(uint16(vm.BuiltinPushBang), ex.Span)
			c.u16(2, ex.Span)
		}
		for _, a := range ex.Args[splatAt:] {
			splat, isSplat := a.(*core.FieldSplat)
			if !isSplat {
				return errUnsupported("macro", "Expr() splat argument must be the trailing arguments", ex.Span)
			}
			if err := c.compileExpr(splat.Value); err != nil {
				return err
			}
			c.op(bytecode.OpSpliceSplat, ex.Span)
		}
		c.op(bytecode.OpMakeExpr, ex.Span)
		c.u32(headIdx, ex.Span)
		c.u16(macroExprSplatSentinel, ex.Span)
		return nil

	case "QuoteNode":
		if len(ex.Args) != 1 {
			return errUnsupported("macro", "QuoteNode() takes exactly one argument", ex.Span)
		}
		if err := c.compileExpr(ex.Args[0]); err != nil {
			return err
		}
		c.op(bytecode.OpMakeQuoteNode, ex.Span)
		return nil

	case "LineNumberNode":
		if len(ex.Args) != 2 {
			return errUnsupported("macro", "LineNumberNode() takes a line and a file argument", ex.Span)
		}
		line, ok := literalInt(ex.Args[0])
		if !ok {
			return errUnsupported("macro", "LineNumberNode() line must be a literal integer", ex.Span)
		}
		file, ok := literalStringOrSymbol(ex.Args[1])
		if !ok {
			return errUnsupported("macro", "LineNumberNode() file must be a literal string", ex.Span)
		}
		lineIdx := c.constIdx(line)
		fileIdx := c.constIdx(file)
		c.op(bytecode.OpMakeLineNumberNode, ex.Span)
		c.u32(lineIdx, ex.Span)
		c.u32(fileIdx, ex.Span)
		return nil

	case "GlobalRef":
		if len(ex.Args) != 2 {
			return errUnsupported("macro", "GlobalRef() takes a module and a name argument", ex.Span)
		}
		mod, ok := literalStringOrSymbol(ex.Args[0])
		if !ok {
			return errUnsupported("macro", "GlobalRef() module must be a literal symbol or string", ex.Span)
		}
		name, ok := literalStringOrSymbol(ex.Args[1])
		if !ok {
			return errUnsupported("macro", "GlobalRef() name must be a literal symbol or string", ex.Span)
		}
		modIdx := c.constIdx(mod)
		nameIdx := c.constIdx(name)
		c.op(bytecode.OpMakeGlobalRef, ex.Span)
		c.u32(modIdx, ex.Span)
		c.u32(nameIdx, ex.Span)
		return nil
	}
	return errUnsupported("macro", fmt.Sprintf("unknown macro constructor %q", ex.Builtin), ex.Span)
}

// macroExprSplatSentinel mirrors ops_macro.go's exprArgsSentinel: it tells
// OpMakeExpr its argument list was built through an accumulator array
// rather than a fixed positional count.
const macroExprSplatSentinel = 0xFFFF

func literalStringOrSymbol(e core.Expr) (string, bool) {
	lit, ok := e.(*core.Literal)
	if !ok {
		return "", false
	}
	switch lit.Kind {
	case core.LitString, core.LitSymbol:
		return lit.S, true
	}
	return "", false
}

func literalInt(e core.Expr) (int64, bool) {
	lit, ok := e.(*core.Literal)
	if !ok || lit.Kind != core.LitInt {
		return 0, false
	}
	return lit.I, true
}

func (c *funcCompiler) compileLiteral(ex *core.Literal) error {
	switch ex.Kind {
	case core.LitInt:
		c.op(bytecode.OpConstant, ex.Span)
		c.u32(c.constIdx(ex.I), ex.Span)
	case core.LitFloat:
		c.op(bytecode.OpConstant, ex.Span)
		c.u32(c.constIdx(ex.F), ex.Span)
	case core.LitBool:
		c.op(bytecode.OpConstant, ex.Span)
		c.u32(c.constIdx(ex.B), ex.Span)
	case core.LitString, core.LitRegex:
		c.op(bytecode.OpConstant, ex.Span)
		c.u32(c.constIdx(ex.S), ex.Span)
	case core.LitChar:
		c.op(bytecode.OpConstant, ex.Span)
		c.u32(c.constIdx(rune(ex.I)), ex.Span)
	case core.LitNothing:
		c.op(bytecode.OpNil, ex.Span)
	case core.LitMissing:
		c.op(bytecode.OpCallBuiltin, ex.Span)
		c.u16(uint16(vm.BuiltinMissing), ex.Span)
		c.u16(0, ex.Span)
	case core.LitSymbol:
		c.op(bytecode.OpMakeSymbol, ex.Span)
		c.u32(c.constIdx(ex.S), ex.Span)
	default:
		return errUnsupported("literal", "unknown literal kind", ex.Span)
	}
	return nil
}

func (c *funcCompiler) compileVariable(ex *core.Variable) error {
	if slot, ok := c.locals[ex.Name]; ok {
		c.op(loadOpFor(c.localType(slot)), ex.Span)
		c.u16(uint16(slot), ex.Span)
		return nil
	}
	c.op(bytecode.OpLoadGlobal, ex.Span)
	c.u32(c.constIdx(ex.Name), ex.Span)
	return nil
}

var binaryOpToBuiltin = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true, "^": true}

func (c *funcCompiler) compileBinary(ex *core.BinaryExpr) error {
	switch ex.Op {
	case "&&":
		return c.compileShortCircuit(ex, true)
	case "||":
		return c.compileShortCircuit(ex, false)
	}
	if err := c.compileExpr(ex.Left); err != nil {
		return err
	}
	if err := c.compileExpr(ex.Right); err != nil {
		return err
	}
	lt, rt := c.exprType(ex.Left), c.exprType(ex.Right)

	if ex.Op == "==" || ex.Op == "!=" {
		if !isStructy(lt) && !isStructy(rt) {
			if ex.Op == "==" {
				c.op(bytecode.OpEqAny, ex.Span)
			} else {
				c.op(bytecode.OpNeAny, ex.Span)
			}
			return nil
		}
		c.dispatchBinary(ex.Op, ex.Span)
		return nil
	}

	if ex.Op == "*" && (isStringy(lt) || isStringy(rt)) {
		c.op(bytecode.OpStringConcat, ex.Span)
		return nil
	}
	if ex.Op == "^" && isStringy(lt) {
		c.op(bytecode.OpStringRepeat, ex.Span)
		return nil
	}

	if isNumeric(lt) && isNumeric(rt) && !isStructy(lt) && !isStructy(rt) {
		useFloat := isFloaty(lt) || isFloaty(rt)
		if ex.Op == "%" && useFloat {
			// No native float-modulo opcode in this subset; route through
			// the dynamic builtin numeric fallback (spec §4.1 "Specialization
			// policy" — uncertain/unsupported primitive combos fall through).
			c.dispatchBinary(ex.Op, ex.Span)
			return nil
		}
		c.emitNumericBinary(ex.Op, useFloat, ex.Span)
		return nil
	}
	c.dispatchBinary(ex.Op, ex.Span)
	return nil
}

func isStringy(t lattice.Type) bool {
	c, ok := t.AsConcrete()
	return ok && c.Kind == lattice.KindString
}

func (c *funcCompiler) dispatchBinary(opName string, span core.Span) {
	c.op(bytecode.OpBinaryDispatch, span)
	c.u32(c.constIdx(opName), span)
}

func (c *funcCompiler) emitNumericBinary(op string, useFloat bool, span core.Span) {
	var opcode bytecode.OpCode
	switch op {
	case "+":
		opcode = pick(useFloat, bytecode.OpAddF64, bytecode.OpAddI64)
	case "-":
		opcode = pick(useFloat, bytecode.OpSubF64, bytecode.OpSubI64)
	case "*":
		opcode = pick(useFloat, bytecode.OpMulF64, bytecode.OpMulI64)
	case "/":
		opcode = pick(useFloat, bytecode.OpDivF64, bytecode.OpDivI64) // integer / integer still yields Float64 at runtime
	case "%":
		opcode = bytecode.OpModI64 // float %% is routed to dispatchBinary by the caller
	case "^":
		opcode = pick(useFloat, bytecode.OpPowF64, bytecode.OpPowI64)
	case "<":
		opcode = pick(useFloat, bytecode.OpLtF64, bytecode.OpLtI64)
	case "<=":
		opcode = pick(useFloat, bytecode.OpLeF64, bytecode.OpLeI64)
	case ">":
		opcode = pick(useFloat, bytecode.OpGtF64, bytecode.OpGtI64)
	case ">=":
		opcode = pick(useFloat, bytecode.OpGeF64, bytecode.OpGeI64)
	default:
		c.dispatchBinary(op, span)
		return
	}
	c.op(opcode, span)
}

func pick(useFloat bool, f, i bytecode.OpCode) bytecode.OpCode {
	if useFloat {
		return f
	}
	return i
}

// compileShortCircuit implements && / || without always evaluating the
// right-hand side.
func (c *funcCompiler) compileShortCircuit(ex *core.BinaryExpr, isAnd bool) error {
	if err := c.compileExpr(ex.Left); err != nil {
		return err
	}
	c.op(bytecode.OpDup, ex.Span)
	var shortCircuitJump int
	if isAnd {
		shortCircuitJump = c.jumpPlaceholder(bytecode.OpJumpIfZero, ex.Span)
	} else {
		shortCircuitJump = c.jumpPlaceholder(bytecode.OpJumpIfNotZero, ex.Span)
	}
	c.op(bytecode.OpPop, ex.Span)
	if err := c.compileExpr(ex.Right); err != nil {
		return err
	}
	c.patch(shortCircuitJump)
	return nil
}

func (c *funcCompiler) compileUnary(ex *core.UnaryExpr) error {
	if err := c.compileExpr(ex.Operand); err != nil {
		return err
	}
	t := c.exprType(ex.Operand)
	switch ex.Op {
	case "!":
		c.op(bytecode.OpNot, ex.Span)
	case "-":
		if isNumeric(t) && !isStructy(t) {
			if isFloaty(t) {
				c.op(bytecode.OpNegF64, ex.Span)
			} else {
				c.op(bytecode.OpNegI64, ex.Span)
			}
		} else {
			c.op(bytecode.OpUnaryDispatch, ex.Span)
			c.u32(c.constIdx("-"), ex.Span)
		}
	default:
		return errUnsupported("unary-op", ex.Op, ex.Span)
	}
	return nil
}

func (c *funcCompiler) compileTernary(ex *core.TernaryExpr) error {
	if err := c.compileExpr(ex.Cond); err != nil {
		return err
	}
	elseJump := c.jumpPlaceholder(bytecode.OpJumpIfZero, ex.Span)
	if err := c.compileExpr(ex.Then); err != nil {
		return err
	}
	endJump := c.jumpPlaceholder(bytecode.OpJump, ex.Span)
	c.patch(elseJump)
	if err := c.compileExpr(ex.Else); err != nil {
		return err
	}
	c.patch(endJump)
	return nil
}

func (c *funcCompiler) compileRange(ex *core.RangeExpr) error {
	if err := c.compileExpr(ex.Start); err != nil {
		return err
	}
	if err := c.compileExpr(ex.Stop); err != nil {
		return err
	}
	argc := 2
	if ex.Step != nil {
		if err := c.compileExpr(ex.Step); err != nil {
			return err
		}
		argc = 3
	}
	c.op(bytecode.OpCallBuiltin, ex.Span)
	c.u16(uint16(vm.BuiltinMakeRange), ex.Span)
	c.u16(uint16(argc), ex.Span)
	return nil
}
