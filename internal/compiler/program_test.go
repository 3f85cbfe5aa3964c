package compiler

import (
	"testing"

	"juliacore/internal/bytecode"
	"juliacore/internal/core"
)

func TestCompileMainBlockBareExprStmtIsPoppedNotReturned(t *testing.T) {
	main := core.Block{Stmts: []core.Stmt{
		&core.ExprStmt{Expr: &core.Literal{Kind: core.LitInt, I: 1}},
	}}
	genCounter := 0
	chunk, extra, err := compileMainBlock(newTables(&core.Program{}), main, &genCounter)
	if err != nil {
		t.Fatalf("compileMainBlock: %v", err)
	}
	if len(extra) != 0 {
		t.Errorf("unexpected synthesized functions: %v", extra)
	}
	if len(chunk.Code) == 0 || bytecode.OpCode(chunk.Code[len(chunk.Code)-1]) != bytecode.OpPop {
		t.Errorf("main block's trailing bare expression should end in a Pop, code=%v", chunk.Code)
	}
}

func TestCompileMainBlockExplicitReturnEmitsReturn(t *testing.T) {
	main := core.Block{Stmts: []core.Stmt{
		&core.ReturnStmt{Value: &core.Literal{Kind: core.LitInt, I: 42}},
	}}
	genCounter := 0
	chunk, _, err := compileMainBlock(newTables(&core.Program{}), main, &genCounter)
	if err != nil {
		t.Fatalf("compileMainBlock: %v", err)
	}
	if len(chunk.Code) == 0 || bytecode.OpCode(chunk.Code[len(chunk.Code)-1]) != bytecode.OpReturn {
		t.Errorf("explicit return should end in a Return, code=%v", chunk.Code)
	}
}

func TestCompileFunctionBodyFallsBackToNilReturn(t *testing.T) {
	fn := &core.Function{
		Name: "noop",
		Body: core.Block{Stmts: []core.Stmt{
			&core.LetStmt{Name: "x", Expr: &core.Literal{Kind: core.LitInt, I: 1}},
		}},
	}
	genCounter := 0
	var extra []*core.Function
	cf, err := compileFunctionBody(newTables(&core.Program{}), fn, &genCounter, &extra)
	if err != nil {
		t.Fatalf("compileFunctionBody: %v", err)
	}
	code := cf.Chunk.Code
	if len(code) < 2 || bytecode.OpCode(code[len(code)-1]) != bytecode.OpReturn || bytecode.OpCode(code[len(code)-2]) != bytecode.OpNil {
		t.Errorf("body with no tail expression should fall back to Nil;Return, code=%v", code)
	}
}

func TestCompileFunctionBodyTailExpressionReturnsItsValue(t *testing.T) {
	fn := &core.Function{
		Name: "one",
		Body: core.Block{Stmts: []core.Stmt{
			&core.ExprStmt{Expr: &core.Literal{Kind: core.LitInt, I: 1}},
		}},
	}
	genCounter := 0
	var extra []*core.Function
	cf, err := compileFunctionBody(newTables(&core.Program{}), fn, &genCounter, &extra)
	if err != nil {
		t.Fatalf("compileFunctionBody: %v", err)
	}
	code := cf.Chunk.Code
	// [Constant, u32 x4, Return (tail), Nil, Return (fallback padding)]
	if len(code) < 6 || bytecode.OpCode(code[0]) != bytecode.OpConstant {
		t.Fatalf("tail expression should start with a Constant load, code=%v", code)
	}
	if bytecode.OpCode(code[5]) != bytecode.OpReturn {
		t.Errorf("code[5] = %v, want the tail Return right after the Constant's operand", bytecode.OpCode(code[5]))
	}
}

func TestCompileProgramAssemblesTablesAndFunctions(t *testing.T) {
	fn := &core.Function{
		Name: "one",
		Body: core.Block{Stmts: []core.Stmt{
			&core.ExprStmt{Expr: &core.Literal{Kind: core.LitInt, I: 1}},
		}},
	}
	prog := &core.Program{
		Globals:   []*core.Global{{Name: "PI", Init: &core.Literal{Kind: core.LitFloat, F: 3.14}}},
		Functions: []*core.Function{fn},
		Main: core.Block{Stmts: []core.Stmt{
			&core.ReturnStmt{Value: &core.Literal{Kind: core.LitNothing}},
		}},
	}
	cp, err := CompileProgram(prog)
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	if len(cp.Functions) != 1 || cp.Functions[0].Name != "one" {
		t.Fatalf("Functions = %v, want a single 'one'", cp.Functions)
	}
	idx, ok := cp.FuncIndexOf("one")
	if !ok || idx != 0 {
		t.Errorf("FuncIndexOf(one) = %d, %v, want 0, true", idx, ok)
	}
	if cp.GlobalIndex["PI"] != 0 {
		t.Errorf("GlobalIndex[PI] = %d, want 0", cp.GlobalIndex["PI"])
	}
	if cp.Main == nil || cp.GlobalInit == nil {
		t.Fatal("Main and GlobalInit chunks should both be populated")
	}
}

func TestCompileProgramPropagatesMalformedIRError(t *testing.T) {
	fn := &core.Function{
		Name: "bad",
		Params: []core.TypedParam{
			{Name: "xs", Varargs: true},
			{Name: "y"},
		},
	}
	_, err := CompileProgram(&core.Program{Functions: []*core.Function{fn}})
	if err == nil {
		t.Fatal("expected a MalformedIR error for a non-trailing varargs parameter")
	}
	ce, ok := err.(*CompileError)
	if !ok || ce.Kind != MalformedIR {
		t.Errorf("err = %v, want a CompileError{Kind: MalformedIR}", err)
	}
}
