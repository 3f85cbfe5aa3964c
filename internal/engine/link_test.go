package engine

import (
	"testing"

	"juliacore/internal/bytecode"
	"juliacore/internal/compiler"
	"juliacore/internal/core"
)

func TestLinkCopiesFunctionsAndGlobals(t *testing.T) {
	prog := &core.Program{
		Globals: []*core.Global{
			{Name: "PI", Init: &core.Literal{Kind: core.LitFloat, F: 3.14}},
		},
		Functions: []*core.Function{
			{
				Name: "one",
				Body: core.Block{Stmts: []core.Stmt{
					&core.ReturnStmt{Value: &core.Literal{Kind: core.LitInt, I: 1}},
				}},
			},
		},
		Main: core.Block{},
	}

	cp, err := compiler.CompileProgram(prog)
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}

	linked := Link(cp)
	if len(linked.Functions) != len(cp.Functions) {
		t.Fatalf("linked %d functions, want %d", len(linked.Functions), len(cp.Functions))
	}
	if linked.Functions[0].Name != "one" {
		t.Errorf("linked function name = %q, want one", linked.Functions[0].Name)
	}
	if linked.GlobalIndex["PI"] != 0 {
		t.Errorf("linked global index for PI = %d, want 0", linked.GlobalIndex["PI"])
	}
	if _, ok := linked.FuncIndexOf("one"); !ok {
		t.Errorf("FuncIndexOf(one) not found after linking")
	}
	var _ *bytecode.Chunk = linked.Main
}
