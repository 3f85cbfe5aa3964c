package api

import (
	"path/filepath"
	"testing"

	"juliacore/internal/core"
)

func trivialProgram() *core.Program {
	return &core.Program{
		Main: core.Block{Stmts: []core.Stmt{
			&core.ReturnStmt{Value: &core.Literal{Kind: core.LitInt, I: 42}},
		}},
	}
}

func TestRunReturnsMainValue(t *testing.T) {
	got, err := Run(trivialProgram(), DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.I != 42 {
		t.Errorf("Run result = %v, want 42", got)
	}
}

func TestCompileAndLoadAndRunBytecodeRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sjbc")
	if err := CompileToBytecode(trivialProgram(), path); err != nil {
		t.Fatalf("CompileToBytecode: %v", err)
	}
	got, err := LoadAndRunBytecode(path, DefaultOptions())
	if err != nil {
		t.Fatalf("LoadAndRunBytecode: %v", err)
	}
	if got.I != 42 {
		t.Errorf("LoadAndRunBytecode result = %v, want 42", got)
	}
}

func TestAnalyzeTypesReportsFunctionReturnTypes(t *testing.T) {
	fn := &core.Function{
		Name: "addone",
		Params: []core.TypedParam{
			{Name: "x", Type: &core.TypeExpr{Name: "Int64"}},
		},
		Body: core.Block{Stmts: []core.Stmt{
			&core.ReturnStmt{Value: &core.BinaryExpr{
				Op:    "+",
				Left:  &core.Variable{Name: "x"},
				Right: &core.Literal{Kind: core.LitInt, I: 1},
			}},
		}},
	}
	prog := &core.Program{Functions: []*core.Function{fn}}

	report, err := AnalyzeTypes(prog, DefaultOptions())
	if err != nil {
		t.Fatalf("AnalyzeTypes: %v", err)
	}
	if report.Functions["addone"] == "" {
		t.Errorf("report missing an inferred type for addone: %v", report.Functions)
	}
}

func TestProgramSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.gob")
	prog := trivialProgram()
	if err := SaveProgram(prog, path); err != nil {
		t.Fatalf("SaveProgram: %v", err)
	}
	loaded, err := LoadProgram(path)
	if err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	got, err := Run(loaded, DefaultOptions())
	if err != nil {
		t.Fatalf("Run(loaded): %v", err)
	}
	if got.I != 42 {
		t.Errorf("Run(loaded) = %v, want 42", got)
	}
}
