package prelude

import (
	"testing"

	"juliacore/internal/core"
)

func TestProgramFunctionsAreAllMarkedPrelude(t *testing.T) {
	p := Program()
	want := map[string]bool{
		"identity": false,
		"square":   false,
		"cube":     false,
		"hypot":    false,
		"clamp":    false,
	}
	for _, fn := range p.Functions {
		if _, ok := want[fn.Name]; !ok {
			t.Errorf("unexpected prelude function %q", fn.Name)
			continue
		}
		want[fn.Name] = true
		if !fn.IsPrelude {
			t.Errorf("%s: IsPrelude = false, want true", fn.Name)
		}
		if fn.Exported {
			t.Errorf("%s: Exported = true, want false", fn.Name)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("prelude missing expected function %q", name)
		}
	}
}

func TestMergeRejectsCollidingNonExportedUserFunction(t *testing.T) {
	user := &core.Program{
		Functions: []*core.Function{
			{Name: "square", Params: []core.TypedParam{{Name: "x"}}},
		},
	}
	if _, err := Merge(user); err == nil {
		t.Fatal("Merge: want error for unexported collision with prelude function, got nil")
	}
}

func TestMergeAllowsExportedCollisionToCoexist(t *testing.T) {
	user := &core.Program{
		Functions: []*core.Function{
			{Name: "square", Params: []core.TypedParam{{Name: "x"}}, Exported: true},
		},
	}
	merged, err := Merge(user)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	count := 0
	for _, fn := range merged.Functions {
		if fn.Name == "square" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("got %d functions named square, want 2 (prelude + exported user)", count)
	}
}

func TestMergeSetsBaseFunctionCountToPreludeLength(t *testing.T) {
	user := &core.Program{}
	merged, err := Merge(user)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	want := len(Program().Functions)
	if merged.BaseFunctionCount != want {
		t.Errorf("BaseFunctionCount = %d, want %d", merged.BaseFunctionCount, want)
	}
	if len(merged.Functions) != want {
		t.Errorf("len(Functions) = %d, want %d (no user functions added)", len(merged.Functions), want)
	}
}

func TestMergeUserFunctionsAppendAfterPrelude(t *testing.T) {
	user := &core.Program{
		Functions: []*core.Function{
			{Name: "myFunc", Params: []core.TypedParam{{Name: "x"}}},
		},
	}
	merged, err := Merge(user)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	base := len(Program().Functions)
	if len(merged.Functions) != base+1 {
		t.Fatalf("len(Functions) = %d, want %d", len(merged.Functions), base+1)
	}
	if merged.Functions[base].Name != "myFunc" {
		t.Errorf("Functions[%d].Name = %q, want %q", base, merged.Functions[base].Name, "myFunc")
	}
}

func TestMergeReplacesStructWithSameNameInPlace(t *testing.T) {
	baseStruct := &core.StructDef{Name: "Point"}
	otherStruct := &core.StructDef{Name: "Other"}
	userStruct := &core.StructDef{Name: "Point", Mutable: true}
	merged := mergeStructs([]*core.StructDef{baseStruct, otherStruct}, []*core.StructDef{userStruct})
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if merged[0] != userStruct {
		t.Error("user struct did not replace the base struct of the same name in place")
	}
}

func TestMergeConcatenatesMainAfterPreludeMain(t *testing.T) {
	userStmt := &core.ReturnStmt{}
	user := &core.Program{Main: core.Block{Stmts: []core.Stmt{userStmt}}}
	merged, err := Merge(user)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	baseLen := len(Program().Main.Stmts)
	if len(merged.Main.Stmts) != baseLen+1 {
		t.Fatalf("len(Main.Stmts) = %d, want %d", len(merged.Main.Stmts), baseLen+1)
	}
	if merged.Main.Stmts[baseLen] != userStmt {
		t.Error("user Main statement was not appended after the prelude's")
	}
}
