package bcfile

import (
	"os"
	"path/filepath"
	"testing"

	"juliacore/internal/bytecode"
	"juliacore/internal/core"
	"juliacore/internal/dispatch"
	"juliacore/internal/lattice"
	"juliacore/internal/vm"
)

func sampleProgram() *vm.Program {
	main := bytecode.NewChunk()
	idx := main.AddConstant(int64(42))
	main.WriteOp(bytecode.OpConstant)
	main.WriteU32(uint32(idx), bytecode.DebugInfo{})
	main.WriteOp(bytecode.OpReturn)

	st := dispatch.NewStructTable()
	st.Intern(dispatch.StructInfo{
		Name:    "Point",
		Mutable: false,
		Fields: []dispatch.FieldInfo{
			{Name: "x", Type: lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindFloat64})},
			{Name: "y", Type: lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindFloat64})},
		},
	})

	mt := dispatch.NewMethodTable()
	mt.Add(dispatch.Method{
		Name:       "addone",
		ArgTypes:   []lattice.Type{lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindInt64})},
		ReturnType: lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindInt64}),
		FuncIndex:  0,
	})

	typeIdx := core.NewTypeIndexFromPairs(map[string]string{"Point": ""})

	return &vm.Program{
		Functions: []vm.FuncDef{
			{Name: "addone", ParamNames: []string{"x"}, Chunk: main, NumLocals: 1},
		},
		Main:       main,
		GlobalInit: bytecode.NewChunk(),
		Structs:    st,
		Methods:    mt,
		Globals:    []vm.GlobalInfo{{Name: "PI", Index: 0}},
		GlobalIndex: map[string]int{"PI": 0},
		TypeIndex:         typeIdx,
		BaseFunctionCount: 0,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	prog := sampleProgram()
	path := filepath.Join(t.TempDir(), "out.sjbc")

	if err := Save(prog, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(loaded.Functions) != len(prog.Functions) {
		t.Fatalf("function count = %d, want %d", len(loaded.Functions), len(prog.Functions))
	}
	if loaded.Functions[0].Name != "addone" {
		t.Errorf("function name = %q, want addone", loaded.Functions[0].Name)
	}
	if len(loaded.Main.Code) != len(prog.Main.Code) {
		t.Errorf("main code length = %d, want %d", len(loaded.Main.Code), len(prog.Main.Code))
	}
	if _, ok := loaded.Structs.LookupByName("Point"); !ok {
		t.Errorf("struct table lost Point after round-trip")
	}
	if m, ok := loaded.Methods.Resolve("addone", []lattice.Type{lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindInt64})}); !ok || m.FuncIndex != 0 {
		t.Errorf("method table lost addone after round-trip: ok=%v m=%v", ok, m)
	}
	if loaded.GlobalIndex["PI"] != 0 {
		t.Errorf("global index lost PI after round-trip")
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.sjbc")
	if err := os.WriteFile(path, []byte("XXXX\x00\x01\x00\x00"), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("Load accepted a file with a bad magic")
	}
}
