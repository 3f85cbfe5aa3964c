package compiler

import (
	"testing"

	"juliacore/internal/core"
	"juliacore/internal/lattice"
)

func TestBuildStructTemplatesInternsNonParametricStructs(t *testing.T) {
	prog := &core.Program{
		Structs: []*core.StructDef{
			{Name: "Point", Fields: []core.FieldDef{
				{Name: "x", Type: &core.TypeExpr{Name: "Int64"}},
				{Name: "y", Type: &core.TypeExpr{Name: "Int64"}},
			}},
		},
	}
	tb := newTables(prog)
	if err := tb.buildStructTemplates(); err != nil {
		t.Fatalf("buildStructTemplates: %v", err)
	}
	id, ok := tb.structs.LookupByName("Point")
	if !ok {
		t.Fatalf("Point was not interned")
	}
	info, _ := tb.structs.Lookup(id)
	if len(info.Fields) != 2 || info.Fields[0].Name != "x" {
		t.Errorf("Point fields = %v, want [x y]", info.Fields)
	}
}

func TestInstantiateParametricStructDedupesByTypeArgs(t *testing.T) {
	tmpl := &core.StructDef{
		Name:       "Box",
		TypeParams: []core.TypeParam{{Name: "T"}},
		Fields:     []core.FieldDef{{Name: "value", Type: &core.TypeExpr{Name: "T"}}},
	}
	prog := &core.Program{Structs: []*core.StructDef{tmpl}}
	tb := newTables(prog)

	intArg := []lattice.ConcreteType{{Kind: lattice.KindInt64}}
	id1, err := tb.instantiate(tmpl, intArg, core.Span{})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	id2, err := tb.instantiate(tmpl, intArg, core.Span{})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if id1 != id2 {
		t.Errorf("two Box{Int64} instantiations got different type_ids: %d, %d", id1, id2)
	}

	floatArg := []lattice.ConcreteType{{Kind: lattice.KindFloat64}}
	id3, err := tb.instantiate(tmpl, floatArg, core.Span{})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if id3 == id1 {
		t.Errorf("Box{Int64} and Box{Float64} should not share a type_id")
	}
}

func TestInstantiateRejectsWrongArgCount(t *testing.T) {
	tmpl := &core.StructDef{
		Name:       "Pair",
		TypeParams: []core.TypeParam{{Name: "A"}, {Name: "B"}},
	}
	tb := newTables(&core.Program{Structs: []*core.StructDef{tmpl}})
	_, err := tb.instantiate(tmpl, []lattice.ConcreteType{{Kind: lattice.KindInt64}}, core.Span{})
	if err == nil {
		t.Fatal("expected an error for a mismatched type-argument count")
	}
}

func TestBuildMethodTableResolvesParamTypesAndRegistersByFuncIndex(t *testing.T) {
	fn := &core.Function{
		Name: "double",
		Params: []core.TypedParam{
			{Name: "x", Type: &core.TypeExpr{Name: "Int64"}},
		},
		ReturnType: &core.TypeExpr{Name: "Int64"},
	}
	prog := &core.Program{Functions: []*core.Function{fn}}
	tb := newTables(prog)
	if err := tb.buildMethodTable(); err != nil {
		t.Fatalf("buildMethodTable: %v", err)
	}

	m, ok := tb.methods.Resolve("double", []lattice.Type{lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindInt64})})
	if !ok {
		t.Fatal("double(Int64) did not resolve")
	}
	if m.FuncIndex != 0 {
		t.Errorf("FuncIndex = %d, want 0", m.FuncIndex)
	}
}

func TestBuildMethodTableRejectsVarargsNotLast(t *testing.T) {
	fn := &core.Function{
		Name: "bad",
		Params: []core.TypedParam{
			{Name: "xs", Varargs: true},
			{Name: "y"},
		},
	}
	tb := newTables(&core.Program{Functions: []*core.Function{fn}})
	if err := tb.buildMethodTable(); err == nil {
		t.Fatal("expected an error when a varargs parameter isn't last")
	}
}

func TestBuildGlobalsAssignsStableIndices(t *testing.T) {
	prog := &core.Program{
		Globals: []*core.Global{
			{Name: "PI"},
			{Name: "E"},
		},
	}
	tb := newTables(prog)
	tb.buildGlobals()

	if tb.globalIdx["PI"] != 0 || tb.globalIdx["E"] != 1 {
		t.Errorf("globalIdx = %v, want PI:0 E:1", tb.globalIdx)
	}
	if len(tb.globals) != 2 || tb.globals[1].Name != "E" || tb.globals[1].Index != 1 {
		t.Errorf("globals = %v", tb.globals)
	}
}

func TestResolveBuiltinKindNames(t *testing.T) {
	tb := newTables(&core.Program{})
	ty, err := tb.resolve(&core.TypeExpr{Name: "Float64"}, nil, core.Span{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	c, ok := ty.AsConcrete()
	if !ok || c.Kind != lattice.KindFloat64 {
		t.Errorf("resolve(Float64) = %v, want concrete Float64", ty)
	}
}

func TestResolveNilTypeExprIsAny(t *testing.T) {
	tb := newTables(&core.Program{})
	ty, err := tb.resolve(nil, nil, core.Span{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ty.String() != lattice.Any.String() {
		t.Errorf("resolve(nil) = %v, want Any", ty)
	}
}
