package infer

import (
	"testing"

	"juliacore/internal/core"
	"juliacore/internal/lattice"
)

func litInt(n int64) *core.Literal { return &core.Literal{Kind: core.LitInt, I: n} }

func intAdd(name string) *core.Function {
	return &core.Function{
		Name: name,
		Params: []core.TypedParam{
			{Name: "x", Type: &core.TypeExpr{Name: "Int64"}},
		},
		Body: core.Block{Stmts: []core.Stmt{
			&core.ReturnStmt{Value: &core.BinaryExpr{Op: "+", Left: &core.Variable{Name: "x"}, Right: litInt(1)}},
		}},
	}
}

func TestInferFunctionReturnsNumericJoin(t *testing.T) {
	fn := intAdd("addone")
	prog := &core.Program{Functions: []*core.Function{fn}}
	eng := New(prog)

	got := eng.InferFunction(fn)
	c, ok := got.AsConcrete()
	if !ok || c.Kind != lattice.KindInt64 {
		t.Fatalf("InferFunction(addone) = %v, want Int64", got)
	}
}

func TestInferFunctionCachesByArgTypes(t *testing.T) {
	fn := intAdd("addone")
	prog := &core.Program{Functions: []*core.Function{fn}}
	eng := New(prog)

	argTypes := []lattice.Type{lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindInt64})}
	first := eng.InferFunctionWithArgTypes(fn, argTypes)
	second := eng.InferFunctionWithArgTypes(fn, argTypes)
	if first.String() != second.String() {
		t.Fatalf("cached inference differs: %v != %v", first, second)
	}
}

func TestNarrowIsaSplitsBranches(t *testing.T) {
	env := TypeEnv{"x": lattice.Top}
	cond := &core.CallExpr{
		Callee: &core.Variable{Name: "isa"},
		Args: []core.Arg{
			{Value: &core.Variable{Name: "x"}},
			{Value: &core.Variable{Name: "Int64"}},
		},
	}
	pos, neg := narrow(cond, env)
	if pos["x"].String() == neg["x"].String() {
		t.Fatalf("narrow(isa(x,Int64)) did not split branches: pos=%v neg=%v", pos["x"], neg["x"])
	}
}

func TestIfStmtJoinsBranchReturnTypes(t *testing.T) {
	fn := &core.Function{
		Name: "pick",
		Params: []core.TypedParam{
			{Name: "b", Type: &core.TypeExpr{Name: "Bool"}},
		},
		Body: core.Block{Stmts: []core.Stmt{
			&core.IfStmt{
				Cond: &core.Variable{Name: "b"},
				Then: core.Block{Stmts: []core.Stmt{&core.ReturnStmt{Value: litInt(1)}}},
				Else: &core.Block{Stmts: []core.Stmt{&core.ReturnStmt{Value: &core.Literal{Kind: core.LitFloat, F: 2.0}}}},
			},
		}},
	}
	prog := &core.Program{Functions: []*core.Function{fn}}
	eng := New(prog)

	got := eng.InferFunction(fn)
	if got.Tag != lattice.TagConcrete {
		t.Fatalf("InferFunction(pick) = %v, want a concrete numeric join", got)
	}
}
