// Package prelude implements spec §6's merge_prelude(user_program) ->
// Program: a small pure-language-authored standard library, injected
// ahead of every user program, merged by the rules spec §9 ("Prelude vs
// user shadowing") describes.
//
// The functions below are hand-built already-lowered Core IR rather than
// parsed from literal source text, since the surface-syntax parser that
// would read prelude source is the same out-of-scope external
// collaborator as the one that reads user source (spec §1); this is
// what that parser would have produced for a small Base-like module.
package prelude

import (
	"juliacore/internal/core"

	pkgerrors "github.com/pkg/errors"
)

func v(name string) core.Expr { return &core.Variable{Name: name} }

func lit(i int64) core.Expr { return &core.Literal{Kind: core.LitInt, I: i} }

func bin(op string, l, r core.Expr) core.Expr { return &core.BinaryExpr{Op: op, Left: l, Right: r} }

func call(builtin string, args ...core.Expr) core.Expr {
	return &core.BuiltinCallExpr{Builtin: builtin, Args: args}
}

func fn(name string, params []string, body core.Expr) *core.Function {
	ps := make([]core.TypedParam, len(params))
	for i, p := range params {
		ps[i] = core.TypedParam{Name: p}
	}
	return &core.Function{
		Name:      name,
		Params:    ps,
		Body:      core.Block{Stmts: []core.Stmt{&core.ReturnStmt{Value: body}}},
		IsPrelude: true,
		Span:      core.Span{File: "prelude"},
	}
}

// clamp(x, lo, hi) keeps x within [lo, hi], built from two nested
// ternaries since the prelude has no if/else statement form to spare.
func clampFn() *core.Function {
	x, lo, hi := v("x"), v("lo"), v("hi")
	body := &core.TernaryExpr{
		Cond: bin("<", x, lo),
		Then: lo,
		Else: &core.TernaryExpr{Cond: bin(">", x, hi), Then: hi, Else: x},
	}
	return fn("clamp", []string{"x", "lo", "hi"}, body)
}

// Program returns the prelude's own Core IR: every entry is marked
// IsPrelude (spec §6) and none is exported, so an identically-named user
// function collides unless it explicitly exports itself (spec §9).
func Program() *core.Program {
	return &core.Program{
		Functions: []*core.Function{
			fn("identity", []string{"x"}, v("x")),
			fn("square", []string{"x"}, bin("*", v("x"), v("x"))),
			fn("cube", []string{"x"}, bin("*", bin("*", v("x"), v("x")), v("x"))),
			fn("hypot", []string{"a", "b"}, call("sqrt",
				bin("+", bin("^", v("a"), lit(2)), bin("^", v("b"), lit(2))))),
			clampFn(),
		},
	}
}

// Merge implements spec §6's merge_prelude: prelude structs, abstract
// types and functions are injected ahead of user.* Structs/Abstracts
// with a name a user definition repeats are replaced in place by the
// user's version; Functions are not replaceable — a colliding name is
// rejected as a duplicate unless the user function is Exported, in which
// case both coexist in the method table and the prelude's earlier
// declaration order wins exact-name dispatch ties (spec §4.1
// "Method-table construction", stable tie-break by position).
func Merge(user *core.Program) (*core.Program, error) {
	base := Program()

	functions, err := mergeFunctions(base.Functions, user.Functions)
	if err != nil {
		return nil, err
	}

	main := core.Block{Stmts: append(append([]core.Stmt{}, base.Main.Stmts...), user.Main.Stmts...)}

	return &core.Program{
		Structs:           mergeStructs(base.Structs, user.Structs),
		Abstracts:         mergeAbstracts(base.Abstracts, user.Abstracts),
		Functions:         functions,
		Globals:           append(append([]*core.Global{}, base.Globals...), user.Globals...),
		Usings:            append(append([]core.UsingImport{}, base.Usings...), user.Usings...),
		Modules:           append(append([]*core.Module{}, base.Modules...), user.Modules...),
		Main:              main,
		BaseFunctionCount: len(base.Functions),
	}, nil
}

func mergeStructs(base, user []*core.StructDef) []*core.StructDef {
	merged := append([]*core.StructDef{}, base...)
	at := make(map[string]int, len(merged))
	for i, s := range merged {
		at[s.Name] = i
	}
	for _, s := range user {
		if i, ok := at[s.Name]; ok {
			merged[i] = s
			continue
		}
		at[s.Name] = len(merged)
		merged = append(merged, s)
	}
	return merged
}

func mergeAbstracts(base, user []*core.AbstractTypeDef) []*core.AbstractTypeDef {
	merged := append([]*core.AbstractTypeDef{}, base...)
	at := make(map[string]int, len(merged))
	for i, a := range merged {
		at[a.Name] = i
	}
	for _, a := range user {
		if i, ok := at[a.Name]; ok {
			merged[i] = a
			continue
		}
		at[a.Name] = len(merged)
		merged = append(merged, a)
	}
	return merged
}

func mergeFunctions(base, user []*core.Function) ([]*core.Function, error) {
	merged := append([]*core.Function{}, base...)
	prelude := make(map[string]bool, len(base))
	for _, f := range base {
		prelude[f.Name] = true
	}
	for _, f := range user {
		if prelude[f.Name] && !f.Exported {
			return nil, pkgerrors.Errorf("merge_prelude: %q collides with a prelude function; export it to coexist (spec §9)", f.Name)
		}
		merged = append(merged, f)
	}
	return merged, nil
}
