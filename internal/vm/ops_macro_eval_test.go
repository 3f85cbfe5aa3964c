package vm

import "testing"

func exprCall(op string, args ...Value) Value {
	return Value{Kind: KExpr, Expr: &ExprValue{Head: "call", Args: append([]Value{Symbol(op)}, args...)}}
}

func TestEvalQuoteNodeUnwrapsInner(t *testing.T) {
	v := &Vm{}
	got, err := v.Eval(Value{Kind: KQuoteNode, QNode: &QuoteNodeValue{Inner: Int64(7)}})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Kind != KInt64 || got.I != 7 {
		t.Errorf("Eval(QuoteNode(7)) = %v, want Int64(7)", got)
	}
}

func TestEvalSymbolLooksUpGlobal(t *testing.T) {
	v := &Vm{
		Program: &Program{GlobalIndex: map[string]int{"x": 0}},
		Globals: []Value{Int64(99)},
	}
	got, err := v.Eval(Symbol("x"))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Kind != KInt64 || got.I != 99 {
		t.Errorf("Eval(:x) = %v, want Int64(99)", got)
	}
}

func TestEvalSymbolUnknownReturnsItself(t *testing.T) {
	v := &Vm{Program: &Program{}}
	got, err := v.Eval(Symbol("undefined_name"))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Kind != KSymbol || got.S != "undefined_name" {
		t.Errorf("Eval(:undefined_name) = %v, want the Symbol itself", got)
	}
}

func TestEvalCallArithmeticKeepsIntKind(t *testing.T) {
	v := &Vm{Program: &Program{}}
	got, err := v.Eval(exprCall("+", Int64(2), Int64(3)))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Kind != KInt64 || got.I != 5 {
		t.Errorf("eval(:(2+3)) = %v, want Int64(5)", got)
	}
}

func TestEvalCallUnaryMinus(t *testing.T) {
	v := &Vm{Program: &Program{}}
	got, err := v.Eval(exprCall("-", Int64(5)))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Kind != KInt64 || got.I != -5 {
		t.Errorf("eval(:(-5)) = %v, want Int64(-5)", got)
	}
}

func TestEvalCallFallsThroughToBuiltinNamesTable(t *testing.T) {
	v := &Vm{Program: &Program{}}
	got, err := v.Eval(exprCall("sqrt", Float64(9)))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Kind != KFloat64 || got.F != 3 {
		t.Errorf("eval(:(sqrt(9))) = %v, want Float64(3)", got)
	}
}

func TestEvalBlockSkipsLineNumberNodeAndReturnsLastValue(t *testing.T) {
	v := &Vm{Program: &Program{}}
	block := Value{Kind: KExpr, Expr: &ExprValue{Head: "block", Args: []Value{
		{Kind: KLineNumberNode, LNNode: &LineNumberNodeValue{Line: 1, File: "quoted"}},
		Int64(1),
		Int64(2),
	}}}
	got, err := v.Eval(block)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Kind != KInt64 || got.I != 2 {
		t.Errorf("eval(block) = %v, want Int64(2) (the last statement)", got)
	}
}

func TestEvalComparison(t *testing.T) {
	v := &Vm{Program: &Program{}}
	cmp := Value{Kind: KExpr, Expr: &ExprValue{Head: "comparison", Args: []Value{Int64(1), Symbol("<"), Int64(2)}}}
	got, err := v.Eval(cmp)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Kind != KBool || got.I != 1 {
		t.Errorf("eval(:(1 < 2)) = %v, want true", got)
	}
}

func TestEvalLogicalAndShortCircuitsOnFalse(t *testing.T) {
	v := &Vm{Program: &Program{}}
	// The right side would error if evaluated; short-circuit must avoid it.
	badRight := Value{Kind: KExpr, Expr: &ExprValue{Head: "nonsense"}}
	and := Value{Kind: KExpr, Expr: &ExprValue{Head: "&&", Args: []Value{Bool(false), badRight}}}
	got, err := v.Eval(and)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Kind != KBool || got.I != 0 {
		t.Errorf("eval(false && ...) = %v, want false", got)
	}
}

func TestEvalLogicalOrShortCircuitsOnTrue(t *testing.T) {
	v := &Vm{Program: &Program{}}
	badRight := Value{Kind: KExpr, Expr: &ExprValue{Head: "nonsense"}}
	or := Value{Kind: KExpr, Expr: &ExprValue{Head: "||", Args: []Value{Bool(true), badRight}}}
	got, err := v.Eval(or)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Kind != KBool || got.I != 1 {
		t.Errorf("eval(true || ...) = %v, want true", got)
	}
}

func TestEvalAssignmentStoresToGlobalAndReturnsValue(t *testing.T) {
	v := &Vm{
		Program: &Program{GlobalIndex: map[string]int{"x": 0}},
		Globals: []Value{Int64(0)},
	}
	assign := Value{Kind: KExpr, Expr: &ExprValue{Head: "=", Args: []Value{Symbol("x"), Int64(41)}}}
	got, err := v.Eval(assign)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Kind != KInt64 || got.I != 41 {
		t.Errorf("eval(:(x = 41)) returned %v, want Int64(41)", got)
	}
	if v.Globals[0].I != 41 {
		t.Errorf("Globals[0] = %v after assignment, want Int64(41)", v.Globals[0])
	}
}

func TestEvalAssignmentToUnknownGlobalErrors(t *testing.T) {
	v := &Vm{Program: &Program{}}
	assign := Value{Kind: KExpr, Expr: &ExprValue{Head: "=", Args: []Value{Symbol("nope"), Int64(1)}}}
	if _, err := v.Eval(assign); err == nil {
		t.Error("eval(:(nope = 1)) with no such global: want error, got nil")
	}
}

func TestEvalUnsupportedHeadErrors(t *testing.T) {
	v := &Vm{Program: &Program{}}
	if _, err := v.Eval(Value{Kind: KExpr, Expr: &ExprValue{Head: "while"}}); err == nil {
		t.Error("eval of an unsupported Expr head: want error, got nil")
	}
}

func TestDispatchMacroBuiltinEvalRunsAQuotedCall(t *testing.T) {
	v := &Vm{Program: &Program{}}
	got, handled, err := v.dispatchMacroBuiltin(BuiltinEval, []Value{exprCall("*", Int64(6), Int64(7))})
	if !handled || err != nil {
		t.Fatalf("dispatchMacroBuiltin: handled=%v err=%v", handled, err)
	}
	if got.Kind != KInt64 || got.I != 42 {
		t.Errorf("eval(:(6*7)) = %v, want Int64(42)", got)
	}
}
