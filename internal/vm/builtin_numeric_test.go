package vm

import "testing"

func TestDispatchNumericBuiltinTypeof(t *testing.T) {
	v := &Vm{}
	got, handled, err := v.dispatchNumericBuiltin(BuiltinTypeof, []Value{Int64(1)})
	if err != nil || !handled {
		t.Fatalf("typeof(1): handled=%v err=%v", handled, err)
	}
	if got.Kind != KSymbol || got.S != "Int64" {
		t.Errorf("typeof(1) = %v, want :Int64", got)
	}
}

func TestDispatchNumericBuiltinConvertToFloat(t *testing.T) {
	v := &Vm{}
	got, _, err := v.dispatchNumericBuiltin(BuiltinConvert, []Value{Str("Float64"), Int64(3)})
	if err != nil {
		t.Fatalf("convert(Float64, 3): %v", err)
	}
	if got.Kind != KFloat64 || got.F != 3 {
		t.Errorf("convert(Float64, 3) = %v, want Float64(3)", got)
	}
}

func TestDispatchNumericBuiltinParseInt(t *testing.T) {
	v := &Vm{}
	got, _, err := v.dispatchNumericBuiltin(BuiltinParse, []Value{Str("Int64"), Str("42")})
	if err != nil {
		t.Fatalf("parse(Int64, \"42\"): %v", err)
	}
	if got.Kind != KInt64 || got.I != 42 {
		t.Errorf("parse(Int64, \"42\") = %v, want Int64(42)", got)
	}
}

func TestDispatchNumericBuiltinParseRejectsGarbage(t *testing.T) {
	v := &Vm{}
	_, _, err := v.dispatchNumericBuiltin(BuiltinParse, []Value{Str("Int64"), Str("nope")})
	if err == nil {
		t.Fatalf("parse(Int64, \"nope\") should error")
	}
}

func TestPromoteNumericNameWidensRank(t *testing.T) {
	if got := promoteNumericName("Int32", "Float64"); got != "Float64" {
		t.Errorf("promoteNumericName(Int32, Float64) = %q, want Float64", got)
	}
	if got := promoteNumericName("Int64", "Int32"); got != "Int64" {
		t.Errorf("promoteNumericName(Int64, Int32) = %q, want Int64", got)
	}
}

func TestPromoteNumericNameUnknownIsAny(t *testing.T) {
	if got := promoteNumericName("Widget", "Int64"); got != "Any" {
		t.Errorf("promoteNumericName(Widget, Int64) = %q, want Any", got)
	}
}
