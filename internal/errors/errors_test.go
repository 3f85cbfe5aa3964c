package errors

import (
	"strings"
	"testing"
)

func TestJuliaErrorFormatsKindAndMessage(t *testing.T) {
	e := NewTypeError("expected an Int64")
	if !strings.HasPrefix(e.Error(), "TypeError: expected an Int64") {
		t.Errorf("Error() = %q, want it to start with \"TypeError: expected an Int64\"", e.Error())
	}
}

func TestJuliaErrorIndexOutOfBoundsIncludesDetail(t *testing.T) {
	e := NewIndexOutOfBounds([]int{5}, []int{3})
	msg := e.Error()
	if !strings.Contains(msg, "indices=[5]") || !strings.Contains(msg, "shape=[3]") {
		t.Errorf("Error() = %q, want indices/shape detail", msg)
	}
}

func TestJuliaErrorDispatchFailureIncludesSignature(t *testing.T) {
	e := NewDispatchFailure("foo", []string{"Int64", "String"})
	msg := e.Error()
	if !strings.Contains(msg, "foo(Int64, String)") {
		t.Errorf("Error() = %q, want the call signature", msg)
	}
}

func TestJuliaErrorAtAttachesLocation(t *testing.T) {
	e := NewErrorException("boom").At("main.jl", 10, 4)
	msg := e.Error()
	if !strings.Contains(msg, "at main.jl:10:4") {
		t.Errorf("Error() = %q, want the source location", msg)
	}
}

func TestJuliaErrorPushBuildsCallStack(t *testing.T) {
	e := NewErrorException("boom").Push("inner", "a.jl", 1, 1).Push("outer", "b.jl", 2, 2)
	if len(e.CallStack) != 2 {
		t.Fatalf("CallStack has %d frames, want 2", len(e.CallStack))
	}
	if e.CallStack[0].Function != "inner" || e.CallStack[1].Function != "outer" {
		t.Errorf("CallStack = %v, want [inner outer] in push order", e.CallStack)
	}
}

func TestNewRecursionLimitMessage(t *testing.T) {
	e := NewRecursionLimit("factorial")
	if e.Kind != RecursionLimit {
		t.Errorf("Kind = %v, want RecursionLimit", e.Kind)
	}
	if !strings.Contains(e.Error(), "factorial") {
		t.Errorf("Error() = %q, want it to mention factorial", e.Error())
	}
}
