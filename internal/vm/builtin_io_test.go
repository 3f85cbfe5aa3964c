package vm

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDispatchIOBuiltinPrintlnJoinsArgsWithNoSeparator(t *testing.T) {
	var buf bytes.Buffer
	v := &Vm{Stdout: &buf}
	_, handled, err := v.dispatchIOBuiltin(BuiltinPrintln, []Value{Str("a"), Int64(1)})
	if err != nil || !handled {
		t.Fatalf("println: handled=%v err=%v", handled, err)
	}
	if buf.String() != "a1\n" {
		t.Errorf("println(\"a\", 1) wrote %q, want \"a1\\n\"", buf.String())
	}
}

func TestDispatchIOBuiltinPrintNoNewline(t *testing.T) {
	var buf bytes.Buffer
	v := &Vm{Stdout: &buf}
	_, _, err := v.dispatchIOBuiltin(BuiltinPrint, []Value{Str("x")})
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if buf.String() != "x" {
		t.Errorf("print(\"x\") wrote %q, want \"x\"", buf.String())
	}
}

func TestDispatchIOBuiltinReadlineTrimsNewline(t *testing.T) {
	v := &Vm{Stdin: bufio.NewReader(strings.NewReader("hello\nworld\n"))}
	got, _, err := v.dispatchIOBuiltin(BuiltinReadline, nil)
	if err != nil {
		t.Fatalf("readline: %v", err)
	}
	if got.S != "hello" {
		t.Errorf("readline = %q, want \"hello\"", got.S)
	}
}

func TestDispatchIOBuiltinIOBufferRoundTripsThroughWriteAndTake(t *testing.T) {
	v := &Vm{}
	buf, _, err := v.dispatchIOBuiltin(BuiltinIOBuffer, nil)
	if err != nil || buf.Kind != KIO {
		t.Fatalf("IOBuffer: got %v, err=%v", buf, err)
	}
	if _, _, err := v.dispatchIOBuiltin(BuiltinWrite, []Value{buf, Str("hi "), Int64(42)}); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, _, err := v.dispatchIOBuiltin(BuiltinTakeBang, []Value{buf})
	if err != nil {
		t.Fatalf("take!: %v", err)
	}
	if got.S != "hi 42" {
		t.Errorf("take!(io) = %q, want \"hi 42\"", got.S)
	}
	again, _, err := v.dispatchIOBuiltin(BuiltinTakeBang, []Value{buf})
	if err != nil || again.S != "" {
		t.Errorf("take! after take! = %q, err=%v, want empty string", again.S, err)
	}
}

func TestDispatchIOBuiltinPrintlnToIOBufferWritesInPlace(t *testing.T) {
	v := &Vm{}
	buf, _, _ := v.dispatchIOBuiltin(BuiltinIOBuffer, nil)
	if _, _, err := v.dispatchIOBuiltin(BuiltinPrintln, []Value{buf, Str("line")}); err != nil {
		t.Fatalf("println(io, ...): %v", err)
	}
	got, _, _ := v.dispatchIOBuiltin(BuiltinTakeBang, []Value{buf})
	if got.S != "line\n" {
		t.Errorf("take!(io) = %q, want \"line\\n\"", got.S)
	}
}

func TestDispatchIOBuiltinPrintToStdoutHandleRoutesThroughVmStdout(t *testing.T) {
	var out bytes.Buffer
	v := &Vm{Stdout: &out}
	stdoutHandle, _, _ := v.dispatchIOBuiltin(BuiltinStdout, nil)
	if _, _, err := v.dispatchIOBuiltin(BuiltinPrint, []Value{stdoutHandle, Str("hi")}); err != nil {
		t.Fatalf("print(stdout, ...): %v", err)
	}
	if out.String() != "hi" {
		t.Errorf("wrote %q, want \"hi\"", out.String())
	}
}

func TestDispatchIOBuiltinOpenWriteCloseRoundTripsThroughFile(t *testing.T) {
	v := &Vm{}
	path := filepath.Join(t.TempDir(), "out.txt")
	h, _, err := v.dispatchIOBuiltin(BuiltinOpen, []Value{Str(path), Str("w")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, _, err := v.dispatchIOBuiltin(BuiltinWrite, []Value{h, Str("payload")}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := v.dispatchIOBuiltin(BuiltinClose, []Value{h}); err != nil {
		t.Fatalf("close: %v", err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(contents) != "payload" {
		t.Errorf("file contents = %q, want \"payload\"", contents)
	}
	open, _, _ := v.dispatchIOBuiltin(BuiltinIsopen, []Value{h})
	if open.Kind != KBool || open.I != 0 {
		t.Errorf("isopen after close = %v, want false", open)
	}
}

func TestDispatchIOBuiltinReadlineFromOpenFile(t *testing.T) {
	v := &Vm{}
	path := filepath.Join(t.TempDir(), "lines.txt")
	if err := os.WriteFile(path, []byte("first\nsecond\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	h, _, err := v.dispatchIOBuiltin(BuiltinOpen, []Value{Str(path)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	first, _, err := v.dispatchIOBuiltin(BuiltinReadline, []Value{h})
	if err != nil || first.S != "first" {
		t.Errorf("readline #1 = %q, err=%v, want \"first\"", first.S, err)
	}
	second, _, err := v.dispatchIOBuiltin(BuiltinReadline, []Value{h})
	if err != nil || second.S != "second" {
		t.Errorf("readline #2 = %q, err=%v, want \"second\"", second.S, err)
	}
}

func TestDispatchIOBuiltinWriteToClosedHandleErrors(t *testing.T) {
	v := &Vm{}
	buf, _, _ := v.dispatchIOBuiltin(BuiltinIOBuffer, nil)
	buf.Io.Close()
	if _, _, err := v.dispatchIOBuiltin(BuiltinWrite, []Value{buf, Str("x")}); err == nil {
		t.Error("write to a closed IO handle: want error, got nil")
	}
}
