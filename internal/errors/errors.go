// Package errors defines the error kinds spec §7 enumerates — the single
// error type every compiler, inference and VM failure is expressed as,
// each carrying a github.com/pkg/errors cause (reached through Unwrap or
// Cause) whose "%+v" output is a stack trace back to the Go call site
// that raised it (spec
// SPEC_FULL.md §2 "Errors", grounded on sentra/internal/errors.go's
// SentraError shape).
package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Kind discriminates the failure categories spec §7's table lists.
type Kind string

const (
	ParseError         Kind = "ParseError"
	UnsupportedFeature Kind = "UnsupportedFeature"
	TypeError          Kind = "TypeError"
	IndexOutOfBounds   Kind = "IndexOutOfBounds"
	DimensionMismatch  Kind = "DimensionMismatch"
	NotImplemented     Kind = "NotImplemented"
	ErrorException     Kind = "ErrorException"
	RecursionLimit     Kind = "RecursionLimit"
	DispatchFailure    Kind = "DispatchFailure"
)

// SourceLocation is a point in source text an error is attributed to.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// StackFrame is one call-stack entry captured when a JuliaError is
// raised inside the VM (spec §4.2 "Error semantics inside VM").
type StackFrame struct {
	Function string
	File     string
	Line     int
	Column   int
}

// JuliaError is the single error type every subsystem in this module
// returns: a Kind (spec §7's table), a message, an optional source
// location, and an optional VM call stack. At construction the cause is
// set to a github.com/pkg/errors value that records a Go-side stack
// trace, so printing that cause with `%+v` traces back to the raising
// site (the JuliaError itself prints only Error()), independent of the
// JuliaError.CallStack the VM records for the user-visible bytecode call
// stack.
type JuliaError struct {
	Kind      Kind
	Message   string
	Location  SourceLocation
	CallStack []StackFrame

	// IndexOutOfBounds detail
	Indices []int
	Shape   []int

	// DimensionMismatch detail
	Expected []int
	Got      []int

	// DispatchFailure detail
	FuncName string
	ArgTypes []string

	cause error
}

func (e *JuliaError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s", e.Kind, e.Message))
	switch e.Kind {
	case IndexOutOfBounds:
		sb.WriteString(fmt.Sprintf(" (indices=%v, shape=%v)", e.Indices, e.Shape))
	case DimensionMismatch:
		sb.WriteString(fmt.Sprintf(" (expected=%v, got=%v)", e.Expected, e.Got))
	case DispatchFailure:
		sb.WriteString(fmt.Sprintf(" (%s(%s))", e.FuncName, strings.Join(e.ArgTypes, ", ")))
	}
	if e.Location.File != "" {
		sb.WriteString(fmt.Sprintf("\n  at %s:%d:%d", e.Location.File, e.Location.Line, e.Location.Column))
	}
	for _, f := range e.CallStack {
		if f.Function != "" {
			sb.WriteString(fmt.Sprintf("\n  in %s at %s:%d:%d", f.Function, f.File, f.Line, f.Column))
		} else {
			sb.WriteString(fmt.Sprintf("\n  at %s:%d:%d", f.File, f.Line, f.Column))
		}
	}
	return sb.String()
}

// Cause lets github.com/pkg/errors.Cause / Unwrap walk through to any Go
// error this JuliaError wraps: the stack-carrying error newErr records,
// or the wrapped error passed to Wrap.
func (e *JuliaError) Cause() error { return e.cause }
func (e *JuliaError) Unwrap() error { return e.cause }

func newErr(kind Kind, msg string) *JuliaError {
	je := &JuliaError{Kind: kind, Message: msg}
	je.cause = pkgerrors.New(msg)
	return je
}

func New(kind Kind, msg string) *JuliaError { return newErr(kind, msg) }

func Newf(kind Kind, format string, args ...interface{}) *JuliaError {
	return newErr(kind, fmt.Sprintf(format, args...))
}

func NewTypeError(msg string) *JuliaError { return newErr(TypeError, msg) }

func NewIndexOutOfBounds(indices, shape []int) *JuliaError {
	e := newErr(IndexOutOfBounds, "index out of bounds")
	e.Indices, e.Shape = indices, shape
	return e
}

func NewDimensionMismatch(expected, got []int) *JuliaError {
	e := newErr(DimensionMismatch, "dimension mismatch")
	e.Expected, e.Got = expected, got
	return e
}

func NewNotImplemented(what string) *JuliaError {
	return newErr(NotImplemented, fmt.Sprintf("%s is not implemented", what))
}

func NewErrorException(msg string) *JuliaError { return newErr(ErrorException, msg) }

func NewRecursionLimit(what string) *JuliaError {
	return newErr(RecursionLimit, fmt.Sprintf("recursion limit exceeded: %s", what))
}

func NewDispatchFailure(name string, argTypes []string) *JuliaError {
	e := newErr(DispatchFailure, "no method matched")
	e.FuncName, e.ArgTypes = name, argTypes
	return e
}

// At attaches a source location, returning the same error for chaining.
func (e *JuliaError) At(file string, line, col int) *JuliaError {
	e.Location = SourceLocation{File: file, Line: line, Column: col}
	return e
}

// Push appends a call-stack frame, matching how the VM unwinds a
// multi-frame call chain onto the error as it propagates outward, so
// CallStack lists frames innermost first.
func (e *JuliaError) Push(function, file string, line, col int) *JuliaError {
	e.CallStack = append(e.CallStack, StackFrame{Function: function, File: file, Line: line, Column: col})
	return e
}

// Wrap attaches cause as the JuliaError's underlying error via
// github.com/pkg/errors, matching SPEC_FULL.md §2's "wrapped with
// pkg/errors for %+v stack traces" requirement.
func Wrap(cause error, kind Kind, msg string) *JuliaError {
	e := &JuliaError{Kind: kind, Message: msg}
	e.cause = pkgerrors.Wrap(cause, msg)
	return e
}
