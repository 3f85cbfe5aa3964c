package compiler

import (
	"fmt"

	"juliacore/internal/core"
)

// ErrorKind discriminates compile-time failures (spec §4.1 "Failure
// semantics"): unresolved name, malformed type-expression syntax,
// malformed IR, and explicitly unsupported features.
type ErrorKind string

const (
	UnresolvedName     ErrorKind = "UnresolvedName"
	TypeExprSyntax     ErrorKind = "TypeExprSyntax"
	MalformedIR        ErrorKind = "MalformedIR"
	UnsupportedFeature ErrorKind = "UnsupportedFeature"
)

// CompileError is fatal: the compiler produces no CompiledProgram when
// one occurs (spec §4.1).
type CompileError struct {
	Kind    ErrorKind
	Message string
	Span    core.Span
	Feature string // set when Kind == UnsupportedFeature
}

func (e *CompileError) Error() string {
	if e.Kind == UnsupportedFeature {
		return fmt.Sprintf("UnsupportedFeature(%s): %s at %s:%d:%d", e.Feature, e.Message, e.Span.File, e.Span.StartLine, e.Span.StartCol)
	}
	return fmt.Sprintf("%s: %s at %s:%d:%d", e.Kind, e.Message, e.Span.File, e.Span.StartLine, e.Span.StartCol)
}

func errUnresolved(name string, span core.Span) *CompileError {
	return &CompileError{Kind: UnresolvedName, Message: fmt.Sprintf("unresolved name %q", name), Span: span}
}

func errMalformed(msg string, span core.Span) *CompileError {
	return &CompileError{Kind: MalformedIR, Message: msg, Span: span}
}

func errUnsupported(feature, msg string, span core.Span) *CompileError {
	return &CompileError{Kind: UnsupportedFeature, Feature: feature, Message: msg, Span: span}
}

func errTypeSyntax(msg string, span core.Span) *CompileError {
	return &CompileError{Kind: TypeExprSyntax, Message: msg, Span: span}
}
