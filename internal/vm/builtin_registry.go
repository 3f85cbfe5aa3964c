// Package vm implements the stack-based bytecode interpreter: frames,
// the struct heap, the builtin dispatch chain, and the iterator/
// try-catch-finally protocols (spec §4.2).
package vm

import "juliacore/internal/bytecode"

// Builtin identifiers, grouped the way spec §4.2's dispatch chain orders
// its builtin groups: math, io, collections, dicts/sets, numeric,
// strings, arrays, types/reflection, linalg. Each id has exactly one
// owning handler in the chain (spec §9 "strict single-ownership per
// BuiltinId") — see dispatchBuiltin in builtin_dispatch.go.
const (
	// math
	BuiltinSin bytecode.BuiltinId = iota
	BuiltinCos
	BuiltinTan
	BuiltinSqrt
	BuiltinAbs
	BuiltinFloor
	BuiltinCeil
	BuiltinRound
	BuiltinExp
	BuiltinLog
	BuiltinMin
	BuiltinMax

	// io
	BuiltinPrintln
	BuiltinPrint
	BuiltinReadline
	BuiltinStdout
	BuiltinStderr
	BuiltinStdin
	BuiltinIOBuffer
	BuiltinTakeBang
	BuiltinWrite
	BuiltinOpen
	BuiltinClose
	BuiltinIsopen
	BuiltinIncludeDependency

	// collections
	BuiltinLength
	BuiltinPushBang
	BuiltinPopBang
	BuiltinAppendBang
	BuiltinFirst
	BuiltinLast
	BuiltinReverse
	BuiltinSort
	BuiltinSortBang
	BuiltinMapFn
	BuiltinFilterFn
	BuiltinReduce
	BuiltinZip
	BuiltinEnumerate
	BuiltinIterate
	BuiltinCollect

	// dicts / sets
	BuiltinGet
	BuiltinHaskey
	BuiltinKeys
	BuiltinValues
	BuiltinDeleteBang

	// numeric / conversion
	BuiltinTypeof
	BuiltinConvert
	BuiltinParse
	BuiltinPromoteType

	// strings
	BuiltinString
	BuiltinSplit
	BuiltinJoin
	BuiltinUppercase
	BuiltinLowercase
	BuiltinReplace
	BuiltinStrip
	BuiltinStartswith
	BuiltinEndswith

	// arrays
	BuiltinZeros
	BuiltinOnes
	BuiltinFill
	BuiltinSize
	BuiltinNdims
	BuiltinReshape
	BuiltinVcat
	BuiltinHcat
	BuiltinMakeTuple
	BuiltinMakePair
	BuiltinMakeRange

	// types / reflection
	BuiltinIsa
	BuiltinSupertype
	BuiltinFieldnames
	BuiltinNameof
	BuiltinMissing
	BuiltinSymbolOf
	BuiltinGensym

	// linalg (supplemented group, SPEC_FULL.md §4)
	BuiltinDot
	BuiltinNorm
	BuiltinTranspose
	BuiltinMatmul

	// macro/quote runtime (spec §9 "Quasi-quotation")
	BuiltinEval

	numBuiltins
)

// BuiltinNames maps the surface-level function name the lowering stage
// resolved a call to onto the BuiltinId the compiler embeds in
// OpCallBuiltin (spec §4.1, §4.2). Compiler and VM both import this
// table so neither side can drift out of sync with the other.
var BuiltinNames = map[string]bytecode.BuiltinId{
	"sin": BuiltinSin, "cos": BuiltinCos, "tan": BuiltinTan, "sqrt": BuiltinSqrt,
	"abs": BuiltinAbs, "floor": BuiltinFloor, "ceil": BuiltinCeil, "round": BuiltinRound,
	"exp": BuiltinExp, "log": BuiltinLog, "min": BuiltinMin, "max": BuiltinMax,

	"println": BuiltinPrintln, "print": BuiltinPrint, "readline": BuiltinReadline,
	"stdout": BuiltinStdout, "stderr": BuiltinStderr, "stdin": BuiltinStdin,
	"IOBuffer": BuiltinIOBuffer, "take!": BuiltinTakeBang, "write": BuiltinWrite,
	"open": BuiltinOpen, "close": BuiltinClose, "isopen": BuiltinIsopen,
	"include_dependency": BuiltinIncludeDependency,

	"length": BuiltinLength, "push!": BuiltinPushBang, "pop!": BuiltinPopBang,
	"append!": BuiltinAppendBang, "first": BuiltinFirst, "last": BuiltinLast,
	"reverse": BuiltinReverse, "sort": BuiltinSort, "sort!": BuiltinSortBang,
	"map": BuiltinMapFn, "filter": BuiltinFilterFn, "reduce": BuiltinReduce,
	"zip": BuiltinZip, "enumerate": BuiltinEnumerate, "iterate": BuiltinIterate,
	"collect": BuiltinCollect,

	"get": BuiltinGet, "haskey": BuiltinHaskey, "keys": BuiltinKeys,
	"values": BuiltinValues, "delete!": BuiltinDeleteBang,

	"typeof": BuiltinTypeof, "convert": BuiltinConvert, "parse": BuiltinParse,
	"promote_type": BuiltinPromoteType,

	"string": BuiltinString, "split": BuiltinSplit, "join": BuiltinJoin,
	"uppercase": BuiltinUppercase, "lowercase": BuiltinLowercase,
	"replace": BuiltinReplace, "strip": BuiltinStrip,
	"startswith": BuiltinStartswith, "endswith": BuiltinEndswith,

	"zeros": BuiltinZeros, "ones": BuiltinOnes, "fill": BuiltinFill,
	"size": BuiltinSize, "ndims": BuiltinNdims, "reshape": BuiltinReshape,
	"vcat": BuiltinVcat, "hcat": BuiltinHcat,
	"__make_tuple": BuiltinMakeTuple, "__make_pair": BuiltinMakePair, "__make_range": BuiltinMakeRange,

	"isa": BuiltinIsa, "supertype": BuiltinSupertype, "fieldnames": BuiltinFieldnames,
	"nameof": BuiltinNameof, "missing": BuiltinMissing, "Symbol": BuiltinSymbolOf,
	"gensym": BuiltinGensym,

	"dot": BuiltinDot, "norm": BuiltinNorm, "transpose": BuiltinTranspose, "__matmul": BuiltinMatmul,

	"eval": BuiltinEval,
}
