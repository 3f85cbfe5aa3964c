// Package bytecode defines the linear instruction set the compiler emits
// and the stack VM executes (spec §4.1, §4.2). It is the single contract
// between the two: neither side reaches past it into the Core IR or the
// VM's internals.
package bytecode

// OpCode is a single bytecode operation. Operand shapes are documented
// per group below.
type OpCode byte

const (
	// Stack literals / constants
	OpConstant OpCode = iota // u32 const-pool index
	OpNil                    // push Nothing
	OpUndef                  // push Undef

	// Load/store per type — slot indices are resolved from names to u16
	// frame-local indices at bytecode-finalization time (spec §4.1).
	OpLoadI64
	OpStoreI64
	OpLoadF64
	OpStoreF64
	OpLoadArray
	OpStoreArray
	OpLoadAny
	OpStoreAny
	OpLoadDict
	OpStoreDict
	OpLoadSet
	OpStoreSet
	OpLoadGlobal
	OpStoreGlobal

	// Arithmetic / comparison intrinsics, type-specialized. The *Any
	// variants fall back to dynamic dispatch through the method table.
	OpAddI64
	OpSubI64
	OpMulI64
	OpDivI64 // integer / integer -> Float64 (spec §4.1 specialization policy)
	OpModI64
	OpPowI64 // powi
	OpAddF64
	OpSubF64
	OpMulF64
	OpDivF64
	OpPowF64 // powf
	OpNegI64
	OpNegF64
	OpEqAny
	OpNeAny
	OpLtI64
	OpLeI64
	OpGtI64
	OpGeI64
	OpLtF64
	OpLeF64
	OpGtF64
	OpGeF64
	OpNot
	OpStringConcat // String * String
	OpStringRepeat // String ^ Int

	// Dynamic/struct operator fallback: pops operands, resolves the
	// runtime types, and dispatches through the method table for the
	// named operator, falling through to a builtin numeric table when
	// no user method matches (spec §4.1 "Specialization policy").
	OpBinaryDispatch // u32 opNameConstIdx
	OpUnaryDispatch  // u32 opNameConstIdx

	// Branching — targets are u32 byte offsets, patched after emission.
	OpJump
	OpJumpIfZero
	OpJumpIfNotZero

	// Calls — the callee is resolved by name at runtime through the
	// method table (spec §4.1/§4.4: multiple dispatch in general cannot
	// be fully resolved at compile time when an argument's static type is
	// Any), not bound to a fixed function index at compile time.
	OpCall        // u32 nameConstIdx, u16 argc
	OpCallKw      // u32 nameConstIdx, u16 argc, u16 kwargc, u32 kwNamesConstIdx (positional+kwarg values precede on stack)
	OpCallBuiltin // u16 BuiltinId, u16 argc
	OpCallDynamic // u16 argc; pops callable then argc args

	// Collections
	OpNewArray           // u32 n; pops n elements
	OpNewArrayTyped      // u32 elemTypeConstIdx, u32 n
	OpFinalizeArray      // u16 ndims; pops ndims shape dims + elements already pushed
	OpFinalizeArrayTyped // u32 elemTypeConstIdx, u16 ndims
	OpNewDict
	OpNewDictTyped // u32 keyTypeConstIdx, u32 valTypeConstIdx
	OpNewSet
	OpNewMemory        // u32 elemTypeConstIdx, u32 n
	OpNewMemoryDynamic // u32 elemTypeConstIdx; pops n from stack
	OpAllocUndefTyped  // u32 typeConstIdx
	OpIndexLoad        // u16 ndims
	OpIndexStore       // u16 ndims
	OpArrayPush
	OpSetAdd
	OpDictSet

	// Struct construction and field access
	OpNewStruct    // u32 typeId, u16 nfields — inline value
	OpNewStructRef // u32 typeId, u16 nfields — heap-allocated, pushes StructRef
	OpGetField     // u32 fieldNameConstIdx
	OpSetField     // u32 fieldNameConstIdx

	// Control of frame state
	OpReturn
	OpPop
	OpDup
	OpMakeClosure   // u32 funcIndex, u16 nUpvalues
	OpMakeGenerator // u32 funcNameConstIdx; pops the source iterator
	OpWrapInGenerator

	// Quote/macro runtime (spec §6, §9)
	OpMakeSymbol         // u32 nameConstIdx
	OpMakeExpr           // u32 headConstIdx, u16 nargs
	OpMakeQuoteNode
	OpMakeLineNumberNode
	OpMakeGlobalRef // u32 moduleConstIdx, u32 nameConstIdx
	OpSpliceSplat   // flattens a top-of-stack array into the surrounding Expr arg list being built

	// try/catch/finally frames
	OpPushTry // u32 catchTarget (byte offset)
	OpPopTry
	OpThrow

	// misc
	OpPrint
	OpIsA // u32 typeNameConstIdx
	OpTypeOf
)

// Name returns a human-readable mnemonic, used in error messages.
func (op OpCode) Name() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return "OpUnknown"
}

var opNames = map[OpCode]string{
	OpConstant: "Constant", OpNil: "Nil", OpUndef: "Undef",
	OpLoadI64: "LoadI64", OpStoreI64: "StoreI64",
	OpLoadF64: "LoadF64", OpStoreF64: "StoreF64",
	OpLoadArray: "LoadArray", OpStoreArray: "StoreArray",
	OpLoadAny: "LoadAny", OpStoreAny: "StoreAny",
	OpLoadDict: "LoadDict", OpStoreDict: "StoreDict",
	OpLoadSet: "LoadSet", OpStoreSet: "StoreSet",
	OpLoadGlobal: "LoadGlobal", OpStoreGlobal: "StoreGlobal",
	OpAddI64: "AddI64", OpSubI64: "SubI64", OpMulI64: "MulI64", OpDivI64: "DivI64",
	OpModI64: "ModI64", OpPowI64: "PowI64",
	OpAddF64: "AddF64", OpSubF64: "SubF64", OpMulF64: "MulF64", OpDivF64: "DivF64", OpPowF64: "PowF64",
	OpNegI64: "NegI64", OpNegF64: "NegF64",
	OpEqAny: "EqAny", OpNeAny: "NeAny",
	OpLtI64: "LtI64", OpLeI64: "LeI64", OpGtI64: "GtI64", OpGeI64: "GeI64",
	OpLtF64: "LtF64", OpLeF64: "LeF64", OpGtF64: "GtF64", OpGeF64: "GeF64",
	OpNot: "Not", OpStringConcat: "StringConcat", OpStringRepeat: "StringRepeat",
	OpBinaryDispatch: "BinaryDispatch", OpUnaryDispatch: "UnaryDispatch",
	OpJump: "Jump", OpJumpIfZero: "JumpIfZero", OpJumpIfNotZero: "JumpIfNotZero",
	OpCall: "Call", OpCallKw: "CallKw", OpCallBuiltin: "CallBuiltin", OpCallDynamic: "CallDynamic",
	OpNewArray: "NewArray", OpNewArrayTyped: "NewArrayTyped",
	OpFinalizeArray: "FinalizeArray", OpFinalizeArrayTyped: "FinalizeArrayTyped",
	OpNewDict: "NewDict", OpNewDictTyped: "NewDictTyped", OpNewSet: "NewSet",
	OpNewMemory: "NewMemory", OpNewMemoryDynamic: "NewMemoryDynamic",
	OpAllocUndefTyped: "AllocUndefTyped",
	OpIndexLoad:        "IndexLoad", OpIndexStore: "IndexStore",
	OpArrayPush: "ArrayPush", OpSetAdd: "SetAdd", OpDictSet: "DictSet",
	OpNewStruct: "NewStruct", OpNewStructRef: "NewStructRef",
	OpGetField: "GetField", OpSetField: "SetField",
	OpReturn: "Return", OpPop: "Pop", OpDup: "Dup",
	OpMakeClosure: "MakeClosure", OpMakeGenerator: "MakeGenerator", OpWrapInGenerator: "WrapInGenerator",
	OpMakeSymbol: "MakeSymbol", OpMakeExpr: "MakeExpr", OpMakeQuoteNode: "MakeQuoteNode",
	OpMakeLineNumberNode: "MakeLineNumberNode", OpMakeGlobalRef: "MakeGlobalRef", OpSpliceSplat: "SpliceSplat",
	OpPushTry: "PushTry", OpPopTry: "PopTry", OpThrow: "Throw",
	OpPrint: "Print", OpIsA: "IsA", OpTypeOf: "TypeOf",
}

// BuiltinId identifies one entry in the builtin dispatch chain (spec
// §4.2, §9 ownership invariant). The authoritative owning-handler table
// lives in internal/vm/builtin_registry.go.
type BuiltinId uint16
