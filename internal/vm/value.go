package vm

import (
	"bufio"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
)

// Kind tags the runtime representation of a Value (spec §3.3). The VM
// switches on Kind rather than using Go type assertions everywhere so
// the hot dispatch/arithmetic paths in vm.go can use a single jump
// table instead of repeated type switches.
type Kind int

const (
	KInt8 Kind = iota
	KInt16
	KInt32
	KInt64
	KInt128
	KUInt8
	KUInt16
	KUInt32
	KUInt64
	KUInt128
	KFloat16
	KFloat32
	KFloat64
	KBigInt
	KBigFloat
	KBool
	KChar
	KString
	KSymbol
	KNothing
	KMissing
	KUndef
	KArray
	KMemory
	KRange
	KTuple
	KNamedTuple
	KDict
	KSet
	KRegex
	KRegexMatch
	KFunction
	KClosure
	KComposedFunction
	KGenerator
	KDataType
	KModule
	KIO
	KRef
	KStruct    // inline value
	KStructRef // heap handle
	KPairs
	KEnum
	KExpr
	KQuoteNode
	KLineNumberNode
	KGlobalRef
)

// Value is the tagged union every VM stack slot, local, field and
// container element holds (spec §3.3). Only the fields relevant to Kind
// are meaningful at any moment; this mirrors the teacher's single-struct
// Value shape (sentra/internal/vm/value.go) rather than an interface,
// so the operand stack (a flat []Value) avoids one allocation/boxing
// per push.
type Value struct {
	Kind Kind

	I   int64   // all signed/unsigned integer widths, Bool (0/1), Char (rune)
	F   float64 // Float16/32/64 (host always computes in float64)
	Big *big.Int
	BigF *big.Float
	S   string // String, Symbol, Regex pattern

	Arr    *ArrayValue
	Mem    *MemoryValue
	Rng    *RangeValue
	Tup    []Value
	NT     *NamedTupleValue
	Dict   *DictValue
	Set    *SetValue
	Match  *RegexMatchValue
	Fn     *FunctionValue
	Clos   *ClosureValue
	Comp   *ComposedValue
	Gen    *GeneratorValue
	DType  *DataTypeValue
	Mod    *ModuleValue
	Io     *IOValue
	Ref    *RefValue
	Struct *StructValue    // inline
	SRef   int             // StructRef: index into Vm.Heap
	Pairs  *PairsValue
	Enum   *EnumValue
	Expr   *ExprValue
	QNode  *QuoteNodeValue
	LNNode *LineNumberNodeValue
	GRef   *GlobalRefValue
}

// ---- constructors ----

func Nil() Value     { return Value{Kind: KNothing} }
func Undef() Value   { return Value{Kind: KUndef} }
func MissingV() Value { return Value{Kind: KMissing} }
func Bool(b bool) Value {
	v := Value{Kind: KBool}
	if b {
		v.I = 1
	}
	return v
}
func Int64(n int64) Value   { return Value{Kind: KInt64, I: n} }
func Float64(f float64) Value { return Value{Kind: KFloat64, F: f} }
func Char(r rune) Value     { return Value{Kind: KChar, I: int64(r)} }
func Str(s string) Value    { return Value{Kind: KString, S: s} }
func Symbol(s string) Value { return Value{Kind: KSymbol, S: s} }

func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KBool:
		return v.I != 0
	case KNothing, KMissing, KUndef:
		return false
	default:
		return true
	}
}

// ---- element-specialized array storage (spec §3.3) ----

// ElemKind is the specialization tag for ArrayValue storage.
type ElemKind int

const (
	ElemF64 ElemKind = iota
	ElemI64
	ElemBool
	ElemString
	ElemChar
	ElemStructRefs
	ElemStructInline
	ElemComplexF32
	ElemComplexF64
	ElemAny
)

// ArrayValue is a shape-aware, column-major, element-specialized array
// (spec §3.3). len() is the logical element count; raw_len() is the
// underlying storage length (2x logical for interleaved complex
// storage).
type ArrayValue struct {
	ElemKind ElemKind
	Shape    []int
	StructTypeID int // valid when ElemKind == ElemStructInline

	F64  []float64 // also backs ElemComplexF32/F64 (interleaved re,im pairs)
	I64  []int64
	B    []bool
	Str  []string
	Ch   []rune
	Refs []int   // StructRef indices, ElemStructRefs
	Any  []Value // ElemStructInline elements and ElemAny fallback
}

func NewArray(kind ElemKind, shape []int) *ArrayValue {
	n := 1
	for _, d := range shape {
		n *= d
	}
	a := &ArrayValue{ElemKind: kind, Shape: append([]int{}, shape...)}
	switch kind {
	case ElemF64:
		a.F64 = make([]float64, n)
	case ElemComplexF32, ElemComplexF64:
		a.F64 = make([]float64, 2*n)
	case ElemI64:
		a.I64 = make([]int64, n)
	case ElemBool:
		a.B = make([]bool, n)
	case ElemString:
		a.Str = make([]string, n)
	case ElemChar:
		a.Ch = make([]rune, n)
	case ElemStructRefs:
		a.Refs = make([]int, n)
	default:
		a.Any = make([]Value, n)
	}
	return a
}

// Len returns the logical element count.
func (a *ArrayValue) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// RawLen returns the underlying storage length: 2x Len for interleaved
// complex storage, Len otherwise (spec §3.3 invariant (iii)).
func (a *ArrayValue) RawLen() int {
	if a.ElemKind == ElemComplexF32 || a.ElemKind == ElemComplexF64 {
		return 2 * a.Len()
	}
	return a.Len()
}

// ColMajorIndex computes the flat storage offset for a column-major
// multi-dimensional index (spec §3.3: "Column-major address calculation
// is required for multi-dimensional indexing").
func ColMajorIndex(shape []int, indices []int) int {
	idx := 0
	stride := 1
	for d := 0; d < len(shape); d++ {
		idx += indices[d] * stride
		stride *= shape[d]
	}
	return idx
}

func (a *ArrayValue) Get(flat int) Value {
	switch a.ElemKind {
	case ElemF64:
		return Float64(a.F64[flat])
	case ElemI64:
		return Int64(a.I64[flat])
	case ElemBool:
		return Bool(a.B[flat])
	case ElemString:
		return Str(a.Str[flat])
	case ElemChar:
		return Char(a.Ch[flat])
	case ElemStructRefs:
		return Value{Kind: KStructRef, SRef: a.Refs[flat]}
	default:
		return a.Any[flat]
	}
}

func (a *ArrayValue) Set(flat int, v Value) {
	switch a.ElemKind {
	case ElemF64:
		a.F64[flat] = asFloat(v)
	case ElemI64:
		a.I64[flat] = asInt(v)
	case ElemBool:
		a.B[flat] = v.IsTruthy()
	case ElemString:
		a.Str[flat] = v.S
	case ElemChar:
		a.Ch[flat] = rune(v.I)
	case ElemStructRefs:
		a.Refs[flat] = v.SRef
	default:
		a.Any[flat] = v
	}
}

func (a *ArrayValue) Push(v Value) {
	if len(a.Shape) != 1 {
		a.Shape = []int{a.Len()}
	}
	switch a.ElemKind {
	case ElemF64:
		a.F64 = append(a.F64, asFloat(v))
	case ElemI64:
		a.I64 = append(a.I64, asInt(v))
	case ElemBool:
		a.B = append(a.B, v.IsTruthy())
	case ElemString:
		a.Str = append(a.Str, v.S)
	case ElemChar:
		a.Ch = append(a.Ch, rune(v.I))
	case ElemStructRefs:
		a.Refs = append(a.Refs, v.SRef)
	default:
		a.Any = append(a.Any, v)
	}
	a.Shape[0]++
}

func asFloat(v Value) float64 {
	switch v.Kind {
	case KFloat64, KFloat32, KFloat16:
		return v.F
	case KInt64, KInt32, KInt16, KInt8, KUInt64, KUInt32, KUInt16, KUInt8:
		return float64(v.I)
	}
	return v.F
}

func asInt(v Value) int64 {
	switch v.Kind {
	case KFloat64, KFloat32, KFloat16:
		return int64(v.F)
	}
	return v.I
}

// MemoryValue is a 1-D raw buffer (spec §3.3 "Memory").
type MemoryValue struct {
	ElemKind ElemKind
	Data     *ArrayValue
}

// RangeValue is a start:step:stop range, lazily iterable.
type RangeValue struct {
	Start, Stop, Step float64
	IsFloat           bool
}

func (r *RangeValue) Len() int {
	if r.Step == 0 {
		return 0
	}
	n := (r.Stop-r.Start)/r.Step + 1
	if n < 0 {
		return 0
	}
	return int(n)
}

func (r *RangeValue) At(i int) Value {
	v := r.Start + float64(i)*r.Step
	if r.IsFloat {
		return Float64(v)
	}
	return Int64(int64(v))
}

type NamedTupleValue struct {
	Names  []string
	Values []Value
}

// DictValue is Base.Dict{K,V}: an insertion-ordered map recording its
// declared key/value type names for typeof() display (spec §3.3
// invariant (ii)).
type DictValue struct {
	KeyType, ValType string
	Keys             []Value
	Vals             []Value
	index            map[string]int
}

func NewDict(keyType, valType string) *DictValue {
	return &DictValue{KeyType: keyType, ValType: valType, index: map[string]int{}}
}

func dictKey(v Value) string {
	switch v.Kind {
	case KString, KSymbol:
		return v.Kind.String() + ":" + v.S
	case KInt64, KBool, KChar:
		return fmt.Sprintf("i:%d", v.I)
	case KFloat64:
		return fmt.Sprintf("f:%g", v.F)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (d *DictValue) Get(k Value) (Value, bool) {
	if d.index == nil {
		d.index = map[string]int{}
	}
	i, ok := d.index[dictKey(k)]
	if !ok {
		return Value{}, false
	}
	return d.Vals[i], true
}

func (d *DictValue) Set(k, v Value) {
	if d.index == nil {
		d.index = map[string]int{}
	}
	kk := dictKey(k)
	if i, ok := d.index[kk]; ok {
		d.Vals[i] = v
		return
	}
	d.index[kk] = len(d.Keys)
	d.Keys = append(d.Keys, k)
	d.Vals = append(d.Vals, v)
}

func (d *DictValue) Delete(k Value) bool {
	kk := dictKey(k)
	i, ok := d.index[kk]
	if !ok {
		return false
	}
	d.Keys = append(d.Keys[:i], d.Keys[i+1:]...)
	d.Vals = append(d.Vals[:i], d.Vals[i+1:]...)
	delete(d.index, kk)
	for k2, idx := range d.index {
		if idx > i {
			d.index[k2] = idx - 1
		}
	}
	return true
}

type SetValue struct {
	ElemType string
	Items    []Value
	index    map[string]bool
}

func NewSet(elemType string) *SetValue { return &SetValue{ElemType: elemType, index: map[string]bool{}} }

func (s *SetValue) Add(v Value) {
	if s.index == nil {
		s.index = map[string]bool{}
	}
	k := dictKey(v)
	if s.index[k] {
		return
	}
	s.index[k] = true
	s.Items = append(s.Items, v)
}

func (s *SetValue) Has(v Value) bool {
	return s.index[dictKey(v)]
}

func (s *SetValue) Delete(v Value) bool {
	k := dictKey(v)
	if !s.index[k] {
		return false
	}
	delete(s.index, k)
	for i, it := range s.Items {
		if dictKey(it) == k {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			break
		}
	}
	return true
}

type RegexMatchValue struct {
	Match  string
	Groups []string
	Offset int
}

// FunctionValue is a reference to a statically named function: its
// method-table name plus, once resolved against a concrete argument
// vector, the chosen function index (spec §3.3 "Function: global index
// + name").
type FunctionValue struct {
	Name      string
	FuncIndex int // -1 if not yet resolved to a specific method
}

// ClosureValue captures upvalues alongside a function index.
type ClosureValue struct {
	FuncIndex int
	Upvalues  []Value
}

type ComposedValue struct {
	Outer, Inner Value
}

// GeneratorValue is the lazy (function_index, source_iterator) pair
// (spec §9 "Generators").
type GeneratorValue struct {
	FuncIndex int
	Source    Value // the iterable being mapped
	State     Value // Nothing at construction; iteration progress travels in the iterate() cursor
	Started   bool
}

// DataTypeValue is a type used as a first-class value (e.g. `typeof(x)`,
// a struct's own name passed around, `Int64` referenced as a value).
type DataTypeValue struct {
	Name string
}

type ModuleValue struct {
	Name string
}

// IOValue models stdin/stdout/stderr/buffer/file handles (spec §3.3):
// "stdout"/"stderr" write through the owning Vm's own writer fields,
// "buffer" accumulates in Buf (`IOBuffer()`/`take!`), and "file" wraps
// an opened *os.File (`open`/`close`). Close is idempotent (spec §5).
type IOValue struct {
	Kind   string // "stdout", "stderr", "stdin", "buffer", "file"
	Buf    *strings.Builder
	Path   string
	File   *os.File
	closed bool
	reader *bufio.Reader // lazily wraps File, so repeated readline calls share one buffer
}

func (io *IOValue) Close() {
	if io.closed {
		return
	}
	io.closed = true
	if io.File != nil {
		io.File.Close()
	}
}
func (io *IOValue) Closed() bool { return io.closed }

// lineReader returns the *bufio.Reader wrapping File, creating it on
// first use so readline() calls on the same file IO keep sharing one
// buffer instead of re-reading from the raw file offset each time.
func (io *IOValue) lineReader() *bufio.Reader {
	if io.reader == nil && io.File != nil {
		io.reader = bufio.NewReader(io.File)
	}
	return io.reader
}

type RefValue struct {
	Boxed Value
}

// StructValue is an inline (immutable, isbits) struct value, carried by
// value rather than by heap index (spec §9 "Immutable, isbits structs
// are stored inline by value").
type StructValue struct {
	TypeID int
	Fields []Value
}

type PairsValue struct {
	Keys []Value
	Vals []Value
}

type EnumValue struct {
	TypeName string
	Name     string
	Ordinal  int
}

// ---- AST values (macro/quote runtime, spec §6 "Quoted AST literals") ----

type ExprValue struct {
	Head string
	Args []Value
}

type QuoteNodeValue struct {
	Inner Value
}

type LineNumberNodeValue struct {
	Line int
	File string
}

type GlobalRefValue struct {
	Module string
	Name   string
}

func (k Kind) String() string {
	switch k {
	case KInt8:
		return "Int8"
	case KInt16:
		return "Int16"
	case KInt32:
		return "Int32"
	case KInt64:
		return "Int64"
	case KInt128:
		return "Int128"
	case KUInt8:
		return "UInt8"
	case KUInt16:
		return "UInt16"
	case KUInt32:
		return "UInt32"
	case KUInt64:
		return "UInt64"
	case KUInt128:
		return "UInt128"
	case KFloat16:
		return "Float16"
	case KFloat32:
		return "Float32"
	case KFloat64:
		return "Float64"
	case KBigInt:
		return "BigInt"
	case KBigFloat:
		return "BigFloat"
	case KBool:
		return "Bool"
	case KChar:
		return "Char"
	case KString:
		return "String"
	case KSymbol:
		return "Symbol"
	case KNothing:
		return "Nothing"
	case KMissing:
		return "Missing"
	case KUndef:
		return "Undef"
	case KArray:
		return "Array"
	case KMemory:
		return "Memory"
	case KRange:
		return "Range"
	case KTuple:
		return "Tuple"
	case KNamedTuple:
		return "NamedTuple"
	case KDict:
		return "Dict"
	case KSet:
		return "Set"
	case KRegex:
		return "Regex"
	case KRegexMatch:
		return "RegexMatch"
	case KFunction:
		return "Function"
	case KClosure:
		return "Closure"
	case KComposedFunction:
		return "ComposedFunction"
	case KGenerator:
		return "Generator"
	case KDataType:
		return "DataType"
	case KModule:
		return "Module"
	case KIO:
		return "IO"
	case KRef:
		return "Ref"
	case KStruct, KStructRef:
		return "Struct"
	case KPairs:
		return "Pairs"
	case KEnum:
		return "Enum"
	case KExpr:
		return "Expr"
	case KQuoteNode:
		return "QuoteNode"
	case KLineNumberNode:
		return "LineNumberNode"
	case KGlobalRef:
		return "GlobalRef"
	}
	return "Unknown"
}

// sortValues stably sorts vs in place under the supplied less function.
// The `sort`/`sort!` builtins do not call it; they sort with valueLess
// directly (builtin_collections.go).
func sortValues(vs []Value, less func(a, b Value) bool) {
	sort.SliceStable(vs, func(i, j int) bool { return less(vs[i], vs[j]) })
}

func defaultLess(a, b Value) bool {
	switch a.Kind {
	case KInt64, KBool, KChar:
		return a.I < b.I
	case KFloat64:
		return a.F < b.F
	case KString, KSymbol:
		return a.S < b.S
	}
	return false
}
