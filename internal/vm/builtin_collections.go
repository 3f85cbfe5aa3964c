package vm

import (
	"sort"

	"juliacore/internal/bytecode"
	"juliacore/internal/errors"
)

// pairOf builds the (value, state) shape the iterator protocol returns
// (spec §4.2 "iterate(coll) returns the tuple (first_element, state) or
// Nothing"), modeled as a 2-field NamedTuple so the compiler's
// GetField("first"/"second") destructuring (emit_calls.go
// compileForEachInline) works without a dedicated Pair opcode.
func pairOf(elem, state Value) Value {
	return Value{Kind: KNamedTuple, NT: &NamedTupleValue{Names: []string{"first", "second"}, Values: []Value{elem, state}}}
}

// iterCursor packages a source collection plus its current position as
// a single self-sufficient Value, so `iterate(state)` never needs the
// original collection passed back in separately (spec §4.2's 2-arg
// `iterate(coll, state)` collapsed into this 1-arg protocol). KPairs is
// repurposed as the marker Kind for this internal cursor shape — no
// user-visible iterable is ever itself Kind KPairs, so there is no
// ambiguity with a real collection reaching dispatchIterate.
func iterCursor(source, pos Value) Value {
	return Value{Kind: KPairs, Pairs: &PairsValue{Keys: []Value{source}, Vals: []Value{pos}}}
}

// dispatchIterate implements the iterator protocol (spec §4.2 "Iterator
// protocol"): arg is either a raw iterable (first call) or a cursor
// returned by a previous call (subsequent calls); the compiler's
// for-loop desugaring only ever threads a cursor back in (never a full
// (elem,state) pair), avoiding the reentrant-ambiguity a stateful
// "first"/"second" pair would create.
func (vm *Vm) dispatchIterate(args []Value) (Value, error) {
	var source, pos Value
	if len(args) == 2 {
		source, pos = args[0], args[1]
	} else if len(args) == 1 && args[0].Kind == KPairs {
		source, pos = args[0].Pairs.Keys[0], args[0].Pairs.Vals[0]
	} else if len(args) == 1 {
		source, pos = args[0], Int64(0)
	} else {
		return Value{}, errors.NewDispatchFailure("iterate", argKindNames(args))
	}
	return vm.iterAdvance(source, pos)
}

func (vm *Vm) iterAdvance(source, pos Value) (Value, error) {
	switch source.Kind {
	case KArray:
		i := int(pos.I)
		if i >= source.Arr.Len() {
			return Nil(), nil
		}
		return pairOf(source.Arr.Get(i), iterCursor(source, Int64(i+1))), nil
	case KTuple:
		i := int(pos.I)
		if i >= len(source.Tup) {
			return Nil(), nil
		}
		return pairOf(source.Tup[i], iterCursor(source, Int64(i+1))), nil
	case KRange:
		i := int(pos.I)
		if i >= source.Rng.Len() {
			return Nil(), nil
		}
		return pairOf(source.Rng.At(i), iterCursor(source, Int64(i+1))), nil
	case KString:
		runes := []rune(source.S)
		i := int(pos.I)
		if i >= len(runes) {
			return Nil(), nil
		}
		return pairOf(Char(runes[i]), iterCursor(source, Int64(i+1))), nil
	case KDict:
		i := int(pos.I)
		if i >= len(source.Dict.Keys) {
			return Nil(), nil
		}
		return pairOf(pairOf(source.Dict.Keys[i], source.Dict.Vals[i]), iterCursor(source, Int64(i+1))), nil
	case KSet:
		i := int(pos.I)
		if i >= len(source.Set.Items) {
			return Nil(), nil
		}
		return pairOf(source.Set.Items[i], iterCursor(source, Int64(i+1))), nil
	case KGenerator:
		var innerResult Value
		var err error
		if pos.Kind == KPairs {
			innerResult, err = vm.iterAdvance(pos.Pairs.Keys[0], pos.Pairs.Vals[0])
		} else {
			innerResult, err = vm.iterAdvance(source.Gen.Source, Int64(0))
		}
		if err != nil {
			return Value{}, err
		}
		if innerResult.Kind == KNothing {
			return Nil(), nil
		}
		srcElem := innerResult.NT.Values[0]
		nextInner := innerResult.NT.Values[1]
		mapped, err := vm.callFunction(source.Gen.FuncIndex, []Value{srcElem}, nil)
		if err != nil {
			return Value{}, err
		}
		return pairOf(mapped, iterCursor(source, nextInner)), nil
	case KNothing:
		return Nil(), nil
	}
	return Value{}, errors.NewTypeError("value is not iterable: " + source.Kind.String())
}

// collectAll materializes any iterable into a Go slice by driving the
// iterate protocol to exhaustion (spec §9 "collect materializes").
func (vm *Vm) collectAll(v Value) ([]Value, error) {
	out := []Value{}
	cur, err := vm.iterAdvance(v, Int64(0))
	if err != nil {
		return nil, err
	}
	for cur.Kind != KNothing {
		out = append(out, cur.NT.Values[0])
		state := cur.NT.Values[1]
		cur, err = vm.iterAdvance(state.Pairs.Keys[0], state.Pairs.Vals[0])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func valueLen(v Value) (int, error) {
	switch v.Kind {
	case KArray:
		return v.Arr.Len(), nil
	case KTuple:
		return len(v.Tup), nil
	case KString:
		return len([]rune(v.S)), nil
	case KDict:
		return len(v.Dict.Keys), nil
	case KSet:
		return len(v.Set.Items), nil
	case KRange:
		return v.Rng.Len(), nil
	}
	return 0, errors.NewTypeError("length: unsupported type " + v.Kind.String())
}

// dispatchCollectionsBuiltin owns length/push!/pop!/append!/first/last/
// reverse/sort/map/filter/reduce/zip/enumerate/iterate/collect (spec
// §4.2's "collections" group).
func (vm *Vm) dispatchCollectionsBuiltin(id bytecode.BuiltinId, args []Value) (Value, bool, error) {
	switch id {
	case BuiltinLength:
		n, err := valueLen(args[0])
		return Int64(int64(n)), true, err

	case BuiltinPushBang:
		arr := args[0]
		if arr.Kind != KArray {
			return Value{}, true, errors.NewTypeError("push! expects an Array")
		}
		for _, v := range args[1:] {
			arr.Arr.Push(v)
		}
		return arr, true, nil

	case BuiltinPopBang:
		arr := args[0]
		if arr.Kind != KArray || arr.Arr.Len() == 0 {
			return Value{}, true, errors.NewErrorException("pop! on empty/non-array collection")
		}
		last := arr.Arr.Len() - 1
		v := arr.Arr.Get(last)
		shrinkArray(arr.Arr, last)
		return v, true, nil

	case BuiltinAppendBang:
		arr := args[0]
		if arr.Kind != KArray {
			return Value{}, true, errors.NewTypeError("append! expects an Array")
		}
		others, err := vm.collectAll(args[1])
		if err != nil {
			return Value{}, true, err
		}
		for _, v := range others {
			arr.Arr.Push(v)
		}
		return arr, true, nil

	case BuiltinFirst:
		vals, err := vm.collectAll(args[0])
		if err != nil {
			return Value{}, true, err
		}
		if len(vals) == 0 {
			return Value{}, true, errors.NewErrorException("first: collection is empty")
		}
		return vals[0], true, nil

	case BuiltinLast:
		vals, err := vm.collectAll(args[0])
		if err != nil {
			return Value{}, true, err
		}
		if len(vals) == 0 {
			return Value{}, true, errors.NewErrorException("last: collection is empty")
		}
		return vals[len(vals)-1], true, nil

	case BuiltinReverse:
		vals, err := vm.collectAll(args[0])
		if err != nil {
			return Value{}, true, err
		}
		out := make([]Value, len(vals))
		for i, v := range vals {
			out[len(vals)-1-i] = v
		}
		return Value{Kind: KArray, Arr: newArrayFrom(inferElemKind(out), out, []int{len(out)})}, true, nil

	case BuiltinSort, BuiltinSortBang:
		vals, err := vm.collectAll(args[0])
		if err != nil {
			return Value{}, true, err
		}
		sorted := append([]Value{}, vals...)
		sort.SliceStable(sorted, func(i, j int) bool { return valueLess(sorted[i], sorted[j]) })
		out := Value{Kind: KArray, Arr: newArrayFrom(inferElemKind(sorted), sorted, []int{len(sorted)})}
		if id == BuiltinSortBang && args[0].Kind == KArray {
			for i := range sorted {
				args[0].Arr.Set(i, sorted[i])
			}
			return args[0], true, nil
		}
		return out, true, nil

	case BuiltinMapFn:
		vals, err := vm.collectAll(args[1])
		if err != nil {
			return Value{}, true, err
		}
		out := make([]Value, len(vals))
		for i, v := range vals {
			r, err := vm.callDynamic(args[0], []Value{v})
			if err != nil {
				return Value{}, true, err
			}
			out[i] = r
		}
		return Value{Kind: KArray, Arr: newArrayFrom(inferElemKind(out), out, []int{len(out)})}, true, nil

	case BuiltinFilterFn:
		vals, err := vm.collectAll(args[1])
		if err != nil {
			return Value{}, true, err
		}
		out := []Value{}
		for _, v := range vals {
			r, err := vm.callDynamic(args[0], []Value{v})
			if err != nil {
				return Value{}, true, err
			}
			if r.IsTruthy() {
				out = append(out, v)
			}
		}
		return Value{Kind: KArray, Arr: newArrayFrom(inferElemKind(out), out, []int{len(out)})}, true, nil

	case BuiltinReduce:
		var coll Value
		var acc Value
		hasInit := false
		if len(args) == 3 {
			acc, coll, hasInit = args[1], args[2], true
		} else {
			coll = args[1]
		}
		vals, err := vm.collectAll(coll)
		if err != nil {
			return Value{}, true, err
		}
		start := 0
		if !hasInit {
			if len(vals) == 0 {
				return Value{}, true, errors.NewErrorException("reduce on empty collection with no init")
			}
			acc = vals[0]
			start = 1
		}
		for _, v := range vals[start:] {
			acc, err = vm.callDynamic(args[0], []Value{acc, v})
			if err != nil {
				return Value{}, true, err
			}
		}
		return acc, true, nil

	case BuiltinZip:
		cols := make([][]Value, len(args))
		minLen := -1
		for i, a := range args {
			vals, err := vm.collectAll(a)
			if err != nil {
				return Value{}, true, err
			}
			cols[i] = vals
			if minLen == -1 || len(vals) < minLen {
				minLen = len(vals)
			}
		}
		out := make([]Value, minLen)
		for i := 0; i < minLen; i++ {
			tup := make([]Value, len(cols))
			for j := range cols {
				tup[j] = cols[j][i]
			}
			out[i] = Value{Kind: KTuple, Tup: tup}
		}
		return Value{Kind: KArray, Arr: newArrayFrom(ElemAny, out, []int{len(out)})}, true, nil

	case BuiltinEnumerate:
		vals, err := vm.collectAll(args[0])
		if err != nil {
			return Value{}, true, err
		}
		out := make([]Value, len(vals))
		for i, v := range vals {
			out[i] = Value{Kind: KTuple, Tup: []Value{Int64(int64(i + 1)), v}}
		}
		return Value{Kind: KArray, Arr: newArrayFrom(ElemAny, out, []int{len(out)})}, true, nil

	case BuiltinIterate:
		v, err := vm.dispatchIterate(args)
		return v, true, err

	case BuiltinCollect:
		vals, err := vm.collectAll(args[0])
		if err != nil {
			return Value{}, true, err
		}
		return Value{Kind: KArray, Arr: newArrayFrom(inferElemKind(vals), vals, []int{len(vals)})}, true, nil
	}
	return Value{}, false, nil
}

func shrinkArray(a *ArrayValue, n int) {
	switch a.ElemKind {
	case ElemF64:
		a.F64 = a.F64[:n]
	case ElemI64:
		a.I64 = a.I64[:n]
	case ElemBool:
		a.B = a.B[:n]
	case ElemString:
		a.Str = a.Str[:n]
	case ElemChar:
		a.Ch = a.Ch[:n]
	case ElemStructRefs:
		a.Refs = a.Refs[:n]
	default:
		a.Any = a.Any[:n]
	}
	a.Shape = []int{n}
}

func valueLess(a, b Value) bool {
	if isNumericKind(a.Kind) && isNumericKind(b.Kind) {
		return asFloat(a) < asFloat(b)
	}
	if a.Kind == KString && b.Kind == KString {
		return a.S < b.S
	}
	return false
}
