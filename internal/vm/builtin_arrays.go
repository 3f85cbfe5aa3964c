package vm

import (
	"juliacore/internal/bytecode"
	"juliacore/internal/errors"
)

// dispatchArraysBuiltin owns zeros/ones/fill/size/ndims/reshape/vcat/
// hcat plus the three lowering-internal constructors __make_tuple,
// __make_pair and __make_range the compiler emits for tuple literals,
// iterator pairs and range literals (spec §4.2 "arrays" group, §3.2
// "Range literal a:b / a:step:b").
func (vm *Vm) dispatchArraysBuiltin(id bytecode.BuiltinId, args []Value) (Value, bool, error) {
	switch id {
	case BuiltinZeros:
		shape := dimsOf(args)
		return Value{Kind: KArray, Arr: NewArray(ElemF64, shape)}, true, nil

	case BuiltinOnes:
		shape := dimsOf(args)
		a := NewArray(ElemF64, shape)
		for i := 0; i < a.Len(); i++ {
			a.Set(i, Float64(1))
		}
		return Value{Kind: KArray, Arr: a}, true, nil

	case BuiltinFill:
		if len(args) < 2 {
			return Value{}, true, errors.NewDispatchFailure("fill", argKindNames(args))
		}
		shape := dimsOf(args[1:])
		fillVal := args[0]
		n := 1
		for _, d := range shape {
			n *= d
		}
		vals := make([]Value, n)
		for i := range vals {
			vals[i] = fillVal
		}
		return Value{Kind: KArray, Arr: newArrayFrom(inferElemKind(vals), vals, shape)}, true, nil

	case BuiltinSize:
		if args[0].Kind != KArray {
			return Value{}, true, errors.NewTypeError("size expects an Array")
		}
		if len(args) == 2 {
			dim := int(asInt(args[1]))
			if dim < 1 || dim > len(args[0].Arr.Shape) {
				return Int64(1), true, nil
			}
			return Int64(int64(args[0].Arr.Shape[dim-1])), true, nil
		}
		shape := args[0].Arr.Shape
		out := make([]Value, len(shape))
		for i, d := range shape {
			out[i] = Int64(int64(d))
		}
		return Value{Kind: KTuple, Tup: out}, true, nil

	case BuiltinNdims:
		if args[0].Kind != KArray {
			return Value{}, true, errors.NewTypeError("ndims expects an Array")
		}
		return Int64(int64(len(args[0].Arr.Shape))), true, nil

	case BuiltinReshape:
		if args[0].Kind != KArray {
			return Value{}, true, errors.NewTypeError("reshape expects an Array")
		}
		shape := dimsOf(args[1:])
		out, err := Reshape(args[0].Arr, shape)
		if err != nil {
			return Value{}, true, err
		}
		return Value{Kind: KArray, Arr: out}, true, nil

	case BuiltinVcat:
		var all []Value
		for _, a := range args {
			vals, err := vm.collectAll(a)
			if err != nil {
				return Value{}, true, err
			}
			all = append(all, vals...)
		}
		return Value{Kind: KArray, Arr: newArrayFrom(inferElemKind(all), all, []int{len(all)})}, true, nil

	case BuiltinHcat:
		cols := make([][]Value, len(args))
		rows := -1
		for i, a := range args {
			vals, err := vm.collectAll(a)
			if err != nil {
				return Value{}, true, err
			}
			cols[i] = vals
			if rows == -1 {
				rows = len(vals)
			} else if rows != len(vals) {
				return Value{}, true, errors.NewDimensionMismatch([]int{rows}, []int{len(vals)})
			}
		}
		var all []Value
		for _, c := range cols {
			all = append(all, c...)
		}
		return Value{Kind: KArray, Arr: newArrayFrom(inferElemKind(all), all, []int{rows, len(cols)})}, true, nil

	case BuiltinMakeTuple:
		return Value{Kind: KTuple, Tup: append([]Value{}, args...)}, true, nil

	case BuiltinMakePair:
		if len(args) != 2 {
			return Value{}, true, errors.NewDispatchFailure("__make_pair", argKindNames(args))
		}
		return pairOf(args[0], args[1]), true, nil

	case BuiltinMakeRange:
		start := asFloat(args[0])
		stop := asFloat(args[1])
		step := 1.0
		if len(args) == 3 {
			step = asFloat(args[2])
		}
		isFloat := args[0].Kind == KFloat64 || args[1].Kind == KFloat64 || (len(args) == 3 && args[2].Kind == KFloat64)
		return Value{Kind: KRange, Rng: &RangeValue{Start: start, Stop: stop, Step: step, IsFloat: isFloat}}, true, nil
	}
	return Value{}, false, nil
}

func dimsOf(args []Value) []int {
	if len(args) == 1 && args[0].Kind == KTuple {
		out := make([]int, len(args[0].Tup))
		for i, v := range args[0].Tup {
			out[i] = int(asInt(v))
		}
		return out
	}
	out := make([]int, len(args))
	for i, a := range args {
		out[i] = int(asInt(a))
	}
	return out
}
