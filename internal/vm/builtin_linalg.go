package vm

import (
	"math"

	"juliacore/internal/bytecode"
	"juliacore/internal/errors"
)

// dispatchLinalgBuiltin owns dot/norm/transpose/matmul — the linear
// algebra group supplemented from the original Rust implementation's
// array/matrix surface (SPEC_FULL.md §4 "Supplemented features").
func (vm *Vm) dispatchLinalgBuiltin(id bytecode.BuiltinId, args []Value) (Value, bool, error) {
	switch id {
	case BuiltinDot:
		a, b := args[0], args[1]
		if a.Kind != KArray || b.Kind != KArray || a.Arr.Len() != b.Arr.Len() {
			return Value{}, true, errors.NewDimensionMismatch(a.Arr.Shape, b.Arr.Shape)
		}
		sum := 0.0
		for i := 0; i < a.Arr.Len(); i++ {
			sum += asFloat(a.Arr.Get(i)) * asFloat(b.Arr.Get(i))
		}
		return Float64(sum), true, nil

	case BuiltinNorm:
		a := args[0]
		if a.Kind != KArray {
			return Value{}, true, errors.NewTypeError("norm expects an Array")
		}
		sum := 0.0
		for i := 0; i < a.Arr.Len(); i++ {
			f := asFloat(a.Arr.Get(i))
			sum += f * f
		}
		return Float64(math.Sqrt(sum)), true, nil

	case BuiltinTranspose:
		a := args[0]
		if a.Kind != KArray || len(a.Arr.Shape) != 2 {
			return Value{}, true, errors.NewTypeError("transpose expects a 2-D Array")
		}
		rows, cols := a.Arr.Shape[0], a.Arr.Shape[1]
		out := NewArray(a.Arr.ElemKind, []int{cols, rows})
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				out.Set(ColMajorIndex([]int{cols, rows}, []int{c, r}), a.Arr.Get(ColMajorIndex([]int{rows, cols}, []int{r, c})))
			}
		}
		return Value{Kind: KArray, Arr: out}, true, nil

	case BuiltinMatmul:
		a, b := args[0], args[1]
		if a.Kind != KArray || b.Kind != KArray || len(a.Arr.Shape) != 2 || len(b.Arr.Shape) != 2 {
			return Value{}, true, errors.NewTypeError("matmul expects two 2-D Arrays")
		}
		m, k := a.Arr.Shape[0], a.Arr.Shape[1]
		k2, n := b.Arr.Shape[0], b.Arr.Shape[1]
		if k != k2 {
			return Value{}, true, errors.NewDimensionMismatch(a.Arr.Shape, b.Arr.Shape)
		}
		out := NewArray(ElemF64, []int{m, n})
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				sum := 0.0
				for l := 0; l < k; l++ {
					sum += asFloat(a.Arr.Get(ColMajorIndex([]int{m, k}, []int{i, l}))) * asFloat(b.Arr.Get(ColMajorIndex([]int{k, n}, []int{l, j})))
				}
				out.Set(ColMajorIndex([]int{m, n}, []int{i, j}), Float64(sum))
			}
		}
		return Value{Kind: KArray, Arr: out}, true, nil
	}
	return Value{}, false, nil
}
