package vm

import (
	"math/big"
	"strconv"

	"juliacore/internal/bytecode"
	"juliacore/internal/errors"
)

// dispatchNumericBuiltin owns typeof/convert/parse/promote_type (spec
// §4.2 "numeric/conversion" group).
func (vm *Vm) dispatchNumericBuiltin(id bytecode.BuiltinId, args []Value) (Value, bool, error) {
	switch id {
	case BuiltinTypeof:
		return Symbol(vm.TypeName(args[0])), true, nil

	case BuiltinConvert:
		target := args[0].S
		if args[0].Kind == KDataType {
			target = args[0].DType.Name
		}
		v, err := convertTo(target, args[1])
		return v, true, err

	case BuiltinParse:
		target := args[0].S
		if args[0].Kind == KDataType {
			target = args[0].DType.Name
		}
		v, err := parseAs(target, args[1].S)
		return v, true, err

	case BuiltinPromoteType:
		return Symbol(promoteNumericName(args[0].S, args[1].S)), true, nil
	}
	return Value{}, false, nil
}

func convertTo(target string, v Value) (Value, error) {
	switch target {
	case "Int8", "Int16", "Int32", "Int64", "Int128",
		"UInt8", "UInt16", "UInt32", "UInt64", "UInt128":
		return Int64(int64(asFloat(v))), nil
	case "Float16", "Float32", "Float64":
		return Float64(asFloat(v)), nil
	case "BigInt":
		bi := big.NewInt(int64(asFloat(v)))
		return Value{Kind: KBigInt, Big: bi}, nil
	case "BigFloat":
		bf := big.NewFloat(asFloat(v))
		return Value{Kind: KBigFloat, BigF: bf}, nil
	case "String":
		return Str(valueToDisplayString(v)), nil
	case "Char":
		return Char(rune(asInt(v))), nil
	case "Bool":
		return Bool(v.IsTruthy()), nil
	}
	return Value{}, errors.NewTypeError("convert: unknown target type " + target)
}

func parseAs(target, s string) (Value, error) {
	switch target {
	case "Int8", "Int16", "Int32", "Int64", "Int128",
		"UInt8", "UInt16", "UInt32", "UInt64", "UInt128":
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, errors.NewErrorException("parse: invalid integer " + s)
		}
		return Int64(n), nil
	case "Float16", "Float32", "Float64":
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, errors.NewErrorException("parse: invalid float " + s)
		}
		return Float64(f), nil
	case "BigInt":
		bi, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return Value{}, errors.NewErrorException("parse: invalid BigInt " + s)
		}
		return Value{Kind: KBigInt, Big: bi}, nil
	case "Bool":
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, errors.NewErrorException("parse: invalid Bool " + s)
		}
		return Bool(b), nil
	}
	return Value{}, errors.NewTypeError("parse: unknown target type " + target)
}

var numericRank = map[string]int{
	"Int8": 0, "UInt8": 0, "Int16": 1, "UInt16": 1,
	"Int32": 2, "UInt32": 2, "Int64": 3, "UInt64": 3, "Int128": 4, "UInt128": 4,
	"Float16": 5, "Float32": 6, "Float64": 7,
}

// promoteNumericName implements Julia's widest-common-type rule for the
// arithmetic-promotion lattice (spec §3.2 "numeric promotion").
func promoteNumericName(a, b string) string {
	ra, aok := numericRank[a]
	rb, bok := numericRank[b]
	if !aok || !bok {
		return "Any"
	}
	if ra >= rb {
		return a
	}
	return b
}
