package types

import (
	"math"

	"github.com/pingcap/errors"
)

type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

var ErrDivisionByZero = errors.New("division by zero")

// Arithmetic evaluates l op r. NULL in either operand gives NULL. Integer
// operands keep integer semantics, a double operand turns the result into
// a double.
func Arithmetic(op ArithOp, l, r Value) (Value, error) {
	if l.IsNull() || r.IsNull() {
		return NewNull(), nil
	}
	if !l.IsNumeric() || !r.IsNumeric() {
		bad := l
		if l.IsNumeric() {
			bad = r
		}
		return NewNull(), errors.Errorf("can not convert %s to number", bad.describe())
	}
	if l.valueType == Double || r.valueType == Double {
		lf, rf := l.ToDouble(), r.ToDouble()
		switch op {
		case OpAdd:
			return NewDouble(lf + rf), nil
		case OpSub:
			return NewDouble(lf - rf), nil
		case OpMul:
			return NewDouble(lf * rf), nil
		case OpDiv:
			if rf == 0 {
				return NewNull(), ErrDivisionByZero
			}
			return NewDouble(lf / rf), nil
		case OpMod:
			if rf == 0 {
				return NewNull(), ErrDivisionByZero
			}
			return NewDouble(math.Mod(lf, rf)), nil
		}
	}
	li, ri := l.ToInteger(), r.ToInteger()
	switch op {
	case OpAdd:
		return NewInteger(li + ri), nil
	case OpSub:
		return NewInteger(li - ri), nil
	case OpMul:
		return NewInteger(li * ri), nil
	case OpDiv:
		if ri == 0 {
			return NewNull(), ErrDivisionByZero
		}
		return NewInteger(li / ri), nil
	case OpMod:
		if ri == 0 {
			return NewNull(), ErrDivisionByZero
		}
		return NewInteger(li % ri), nil
	}
	return NewNull(), errors.Errorf("unknown arithmetic operation %d", op)
}

func Negate(v Value) (Value, error) {
	switch v.valueType {
	case Null:
		return v, nil
	case Integer:
		return NewInteger(-v.integer), nil
	case Unsigned:
		return NewNull(), errors.Errorf("integer is overflowed")
	case Double:
		return NewDouble(-v.double), nil
	}
	return NewNull(), errors.Errorf("can not convert %s to number", v.describe())
}
