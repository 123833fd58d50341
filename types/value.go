package types

import (
	"fmt"
	"math"
	"strconv"

	"github.com/pingcap/errors"
)

// A Value is a single scalar of a tuple or of an SQL expression. Integers
// are kept as int64 as long as they fit, only values above MaxInt64 use
// the unsigned representation.
type Value struct {
	valueType TypeID
	integer   int64
	unsigned  uint64
	double    float64
	str       string
	boolean   bool
}

func NewNull() Value {
	return Value{valueType: Null}
}

func NewBoolean(value bool) Value {
	return Value{valueType: Boolean, boolean: value}
}

func NewInteger(value int64) Value {
	return Value{valueType: Integer, integer: value}
}

func NewUnsigned(value uint64) Value {
	if value <= math.MaxInt64 {
		return NewInteger(int64(value))
	}
	return Value{valueType: Unsigned, unsigned: value}
}

func NewDouble(value float64) Value {
	return Value{valueType: Double, double: value}
}

func NewString(value string) Value {
	return Value{valueType: String, str: value}
}

// NewValueFromInterface converts a decoded msgpack scalar or a plain Go
// value into a Value.
func NewValueFromInterface(v interface{}) (Value, error) {
	switch x := v.(type) {
	case nil:
		return NewNull(), nil
	case Value:
		return x, nil
	case bool:
		return NewBoolean(x), nil
	case int:
		return NewInteger(int64(x)), nil
	case int8:
		return NewInteger(int64(x)), nil
	case int16:
		return NewInteger(int64(x)), nil
	case int32:
		return NewInteger(int64(x)), nil
	case int64:
		return NewInteger(x), nil
	case uint:
		return NewUnsigned(uint64(x)), nil
	case uint8:
		return NewUnsigned(uint64(x)), nil
	case uint16:
		return NewUnsigned(uint64(x)), nil
	case uint32:
		return NewUnsigned(uint64(x)), nil
	case uint64:
		return NewUnsigned(x), nil
	case float32:
		return NewDouble(float64(x)), nil
	case float64:
		return NewDouble(x), nil
	case string:
		return NewString(x), nil
	case []byte:
		return NewString(string(x)), nil
	}
	return NewNull(), errors.Errorf("unsupported scalar %T", v)
}

func (v Value) ValueType() TypeID {
	return v.valueType
}

func (v Value) IsNull() bool {
	return v.valueType == Null
}

func (v Value) IsNumeric() bool {
	switch v.valueType {
	case Integer, Unsigned, Double:
		return true
	}
	return false
}

func (v Value) IsInteger() bool {
	return v.valueType == Integer || v.valueType == Unsigned
}

func (v Value) ToInteger() int64 {
	switch v.valueType {
	case Integer:
		return v.integer
	case Unsigned:
		return int64(v.unsigned)
	case Double:
		return int64(v.double)
	case Boolean:
		if v.boolean {
			return 1
		}
	}
	return 0
}

// ToUnsigned returns false for negative or non-integer values.
func (v Value) ToUnsigned() (uint64, bool) {
	switch v.valueType {
	case Integer:
		if v.integer < 0 {
			return 0, false
		}
		return uint64(v.integer), true
	case Unsigned:
		return v.unsigned, true
	}
	return 0, false
}

func (v Value) ToDouble() float64 {
	switch v.valueType {
	case Integer:
		return float64(v.integer)
	case Unsigned:
		return float64(v.unsigned)
	case Double:
		return v.double
	}
	return 0
}

func (v Value) ToString() string {
	if v.valueType == String {
		return v.str
	}
	return v.String()
}

func (v Value) ToBoolean() bool {
	switch v.valueType {
	case Boolean:
		return v.boolean
	case Integer:
		return v.integer != 0
	case Unsigned:
		return v.unsigned != 0
	case Double:
		return v.double != 0
	}
	return false
}

// ToInterface returns the plain Go form used by result sets.
func (v Value) ToInterface() interface{} {
	switch v.valueType {
	case Boolean:
		return v.boolean
	case Integer:
		return v.integer
	case Unsigned:
		return v.unsigned
	case Double:
		return v.double
	case String:
		return v.str
	}
	return nil
}

func (v Value) String() string {
	switch v.valueType {
	case Null:
		return "NULL"
	case Boolean:
		return strconv.FormatBool(v.boolean)
	case Integer:
		return strconv.FormatInt(v.integer, 10)
	case Unsigned:
		return strconv.FormatUint(v.unsigned, 10)
	case Double:
		return strconv.FormatFloat(v.double, 'g', -1, 64)
	case String:
		return v.str
	}
	return fmt.Sprintf("<%s>", v.valueType)
}

// order class of the scalar collation: nil < boolean < number < string
func (v Value) class() int {
	switch v.valueType {
	case Null:
		return 0
	case Boolean:
		return 1
	case Integer, Unsigned, Double:
		return 2
	case String:
		return 3
	}
	return 4
}

// CompareTo orders values of any types. Numbers of different
// representations compare by numeric value.
func (v Value) CompareTo(right Value) int {
	lc, rc := v.class(), right.class()
	if lc != rc {
		if lc < rc {
			return -1
		}
		return 1
	}
	switch lc {
	case 0:
		return 0
	case 1:
		if v.boolean == right.boolean {
			return 0
		}
		if !v.boolean {
			return -1
		}
		return 1
	case 2:
		return compareNumbers(v, right)
	case 3:
		switch {
		case v.str < right.str:
			return -1
		case v.str > right.str:
			return 1
		}
		return 0
	}
	return 0
}

func compareNumbers(l, r Value) int {
	if l.valueType == Double || r.valueType == Double {
		lf, rf := l.ToDouble(), r.ToDouble()
		switch {
		case lf < rf:
			return -1
		case lf > rf:
			return 1
		}
		return 0
	}
	if l.valueType == Unsigned || r.valueType == Unsigned {
		lu, lok := l.ToUnsigned()
		ru, rok := r.ToUnsigned()
		switch {
		case !lok:
			return -1
		case !rok:
			return 1
		case lu < ru:
			return -1
		case lu > ru:
			return 1
		}
		return 0
	}
	switch {
	case l.integer < r.integer:
		return -1
	case l.integer > r.integer:
		return 1
	}
	return 0
}

func (v Value) CompareEquals(right Value) bool {
	return v.CompareTo(right) == 0
}

func (v Value) CompareNotEquals(right Value) bool {
	return v.CompareTo(right) != 0
}

func (v Value) CompareLessThan(right Value) bool {
	return v.CompareTo(right) < 0
}

func (v Value) CompareLessThanOrEqual(right Value) bool {
	return v.CompareTo(right) <= 0
}

func (v Value) CompareGreaterThan(right Value) bool {
	return v.CompareTo(right) > 0
}

func (v Value) CompareGreaterThanOrEqual(right Value) bool {
	return v.CompareTo(right) >= 0
}

// FitsType reports whether the value may be stored in a field of type t.
// NULL is handled by the nullability check of the field, not here.
func (v Value) FitsType(t TypeID) bool {
	if v.IsNull() {
		return true
	}
	switch t {
	case Any, Scalar:
		return true
	case Unsigned:
		_, ok := v.ToUnsigned()
		return ok
	case Integer:
		return v.IsInteger()
	case Number:
		return v.IsNumeric()
	case Double:
		return v.valueType == Double
	case String:
		return v.valueType == String
	case Boolean:
		return v.valueType == Boolean
	}
	return false
}

// CastTo applies the implicit conversions done when a value is stored into
// a field of type t.
func (v Value) CastTo(t TypeID) (Value, error) {
	if v.FitsType(t) {
		return v, nil
	}
	if t == Double && v.IsInteger() {
		return NewDouble(v.ToDouble()), nil
	}
	if (t == Integer || t == Unsigned) && v.valueType == Double {
		if v.double == math.Trunc(v.double) && math.Abs(v.double) < math.MaxInt64 {
			casted := NewInteger(int64(v.double))
			if casted.FitsType(t) {
				return casted, nil
			}
		}
	}
	return v, errors.Errorf("can not convert %s to %s", v.describe(), t)
}

func (v Value) describe() string {
	if v.valueType == String {
		return "string('" + v.str + "')"
	}
	return v.valueType.String() + "(" + v.String() + ")"
}
