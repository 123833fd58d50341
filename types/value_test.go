package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarOrdering(t *testing.T) {
	ordered := []Value{
		NewNull(),
		NewBoolean(false),
		NewBoolean(true),
		NewInteger(-5),
		NewDouble(-4.5),
		NewInteger(0),
		NewUnsigned(math.MaxUint64),
		NewString(""),
		NewString("a"),
	}
	for i := 0; i+1 < len(ordered); i++ {
		assert.True(t, ordered[i].CompareLessThan(ordered[i+1]), "%v < %v", ordered[i], ordered[i+1])
		assert.True(t, ordered[i+1].CompareGreaterThan(ordered[i]))
	}
	assert.True(t, NewInteger(3).CompareEquals(NewDouble(3)))
	assert.True(t, NewUnsigned(7).CompareEquals(NewInteger(7)))
}

func TestUnsignedRepresentation(t *testing.T) {
	assert.Equal(t, Integer, NewUnsigned(10).ValueType())
	assert.Equal(t, Unsigned, NewUnsigned(math.MaxUint64).ValueType())

	_, ok := NewInteger(-1).ToUnsigned()
	assert.False(t, ok)
	u, ok := NewUnsigned(math.MaxUint64).ToUnsigned()
	require.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), u)
}

func TestFitsAndCast(t *testing.T) {
	assert.True(t, NewNull().FitsType(Integer))
	assert.True(t, NewInteger(1).FitsType(Number))
	assert.False(t, NewInteger(-1).FitsType(Unsigned))
	assert.False(t, NewString("x").FitsType(Integer))
	assert.True(t, NewString("x").FitsType(Scalar))

	v, err := NewInteger(2).CastTo(Double)
	require.NoError(t, err)
	assert.Equal(t, Double, v.ValueType())

	v, err = NewDouble(4).CastTo(Integer)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v.ToInteger())

	_, err = NewDouble(4.5).CastTo(Integer)
	assert.Error(t, err)
	_, err = NewDouble(-4).CastTo(Unsigned)
	assert.Error(t, err)
}

func TestArithmetic(t *testing.T) {
	v, err := Arithmetic(OpAdd, NewInteger(2), NewInteger(3))
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.ToInteger())

	v, err = Arithmetic(OpDiv, NewInteger(7), NewInteger(2))
	require.NoError(t, err)
	assert.Equal(t, Integer, v.ValueType())
	assert.Equal(t, int64(3), v.ToInteger())

	v, err = Arithmetic(OpMul, NewInteger(2), NewDouble(1.5))
	require.NoError(t, err)
	assert.Equal(t, 3.0, v.ToDouble())

	v, err = Arithmetic(OpSub, NewNull(), NewInteger(1))
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	_, err = Arithmetic(OpMod, NewInteger(1), NewInteger(0))
	assert.Equal(t, ErrDivisionByZero, err)
	_, err = Arithmetic(OpAdd, NewInteger(1), NewString("a"))
	assert.Error(t, err)

	v, err = Negate(NewDouble(2.5))
	require.NoError(t, err)
	assert.Equal(t, -2.5, v.ToDouble())
	_, err = Negate(NewString("a"))
	assert.Error(t, err)
}

func TestValueFromInterface(t *testing.T) {
	cases := []struct {
		in   interface{}
		want TypeID
	}{
		{nil, Null},
		{true, Boolean},
		{int8(-3), Integer},
		{uint32(3), Integer},
		{float32(1.5), Double},
		{"s", String},
		{[]byte("b"), String},
	}
	for _, c := range cases {
		v, err := NewValueFromInterface(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, v.ValueType(), "%T", c.in)
	}
	_, err := NewValueFromInterface(struct{}{})
	assert.Error(t, err)

	assert.Equal(t, Unsigned, ParseTypeID("num"))
	assert.Equal(t, String, ParseTypeID("STR"))
}
