package expression

import (
	"testing"

	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eval(t *testing.T, e Expression, row *tuple.Tuple, params ...types.Value) types.Value {
	v, err := e.Evaluate(row, params)
	require.NoError(t, err)
	return v
}

func constant(v interface{}) Expression {
	val, err := types.NewValueFromInterface(v)
	if err != nil {
		panic(err)
	}
	return NewConstantValue(val)
}

func TestColumnAndParam(t *testing.T) {
	row := tuple.NewTupleFromValues([]types.Value{types.NewInteger(7), types.NewString("x")})
	assert.Equal(t, int64(7), eval(t, NewColumnValue(0, "a"), row).ToInteger())
	assert.Equal(t, "x", eval(t, NewColumnValue(1, "b"), row).ToString())
	assert.True(t, eval(t, NewColumnValue(5, "c"), row).IsNull())

	_, err := NewColumnValue(0, "a").Evaluate(nil, nil)
	assert.True(t, common.HasErrorCode(err, common.ER_SQL_NO_SUCH_COLUMN))

	p := NewParamValue(1)
	assert.Equal(t, "v", eval(t, p, nil, types.NewInteger(1), types.NewString("v")).ToString())
	assert.True(t, eval(t, p, nil).IsNull())
}

func TestComparison(t *testing.T) {
	cases := []struct {
		l, r interface{}
		op   ComparisonType
		want bool
	}{
		{1, 1, Equal, true},
		{1, 2.5, LessThan, true},
		{"b", "a", GreaterThan, true},
		{3, 3, GreaterThanOrEqual, true},
		{3, 4, NotEqual, true},
		{4, 3, LessThanOrEqual, false},
	}
	for _, c := range cases {
		v := eval(t, NewComparison(constant(c.l), constant(c.r), c.op), nil)
		assert.Equal(t, c.want, v.ToBoolean(), "%v %v %v", c.l, c.op, c.r)
	}

	assert.True(t, eval(t, NewComparison(constant(nil), constant(1), Equal), nil).IsNull())

	_, err := NewComparison(constant("1"), constant(1), Equal).Evaluate(nil, nil)
	assert.True(t, common.HasErrorCode(err, common.ER_SQL_TYPE_MISMATCH))
}

func TestThreeValuedLogic(t *testing.T) {
	T, F, N := constant(true), constant(false), constant(nil)
	type row struct {
		l, r Expression
		op   LogicalOpType
		want interface{}
	}
	for _, c := range []row{
		{T, T, AND, true},
		{T, F, AND, false},
		{N, F, AND, false},
		{N, T, AND, nil},
		{F, F, OR, false},
		{N, T, OR, true},
		{N, F, OR, nil},
		{T, nil, NOT, false},
		{N, nil, NOT, nil},
	} {
		v := eval(t, NewLogicalOp(c.l, c.r, c.op), nil)
		if c.want == nil {
			assert.True(t, v.IsNull())
		} else {
			assert.Equal(t, c.want, v.ToBoolean())
		}
	}
	assert.False(t, IsTrue(types.NewNull()))
	assert.True(t, IsTrue(types.NewBoolean(true)))
}

func TestArithmeticAndIsNull(t *testing.T) {
	assert.Equal(t, int64(7), eval(t, NewArithmetic(constant(3), constant(4), types.OpAdd), nil).ToInteger())
	assert.Equal(t, 1.5, eval(t, NewArithmetic(constant(3.0), constant(2), types.OpDiv), nil).ToDouble())
	assert.Equal(t, int64(-2), eval(t, NewNegate(constant(2)), nil).ToInteger())
	assert.True(t, eval(t, NewArithmetic(constant(nil), constant(2), types.OpMul), nil).IsNull())

	_, err := NewArithmetic(constant(1), constant(0), types.OpDiv).Evaluate(nil, nil)
	assert.True(t, common.HasErrorCode(err, common.ER_SQL_EXECUTE))

	assert.True(t, eval(t, NewIsNull(constant(nil), false), nil).ToBoolean())
	assert.True(t, eval(t, NewIsNull(constant(1), true), nil).ToBoolean())
}
