package tuple

import (
	"testing"

	"github.com/ryogrid/SamehadaDict/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestTuple(t *testing.T) {
	expA, expB, expC, expD, expE := int64(99), "Hello World", int64(-100), "áé&@#+\\çç", "blablablablabalbalalabalbalbalablablabalbalaba"
	row := []types.Value{
		types.NewInteger(expA),
		types.NewString(expB),
		types.NewInteger(expC),
		types.NewString(expD),
		types.NewString(expE),
	}
	tuple := NewTupleFromValues(row)

	require.Equal(t, 5, tuple.FieldCount())
	a, err := tuple.GetValue(0)
	require.NoError(t, err)
	assert.Equal(t, expA, a.ToInteger())
	b, _ := tuple.GetValue(1)
	assert.Equal(t, expB, b.ToString())
	c, _ := tuple.GetValue(2)
	assert.Equal(t, expC, c.ToInteger())
	d, _ := tuple.GetValue(3)
	assert.Equal(t, expD, d.ToString())
	e, _ := tuple.GetValue(4)
	assert.Equal(t, expE, e.ToString())

	missing, err := tuple.GetValue(10)
	require.NoError(t, err)
	assert.True(t, missing.IsNull())
}

func TestTupleKeepsNestedFieldsRaw(t *testing.T) {
	opts, err := msgpack.Marshal(map[string]interface{}{"unique": true})
	require.NoError(t, err)
	id, _ := msgpack.Marshal(uint64(512))
	name, _ := msgpack.Marshal("pk")

	tuple := NewTupleFromRaw([]msgpack.RawMessage{id, name, opts})
	reparsed, err := NewTupleFromBytes(tuple.Data())
	require.NoError(t, err)

	assert.True(t, tuple.Equals(reparsed))
	assert.Equal(t, []byte(opts), []byte(reparsed.RawField(2)))
	u, err := reparsed.GetUint(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(512), u)
	s, err := reparsed.GetString(1)
	require.NoError(t, err)
	assert.Equal(t, "pk", s)
	_, err = reparsed.GetValue(2)
	assert.Error(t, err)
}

func TestTupleRejectsNonArray(t *testing.T) {
	data, _ := msgpack.Marshal("not a tuple")
	_, err := NewTupleFromBytes(data)
	assert.Error(t, err)
}

func TestTupleNullField(t *testing.T) {
	tuple := NewTupleFromValues([]types.Value{types.NewInteger(1), types.NewNull()})
	reparsed, err := NewTupleFromBytes(tuple.Data())
	require.NoError(t, err)

	v, err := reparsed.GetValue(1)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
	assert.Equal(t, types.Null, v.ValueType())

	values, err := reparsed.Values()
	require.NoError(t, err)
	assert.True(t, values[1].IsNull())
	assert.True(t, values[1].FitsType(types.Integer))
}
