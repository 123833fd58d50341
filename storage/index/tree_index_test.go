package index

import (
	"testing"

	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id int64, name string, age int64) *tuple.Tuple {
	return tuple.NewTupleFromValues([]types.Value{types.NewInteger(id), types.NewString(name), types.NewInteger(age)})
}

func ids(t *testing.T, tuples []*tuple.Tuple) []int64 {
	ret := make([]int64, 0, len(tuples))
	for _, tp := range tuples {
		v, err := tp.GetValue(0)
		require.NoError(t, err)
		ret = append(ret, v.ToInteger())
	}
	return ret
}

func newPrimary() *TreeIndex {
	return NewTreeIndex(0, "pk", NewKeyDef([]KeyPart{{FieldNo: 0, Type: types.Unsigned}}), true, nil)
}

func TestTreeIndexPrimaryIterators(t *testing.T) {
	pk := newPrimary()
	for _, id := range []int64{5, 1, 3, 4, 2} {
		_, err := pk.Insert(row(id, "n", 20), nil)
		require.NoError(t, err)
	}
	require.Equal(t, 5, pk.Len())

	cases := []struct {
		it   IteratorType
		key  Key
		want []int64
	}{
		{ITER_ALL, nil, []int64{1, 2, 3, 4, 5}},
		{ITER_EQ, Key{types.NewInteger(3)}, []int64{3}},
		{ITER_GE, Key{types.NewInteger(3)}, []int64{3, 4, 5}},
		{ITER_GT, Key{types.NewInteger(3)}, []int64{4, 5}},
		{ITER_LE, Key{types.NewInteger(3)}, []int64{3, 2, 1}},
		{ITER_LT, Key{types.NewInteger(3)}, []int64{2, 1}},
		{ITER_REQ, Key{types.NewInteger(9)}, []int64{}},
	}
	for _, c := range cases {
		got, err := pk.Select(c.it, c.key)
		require.NoError(t, err)
		assert.Equal(t, c.want, ids(t, got), "iterator %d", c.it)
	}
}

func TestTreeIndexUniqueViolation(t *testing.T) {
	pk := newPrimary()
	first := row(1, "a", 10)
	_, err := pk.Insert(first, nil)
	require.NoError(t, err)

	dup, err := pk.Insert(row(1, "b", 11), nil)
	assert.Equal(t, ErrDuplicate, err)
	assert.True(t, dup.Equals(first))

	// replacing the conflicting tuple itself is allowed
	_, err = pk.Insert(row(1, "b", 11), first)
	assert.NoError(t, err)
}

func TestTreeIndexSecondaryNonUnique(t *testing.T) {
	pkDef := NewKeyDef([]KeyPart{{FieldNo: 0, Type: types.Unsigned}})
	byAge := NewTreeIndex(1, "age", NewKeyDef([]KeyPart{{FieldNo: 2, Type: types.Integer}}), false, pkDef)
	for id, age := range map[int64]int64{1: 30, 2: 20, 3: 30, 4: 40} {
		_, err := byAge.Insert(row(id, "n", age), nil)
		require.NoError(t, err)
	}
	got, err := byAge.Select(ITER_EQ, Key{types.NewInteger(30)})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids(t, got))

	require.NoError(t, byAge.Delete(row(1, "n", 30)))
	got, _ = byAge.Select(ITER_EQ, Key{types.NewInteger(30)})
	assert.Equal(t, []int64{3}, ids(t, got))
}

func TestTreeIndexCollationAndSortOrder(t *testing.T) {
	ci := NewCollation("unicode_ci", "ICU", "", true)
	require.NotNil(t, ci)
	byName := NewTreeIndex(1, "name", NewKeyDef([]KeyPart{{FieldNo: 1, Type: types.String, Collation: ci}}), true, nil)
	_, err := byName.Insert(row(1, "Alice", 1), nil)
	require.NoError(t, err)
	_, err = byName.Insert(row(2, "ALICE", 1), nil)
	assert.Equal(t, ErrDuplicate, err)

	desc := NewTreeIndex(2, "desc", NewKeyDef([]KeyPart{{FieldNo: 0, Type: types.Unsigned, SortOrder: SortDesc}}), true, nil)
	for _, id := range []int64{1, 2, 3} {
		_, err := desc.Insert(row(id, "x", 1), nil)
		require.NoError(t, err)
	}
	got, err := desc.Select(ITER_ALL, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, ids(t, got))
}

func TestTreeIndexValidatesKeys(t *testing.T) {
	pk := newPrimary()
	_, err := pk.Select(ITER_EQ, Key{types.NewString("x")})
	assert.Error(t, err)
	_, err = pk.Select(ITER_EQ, Key{types.NewInteger(1), types.NewInteger(2)})
	assert.Error(t, err)
}
