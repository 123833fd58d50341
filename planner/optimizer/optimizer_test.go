package optimizer

import (
	"testing"

	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/parser"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpace() *schema.Space {
	part := func(fieldno uint32) schema.PartDef {
		return schema.PartDef{FieldNo: fieldno, Type: types.Integer, Collation: common.BoxIDNil}
	}
	def := &schema.SpaceDef{ID: 512, Name: "t", Fields: []schema.FieldDef{
		{Name: "a", Type: types.Integer}, {Name: "b", Type: types.Integer}, {Name: "c", Type: types.Integer},
	}}
	sp := schema.NewSpace(def, nil)
	sp.Indexes = []*schema.IndexDef{
		{SpaceID: 512, IID: 0, Name: "pk", Unique: true, Parts: []schema.PartDef{part(0)}},
		{SpaceID: 512, IID: 1, Name: "bc", Parts: []schema.PartDef{part(1), part(2)}},
	}
	return sp
}

func resolve(ref *parser.ColumnRef) (uint32, error) {
	fieldno, ok := testSpace().Def.FieldByName(ref.Name)
	if !ok {
		return 0, common.NewClientError(common.ER_SQL_NO_SUCH_COLUMN, ref.Name)
	}
	return fieldno, nil
}

func where(t *testing.T, text string) parser.Expr {
	e, err := parser.ParseExpr(text)
	require.NoError(t, err)
	return e
}

func TestConjuncts(t *testing.T) {
	terms := Conjuncts(where(t, "a = 1 AND (b = 2 OR c = 3) AND c > 4"))
	require.Len(t, terms, 3)
	assert.Equal(t, parser.OpEqual, terms[0].(*parser.Binary).Op)
	assert.Equal(t, parser.OpOr, terms[1].(*parser.Binary).Op)
	assert.Equal(t, parser.OpGreaterThan, terms[2].(*parser.Binary).Op)
	assert.Empty(t, Conjuncts(nil))
}

func TestBestScan(t *testing.T) {
	o := NewIndexScanOptimizer()
	cases := []struct {
		where string
		iid   int
		keys  int
	}{
		{"a = 1", 0, 1},
		{"1 = a AND b = 2", 0, 1},
		{"b = 2", 1, 1},
		{"c = 3 AND b = -2", 1, 2},
		{"c = 3", -1, 0},
		{"a > 1", -1, 0},
		{"a = 1 OR b = 2", -1, 0},
		{"a = b", -1, 0},
	}
	for _, tc := range cases {
		choice, err := o.BestScan(testSpace(), where(t, tc.where), resolve)
		require.NoError(t, err, tc.where)
		if tc.iid < 0 {
			assert.Nil(t, choice.Index, tc.where)
			continue
		}
		require.NotNil(t, choice.Index, tc.where)
		assert.Equal(t, uint32(tc.iid), choice.Index.IID, tc.where)
		assert.Len(t, choice.Key, tc.keys, tc.where)
	}

	_, err := o.BestScan(testSpace(), where(t, "zzz = 1"), resolve)
	assert.True(t, common.HasErrorCode(err, common.ER_SQL_NO_SUCH_COLUMN))
}
