package planner

import (
	"testing"

	"github.com/ryogrid/SamehadaDict/catalog"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/parser"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	cache := schema.NewCache()
	require.NoError(t, cache.InitSystemSpaces())
	c := catalog.NewCatalog(cache, access.NewTransactionManager(nil))
	c.InstallTriggers()
	c.SetCheckCompiler(NewCheckCompiler())
	txn := c.TxnManager().Begin()
	require.NoError(t, c.Bootstrap(txn))

	def := &schema.SpaceDef{Name: "emp", Fields: []schema.FieldDef{
		{Name: "id", Type: types.Integer, Collation: common.BoxIDNil},
		{Name: "name", Type: types.String, IsNullable: true, Collation: common.BoxIDNil},
		{Name: "salary", Type: types.Double, IsNullable: true, Collation: common.BoxIDNil, HasDefault: true, Default: types.NewDouble(1)},
	}}
	id, err := c.CreateSpace(txn, common.AdminID, def)
	require.NoError(t, err)
	_, err = c.CreateIndex(txn, common.AdminID, &schema.IndexDef{SpaceID: id, IID: 0, Name: "pk", Type: schema.IndexTypeTree,
		Unique: true, Parts: []schema.PartDef{{FieldNo: 0, Type: types.Integer, Collation: common.BoxIDNil}}})
	require.NoError(t, err)
	require.NoError(t, c.TxnManager().Commit(txn))
	return c
}

func compile(t *testing.T, c *catalog.Catalog, sql string) (*CompiledQuery, error) {
	qi, err := parser.ProcessSQLStr(sql)
	require.NoError(t, err, sql)
	txn := c.TxnManager().Begin()
	defer c.TxnManager().Abort(txn)
	return NewSimplePlanner(c).MakePlan(qi, txn)
}

func TestSelectMetadata(t *testing.T) {
	c := newTestCatalog(t)
	q, err := compile(t, c, "SELECT *, salary * 2, id = ? AS hit, ? FROM emp WHERE id = 1 ORDER BY name LIMIT 3")
	require.NoError(t, err)

	assert.Equal(t, []plans.Column{
		{Name: "id", Type: "integer"},
		{Name: "name", Type: "string"},
		{Name: "salary", Type: "double"},
		{Name: "COLUMN_4", Type: "number"},
		{Name: "hit", Type: "boolean"},
		{Name: "COLUMN_6", Type: "any"},
	}, q.Columns)
	assert.Equal(t, 2, q.ParamCount)
	assert.Equal(t, []plans.Param{{Name: "?", Type: "ANY"}, {Name: "?", Type: "ANY"}}, q.Params)
	assert.Equal(t, "Limit\n  Projection\n    Orderby\n      IndexPointScan\n", plans.GetDebugStr(q.Plan))
	assert.Equal(t, parser.SELECT, q.Type)
}

func TestInsertFillsDefaults(t *testing.T) {
	c := newTestCatalog(t)
	q, err := compile(t, c, "INSERT INTO emp (name, id) VALUES ('ann', 1)")
	require.NoError(t, err)
	ins := q.Plan.(*plans.InsertPlanNode)
	require.Len(t, ins.GetRows(), 1)
	row := ins.GetRows()[0]
	require.Len(t, row, 3)
	v, err := row[2].Evaluate(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.ToDouble())
	assert.Equal(t, access.DUP_INSERT, ins.GetMode())
	assert.Empty(t, q.Columns)

	q, err = compile(t, c, "REPLACE INTO emp VALUES (1, 'a', 2)")
	require.NoError(t, err)
	assert.Equal(t, access.DUP_REPLACE_OR_INSERT, q.Plan.(*plans.InsertPlanNode).GetMode())

	_, err = compile(t, c, "INSERT INTO emp (id, id) VALUES (1, 2)")
	assert.True(t, common.HasErrorCode(err, common.ER_SQL_EXECUTE))
	_, err = compile(t, c, "INSERT INTO emp (nope) VALUES (1)")
	assert.True(t, common.HasErrorCode(err, common.ER_SQL_NO_SUCH_COLUMN))
	_, err = compile(t, c, "INSERT INTO missing VALUES (1)")
	assert.True(t, common.HasErrorCode(err, common.ER_NO_SUCH_SPACE))
}

func TestStatementKinds(t *testing.T) {
	c := newTestCatalog(t)
	for sql, want := range map[string]plans.PlanType{
		"UPDATE emp SET salary = salary + 1":    plans.Update,
		"DELETE FROM emp WHERE name = 'x'":      plans.Delete,
		"DROP TABLE emp":                        plans.DDL,
		"CREATE TABLE x (a INT PRIMARY KEY)":    plans.DDL,
		"BEGIN":                                 plans.TxnControl,
		"SELECT 1":                              plans.Projection,
	} {
		q, err := compile(t, c, sql)
		require.NoError(t, err, sql)
		assert.Equal(t, want, q.Plan.GetType(), sql)
	}
	_, err := compile(t, c, "SELECT emp.id, other.id FROM emp")
	assert.True(t, common.HasErrorCode(err, common.ER_SQL_NO_SUCH_COLUMN))
}

func TestCheckCompiler(t *testing.T) {
	c := newTestCatalog(t)
	def := c.Cache().SpaceByName("emp").Def
	pred, err := NewCheckCompiler().CompileCheck(def, "`salary`>0 AND `name` <> 'root'")
	require.NoError(t, err)

	row := func(vals ...types.Value) *tuple.Tuple { return tuple.NewTupleFromValues(vals) }
	ok, err := pred(row(types.NewInteger(1), types.NewString("ann"), types.NewDouble(2)))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = pred(row(types.NewInteger(1), types.NewString("root"), types.NewDouble(2)))
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = pred(row(types.NewInteger(1), types.NewNull(), types.NewDouble(2)))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = NewCheckCompiler().CompileCheck(def, "unknown > 1")
	assert.True(t, common.HasErrorCode(err, common.ER_SQL_NO_SUCH_COLUMN))
}
