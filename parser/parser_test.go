package parser

import (
	"testing"

	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinglePredicateSelectQuery(t *testing.T) {
	qi, err := ProcessSQLStr("SELECT a FROM t WHERE a = 'daylight';")
	require.NoError(t, err)
	assert.Equal(t, SELECT, qi.GetType())
	sel := qi.Statement_.(*Select)
	assert.Equal(t, "t", sel.Table)
	require.Len(t, sel.Fields, 1)
	assert.Equal(t, &ColumnRef{Name: "a"}, sel.Fields[0].Expr)

	where := sel.Where.(*Binary)
	assert.Equal(t, OpEqual, where.Op)
	assert.Equal(t, &ColumnRef{Name: "a"}, where.Left)
	assert.Equal(t, "daylight", where.Right.(*Literal).Value.ToString())
}

func TestSelectClauses(t *testing.T) {
	qi, err := ProcessSQLStr("SELECT *, b + 1 AS nb FROM t WHERE (a = 10 OR a >= 20) AND c IS NOT NULL ORDER BY a DESC, b LIMIT 100 OFFSET 200")
	require.NoError(t, err)
	sel := qi.Statement_.(*Select)
	require.Len(t, sel.Fields, 2)
	assert.True(t, sel.Fields[0].Star)
	assert.Equal(t, "nb", sel.Fields[1].Alias)
	assert.Equal(t, OpAdd, sel.Fields[1].Expr.(*Binary).Op)

	and := sel.Where.(*Binary)
	assert.Equal(t, OpAnd, and.Op)
	assert.Equal(t, OpOr, and.Left.(*Binary).Op)
	assert.Equal(t, &IsNull{Operand: &ColumnRef{Name: "c"}, Not: true}, and.Right)

	require.Len(t, sel.OrderBy, 2)
	assert.True(t, sel.OrderBy[0].Desc)
	assert.False(t, sel.OrderBy[1].Desc)
	assert.Equal(t, int64(100), sel.Limit.(*Literal).Value.ToInteger())
	assert.Equal(t, int64(200), sel.Offset.(*Literal).Value.ToInteger())
}

func TestParamsAreNumberedInTextOrder(t *testing.T) {
	qi, err := ProcessSQLStr("SELECT a + ? FROM t WHERE b = ? LIMIT ?")
	require.NoError(t, err)
	assert.Equal(t, 3, qi.ParamCount_)
	sel := qi.Statement_.(*Select)
	assert.Equal(t, &Param{Index: 0}, sel.Fields[0].Expr.(*Binary).Right)
	assert.Equal(t, &Param{Index: 1}, sel.Where.(*Binary).Right)
	assert.Equal(t, &Param{Index: 2}, sel.Limit)

	qi, err = ProcessSQLStr("INSERT INTO t VALUES (?, ?), (?, -?)")
	require.NoError(t, err)
	assert.Equal(t, 4, qi.ParamCount_)
	ins := qi.Statement_.(*Insert)
	require.Len(t, ins.Rows, 2)
	assert.Equal(t, &Unary{Op: OpNegate, Operand: &Param{Index: 3}}, ins.Rows[1][1])
}

func TestCreateTable(t *testing.T) {
	sql := "CREATE TABLE orders (id INT UNSIGNED PRIMARY KEY AUTO_INCREMENT, name VARCHAR(64) NOT NULL DEFAULT 'x', " +
		"qty INT CHECK (qty > 0), price DOUBLE, paid BOOLEAN, customer INT REFERENCES customers(id), " +
		"UNIQUE KEY name_idx (name), INDEX qty_idx (qty, price), CONSTRAINT big CHECK (qty < 1000))"
	qi, err := ProcessSQLStr(sql)
	require.NoError(t, err)
	ct := qi.Statement_.(*CreateTable)
	assert.Equal(t, "orders", ct.Name)
	assert.Equal(t, []string{"id"}, ct.PrimaryKey)
	require.Len(t, ct.Columns, 6)

	id := ct.Columns[0]
	assert.Equal(t, types.Unsigned, id.Type)
	assert.True(t, id.AutoIncrement)
	assert.True(t, id.NotNull)

	name := ct.Columns[1]
	assert.Equal(t, types.String, name.Type)
	assert.True(t, name.NotNull)
	assert.Equal(t, "x", name.Default.(*Literal).Value.ToString())

	qty := ct.Columns[2]
	assert.Equal(t, types.Integer, qty.Type)
	require.NotNil(t, qty.Check)
	assert.Equal(t, "ck_unnamed_orders_1", qty.Check.Name)
	assert.Equal(t, "`qty`>0", qty.Check.Text)

	assert.Equal(t, types.Double, ct.Columns[3].Type)
	assert.Equal(t, types.Boolean, ct.Columns[4].Type)
	ref := ct.Columns[5].References
	require.NotNil(t, ref)
	assert.Equal(t, "customers", ref.ParentTable)
	assert.Equal(t, []string{"id"}, ref.ParentColumns)
	assert.Equal(t, []string{"customer"}, ref.Columns)

	require.Len(t, ct.Indexes, 2)
	assert.True(t, ct.Indexes[0].Unique)
	assert.False(t, ct.Indexes[1].Unique)
	assert.Equal(t, []string{"qty", "price"}, ct.Indexes[1].Columns)
	require.Len(t, ct.Checks, 1)
	assert.Equal(t, "big", ct.Checks[0].Name)
}

func TestAlterTable(t *testing.T) {
	qi, err := ProcessSQLStr("ALTER TABLE t ADD COLUMN c INT")
	require.NoError(t, err)
	alter := qi.Statement_.(*AlterTable)
	assert.Equal(t, ALTER_TABLE, alter.GetType())
	require.Len(t, alter.Actions, 1)
	assert.Equal(t, "c", alter.Actions[0].(*AddColumn).Column.Name)

	qi, err = ProcessSQLStr("ALTER TABLE t ADD CONSTRAINT fk FOREIGN KEY (a) REFERENCES p (id)")
	require.NoError(t, err)
	fk := qi.Statement_.(*AlterTable).Actions[0].(*AddForeignKey).ForeignKey
	assert.Equal(t, "fk", fk.Name)
	assert.Equal(t, "p", fk.ParentTable)

	qi, err = ProcessSQLStr("ALTER TABLE t DROP FOREIGN KEY fk")
	require.NoError(t, err)
	assert.Equal(t, &DropForeignKey{Name: "fk"}, qi.Statement_.(*AlterTable).Actions[0])

	qi, err = ProcessSQLStr("ALTER TABLE t RENAME TO u")
	require.NoError(t, err)
	assert.Equal(t, &RenameTable{NewName: "u"}, qi.Statement_.(*AlterTable).Actions[0])
}

func TestOtherStatements(t *testing.T) {
	cases := []struct {
		sql string
		typ QueryType
	}{
		{"DROP TABLE IF EXISTS t", DROP_TABLE},
		{"CREATE UNIQUE INDEX i ON t (a, b)", CREATE_INDEX},
		{"DROP INDEX i ON t", DROP_INDEX},
		{"TRUNCATE TABLE t", TRUNCATE},
		{"REPLACE INTO t VALUES (1)", INSERT},
		{"UPDATE t SET a = a + 1, b = 'x' WHERE c = 1", UPDATE},
		{"DELETE FROM t WHERE a = 1", DELETE},
		{"BEGIN", BEGIN},
		{"COMMIT", COMMIT},
		{"ROLLBACK", ROLLBACK},
	}
	for _, c := range cases {
		qi, err := ProcessSQLStr(c.sql)
		require.NoError(t, err, c.sql)
		assert.Equal(t, c.typ, qi.GetType(), c.sql)
	}

	qi, err := ProcessSQLStr("CREATE UNIQUE INDEX i ON t (a, b)")
	require.NoError(t, err)
	ci := qi.Statement_.(*CreateIndex)
	assert.True(t, ci.Index.Unique)
	assert.Equal(t, []string{"a", "b"}, ci.Index.Columns)
	assert.True(t, qi.GetType().IsDDL())

	qi, err = ProcessSQLStr("REPLACE INTO t VALUES (1)")
	require.NoError(t, err)
	assert.True(t, qi.Statement_.(*Insert).IsReplace)
}

func TestParseErrors(t *testing.T) {
	for _, sql := range []string{
		"SELEC a FROM t",
		"SELECT a FROM t; SELECT b FROM t",
		"SELECT a FROM t JOIN u ON t.a = u.a",
		"SELECT DISTINCT a FROM t",
	} {
		_, err := ProcessSQLStr(sql)
		assert.True(t, common.HasErrorCode(err, common.ER_SQL_PARSER), sql)
	}
}

func TestParseExpr(t *testing.T) {
	e, err := ParseExpr("`qty`>0")
	require.NoError(t, err)
	assert.Equal(t, &Binary{Op: OpGreaterThan, Left: &ColumnRef{Name: "qty"}, Right: &Literal{Value: types.NewInteger(0)}}, e)

	_, err = ParseExpr("a = ?")
	assert.Error(t, err)
}
