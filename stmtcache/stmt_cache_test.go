package stmtcache

import (
	"testing"

	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/catalog"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/execution/prepared"
	"github.com/ryogrid/SamehadaDict/planner"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	cache := schema.NewCache()
	require.NoError(t, cache.InitSystemSpaces())
	c := catalog.NewCatalog(cache, access.NewTransactionManager(nil))
	c.InstallTriggers()
	c.SetCheckCompiler(planner.NewCheckCompiler())
	txn := c.TxnManager().Begin()
	require.NoError(t, c.Bootstrap(txn))
	require.NoError(t, c.TxnManager().Commit(txn))
	return c
}

// runDDL compiles and runs a statement in its own transaction.
func runDDL(t *testing.T, c *catalog.Catalog, sql string) {
	txn := c.TxnManager().Begin()
	stmt, err := prepared.Compile(c, txn, sql)
	require.NoError(t, err, sql)
	_, done, err := stmt.Step(&prepared.Env{Catalog: c, Txn: txn, UID: common.AdminID})
	require.NoError(t, err, sql)
	require.True(t, bool(done))
	require.NoError(t, c.TxnManager().Commit(txn))
}

func compilerFor(t *testing.T, c *catalog.Catalog, calls *int) Compiler {
	return func(sql string) (*prepared.Statement, error) {
		*calls++
		txn := c.TxnManager().Begin()
		defer c.TxnManager().Abort(txn)
		return prepared.Compile(c, txn, sql)
	}
}

func TestFingerprintNormalization(t *testing.T) {
	assert.Equal(t, Fingerprint("SELECT a FROM t"), Fingerprint("  SELECT   a\n\tFROM t ;"))
	assert.NotEqual(t, Fingerprint("SELECT 'a  b' FROM t"), Fingerprint("SELECT 'a b' FROM t"))
	assert.NotEqual(t, Fingerprint("SELECT a FROM t"), Fingerprint("SELECT b FROM t"))
	// composed and decomposed forms of the same text
	assert.Equal(t, Fingerprint("SELECT 'caf\u00e9'"), Fingerprint("SELECT 'cafe\u0301'"))
}

func TestPreparePolicy(t *testing.T) {
	c := newTestCatalog(t)
	runDDL(t, c, "CREATE TABLE t (a INT PRIMARY KEY)")
	sc := NewStmtCache(common.DefaultStmtCacheSize)
	calls := 0
	compile := compilerFor(t, c, &calls)
	const sql = "SELECT * FROM t"

	// absent: compiled and inserted
	id, first, cached, err := sc.Prepare(sql, c.Cache().Version(), compile)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, Fingerprint(sql), id)
	assert.Same(t, first, sc.Find(id))
	assert.Equal(t, 1, calls)

	// current: reused
	_, again, cached, err := sc.Prepare(sql, c.Cache().Version(), compile)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Same(t, first, again)
	assert.Equal(t, 1, calls)

	// stale and busy: private copy, the entry is untouched
	runDDL(t, c, "ALTER TABLE t ADD COLUMN b INT")
	env := &prepared.Env{Catalog: c, Txn: c.TxnManager().Begin(), UID: common.AdminID}
	_, _, err = first.Step(env)
	require.NoError(t, err)
	require.True(t, first.IsBusy())
	oldVersion := first.SchemaVersion()

	_, private, cached, err := sc.Prepare(sql, c.Cache().Version(), compile)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.NotSame(t, first, private)
	assert.Same(t, first, sc.Find(id))
	assert.Equal(t, oldVersion, sc.Find(id).SchemaVersion())
	assert.Equal(t, 2, private.ColumnCount())

	// stale, not busy: recompiled in place with the original text
	first.Reset()
	c.TxnManager().Abort(env.Txn)
	_, fresh, cached, err := sc.Prepare("SELECT  *  FROM t", c.Cache().Version(), compile)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Same(t, fresh, sc.Find(id))
	assert.Equal(t, c.Cache().Version(), fresh.SchemaVersion())
	assert.Equal(t, sql, fresh.SQL())

	stats := sc.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Recompiles)
	assert.Equal(t, uint64(1), stats.OneShots)
	assert.Equal(t, 1, stats.Entries)
}

func TestRefCountingAndLimits(t *testing.T) {
	c := newTestCatalog(t)
	calls := 0
	compile := compilerFor(t, c, &calls)
	stmt, err := compile("SELECT 1")
	require.NoError(t, err)

	sc := NewStmtCache(stmt.Size())
	id := Fingerprint("SELECT 1")
	require.NoError(t, sc.Insert(id, stmt))
	assert.Error(t, sc.Insert(id, stmt))
	assert.Equal(t, stmt.Size(), sc.Stats().Size)

	other, err := compile("SELECT 2")
	require.NoError(t, err)
	err = sc.Insert(Fingerprint("SELECT 2"), other)
	assert.True(t, common.HasErrorCode(err, common.ER_SQL_PREPARE))

	require.NoError(t, sc.Ref(id))
	require.NoError(t, sc.Ref(id))
	assert.Equal(t, 2, sc.Refs(id))
	require.NoError(t, sc.Unref(id))
	assert.NotNil(t, sc.Find(id))
	require.NoError(t, sc.Unref(id))
	assert.Nil(t, sc.Find(id))
	assert.Equal(t, 0, sc.Stats().Size)

	assert.True(t, common.HasErrorCode(sc.Unref(id), common.ER_NO_SUCH_STATEMENT))
	assert.True(t, common.HasErrorCode(sc.Ref(id), common.ER_NO_SUCH_STATEMENT))
}

func TestBindAndStep(t *testing.T) {
	c := newTestCatalog(t)
	runDDL(t, c, "CREATE TABLE t (a INT PRIMARY KEY, b VARCHAR(5))")
	runDDL(t, c, "INSERT INTO t VALUES (1, 'x'), (2, 'y')")

	calls := 0
	stmt, err := compilerFor(t, c, &calls)("SELECT b FROM t WHERE a = ?")
	require.NoError(t, err)
	assert.Equal(t, 1, stmt.ParamCount())
	assert.True(t, common.HasErrorCode(stmt.Bind([]types.Value{types.NewInteger(1), types.NewInteger(2)}), common.ER_SQL_BIND_COUNT))

	require.NoError(t, stmt.Bind([]types.Value{types.NewInteger(2)}))
	env := &prepared.Env{Catalog: c, Txn: c.TxnManager().Begin(), UID: common.AdminID}
	defer c.TxnManager().Abort(env.Txn)
	row, done, err := stmt.Step(env)
	require.NoError(t, err)
	require.False(t, bool(done))
	v, err := row.GetValue(0)
	require.NoError(t, err)
	assert.Equal(t, "y", v.ToString())
	assert.Error(t, stmt.Bind([]types.Value{types.NewInteger(1)}))
	_, done, err = stmt.Step(env)
	require.NoError(t, err)
	assert.True(t, bool(done))
	stmt.Reset()

	stmt.Unbind()
	_, done, err = stmt.Step(env)
	require.NoError(t, err)
	assert.True(t, bool(done))
}

func TestPrepareRejectsTakenID(t *testing.T) {
	c := newTestCatalog(t)
	runDDL(t, c, "CREATE TABLE t (a INT PRIMARY KEY, b INT)")
	sc := NewStmtCache(common.DefaultStmtCacheSize)
	calls := 0
	compile := compilerFor(t, c, &calls)

	other, err := compile("SELECT b FROM t")
	require.NoError(t, err)
	id := Fingerprint("SELECT a FROM t")
	require.NoError(t, sc.Insert(id, other))

	_, stmt, cached, err := sc.Prepare("SELECT a FROM t", c.Cache().Version(), compile)
	assert.Equal(t, ErrIDTaken, errors.Cause(err))
	assert.Nil(t, stmt)
	assert.False(t, cached)
	assert.Equal(t, 1, calls)
	assert.Same(t, other, sc.Find(id))
}
