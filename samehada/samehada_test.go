package samehada

import (
	"sync"
	"testing"

	"github.com/dsnet/golib/memfile"
	"github.com/ryogrid/SamehadaDict/catalog"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/recovery"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/session"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, opts ...Option) *SamehadaDB {
	sdb, err := NewSamehadaDB(nil, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { sdb.Shutdown() })
	return sdb
}

func adminSession(t *testing.T, sdb *SamehadaDB) *session.Session {
	s, err := sdb.NewSession("admin")
	require.NoError(t, err)
	return s
}

func mustExecute(t *testing.T, sdb *SamehadaDB, s *session.Session, sql string, binds ...types.Value) *Port {
	port, err := sdb.Execute(s, sql, binds)
	require.NoError(t, err, sql)
	return port
}

func TestReprepareAfterAlter(t *testing.T) {
	sdb := newTestDB(t)
	s := adminSession(t, sdb)
	mustExecute(t, sdb, s, "CREATE TABLE t (a INT PRIMARY KEY)")
	mustExecute(t, sdb, s, "INSERT INTO t VALUES (1)")

	prep, err := sdb.Prepare(s, "SELECT * FROM t")
	require.NoError(t, err)
	assert.Equal(t, DQL_PREPARE, prep.Format)
	require.Len(t, prep.Metadata, 1)
	version := sdb.SchemaVersion()
	assert.Equal(t, version, sdb.GetStmtCache().Find(prep.StmtID).SchemaVersion())

	mustExecute(t, sdb, s, "ALTER TABLE t ADD COLUMN c INT")
	assert.Equal(t, version+1, sdb.SchemaVersion())

	port, err := sdb.ExecutePrepared(s, prep.StmtID, nil)
	require.NoError(t, err)
	require.Len(t, port.Metadata, 2)
	assert.Equal(t, "c", port.Metadata[1].Name)
	assert.Equal(t, [][]interface{}{{int64(1), nil}}, port.Values())

	cached := sdb.GetStmtCache().Find(prep.StmtID)
	require.NotNil(t, cached)
	assert.Equal(t, version+1, cached.SchemaVersion())
	assert.Equal(t, "SELECT * FROM t", cached.SQL())
	assert.False(t, cached.IsBusy())
}

func TestSessionIsolation(t *testing.T) {
	sdb := newTestDB(t)
	a := adminSession(t, sdb)
	b := adminSession(t, sdb)
	mustExecute(t, sdb, a, "CREATE TABLE t (a INT PRIMARY KEY)")

	prep, err := sdb.Prepare(a, "SELECT a FROM t")
	require.NoError(t, err)

	err = sdb.Unprepare(b, prep.StmtID)
	assert.True(t, common.HasErrorCode(err, common.ER_WRONG_QUERY_ID))
	assert.True(t, common.IsAuthorization(err))
	assert.Equal(t, common.ER_WRONG_QUERY_ID, b.Diag().Code())
	_, err = sdb.ExecutePrepared(b, prep.StmtID, nil)
	assert.True(t, common.HasErrorCode(err, common.ER_WRONG_QUERY_ID))

	// the statement is untouched for the session that prepared it
	assert.NotNil(t, sdb.GetStmtCache().Find(prep.StmtID))
	_, err = sdb.ExecutePrepared(a, prep.StmtID, nil)
	require.NoError(t, err)

	// b may claim the same statement, then both have to let go of it
	_, err = sdb.Prepare(b, "SELECT a FROM t")
	require.NoError(t, err)
	assert.Equal(t, 2, sdb.GetStmtCache().Refs(prep.StmtID))
	require.NoError(t, sdb.Unprepare(a, prep.StmtID))
	assert.NotNil(t, sdb.GetStmtCache().Find(prep.StmtID))
	err = sdb.Unprepare(a, prep.StmtID)
	assert.True(t, common.HasErrorCode(err, common.ER_WRONG_QUERY_ID))
	sdb.CloseSession(b)
	assert.Nil(t, sdb.GetStmtCache().Find(prep.StmtID))
}

func TestBusyReentrancy(t *testing.T) {
	sdb := newTestDB(t)
	a := adminSession(t, sdb)
	b := adminSession(t, sdb)
	mustExecute(t, sdb, a, "CREATE TABLE t (a INT PRIMARY KEY, b VARCHAR(10))")
	mustExecute(t, sdb, a, "INSERT INTO t VALUES (1, 'x'), (2, 'y'), (3, 'z')")
	const sql = "SELECT b FROM t WHERE a > ? ORDER BY a"

	prepA, err := sdb.Prepare(a, sql)
	require.NoError(t, err)
	prepB, err := sdb.Prepare(b, sql)
	require.NoError(t, err)
	require.Equal(t, prepA.StmtID, prepB.StmtID)
	entry := sdb.GetStmtCache().Find(prepA.StmtID)

	cur, err := sdb.OpenPreparedCursor(a, prepA.StmtID, []types.Value{types.NewInteger(0)})
	require.NoError(t, err)
	row, done, err := cur.Next()
	require.NoError(t, err)
	require.False(t, done)
	v, _ := row.GetValue(0)
	assert.Equal(t, "x", v.ToString())
	require.True(t, entry.IsBusy())

	// the same statement from another session and from the cursor owner
	for _, s := range []*session.Session{b, a} {
		port, err := sdb.ExecutePrepared(s, prepA.StmtID, []types.Value{types.NewInteger(1)})
		require.NoError(t, err)
		assert.Equal(t, [][]interface{}{{"y"}, {"z"}}, port.Values())
	}
	assert.Same(t, entry, sdb.GetStmtCache().Find(prepA.StmtID))
	assert.True(t, entry.IsBusy())
	assert.Equal(t, types.NewInteger(0), entry.BoundValues()[0])

	var rest []string
	for {
		row, done, err := cur.Next()
		require.NoError(t, err)
		if done {
			break
		}
		v, _ := row.GetValue(0)
		rest = append(rest, v.ToString())
	}
	assert.Equal(t, []string{"y", "z"}, rest)
	assert.False(t, entry.IsBusy())
}

func TestBusyEntryIsNotRecompiled(t *testing.T) {
	sdb := newTestDB(t)
	s := adminSession(t, sdb)
	mustExecute(t, sdb, s, "CREATE TABLE t (a INT PRIMARY KEY)")
	mustExecute(t, sdb, s, "INSERT INTO t VALUES (1), (2)")
	prep, err := sdb.Prepare(s, "SELECT * FROM t")
	require.NoError(t, err)
	entry := sdb.GetStmtCache().Find(prep.StmtID)
	version := entry.SchemaVersion()

	cur, err := sdb.OpenPreparedCursor(s, prep.StmtID, nil)
	require.NoError(t, err)
	_, _, err = cur.Next()
	require.NoError(t, err)

	other := adminSession(t, sdb)
	mustExecute(t, sdb, other, "CREATE TABLE u (a INT PRIMARY KEY)")
	require.NotEqual(t, version, sdb.SchemaVersion())

	port, err := sdb.ExecutePrepared(s, prep.StmtID, nil)
	require.NoError(t, err)
	assert.Len(t, port.Rows, 2)
	assert.Same(t, entry, sdb.GetStmtCache().Find(prep.StmtID))
	assert.Equal(t, version, entry.SchemaVersion())
	cur.Close()
	assert.False(t, entry.IsBusy())

	// once the cursor is gone the stale entry is recompiled in place
	_, err = sdb.ExecutePrepared(s, prep.StmtID, nil)
	require.NoError(t, err)
	assert.Equal(t, sdb.SchemaVersion(), sdb.GetStmtCache().Find(prep.StmtID).SchemaVersion())
}

func TestPreparedStatementMatchesSchemaVersion(t *testing.T) {
	sdb := newTestDB(t)
	s := adminSession(t, sdb)
	ddl := []string{
		"CREATE TABLE t (a INT PRIMARY KEY, b INT)",
		"CREATE INDEX b_idx ON t (b)",
		"ALTER TABLE t ADD COLUMN c VARCHAR(5)",
		"DROP INDEX b_idx ON t",
		"CREATE TABLE u (x INT PRIMARY KEY)",
	}
	queries := []string{"SELECT a FROM t WHERE b = ?", "SELECT * FROM t", "SELECT 1"}
	for _, stmt := range ddl {
		mustExecute(t, sdb, s, stmt)
		for _, q := range queries {
			prep, err := sdb.Prepare(s, q)
			require.NoError(t, err, q)
			assert.Equal(t, sdb.SchemaVersion(), sdb.GetStmtCache().Find(prep.StmtID).SchemaVersion(), q)
		}
	}
	assert.Equal(t, len(queries), sdb.GetStmtCache().Stats().Entries)
}

func TestCreateTableNameUniqueness(t *testing.T) {
	sdb := newTestDB(t)
	s := adminSession(t, sdb)
	mustExecute(t, sdb, s, "CREATE TABLE t (a INT PRIMARY KEY)")
	version := sdb.SchemaVersion()
	sp := sdb.SpaceByName(s, "t")
	require.NotNil(t, sp)

	_, err := sdb.Execute(s, "CREATE TABLE t (b VARCHAR(3) PRIMARY KEY)", nil)
	assert.True(t, common.HasErrorCode(err, common.ER_SPACE_EXISTS))
	assert.True(t, common.IsConflict(err))
	assert.Equal(t, version, sdb.SchemaVersion())
	assert.Same(t, sp, sdb.SpaceByName(s, "t"))

	id, err := sdb.FindID(schema.SpaceID, 2, "t")
	require.NoError(t, err)
	assert.Equal(t, sp.ID(), id)
}

func TestBootstrapOrderingOnRestart(t *testing.T) {
	file := memfile.New(make([]byte, 0))
	sdb, err := NewSamehadaDB(nil, WithLogStore(recovery.NewMemoryLogStore(file)))
	require.NoError(t, err)
	s := adminSession(t, sdb)
	mustExecute(t, sdb, s, "CREATE TABLE t (a INT PRIMARY KEY AUTO_INCREMENT, b VARCHAR(10))")
	mustExecute(t, sdb, s, "INSERT INTO t (b) VALUES ('x'), ('y')")
	version := sdb.SchemaVersion()
	require.NoError(t, sdb.Shutdown())

	replayed := 0
	observer := func(c *catalog.Catalog, _ access.TxnID) {
		if replayed == 0 {
			for _, name := range []string{"_schema", "_space", "_index", "_sequence", "_user", "_priv"} {
				assert.NotNil(t, c.Cache().SpaceByName(name), name)
			}
			assert.Nil(t, c.Cache().SpaceByName("t"))
		}
		replayed++
	}
	restarted := newTestDB(t, WithLogStore(recovery.NewMemoryLogStore(file)), WithReplayObserver(observer))
	assert.Greater(t, replayed, 1)
	assert.Equal(t, version, restarted.SchemaVersion())

	s = adminSession(t, restarted)
	port := mustExecute(t, restarted, s, "SELECT * FROM t")
	assert.Equal(t, [][]interface{}{{int64(1), "x"}, {int64(2), "y"}}, port.Values())
	port = mustExecute(t, restarted, s, "INSERT INTO t (b) VALUES ('z')")
	assert.Equal(t, []int64{3}, port.Info.AutoIncrementIDs)
}

func TestDMLInfoAndBinds(t *testing.T) {
	sdb := newTestDB(t)
	s := adminSession(t, sdb)
	mustExecute(t, sdb, s, "CREATE TABLE items (id INT PRIMARY KEY AUTO_INCREMENT, name VARCHAR(10))")

	prep, err := sdb.Prepare(s, "INSERT INTO items (name) VALUES (?)")
	require.NoError(t, err)
	assert.Equal(t, DML_PREPARE, prep.Format)
	require.Len(t, prep.BindMetadata, 1)
	dump := prep.Dump()
	assert.Equal(t, 1, dump["param_count"])
	assert.NotContains(t, dump, "metadata")

	port, err := sdb.ExecutePrepared(s, prep.StmtID, []types.Value{types.NewString("a")})
	require.NoError(t, err)
	assert.Equal(t, DML_EXECUTE, port.Format)
	assert.Equal(t, SQLInfo{RowCount: 1, AutoIncrementIDs: []int64{1}}, port.Info)

	port, err = sdb.ExecutePrepared(s, prep.StmtID, []types.Value{types.NewString("b")})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, port.Info.AutoIncrementIDs)
	info := port.Dump()["sql_info"].(map[string]interface{})
	assert.Equal(t, uint64(1), info["row_count"])

	_, err = sdb.ExecutePrepared(s, prep.StmtID, []types.Value{types.NewString("c"), types.NewString("d")})
	assert.True(t, common.HasErrorCode(err, common.ER_SQL_BIND_COUNT))
	assert.False(t, sdb.GetStmtCache().Find(prep.StmtID).IsBusy())

	port = mustExecute(t, sdb, s, "SELECT name FROM items ORDER BY id")
	assert.Equal(t, [][]interface{}{{"a"}, {"b"}}, port.Values())
	dump = port.Dump()
	assert.Equal(t, []map[string]interface{}{{"name": "name", "type": "string"}}, dump["metadata"])

	port, err = sdb.PrepareAndExecute(s, "SELECT COUNT_ME FROM items", nil)
	assert.Error(t, err)
	assert.Nil(t, port)
	port, err = sdb.PrepareAndExecute(s, "SELECT id FROM items WHERE name = ?", []types.Value{types.NewString("b")})
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{{int64(2)}}, port.Values())
	assert.True(t, s.Check(port.StmtID))
}

func TestTransactionControl(t *testing.T) {
	sdb := newTestDB(t)
	s := adminSession(t, sdb)
	mustExecute(t, sdb, s, "CREATE TABLE t (a INT PRIMARY KEY)")

	mustExecute(t, sdb, s, "BEGIN")
	_, err := sdb.Execute(s, "BEGIN", nil)
	assert.True(t, common.HasErrorCode(err, common.ER_ACTIVE_TRANSACTION))
	mustExecute(t, sdb, s, "INSERT INTO t VALUES (1)")
	_, err = sdb.Execute(s, "INSERT INTO t VALUES (1)", nil)
	assert.True(t, common.HasErrorCode(err, common.ER_TUPLE_FOUND))
	assert.True(t, s.InTxn())
	mustExecute(t, sdb, s, "INSERT INTO t VALUES (2)")
	mustExecute(t, sdb, s, "ROLLBACK")
	assert.Empty(t, mustExecute(t, sdb, s, "SELECT * FROM t").Rows)

	_, err = sdb.Execute(s, "COMMIT", nil)
	assert.True(t, common.HasErrorCode(err, common.ER_NO_TRANSACTION))

	mustExecute(t, sdb, s, "BEGIN")
	mustExecute(t, sdb, s, "INSERT INTO t VALUES (3)")
	mustExecute(t, sdb, s, "COMMIT")
	assert.Len(t, mustExecute(t, sdb, s, "SELECT * FROM t").Rows, 1)

	// a closed session leaves nothing behind
	mustExecute(t, sdb, s, "BEGIN")
	mustExecute(t, sdb, s, "INSERT INTO t VALUES (4)")
	sdb.CloseSession(s)
	rows, err := sdb.ExecuteSQL("SELECT a FROM t")
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{{int64(3)}}, rows)
}

func TestAccessAndBoxAPI(t *testing.T) {
	sdb := newTestDB(t)
	admin := adminSession(t, sdb)
	mustExecute(t, sdb, admin, "CREATE TABLE t (a INT PRIMARY KEY)")
	sp := sdb.SpaceByName(admin, "t")
	require.NotNil(t, sp)

	_, err := sdb.NewSession("nobody")
	assert.True(t, common.HasErrorCode(err, common.ER_NO_SUCH_USER))

	bobID, err := sdb.CreateUser(admin, "bob", false)
	require.NoError(t, err)
	bob, err := sdb.NewSession("bob")
	require.NoError(t, err)
	_, err = sdb.Execute(bob, "SELECT * FROM t", nil)
	assert.True(t, common.HasErrorCode(err, common.ER_ACCESS_DENIED))

	found, err := sdb.FindGrants(schema.ObjectSpace, sp.ID())
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, sdb.Grant(admin, bobID, schema.PrivObject{Type: schema.ObjectSpace, ID: sp.ID()}, schema.PRIV_R))
	found, err = sdb.FindGrants(schema.ObjectSpace, sp.ID())
	require.NoError(t, err)
	assert.True(t, found)
	_, err = sdb.Execute(bob, "SELECT * FROM t", nil)
	require.NoError(t, err)

	name, err := sdb.FindName(schema.ObjectSpace, sp.ID())
	require.NoError(t, err)
	assert.Equal(t, "t", name)
	id, err := sdb.FindID(schema.SpaceID, 2, "no_such_space")
	require.NoError(t, err)
	assert.Equal(t, common.BoxIDNil, id)

	funcID, err := sdb.CreateFunction(admin, &schema.Func{Name: "positive", Language: "SQL_EXPR", Body: "a > 0", Owner: common.AdminID})
	require.NoError(t, err)
	ck := &schema.ConstraintDef{Name: "positive", Type: schema.CONSTR_FUNC, FuncID: funcID}
	require.NoError(t, sdb.CreateConstraint(admin, sp.ID(), "", ck))
	_, err = sdb.Execute(admin, "INSERT INTO t VALUES (-1)", nil)
	assert.True(t, common.HasErrorCode(err, common.ER_CK_CONSTRAINT_FAILED))
	require.NoError(t, sdb.DropConstraint(admin, sp.ID(), schema.CONSTR_FUNC, "positive"))
	mustExecute(t, sdb, admin, "INSERT INTO t VALUES (-1)")

	err = sdb.DropConstraint(admin, sp.ID(), schema.CONSTR_FUNC, "positive")
	assert.True(t, common.IsNotFound(err))
	assert.Equal(t, common.GetErrorCode(err), admin.Diag().Code())
}

func TestRequestManagerRunsRequestsInOrder(t *testing.T) {
	sdb := newTestDB(t)
	s := adminSession(t, sdb)
	mustExecute(t, sdb, s, "CREATE TABLE t (a INT PRIMARY KEY)")

	reqManager := NewRequestManager(sdb)
	reqManager.StartTh()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := reqManager.Do(func(sdb *SamehadaDB) (*Port, error) {
				return sdb.Execute(s, "INSERT INTO t VALUES (?)", []types.Value{types.NewInteger(int64(i))})
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	port, err := reqManager.Do(func(sdb *SamehadaDB) (*Port, error) {
		return sdb.Execute(s, "SELECT * FROM t", nil)
	})
	require.NoError(t, err)
	assert.Len(t, port.Rows, 20)
	reqManager.StopTh()
}

func TestOneShotCursor(t *testing.T) {
	sdb := newTestDB(t)
	s := adminSession(t, sdb)
	mustExecute(t, sdb, s, "CREATE TABLE t (a INT PRIMARY KEY)")
	mustExecute(t, sdb, s, "INSERT INTO t VALUES (1), (2)")

	cur, err := sdb.OpenCursor(s, "SELECT a FROM t WHERE a > ?", []types.Value{types.NewInteger(1)})
	require.NoError(t, err)
	require.Len(t, cur.Columns(), 1)
	row, done, err := cur.Next()
	require.NoError(t, err)
	require.False(t, done)
	v, _ := row.GetValue(0)
	assert.Equal(t, int64(2), v.ToInteger())
	_, done, err = cur.Next()
	require.NoError(t, err)
	assert.True(t, done)
	// stepping a finished cursor stays done
	_, done, err = cur.Next()
	require.NoError(t, err)
	assert.True(t, done)

	// an abandoned cursor rolls its changes back
	cur, err = sdb.OpenCursor(s, "DELETE FROM t", nil)
	require.NoError(t, err)
	cur.Close()
	port := mustExecute(t, sdb, s, "SELECT a FROM t ORDER BY a")
	assert.Equal(t, [][]interface{}{{int64(1)}, {int64(2)}}, port.Values())

	_, err = sdb.OpenCursor(s, "BEGIN", nil)
	assert.True(t, common.HasErrorCode(err, common.ER_SQL_EXECUTE))
}

func drainStrings(t *testing.T, cur *Cursor) []string {
	var out []string
	for {
		row, done, err := cur.Next()
		require.NoError(t, err)
		if done {
			return out
		}
		v, _ := row.GetValue(0)
		out = append(out, v.ToString())
	}
}

func TestCursorsOpenedBeforeFirstStep(t *testing.T) {
	sdb := newTestDB(t)
	a := adminSession(t, sdb)
	b := adminSession(t, sdb)
	mustExecute(t, sdb, a, "CREATE TABLE t (a INT PRIMARY KEY, b VARCHAR(10))")
	mustExecute(t, sdb, a, "INSERT INTO t VALUES (1, 'x'), (2, 'y'), (3, 'z')")
	const sql = "SELECT b FROM t WHERE a > ? ORDER BY a"
	prep, err := sdb.Prepare(a, sql)
	require.NoError(t, err)
	_, err = sdb.Prepare(b, sql)
	require.NoError(t, err)
	entry := sdb.GetStmtCache().Find(prep.StmtID)
	zero := []types.Value{types.NewInteger(0)}

	first, err := sdb.OpenPreparedCursor(a, prep.StmtID, zero)
	require.NoError(t, err)
	assert.True(t, entry.IsBusy())
	second, err := sdb.OpenPreparedCursor(a, prep.StmtID, zero)
	require.NoError(t, err)

	var got [2][]string
	for i := 0; i < 4; i++ {
		for n, cur := range []*Cursor{first, second} {
			row, done, err := cur.Next()
			require.NoError(t, err)
			if done {
				continue
			}
			v, _ := row.GetValue(0)
			got[n] = append(got[n], v.ToString())
		}
	}
	assert.Equal(t, []string{"x", "y", "z"}, got[0])
	assert.Equal(t, []string{"x", "y", "z"}, got[1])
	assert.False(t, entry.IsBusy())

	// an execution between open and the first step keeps its own binds
	cur, err := sdb.OpenPreparedCursor(a, prep.StmtID, zero)
	require.NoError(t, err)
	port, err := sdb.ExecutePrepared(b, prep.StmtID, []types.Value{types.NewInteger(2)})
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{{"z"}}, port.Values())
	assert.Same(t, entry, sdb.GetStmtCache().Find(prep.StmtID))
	assert.Equal(t, []string{"x", "y", "z"}, drainStrings(t, cur))
	assert.False(t, entry.IsBusy())
}

func TestNullFieldRoundTrip(t *testing.T) {
	sdb := newTestDB(t)
	s := adminSession(t, sdb)
	mustExecute(t, sdb, s, "CREATE TABLE n (a INT PRIMARY KEY, b INT)")
	mustExecute(t, sdb, s, "INSERT INTO n VALUES (1, NULL)")
	mustExecute(t, sdb, s, "INSERT INTO n VALUES (?, ?)", types.NewInteger(2), types.NewNull())

	port := mustExecute(t, sdb, s, "SELECT a, b FROM n ORDER BY a")
	assert.Equal(t, [][]interface{}{{int64(1), nil}, {int64(2), nil}}, port.Values())

	_, err := sdb.Execute(s, "INSERT INTO n VALUES (NULL, 3)", nil)
	assert.Error(t, err)
}

func TestColumnLevelPrimaryKey(t *testing.T) {
	sdb := newTestDB(t)
	s := adminSession(t, sdb)
	mustExecute(t, sdb, s, "CREATE TABLE t (a INT PRIMARY KEY, b INT)")
	sp := sdb.SpaceByName(s, "t")
	require.NotNil(t, sp)
	require.NotNil(t, sp.PrimaryIndex())
	assert.Equal(t, []uint32{0}, sp.PrimaryIndex().FieldNos())
	assert.Len(t, sp.Indexes, 1)
	assert.False(t, sp.Def.Fields[0].IsNullable)

	_, err := sdb.Execute(s, "CREATE TABLE u (a INT PRIMARY KEY, b INT, PRIMARY KEY (b))", nil)
	assert.Error(t, err)
	assert.Nil(t, sdb.SpaceByName(s, "u"))
}
