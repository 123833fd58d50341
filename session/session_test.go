package session

import (
	"testing"

	"github.com/ryogrid/SamehadaDict/catalog"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/execution/prepared"
	"github.com/ryogrid/SamehadaDict/planner"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/stmtcache"
	"github.com/ryogrid/SamehadaDict/storage/access"
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

func prepareIn(t *testing.T, c *catalog.Catalog, sc *stmtcache.StmtCache, s *Session, sql string) stmtcache.StmtID {
	compile := func(text string) (*prepared.Statement, error) {
		txn := c.TxnManager().Begin()
		defer c.TxnManager().Abort(txn)
		return prepared.Compile(c, txn, text)
	}
	id, _, cached, err := sc.Prepare(sql, c.Cache().Version(), compile)
	require.NoError(t, err)
	require.True(t, cached)
	if s.Add(id) {
		require.NoError(t, sc.Ref(id))
	}
	return id
}

func TestRegistry(t *testing.T) {
	admin := schema.NewUser(common.AdminID, common.AdminID, "admin", "user")
	s := NewSession(admin)
	other := NewSession(admin)
	assert.NotEqual(t, s.ID(), other.ID())

	assert.True(t, s.Add(7))
	assert.False(t, s.Add(7))
	assert.True(t, s.Check(7))
	assert.False(t, other.Check(7))

	err := other.Remove(7)
	assert.True(t, common.HasErrorCode(err, common.ER_WRONG_QUERY_ID))
	assert.True(t, s.Check(7))

	require.NoError(t, s.Remove(7))
	assert.False(t, s.Check(7))
	assert.Empty(t, s.StmtIDs())
}

func TestCloseReleasesStatements(t *testing.T) {
	c := newTestCatalog(t)
	sc := stmtcache.NewStmtCache(common.DefaultStmtCacheSize)
	admin := c.UserByName(nil, "admin")
	require.NotNil(t, admin)

	s1 := NewSession(admin)
	s2 := NewSession(admin)
	shared := prepareIn(t, c, sc, s1, "SELECT 1")
	assert.Equal(t, shared, prepareIn(t, c, sc, s2, "SELECT 1"))
	own := prepareIn(t, c, sc, s1, "SELECT 2")
	assert.Equal(t, 2, sc.Refs(shared))
	assert.ElementsMatch(t, []stmtcache.StmtID{shared, own}, s1.StmtIDs())

	s1.SetTxn(c.TxnManager().Begin())
	require.True(t, s1.InTxn())
	txn := s1.Txn()
	s1.Close(sc, c.TxnManager())
	assert.False(t, txn.IsActive())
	assert.Nil(t, s1.Txn())
	assert.Nil(t, sc.Find(own))
	assert.NotNil(t, sc.Find(shared))
	assert.Equal(t, 1, sc.Refs(shared))

	s2.Close(sc, c.TxnManager())
	assert.Nil(t, sc.Find(shared))
	assert.Equal(t, 0, sc.Stats().Entries)
}

func TestDiag(t *testing.T) {
	var d Diag
	assert.Equal(t, common.ER_UNKNOWN, d.Code())
	d.Set(common.NewClientError(common.ER_NO_SUCH_STATEMENT, 3))
	assert.Equal(t, common.ER_NO_SUCH_STATEMENT, d.Code())
	d.Clear()
	assert.Nil(t, d.Last())
}
