package access

import (
	"testing"

	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/storage/index"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLog struct {
	txns [][]LogRecord
	err  error
}

func (l *memLog) AppendTxn(txn_id TxnID, records []LogRecord) error {
	if l.err != nil {
		return l.err
	}
	l.txns = append(l.txns, records)
	return nil
}

func row(id int64, name string) *tuple.Tuple {
	return tuple.NewTupleFromValues([]types.Value{types.NewInteger(id), types.NewString(name)})
}

func newTestTable(t *testing.T) *Table {
	table := NewTable(512, "t")
	pkDef := index.NewKeyDef([]index.KeyPart{{FieldNo: 0, Type: types.Unsigned}})
	pk := index.NewTreeIndex(0, "pk", pkDef, true, nil)
	require.NoError(t, table.AddIndex(pk))
	skDef := index.NewKeyDef([]index.KeyPart{{FieldNo: 1, Type: types.String}})
	require.NoError(t, table.AddIndex(index.NewTreeIndex(1, "name", skDef, true, pkDef)))
	return table
}

func key(vals ...int64) index.Key {
	ret := make(index.Key, len(vals))
	for i, v := range vals {
		ret[i] = types.NewInteger(v)
	}
	return ret
}

func TestReplaceModes(t *testing.T) {
	table := newTestTable(t)
	txn_mgr := NewTransactionManager(nil)
	txn := txn_mgr.Begin()

	_, err := table.Replace(txn, row(1, "a"), DUP_INSERT)
	require.NoError(t, err)
	_, err = table.Replace(txn, row(1, "b"), DUP_INSERT)
	assert.True(t, common.HasErrorCode(err, common.ER_TUPLE_FOUND))
	_, err = table.Replace(txn, row(2, "b"), DUP_REPLACE)
	assert.True(t, common.HasErrorCode(err, common.ER_TUPLE_NOT_FOUND))

	old, err := table.Replace(txn, row(1, "b"), DUP_REPLACE_OR_INSERT)
	require.NoError(t, err)
	assert.True(t, old.Equals(row(1, "a")))
	require.NoError(t, txn_mgr.Commit(txn))

	got, err := table.Get(1, index.Key{types.NewString("b")})
	require.NoError(t, err)
	assert.True(t, got.Equals(row(1, "b")))
	got, err = table.Get(1, index.Key{types.NewString("a")})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSecondaryConflictLeavesTableIntact(t *testing.T) {
	table := newTestTable(t)
	txn := NewTransactionManager(nil).Begin()
	_, err := table.Replace(txn, row(1, "a"), DUP_INSERT)
	require.NoError(t, err)
	_, err = table.Replace(txn, row(2, "a"), DUP_INSERT)
	assert.True(t, common.HasErrorCode(err, common.ER_TUPLE_FOUND))
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 1, table.Index(1).Len())
}

func TestStatementRollbackInterleavesHooks(t *testing.T) {
	table := newTestTable(t)
	txn_mgr := NewTransactionManager(nil)
	txn := txn_mgr.Begin()
	_, err := table.Replace(txn, row(1, "a"), DUP_INSERT)
	require.NoError(t, err)

	sp := txn.Savepoint()
	_, err = table.Replace(txn, row(2, "b"), DUP_INSERT)
	require.NoError(t, err)
	saved := table.Snapshot()
	table.Truncate()
	txn.OnRollback(func() { table.Restore(saved) })
	_, err = table.Replace(txn, row(3, "c"), DUP_INSERT)
	require.NoError(t, err)
	committed := false
	txn.OnCommit(func() { committed = true })

	txn.RollbackToSavepoint(sp)
	require.Equal(t, 1, table.Len())
	got, err := table.Get(0, key(1))
	require.NoError(t, err)
	assert.NotNil(t, got)

	require.NoError(t, txn_mgr.Commit(txn))
	assert.False(t, committed)
}

func TestCommitWritesLogAndAbortUndoes(t *testing.T) {
	log := &memLog{}
	table := newTestTable(t)
	txn_mgr := NewTransactionManager(log)

	txn := txn_mgr.Begin()
	_, err := table.Replace(txn, row(1, "a"), DUP_INSERT)
	require.NoError(t, err)
	_, err = table.Delete(txn, key(1))
	require.NoError(t, err)
	require.NoError(t, txn_mgr.Commit(txn))
	require.Len(t, log.txns, 1)
	assert.Equal(t, []WType{INSERT, DELETE}, []WType{log.txns[0][0].Op, log.txns[0][1].Op})

	txn = txn_mgr.Begin()
	_, err = table.Replace(txn, row(5, "e"), DUP_INSERT)
	require.NoError(t, err)
	txn_mgr.Abort(txn)
	assert.Equal(t, ABORTED, txn.GetState())
	assert.Equal(t, 0, table.Len())
}

func TestLogFailureRollsBack(t *testing.T) {
	log := &memLog{err: errors.New("no space left")}
	table := newTestTable(t)
	txn_mgr := NewTransactionManager(log)
	txn := txn_mgr.Begin()
	rolledBack := false
	txn.OnRollback(func() { rolledBack = true })
	_, err := table.Replace(txn, row(1, "a"), DUP_INSERT)
	require.NoError(t, err)

	err = txn_mgr.Commit(txn)
	assert.True(t, common.HasErrorCode(err, common.ER_WAL_IO))
	assert.True(t, rolledBack)
	assert.Equal(t, 0, table.Len())
}

func TestTriggerCancelsChange(t *testing.T) {
	table := newTestTable(t)
	table.AddOnReplace(func(txn *Transaction, tbl *Table, old, new *tuple.Tuple) error {
		if new != nil && new.Equals(row(9, "bad")) {
			return common.NewClientError(common.ER_ILLEGAL_PARAMS, "rejected")
		}
		return nil
	})
	txn := NewTransactionManager(nil).Begin()
	_, err := table.Replace(txn, row(9, "bad"), DUP_INSERT)
	assert.True(t, common.HasErrorCode(err, common.ER_ILLEGAL_PARAMS))
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, txn.GetWriteSet())
}

func TestDropAndAttachIndex(t *testing.T) {
	table := newTestTable(t)
	txn := NewTransactionManager(nil).Begin()
	_, err := table.Replace(txn, row(1, "a"), DUP_INSERT)
	require.NoError(t, err)

	sk := table.Index(1)
	table.DropIndex(1)
	assert.Nil(t, table.Index(1))
	table.AttachIndex(sk)
	assert.Same(t, sk, table.Index(1))
	assert.Equal(t, 2, table.IndexCount())
}
