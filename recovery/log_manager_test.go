package recovery

import (
	"testing"

	"github.com/dsnet/golib/memfile"
	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowOf(vals ...interface{}) []byte {
	values := make([]types.Value, len(vals))
	for i, v := range vals {
		values[i], _ = types.NewValueFromInterface(v)
	}
	return tuple.NewTupleFromValues(values).Data()
}

func TestAppendAndReplay(t *testing.T) {
	file := memfile.New(make([]byte, 0))
	lm := NewLogManager(NewMemoryLogStore(file))
	require.True(t, lm.IsEmpty())

	require.NoError(t, lm.AppendTxn(1, []access.LogRecord{
		{SpaceID: 280, Op: access.INSERT, Tuple: rowOf(512, 1, "t")},
		{SpaceID: 288, Op: access.INSERT, Tuple: rowOf(512, 0, "pk")},
	}))
	require.NoError(t, lm.AppendTxn(2, []access.LogRecord{
		{SpaceID: 512, Op: access.DELETE, Tuple: rowOf(7)},
	}))

	// a new manager on the same memory file sees both transactions
	restarted := NewLogManager(NewMemoryLogStore(file))
	require.False(t, restarted.IsEmpty())
	var ids []access.TxnID
	var all []access.LogRecord
	require.NoError(t, restarted.Replay(func(id access.TxnID, records []access.LogRecord) error {
		ids = append(ids, id)
		all = append(all, records...)
		return nil
	}))
	assert.Equal(t, []access.TxnID{1, 2}, ids)
	require.Len(t, all, 3)
	assert.Equal(t, uint32(288), all[1].SpaceID)
	assert.Equal(t, access.DELETE, all[2].Op)
	row, err := tuple.NewTupleFromBytes(all[0].Tuple)
	require.NoError(t, err)
	name, err := row.GetString(2)
	require.NoError(t, err)
	assert.Equal(t, "t", name)
	assert.Equal(t, uint64(2), restarted.GetNextLSN())
}

func TestReplaySkipsTornTail(t *testing.T) {
	file := memfile.New(make([]byte, 0))
	lm := NewLogManager(NewMemoryLogStore(file))
	require.NoError(t, lm.AppendTxn(1, []access.LogRecord{{SpaceID: 512, Op: access.INSERT, Tuple: rowOf(1)}}))
	full := len(file.Bytes())
	require.NoError(t, lm.AppendTxn(2, []access.LogRecord{{SpaceID: 512, Op: access.INSERT, Tuple: rowOf(2, "abc")}}))
	require.NoError(t, file.Truncate(int64(full+3)))

	count := 0
	require.NoError(t, NewLogManager(NewMemoryLogStore(file)).Replay(func(access.TxnID, []access.LogRecord) error {
		count++
		return nil
	}))
	assert.Equal(t, 1, count)
}

func TestInjectedWriteError(t *testing.T) {
	lm := NewLogManager(NewMemoryLogStore(nil))
	lm.InjectWriteError(errors.New("disk is gone"))
	assert.Error(t, lm.AppendTxn(1, nil))
	assert.True(t, lm.IsEmpty())
	lm.InjectWriteError(nil)
	assert.NoError(t, lm.AppendTxn(1, nil))
	assert.False(t, lm.IsEmpty())
}

func TestFileLogStore(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenFileLogStore(dir)
	require.NoError(t, err)
	lm := NewLogManager(store)
	require.NoError(t, lm.AppendTxn(9, []access.LogRecord{{SpaceID: 600, Op: access.UPDATE, Tuple: rowOf(1, 2)}}))
	require.NoError(t, lm.Close())

	store, err = OpenFileLogStore(dir)
	require.NoError(t, err)
	defer store.Close()
	var got access.TxnID
	require.NoError(t, NewLogManager(store).Replay(func(id access.TxnID, _ []access.LogRecord) error {
		got = id
		return nil
	}))
	assert.Equal(t, access.TxnID(9), got)
}
