package access

import (
	"github.com/golang-collections/collections/stack"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
)

/**
 * Transaction states:
 *
 *  ACTIVE -> COMMITTED
 *    |
 *    +----> ABORTED
 */
type TransactionState int32

const (
	ACTIVE TransactionState = iota
	COMMITTED
	ABORTED
)

type TxnID uint64

/**
 * Type of write operation.
 */
type WType int32

const (
	INSERT WType = iota
	DELETE
	UPDATE
)

/**
 * WriteRecord tracks one change of a table: old is nil for an insert,
 * new is nil for a delete.
 */
type WriteRecord struct {
	wtype    WType
	table    *Table
	oldTuple *tuple.Tuple
	newTuple *tuple.Tuple
}

func (wr *WriteRecord) GetType() WType            { return wr.wtype }
func (wr *WriteRecord) GetTable() *Table          { return wr.table }
func (wr *WriteRecord) GetOldTuple() *tuple.Tuple { return wr.oldTuple }
func (wr *WriteRecord) GetNewTuple() *tuple.Tuple { return wr.newTuple }

// Savepoint marks the state of a transaction at the start of a statement.
type Savepoint struct {
	writes   int
	undo     int
	onCommit int
}

/**
 * Transaction tracks the changes and the commit/rollback hooks of one
 * transaction. Undo records and rollback hooks share one stack so that
 * rollback (of the whole transaction or of one statement) replays them
 * in exact reverse order.
 */
type Transaction struct {
	state  TransactionState
	txn_id TxnID

	write_set []*WriteRecord
	undo      *stack.Stack
	on_commit []func()

	attachments map[string]interface{}
	// set while the log is replayed: commit must not write the log again
	is_recovery bool
}

func NewTransaction(txn_id TxnID) *Transaction {
	return &Transaction{
		state:       ACTIVE,
		txn_id:      txn_id,
		write_set:   make([]*WriteRecord, 0),
		undo:        stack.New(),
		on_commit:   make([]func(), 0),
		attachments: make(map[string]interface{}),
	}
}

/** @return the id of this transaction */
func (txn *Transaction) GetTransactionId() TxnID { return txn.txn_id }

/** @return the list of write records of this transaction */
func (txn *Transaction) GetWriteSet() []*WriteRecord { return txn.write_set }

func (txn *Transaction) GetState() TransactionState { return txn.state }

func (txn *Transaction) IsActive() bool { return txn.state == ACTIVE }

func (txn *Transaction) IsRecovery() bool { return txn.is_recovery }

func (txn *Transaction) SetRecovery(v bool) { txn.is_recovery = v }

func (txn *Transaction) addWriteRecord(wr *WriteRecord) {
	common.SH_Assert(txn.state == ACTIVE, "write into a finished transaction")
	txn.write_set = append(txn.write_set, wr)
	txn.undo.Push(wr)
}

// OnCommit registers a hook run after the transaction is durable. Hooks
// run in registration order.
func (txn *Transaction) OnCommit(fn func()) {
	txn.on_commit = append(txn.on_commit, fn)
}

// OnRollback registers a hook run when the changes made so far are
// undone. It runs right after the changes made later are undone.
func (txn *Transaction) OnRollback(fn func()) {
	common.SH_Assert(txn.state == ACTIVE, "hook on a finished transaction")
	txn.undo.Push(fn)
}

func (txn *Transaction) Attachment(key string) interface{} {
	return txn.attachments[key]
}

func (txn *Transaction) Attach(key string, v interface{}) {
	txn.attachments[key] = v
}

func (txn *Transaction) Detach(key string) {
	delete(txn.attachments, key)
}

func (txn *Transaction) Savepoint() Savepoint {
	return Savepoint{
		writes:   len(txn.write_set),
		undo:     txn.undo.Len(),
		onCommit: len(txn.on_commit),
	}
}

// RollbackToSavepoint undoes the changes and hooks registered after sp.
// It gives statement-level atomicity inside a multi-statement transaction.
func (txn *Transaction) RollbackToSavepoint(sp Savepoint) {
	for txn.undo.Len() > sp.undo {
		switch item := txn.undo.Pop().(type) {
		case *WriteRecord:
			item.table.undo(item)
		case func():
			item()
		}
	}
	txn.write_set = txn.write_set[:sp.writes]
	txn.on_commit = txn.on_commit[:sp.onCommit]
}

func (txn *Transaction) rollbackAll() {
	txn.RollbackToSavepoint(Savepoint{})
	txn.state = ABORTED
}

func (txn *Transaction) commitAll() {
	txn.state = COMMITTED
	hooks := txn.on_commit
	txn.on_commit = nil
	txn.undo = stack.New()
	for _, fn := range hooks {
		fn()
	}
}
