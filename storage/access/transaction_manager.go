package access

import (
	"github.com/ryogrid/SamehadaDict/common"
)

// LogRecord is the durable form of one WriteRecord.
type LogRecord struct {
	SpaceID uint32
	Op      WType
	Tuple   []byte
}

// LogWriter persists the changes of a committing transaction.
type LogWriter interface {
	AppendTxn(txn_id TxnID, records []LogRecord) error
}

/**
 * TransactionManager hands out transaction ids and drives commit and
 * abort. It is used under the engine latch only.
 */
type TransactionManager struct {
	next_txn_id TxnID
	log_writer  LogWriter
}

func NewTransactionManager(log_writer LogWriter) *TransactionManager {
	return &TransactionManager{0, log_writer}
}

func (transaction_manager *TransactionManager) Begin() *Transaction {
	transaction_manager.next_txn_id++
	return NewTransaction(transaction_manager.next_txn_id)
}

// Commit writes the changes to the log and then runs the commit hooks.
// A log failure rolls the transaction back.
func (transaction_manager *TransactionManager) Commit(txn *Transaction) error {
	common.SH_Assert(txn.IsActive(), "commit of a finished transaction")
	if !txn.is_recovery && transaction_manager.log_writer != nil && len(txn.write_set) > 0 {
		records := make([]LogRecord, 0, len(txn.write_set))
		for _, wr := range txn.write_set {
			if wr.table.blackhole {
				continue
			}
			rec := LogRecord{SpaceID: wr.table.id, Op: wr.wtype}
			if wr.newTuple != nil {
				rec.Tuple = wr.newTuple.Data()
			} else {
				rec.Tuple = wr.oldTuple.Data()
			}
			records = append(records, rec)
		}
		if err := transaction_manager.log_writer.AppendTxn(txn.txn_id, records); err != nil {
			common.ShPrintf(common.ERROR, "wal write of txn %d failed: %v", txn.txn_id, err)
			txn.rollbackAll()
			return common.NewClientError(common.ER_WAL_IO, err.Error())
		}
	}
	txn.commitAll()
	return nil
}

func (transaction_manager *TransactionManager) Abort(txn *Transaction) {
	if !txn.IsActive() {
		return
	}
	txn.rollbackAll()
}
