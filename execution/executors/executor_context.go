package executors

import (
	"github.com/ryogrid/SamehadaDict/catalog"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/types"
)

/**
 * ExecutorContext stores all the context necessary to run an executor:
 * the transaction, the user the statement runs as, the bound parameters
 * and the counters DML reports back.
 */
type ExecutorContext struct {
	catalog    *catalog.Catalog
	txn        *access.Transaction
	uid        uint32
	params     []types.Value
	rowCount   uint64
	autoIncIDs []int64
}

func NewExecutorContext(c *catalog.Catalog, txn *access.Transaction, uid uint32, params []types.Value) *ExecutorContext {
	return &ExecutorContext{catalog: c, txn: txn, uid: uid, params: params}
}

func (e *ExecutorContext) GetCatalog() *catalog.Catalog { return e.catalog }

func (e *ExecutorContext) GetTransaction() *access.Transaction { return e.txn }

func (e *ExecutorContext) GetUID() uint32 { return e.uid }

func (e *ExecutorContext) GetParams() []types.Value { return e.params }

// GetRowCount is the number of rows changed by DML.
func (e *ExecutorContext) GetRowCount() uint64 { return e.rowCount }

// GetAutoIncrementIDs lists the values sequences generated, in order.
func (e *ExecutorContext) GetAutoIncrementIDs() []int64 { return e.autoIncIDs }

func (e *ExecutorContext) addRow() { e.rowCount++ }

func (e *ExecutorContext) addAutoIncrementID(id int64) {
	e.autoIncIDs = append(e.autoIncIDs, id)
}
