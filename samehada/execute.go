package samehada

import (
	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/execution/prepared"
	"github.com/ryogrid/SamehadaDict/parser"
	"github.com/ryogrid/SamehadaDict/session"
	"github.com/ryogrid/SamehadaDict/stmtcache"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/types"
)

func (sdb *SamehadaDB) lock() func() {
	latch := sdb.shi_.GetLatch()
	latch.Lock()
	return latch.Unlock
}

// fail records err in the diagnostic area of s.
func fail(s *session.Session, err error) error {
	if err != nil {
		s.Diag().Set(err)
	}
	return err
}

func sessionTxn(s *session.Session) *access.Transaction {
	if s.InTxn() {
		return s.Txn()
	}
	return nil
}

/**
 * stmtTxn returns the transaction a statement of s runs in and the
 * function ending the statement with its outcome. Inside BEGIN a failed
 * statement is rolled back to its savepoint and the transaction stays
 * open; otherwise the statement runs in its own transaction which is
 * committed or aborted.
 */
func (sdb *SamehadaDB) stmtTxn(s *session.Session) (*access.Transaction, func(error) error) {
	txnMgr := sdb.catalog_.TxnManager()
	if s.InTxn() {
		txn := s.Txn()
		sp := txn.Savepoint()
		return txn, func(err error) error {
			if err != nil {
				txn.RollbackToSavepoint(sp)
			}
			return err
		}
	}
	txn := txnMgr.Begin()
	return txn, func(err error) error {
		if err != nil {
			txnMgr.Abort(txn)
			return err
		}
		return txnMgr.Commit(txn)
	}
}

// compileShared compiles against the committed schema. Statements that
// go into the statement cache are compiled this way since every session
// may run them.
func (sdb *SamehadaDB) compileShared(sql string) (*prepared.Statement, error) {
	return prepared.Compile(sdb.catalog_, nil, sql)
}

func (sdb *SamehadaDB) txnControl(s *session.Session, kind parser.QueryType) (*Port, error) {
	txnMgr := sdb.catalog_.TxnManager()
	switch kind {
	case parser.BEGIN:
		if s.InTxn() {
			return nil, common.NewClientError(common.ER_ACTIVE_TRANSACTION)
		}
		s.SetTxn(txnMgr.Begin())
	case parser.COMMIT:
		if !s.InTxn() {
			return nil, common.NewClientError(common.ER_NO_TRANSACTION)
		}
		txn := s.Txn()
		s.SetTxn(nil)
		if err := txnMgr.Commit(txn); err != nil {
			return nil, err
		}
	case parser.ROLLBACK:
		if !s.InTxn() {
			return nil, common.NewClientError(common.ER_NO_TRANSACTION)
		}
		txnMgr.Abort(s.Txn())
		s.SetTxn(nil)
	}
	return &Port{Format: DML_EXECUTE}, nil
}

/**
 * produceRows steps stmt to completion. A statement with result columns
 * yields one tuple per step until done; one without must be done after
 * its single step.
 */
func produceRows(stmt *prepared.Statement, env *prepared.Env, port *Port) error {
	if stmt.ColumnCount() == 0 {
		_, done, err := stmt.Step(env)
		if err != nil {
			return err
		}
		common.SH_Assert(bool(done), "statement without result columns produced a row")
		return nil
	}
	for {
		t, done, err := stmt.Step(env)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		port.AddTuple(t)
	}
}

func (sdb *SamehadaDB) execute(s *session.Session, stmt *prepared.Statement) (*Port, error) {
	if stmt.Type().IsTxnControl() {
		return sdb.txnControl(s, stmt.Type())
	}
	txn, finish := sdb.stmtTxn(s)
	port := newExecutePort(stmt.ColumnCount())
	port.Metadata = stmt.Columns()
	env := &prepared.Env{Catalog: sdb.catalog_, Txn: txn, UID: s.UID()}
	if err := finish(produceRows(stmt, env, port)); err != nil {
		return nil, err
	}
	port.Info = SQLInfo{RowCount: stmt.RowCount(), AutoIncrementIDs: stmt.AutoIncrementIDs()}
	return port, nil
}

// Execute compiles sql for this call only, binds binds and runs it. The
// statement sees the uncommitted changes of the session transaction.
func (sdb *SamehadaDB) Execute(s *session.Session, sql string, binds []types.Value) (*Port, error) {
	defer sdb.lock()()
	port, err := sdb.executeOneShot(s, sql, binds)
	return port, fail(s, err)
}

func (sdb *SamehadaDB) executeOneShot(s *session.Session, sql string, binds []types.Value) (*Port, error) {
	stmt, err := prepared.Compile(sdb.catalog_, sessionTxn(s), sql)
	if err != nil {
		return nil, err
	}
	if err := stmt.Bind(binds); err != nil {
		return nil, err
	}
	return sdb.execute(s, stmt)
}

// Prepare compiles sql into the statement cache, or reuses the cached
// form, and registers its id in s.
func (sdb *SamehadaDB) Prepare(s *session.Session, sql string) (*Port, error) {
	defer sdb.lock()()
	port, err := sdb.prepare(s, sql)
	if errors.Cause(err) == stmtcache.ErrIDTaken {
		err = common.NewClientError(common.ER_SQL_PREPARE, err.Error())
	}
	return port, fail(s, err)
}

func (sdb *SamehadaDB) prepare(s *session.Session, sql string) (*Port, error) {
	id, stmt, _, err := sdb.stmt_cache_.Prepare(sql, sdb.catalog_.Cache().Version(), sdb.compileShared)
	if err != nil {
		return nil, err
	}
	if s.Add(id) {
		if err := sdb.stmt_cache_.Ref(id); err != nil {
			s.Remove(id)
			return nil, err
		}
	}
	port := newPreparePort(id, stmt.ColumnCount())
	port.Metadata = stmt.Columns()
	port.BindMetadata = stmt.Params()
	return port, nil
}

/**
 * statementFor returns a form of the statement s prepared under id that
 * matches the current schema and is not being stepped. A stale entry is
 * recompiled in place; when the entry is busy a private copy compiled
 * from the same text is returned instead and the entry is left alone.
 */
func (sdb *SamehadaDB) statementFor(s *session.Session, id stmtcache.StmtID) (*prepared.Statement, error) {
	if !s.Check(id) {
		return nil, common.NewClientError(common.ER_WRONG_QUERY_ID, uint32(id))
	}
	cached := sdb.stmt_cache_.Find(id)
	if cached == nil {
		return nil, common.NewClientError(common.ER_NO_SUCH_STATEMENT, uint32(id))
	}
	_, stmt, isCached, err := sdb.stmt_cache_.Prepare(cached.SQL(), sdb.catalog_.Cache().Version(), sdb.compileShared)
	if err != nil {
		return nil, err
	}
	if isCached && stmt.IsBusy() {
		common.ShPrintf(common.DEBUG_INFO, "statement %d is busy, running a private copy", id)
		return sdb.compileShared(stmt.SQL())
	}
	return stmt, nil
}

// ExecutePrepared runs the statement s prepared under id with binds.
// Values left over from the previous execution are dropped first, and
// the statement is reset afterwards whatever the outcome.
func (sdb *SamehadaDB) ExecutePrepared(s *session.Session, id stmtcache.StmtID, binds []types.Value) (*Port, error) {
	defer sdb.lock()()
	port, err := sdb.executePrepared(s, id, binds)
	return port, fail(s, err)
}

func (sdb *SamehadaDB) executePrepared(s *session.Session, id stmtcache.StmtID, binds []types.Value) (*Port, error) {
	stmt, err := sdb.statementFor(s, id)
	if err != nil {
		return nil, err
	}
	stmt.Unbind()
	stmt.ClearAutoIncrementIDs()
	defer stmt.Reset()
	if err := stmt.Bind(binds); err != nil {
		return nil, err
	}
	return sdb.execute(s, stmt)
}

// PrepareAndExecute prepares sql for s and runs it. A text whose id is
// taken by another statement is run one-shot.
func (sdb *SamehadaDB) PrepareAndExecute(s *session.Session, sql string, binds []types.Value) (*Port, error) {
	defer sdb.lock()()
	prep, err := sdb.prepare(s, sql)
	if errors.Cause(err) == stmtcache.ErrIDTaken {
		port, err := sdb.executeOneShot(s, sql, binds)
		return port, fail(s, err)
	}
	if err != nil {
		return nil, fail(s, err)
	}
	port, err := sdb.executePrepared(s, prep.StmtID, binds)
	if err != nil {
		return nil, fail(s, err)
	}
	port.StmtID = prep.StmtID
	return port, nil
}

// Unprepare drops the claim of s on id. The statement is destroyed when
// no session holds it any more.
func (sdb *SamehadaDB) Unprepare(s *session.Session, id stmtcache.StmtID) error {
	defer sdb.lock()()
	if err := s.Remove(id); err != nil {
		return fail(s, err)
	}
	return fail(s, sdb.stmt_cache_.Unref(id))
}
