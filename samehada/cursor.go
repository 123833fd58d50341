package samehada

import (
	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/execution/prepared"
	"github.com/ryogrid/SamehadaDict/session"
	"github.com/ryogrid/SamehadaDict/stmtcache"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

var errCursorClosed = errors.New("cursor closed before the end of the result")

/**
 * Cursor steps a statement one row per call. Each Next takes the engine
 * latch once, so other sessions run between two rows. The statement is
 * started when the cursor is opened and stays busy until it is closed.
 */
type Cursor struct {
	sdb    *SamehadaDB
	s      *session.Session
	stmt   *prepared.Statement
	env    *prepared.Env
	finish func(error) error
	closed bool
}

// OpenCursor compiles sql for this cursor only.
func (sdb *SamehadaDB) OpenCursor(s *session.Session, sql string, binds []types.Value) (*Cursor, error) {
	defer sdb.lock()()
	stmt, err := prepared.Compile(sdb.catalog_, sessionTxn(s), sql)
	if err == nil {
		err = stmt.Bind(binds)
	}
	if err != nil {
		return nil, fail(s, err)
	}
	return sdb.openCursor(s, stmt)
}

// OpenPreparedCursor opens a cursor over the statement s prepared under
// id, with the same staleness and busy handling as ExecutePrepared.
func (sdb *SamehadaDB) OpenPreparedCursor(s *session.Session, id stmtcache.StmtID, binds []types.Value) (*Cursor, error) {
	defer sdb.lock()()
	stmt, err := sdb.statementFor(s, id)
	if err != nil {
		return nil, fail(s, err)
	}
	stmt.Unbind()
	stmt.ClearAutoIncrementIDs()
	if err := stmt.Bind(binds); err != nil {
		return nil, fail(s, err)
	}
	return sdb.openCursor(s, stmt)
}

func (sdb *SamehadaDB) openCursor(s *session.Session, stmt *prepared.Statement) (*Cursor, error) {
	if stmt.Type().IsTxnControl() {
		return nil, fail(s, common.NewClientError(common.ER_SQL_EXECUTE, "a cursor can't run "+stmt.Type().String()))
	}
	txn, finish := sdb.stmtTxn(s)
	c := &Cursor{
		sdb:    sdb,
		s:      s,
		stmt:   stmt,
		env:    &prepared.Env{Catalog: sdb.catalog_, Txn: txn, UID: s.UID()},
		finish: finish,
	}
	// started here so a shared statement is busy before the first yield
	if err := stmt.Start(c.env); err != nil {
		c.closed = true
		finish(err)
		return nil, fail(s, err)
	}
	return c, nil
}

func (c *Cursor) Columns() []plans.Column { return c.stmt.Columns() }

// end resets the statement and commits or rolls back the work of the
// cursor depending on err.
func (c *Cursor) end(err error) error {
	c.closed = true
	c.stmt.Reset()
	return c.finish(err)
}

// Next returns the next row, or done once the result is exhausted. The
// cursor is closed after done or an error.
func (c *Cursor) Next() (*tuple.Tuple, bool, error) {
	defer c.sdb.lock()()
	if c.closed {
		return nil, true, nil
	}
	t, done, err := c.stmt.Step(c.env)
	if err != nil {
		c.end(err)
		return nil, true, fail(c.s, err)
	}
	if done {
		if err := c.end(nil); err != nil {
			return nil, true, fail(c.s, err)
		}
		return nil, true, nil
	}
	return t, false, nil
}

// Close abandons the rest of the result. Changes made through an
// unfinished cursor are rolled back.
func (c *Cursor) Close() {
	defer c.sdb.lock()()
	if !c.closed {
		c.end(errCursorClosed)
	}
}
