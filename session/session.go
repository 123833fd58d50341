package session

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/stmtcache"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"golang.org/x/exp/slices"
)

// Diag is the diagnostic area of a session: the last error a call of
// the session failed with.
type Diag struct {
	err error
}

func (d *Diag) Set(err error) { d.err = err }

func (d *Diag) Clear() { d.err = nil }

func (d *Diag) Last() error { return d.err }

// Code is the error code of the last error, ER_UNKNOWN when there is none
// or it carries no code.
func (d *Diag) Code() common.ErrorCode {
	if d.err == nil {
		return common.ER_UNKNOWN
	}
	return common.GetErrorCode(d.err)
}

/**
 * Session is one client connection. It owns the set of prepared
 * statement ids the client may execute and deallocate, the explicit
 * transaction opened by BEGIN and its diagnostic area.
 */
type Session struct {
	id   uuid.UUID
	user *schema.User
	// statements prepared by this session and not yet deallocated
	stmts mapset.Set[stmtcache.StmtID]
	txn   *access.Transaction
	diag  Diag
}

func NewSession(user *schema.User) *Session {
	return &Session{
		id:    uuid.New(),
		user:  user,
		stmts: mapset.NewThreadUnsafeSet[stmtcache.StmtID](),
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) User() *schema.User { return s.user }

func (s *Session) UID() uint32 { return s.user.ID }

func (s *Session) Diag() *Diag { return &s.diag }

// Check reports whether the session prepared id.
func (s *Session) Check(id stmtcache.StmtID) bool {
	return s.stmts.Contains(id)
}

// Add registers id and reports whether it was new to the session.
func (s *Session) Add(id stmtcache.StmtID) bool {
	return s.stmts.Add(id)
}

// Remove unregisters id. It fails when the session never prepared it,
// whether or not another session still holds the statement.
func (s *Session) Remove(id stmtcache.StmtID) error {
	if !s.stmts.Contains(id) {
		return common.NewClientError(common.ER_WRONG_QUERY_ID, uint32(id))
	}
	s.stmts.Remove(id)
	return nil
}

// StmtIDs lists the registered ids in ascending order.
func (s *Session) StmtIDs() []stmtcache.StmtID {
	ids := s.stmts.ToSlice()
	slices.Sort(ids)
	return ids
}

func (s *Session) Txn() *access.Transaction { return s.txn }

// InTxn reports whether BEGIN opened a transaction that is still active.
func (s *Session) InTxn() bool { return s.txn != nil && s.txn.IsActive() }

func (s *Session) SetTxn(txn *access.Transaction) { s.txn = txn }

/**
 * Close releases every statement the session holds in cache and rolls
 * back its open transaction. The session must not be used afterwards.
 */
func (s *Session) Close(cache *stmtcache.StmtCache, txnMgr *access.TransactionManager) {
	for _, id := range s.StmtIDs() {
		if err := cache.Unref(id); err != nil {
			common.ShPrintf(common.WARN, "session %s: releasing statement %d: %v", s.id, id, err)
		}
	}
	s.stmts.Clear()
	if s.InTxn() {
		txnMgr.Abort(s.txn)
	}
	s.txn = nil
}
