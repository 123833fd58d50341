package samehada

import (
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/session"
	"github.com/ryogrid/SamehadaDict/storage/access"
)

// box runs fn as one statement of s.
func (sdb *SamehadaDB) box(s *session.Session, fn func(txn *access.Transaction) error) error {
	defer sdb.lock()()
	txn, finish := sdb.stmtTxn(s)
	return fail(s, finish(fn(txn)))
}

// SchemaVersion is the number of committed catalog changes so far.
func (sdb *SamehadaDB) SchemaVersion() uint32 {
	defer sdb.lock()()
	return sdb.catalog_.Cache().Version()
}

// SpaceByName resolves a space as s sees it, own uncommitted DDL
// included.
func (sdb *SamehadaDB) SpaceByName(s *session.Session, name string) *schema.Space {
	defer sdb.lock()()
	return sdb.catalog_.SpaceByName(sessionTxn(s), name)
}

// FindID returns the id stored under name in index iid of a system
// space, or common.BoxIDNil when the name is absent.
func (sdb *SamehadaDB) FindID(spaceID uint32, iid uint32, name string) (uint32, error) {
	defer sdb.lock()()
	return sdb.catalog_.FindID(spaceID, iid, name)
}

func (sdb *SamehadaDB) FindName(objType string, id uint32) (string, error) {
	defer sdb.lock()()
	return sdb.catalog_.FindName(objType, id)
}

func (sdb *SamehadaDB) FindGrants(objType string, id uint32) (bool, error) {
	defer sdb.lock()()
	return sdb.catalog_.FindGrants(objType, id)
}

// CreateConstraint adds cdef to the space, or to its field fieldName
// when that is not empty.
func (sdb *SamehadaDB) CreateConstraint(s *session.Session, spaceID uint32, fieldName string, cdef *schema.ConstraintDef) error {
	return sdb.box(s, func(txn *access.Transaction) error {
		return sdb.catalog_.CreateConstraint(txn, s.UID(), spaceID, fieldName, cdef)
	})
}

func (sdb *SamehadaDB) DropConstraint(s *session.Session, spaceID uint32, kind schema.ConstraintType, name string) error {
	return sdb.box(s, func(txn *access.Transaction) error {
		return sdb.catalog_.DropConstraint(txn, s.UID(), spaceID, kind, name)
	})
}

func (sdb *SamehadaDB) CreateUser(s *session.Session, name string, isRole bool) (uint32, error) {
	var id uint32
	err := sdb.box(s, func(txn *access.Transaction) error {
		var err error
		id, err = sdb.catalog_.CreateUser(txn, s.UID(), name, isRole)
		return err
	})
	return id, err
}

func (sdb *SamehadaDB) Grant(s *session.Session, grantee uint32, obj schema.PrivObject, priv schema.Priv) error {
	return sdb.box(s, func(txn *access.Transaction) error {
		return sdb.catalog_.Grant(txn, s.UID(), grantee, obj, priv)
	})
}

func (sdb *SamehadaDB) Revoke(s *session.Session, grantee uint32, obj schema.PrivObject, priv schema.Priv) error {
	return sdb.box(s, func(txn *access.Transaction) error {
		return sdb.catalog_.Revoke(txn, s.UID(), grantee, obj, priv)
	})
}

func (sdb *SamehadaDB) CreateFunction(s *session.Session, f *schema.Func) (uint32, error) {
	var id uint32
	err := sdb.box(s, func(txn *access.Transaction) error {
		var err error
		id, err = sdb.catalog_.CreateFunction(txn, s.UID(), f)
		return err
	})
	return id, err
}
