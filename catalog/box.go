package catalog

import (
	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/storage/index"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/vmihailenco/msgpack/v5"
)

/*
 * Box-level helpers. They write catalog rows and let the triggers do the
 * work; every helper runs in the transaction of the caller, which owns
 * the statement savepoint and rolls it back on error.
 */

func uintKey(ids ...uint32) index.Key {
	key := make(index.Key, len(ids))
	for i, id := range ids {
		key[i] = types.NewUnsigned(uint64(id))
	}
	return key
}

func (c *Catalog) systemTable(id uint32) *access.Table {
	sp := c.cache.SpaceByID(id)
	common.SH_Assert(sp != nil, "system space is missing")
	return sp.Table
}

// nextID returns one more than the largest id stored in the first field
// of a system space, and at least min.
func (c *Catalog) nextID(spaceID uint32, min uint32) (uint32, error) {
	rows := c.systemTable(spaceID).Snapshot()
	next := min
	for _, row := range rows {
		id, err := getUint32(row, 0)
		if err != nil {
			return 0, err
		}
		if id >= next {
			next = id + 1
		}
	}
	return next, nil
}

// allocSpaceID takes the next id after _schema.max_id and stores it back.
func (c *Catalog) allocSpaceID(txn *access.Transaction) (uint32, error) {
	table := c.systemTable(schema.SchemaID)
	row, err := table.Get(0, index.Key{types.NewString("max_id")})
	if err != nil {
		return 0, err
	}
	maxID := uint32(common.BoxSystemIDMax)
	if row != nil {
		if maxID, err = getUint32(row, 1); err != nil {
			return 0, badRow("_schema", err)
		}
	}
	id := maxID + 1
	for c.SpaceByID(txn, id) != nil {
		id++
	}
	if id == common.BoxIDNil {
		return 0, common.NewClientError(common.ER_ILLEGAL_PARAMS, "space id limit is reached")
	}
	t, err := makeRow("max_id", id)
	if err != nil {
		return 0, err
	}
	if _, err := table.Replace(txn, t, access.DUP_REPLACE_OR_INSERT); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Catalog) spaceOrError(txn *access.Transaction, id uint32) (*schema.Space, error) {
	sp := c.SpaceByID(txn, id)
	if sp == nil {
		return nil, common.NewClientError(common.ER_NO_SUCH_SPACE, id)
	}
	return sp, nil
}

// checkSpaceDDL allows the owner of a space and users holding need on it.
func (c *Catalog) checkSpaceDDL(uid uint32, sp *schema.Space, need schema.Priv) error {
	if sp.Def.UID == uid {
		return nil
	}
	return c.checkAccess(uid, schema.ObjectSpace, sp.ID(), sp.Name(), need)
}

// CreateSpace stores a new space definition owned by uid. A zero def.ID
// takes the next free id. The id of the space is returned.
func (c *Catalog) CreateSpace(txn *access.Transaction, uid uint32, def *schema.SpaceDef) (uint32, error) {
	if err := c.checkAccess(uid, schema.ObjectSpace, 0, def.Name, schema.PRIV_C); err != nil {
		return 0, err
	}
	if c.SpaceByName(txn, def.Name) != nil {
		return 0, common.NewClientError(common.ER_SPACE_EXISTS, def.Name)
	}
	if def.ID == 0 {
		id, err := c.allocSpaceID(txn)
		if err != nil {
			return 0, err
		}
		def.ID = id
	}
	def.UID = uid
	if def.Engine == "" {
		def.Engine = schema.EngineMemtx
	}
	t, err := SpaceDefToTuple(def)
	if err != nil {
		return 0, err
	}
	if err := c.insertRow(txn, schema.SpaceID, t); err != nil {
		return 0, err
	}
	return def.ID, nil
}

// CreateIndex stores an index definition. BoxIDNil as def.IID picks the
// next free index id.
func (c *Catalog) CreateIndex(txn *access.Transaction, uid uint32, def *schema.IndexDef) (uint32, error) {
	sp, err := c.spaceOrError(txn, def.SpaceID)
	if err != nil {
		return 0, err
	}
	if err := c.checkSpaceDDL(uid, sp, schema.PRIV_A); err != nil {
		return 0, err
	}
	if def.IID == common.BoxIDNil {
		def.IID = 0
		for _, idx := range sp.Indexes {
			if idx.IID >= def.IID {
				def.IID = idx.IID + 1
			}
		}
	}
	if def.Type == "" {
		def.Type = schema.IndexTypeTree
	}
	t, err := IndexDefToTuple(def)
	if err != nil {
		return 0, err
	}
	if err := c.insertRow(txn, schema.IndexID, t); err != nil {
		return 0, err
	}
	return def.IID, nil
}

func (c *Catalog) DropIndex(txn *access.Transaction, uid uint32, spaceID uint32, iid uint32) error {
	sp, err := c.spaceOrError(txn, spaceID)
	if err != nil {
		return err
	}
	if err := c.checkSpaceDDL(uid, sp, schema.PRIV_A); err != nil {
		return err
	}
	idx := sp.Index(iid)
	if idx == nil {
		return common.NewClientError(common.ER_NO_SUCH_INDEX, iid, sp.Name())
	}
	_, err = c.systemTable(schema.IndexID).Delete(txn, uintKey(spaceID, iid))
	return err
}

/**
 * DropSpace removes a space together with everything hanging off it: the
 * sequence binding (and the sequence itself when it was generated for
 * the space), the grants on it, its indexes from the last one to the
 * primary, its _truncate row, the space row and the check functions made
 * for its constraints.
 */
func (c *Catalog) DropSpace(txn *access.Transaction, uid uint32, spaceID uint32) error {
	sp, err := c.spaceOrError(txn, spaceID)
	if err != nil {
		return err
	}
	if err := c.checkSpaceDDL(uid, sp, schema.PRIV_D); err != nil {
		return err
	}
	for _, other := range c.visibleSpaces(txn) {
		if other.ID() == spaceID {
			continue
		}
		for _, fk := range other.ForeignKeys {
			if fk.Def.SpaceID == spaceID {
				return common.NewClientError(common.ER_DROP_SPACE, sp.Name(),
					"foreign key '"+fk.Name+"' of space '"+other.Name()+"' references it")
			}
		}
	}
	if sp.HasSequence {
		seqID, generated := sp.SequenceID, sp.SequenceIsGenerated
		if err := c.DetachSequence(txn, spaceID); err != nil {
			return err
		}
		if generated {
			if err := c.dropSequence(txn, seqID); err != nil {
				return err
			}
		}
	}
	if err := c.RevokeAll(txn, schema.ObjectSpace, spaceID); err != nil {
		return err
	}
	for i := len(sp.Indexes) - 1; i >= 0; i-- {
		if _, err := c.systemTable(schema.IndexID).Delete(txn, uintKey(spaceID, sp.Indexes[i].IID)); err != nil {
			return err
		}
	}
	if _, err := c.systemTable(schema.TruncateID).Delete(txn, uintKey(spaceID)); err != nil {
		return err
	}
	if _, err := c.systemTable(schema.SpaceID).Delete(txn, uintKey(spaceID)); err != nil {
		return err
	}
	for _, ck := range sp.Checks {
		f := c.funcByID(txn, ck.FuncID)
		if f != nil && f.Name == CheckFuncName(sp.Name(), ck.Name) {
			if err := c.dropFunction(txn, f.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckFuncName names the function holding the expression of a SQL
// CHECK constraint.
func CheckFuncName(spaceName string, constraintName string) string {
	return "check_" + spaceName + "_" + constraintName
}

// TruncateSpace bumps the _truncate counter of the space, which empties
// it.
func (c *Catalog) TruncateSpace(txn *access.Transaction, uid uint32, spaceID uint32) error {
	sp, err := c.spaceOrError(txn, spaceID)
	if err != nil {
		return err
	}
	if err := c.checkSpaceDDL(uid, sp, schema.PRIV_W); err != nil {
		return err
	}
	table := c.systemTable(schema.TruncateID)
	row, err := table.Get(0, uintKey(spaceID))
	if err != nil {
		return err
	}
	count := uint32(0)
	if row != nil {
		if count, err = getUint32(row, 1); err != nil {
			return badRow("_truncate", err)
		}
	}
	t, err := makeRow(spaceID, count+1)
	if err != nil {
		return err
	}
	_, err = table.Replace(txn, t, access.DUP_REPLACE_OR_INSERT)
	return err
}

// RenameSpace rewrites the name field of the _space row only.
func (c *Catalog) RenameSpace(txn *access.Transaction, uid uint32, spaceID uint32, name string) error {
	sp, err := c.spaceOrError(txn, spaceID)
	if err != nil {
		return err
	}
	if err := c.checkSpaceDDL(uid, sp, schema.PRIV_A); err != nil {
		return err
	}
	fields, err := c.spaceRowFields(sp)
	if err != nil {
		return err
	}
	raw, err := marshalCompact(name)
	if err != nil {
		return err
	}
	fields[schema.SpaceFieldName] = raw
	return c.replaceSpaceRow(txn, fields)
}

// AddField appends a field to the format of a space.
func (c *Catalog) AddField(txn *access.Transaction, uid uint32, spaceID uint32, f *schema.FieldDef) error {
	sp, err := c.spaceOrError(txn, spaceID)
	if err != nil {
		return err
	}
	if err := c.checkSpaceDDL(uid, sp, schema.PRIV_A); err != nil {
		return err
	}
	if _, ok := sp.Def.FieldByName(f.Name); ok {
		return common.NewClientError(common.ER_ILLEGAL_PARAMS, "space field '"+f.Name+"' is duplicate")
	}
	fields, err := c.spaceRowFields(sp)
	if err != nil {
		return err
	}
	entries, err := splitArray(fields[schema.SpaceFieldFormat])
	if err != nil {
		return badRow("_space", err)
	}
	raw, err := encodeFieldDef(f)
	if err != nil {
		return err
	}
	fields[schema.SpaceFieldFormat] = joinArray(append(entries, raw))
	return c.replaceSpaceRow(txn, fields)
}

// CreateSequence stores a sequence definition and returns its id.
func (c *Catalog) CreateSequence(txn *access.Transaction, uid uint32, def *schema.SequenceDef) (uint32, error) {
	if err := c.checkAccess(uid, schema.ObjectSequence, 0, def.Name, schema.PRIV_C); err != nil {
		return 0, err
	}
	id, err := c.nextID(schema.SequenceID, 1)
	if err != nil {
		return 0, err
	}
	def.ID = id
	def.UID = uid
	t, err := SequenceDefToTuple(def)
	if err != nil {
		return 0, err
	}
	if err := c.insertRow(txn, schema.SequenceID, t); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Catalog) DropSequence(txn *access.Transaction, uid uint32, id uint32) error {
	seq := c.sequenceByID(txn, id)
	if seq == nil {
		return common.NewClientError(common.ER_NO_SUCH_SEQUENCE, id)
	}
	if seq.Def.UID != uid {
		if err := c.checkAccess(uid, schema.ObjectSequence, id, seq.Def.Name, schema.PRIV_D); err != nil {
			return err
		}
	}
	return c.dropSequence(txn, id)
}

func (c *Catalog) dropSequence(txn *access.Transaction, id uint32) error {
	if err := c.RevokeAll(txn, schema.ObjectSequence, id); err != nil {
		return err
	}
	if _, err := c.systemTable(schema.SequenceDataID).Delete(txn, uintKey(id)); err != nil {
		return err
	}
	_, err := c.systemTable(schema.SequenceID).Delete(txn, uintKey(id))
	return err
}

// AttachSequence makes seqID generate the values of field fieldno of a
// space. isGenerated marks a sequence created for the space only.
func (c *Catalog) AttachSequence(txn *access.Transaction, spaceID uint32, seqID uint32, fieldno uint32, isGenerated bool) error {
	t, err := makeRow(spaceID, seqID, isGenerated, fieldno)
	if err != nil {
		return err
	}
	return c.insertRow(txn, schema.SpaceSequenceID, t)
}

func (c *Catalog) DetachSequence(txn *access.Transaction, spaceID uint32) error {
	_, err := c.systemTable(schema.SpaceSequenceID).Delete(txn, uintKey(spaceID))
	return err
}

// SequenceNext advances a sequence and persists the new value.
func (c *Catalog) SequenceNext(txn *access.Transaction, id uint32) (int64, error) {
	seq := c.sequenceByID(txn, id)
	if seq == nil {
		return 0, common.NewClientError(common.ER_NO_SUCH_SEQUENCE, id)
	}
	value, err := seq.Peek()
	if err != nil {
		return 0, err
	}
	return value, c.SequenceSet(txn, id, value)
}

func (c *Catalog) SequenceSet(txn *access.Transaction, id uint32, value int64) error {
	t, err := makeRow(id, value)
	if err != nil {
		return err
	}
	_, err = c.systemTable(schema.SequenceDataID).Replace(txn, t, access.DUP_REPLACE_OR_INSERT)
	return err
}

// SequenceUpdate moves a sequence past an explicitly inserted value.
func (c *Catalog) SequenceUpdate(txn *access.Transaction, id uint32, value int64) error {
	seq := c.sequenceByID(txn, id)
	if seq == nil {
		return common.NewClientError(common.ER_NO_SUCH_SEQUENCE, id)
	}
	if !seq.Follows(value) {
		return nil
	}
	return c.SequenceSet(txn, id, value)
}

// CreateUser adds a user or a role owned by uid and returns its id.
func (c *Catalog) CreateUser(txn *access.Transaction, uid uint32, name string, isRole bool) (uint32, error) {
	objType := schema.ObjectUser
	userType := schema.UserTypeUser
	if isRole {
		objType = schema.ObjectRole
		userType = schema.UserTypeRole
	}
	if err := c.checkAccess(uid, objType, 0, name, schema.PRIV_C); err != nil {
		return 0, err
	}
	if c.userByName(txn, name) != nil {
		return 0, common.NewClientError(common.ER_USER_EXISTS, name)
	}
	id, err := c.nextID(schema.UserID, common.SuperID+1)
	if err != nil {
		return 0, err
	}
	t, err := UserToTuple(schema.NewUser(id, uid, name, userType))
	if err != nil {
		return 0, err
	}
	if err := c.insertRow(txn, schema.UserID, t); err != nil {
		return 0, err
	}
	return id, nil
}

// DropUser revokes everything granted to the user, then removes it.
func (c *Catalog) DropUser(txn *access.Transaction, uid uint32, id uint32) error {
	u := c.userByID(txn, id)
	if u == nil {
		return common.NewClientError(common.ER_NO_SUCH_USER, id)
	}
	objType := schema.ObjectUser
	if u.IsRole() {
		objType = schema.ObjectRole
		if err := c.RevokeAll(txn, schema.ObjectRole, id); err != nil {
			return err
		}
	}
	if u.Owner != uid {
		if err := c.checkAccess(uid, objType, id, u.Name, schema.PRIV_D); err != nil {
			return err
		}
	}
	privs := c.systemTable(schema.PrivID)
	rows, err := privs.Select(0, index.ITER_EQ, uintKey(id))
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := c.deletePrivRow(txn, row); err != nil {
			return err
		}
	}
	_, err = c.systemTable(schema.UserID).Delete(txn, uintKey(id))
	return err
}

func privKey(grantee uint32, obj schema.PrivObject) index.Key {
	return index.Key{types.NewUnsigned(uint64(grantee)), types.NewString(obj.Type), types.NewUnsigned(uint64(obj.ID))}
}

func (c *Catalog) deletePrivRow(txn *access.Transaction, row *tuple.Tuple) error {
	p, err := PrivFromTuple(row)
	if err != nil {
		return err
	}
	_, err = c.systemTable(schema.PrivID).Delete(txn, privKey(p.Grantee, p.Object))
	return err
}

// Grant adds access to the privileges grantee holds on obj.
func (c *Catalog) Grant(txn *access.Transaction, grantor uint32, grantee uint32, obj schema.PrivObject, priv schema.Priv) error {
	if err := c.checkGrantor(grantor, obj); err != nil {
		return err
	}
	privs := c.systemTable(schema.PrivID)
	row, err := privs.Get(0, privKey(grantee, obj))
	if err != nil {
		return err
	}
	if row != nil {
		cur, err := PrivFromTuple(row)
		if err != nil {
			return err
		}
		priv |= cur.Access
	}
	t, err := PrivToTuple(&PrivRow{Grantor: grantor, Grantee: grantee, Object: obj, Access: priv})
	if err != nil {
		return err
	}
	_, err = privs.Replace(txn, t, access.DUP_REPLACE_OR_INSERT)
	return err
}

// Revoke removes access from the privileges of grantee on obj. The row
// goes away when nothing is left.
func (c *Catalog) Revoke(txn *access.Transaction, grantor uint32, grantee uint32, obj schema.PrivObject, priv schema.Priv) error {
	if err := c.checkGrantor(grantor, obj); err != nil {
		return err
	}
	privs := c.systemTable(schema.PrivID)
	row, err := privs.Get(0, privKey(grantee, obj))
	if err != nil {
		return err
	}
	if row == nil {
		name := "?"
		if u := c.userByID(txn, grantee); u != nil {
			name = u.Name
		}
		return common.NewClientError(common.ER_ILLEGAL_PARAMS, "user '"+name+"' does not have the privilege")
	}
	cur, err := PrivFromTuple(row)
	if err != nil {
		return err
	}
	left := cur.Access &^ priv
	if left == 0 {
		_, err = privs.Delete(txn, privKey(grantee, obj))
		return err
	}
	t, err := PrivToTuple(&PrivRow{Grantor: cur.Grantor, Grantee: grantee, Object: obj, Access: left})
	if err != nil {
		return err
	}
	_, err = privs.Replace(txn, t, access.DUP_REPLACE)
	return err
}

// checkGrantor lets admins grant anything and owners grant on their
// own objects.
func (c *Catalog) checkGrantor(grantor uint32, obj schema.PrivObject) error {
	if grantor == common.AdminID {
		return nil
	}
	owner := common.BoxIDNil
	switch obj.Type {
	case schema.ObjectSpace:
		if sp := c.cache.SpaceByID(obj.ID); sp != nil {
			owner = sp.Def.UID
		}
	case schema.ObjectSequence:
		if seq := c.cache.SequenceByID(obj.ID); seq != nil {
			owner = seq.Def.UID
		}
	case schema.ObjectFunction:
		if f := c.cache.FuncByID(obj.ID); f != nil {
			owner = f.Owner
		}
	case schema.ObjectRole, schema.ObjectUser:
		if u := c.cache.UserByID(obj.ID); u != nil {
			owner = u.Owner
		}
	}
	if owner == grantor {
		return nil
	}
	name, _ := c.FindName(obj.Type, obj.ID)
	return c.checkAccess(grantor, obj.Type, obj.ID, name, schema.PRIV_ALL)
}

// RevokeAll deletes every grant on an object.
func (c *Catalog) RevokeAll(txn *access.Transaction, objType string, id uint32) error {
	privs := c.systemTable(schema.PrivID)
	if privs.Index(2) == nil {
		return nil
	}
	rows, err := privs.Select(2, index.ITER_EQ, index.Key{types.NewString(objType), types.NewUnsigned(uint64(id))})
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := c.deletePrivRow(txn, row); err != nil {
			return err
		}
	}
	return nil
}

// CreateFunction stores a function owned by uid and returns its id.
func (c *Catalog) CreateFunction(txn *access.Transaction, uid uint32, f *schema.Func) (uint32, error) {
	if err := c.checkAccess(uid, schema.ObjectFunction, 0, f.Name, schema.PRIV_C); err != nil {
		return 0, err
	}
	if c.funcByName(txn, f.Name) != nil {
		return 0, common.NewClientError(common.ER_FUNCTION_EXISTS, f.Name)
	}
	id, err := c.nextID(schema.FuncID, 1)
	if err != nil {
		return 0, err
	}
	f.ID = id
	f.Owner = uid
	t, err := FuncToTuple(f)
	if err != nil {
		return 0, err
	}
	if err := c.insertRow(txn, schema.FuncID, t); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Catalog) DropFunction(txn *access.Transaction, uid uint32, id uint32) error {
	f := c.funcByID(txn, id)
	if f == nil {
		return common.NewClientError(common.ER_NO_SUCH_FUNCTION, id)
	}
	if f.Owner != uid {
		if err := c.checkAccess(uid, schema.ObjectFunction, id, f.Name, schema.PRIV_D); err != nil {
			return err
		}
	}
	return c.dropFunction(txn, id)
}

func (c *Catalog) dropFunction(txn *access.Transaction, id uint32) error {
	if err := c.RevokeAll(txn, schema.ObjectFunction, id); err != nil {
		return err
	}
	_, err := c.systemTable(schema.FuncID).Delete(txn, uintKey(id))
	return err
}

// FuncByName resolves a function name as txn sees it.
func (c *Catalog) FuncByName(txn *access.Transaction, name string) *schema.Func {
	return c.funcByName(txn, name)
}

// SequenceByID resolves a sequence as txn sees it.
func (c *Catalog) SequenceByID(txn *access.Transaction, id uint32) *schema.Sequence {
	return c.sequenceByID(txn, id)
}

// UserByName resolves a user or role name as txn sees it.
func (c *Catalog) UserByName(txn *access.Transaction, name string) *schema.User {
	return c.userByName(txn, name)
}

// DMLResult describes one row written through the box API.
type DMLResult struct {
	Old *tuple.Tuple
	New *tuple.Tuple
	// set when the sequence of the space generated a value
	AutoIncrement bool
	AutoID        int64
}

/**
 * fillSequence applies the sequence bound to a space: a NULL or missing
 * value in the sequence field is replaced by the next value, an explicit
 * value moves the sequence past it.
 */
func (c *Catalog) fillSequence(txn *access.Transaction, sp *schema.Space, t *tuple.Tuple, res *DMLResult) (*tuple.Tuple, error) {
	fieldno := sp.SequenceFieldNo
	v, err := t.GetValue(fieldno)
	if err != nil {
		return nil, err
	}
	if !v.IsNull() {
		if v.IsInteger() {
			return t, c.SequenceUpdate(txn, sp.SequenceID, v.ToInteger())
		}
		return t, nil
	}
	next, err := c.SequenceNext(txn, sp.SequenceID)
	if err != nil {
		return nil, err
	}
	res.AutoIncrement = true
	res.AutoID = next
	fields := t.RawFields()
	for len(fields) <= int(fieldno) {
		fields = append(fields, msgpack.RawMessage{0xc0})
	}
	raw, err := marshalCompact(next)
	if err != nil {
		return nil, err
	}
	fields[fieldno] = raw
	return tuple.NewTupleFromRaw(fields), nil
}

// Replace writes t into a user space in the given mode after checking
// the write privilege of uid.
func (c *Catalog) Replace(txn *access.Transaction, uid uint32, spaceID uint32, t *tuple.Tuple, mode access.DupReplaceMode) (*DMLResult, error) {
	sp, err := c.spaceOrError(txn, spaceID)
	if err != nil {
		return nil, err
	}
	if err := c.CheckSpaceAccess(uid, sp, schema.PRIV_W); err != nil {
		return nil, err
	}
	res := new(DMLResult)
	if sp.HasSequence && mode != access.DUP_REPLACE {
		if t, err = c.fillSequence(txn, sp, t, res); err != nil {
			return nil, err
		}
	}
	old, err := sp.Table.Replace(txn, t, mode)
	if err != nil {
		return nil, errors.Trace(err)
	}
	res.Old = old
	res.New = t
	return res, nil
}

func (c *Catalog) Delete(txn *access.Transaction, uid uint32, spaceID uint32, key index.Key) (*DMLResult, error) {
	sp, err := c.spaceOrError(txn, spaceID)
	if err != nil {
		return nil, err
	}
	if err := c.CheckSpaceAccess(uid, sp, schema.PRIV_W); err != nil {
		return nil, err
	}
	old, err := sp.Table.Delete(txn, key)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &DMLResult{Old: old}, nil
}

// Select reads an index of a space after checking the read privilege.
func (c *Catalog) Select(txn *access.Transaction, uid uint32, spaceID uint32, iid uint32, it index.IteratorType, key index.Key) ([]*tuple.Tuple, error) {
	sp, err := c.spaceOrError(txn, spaceID)
	if err != nil {
		return nil, err
	}
	if err := c.CheckSpaceAccess(uid, sp, schema.PRIV_R); err != nil {
		return nil, err
	}
	return sp.Table.Select(iid, it, key)
}
