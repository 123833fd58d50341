package catalog

import (
	"fmt"

	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/storage/index"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/vmihailenco/msgpack/v5"
)

func foreignFields(fk *schema.ForeignKey) []uint32 {
	links := fk.Links()
	ret := make([]uint32, len(links))
	for i, l := range links {
		ret[i] = l.Foreign
	}
	return ret
}

// coversExactly reports whether the parts of idx are the fields set in
// any order.
func coversExactly(idx *schema.IndexDef, fields []uint32) bool {
	if len(idx.Parts) != len(fields) {
		return false
	}
	for _, p := range idx.Parts {
		found := false
		for _, f := range fields {
			if f == p.FieldNo {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// findUniqueIndex returns a unique index of sp made of exactly fields,
// skipping the index with id skip.
func findUniqueIndex(sp *schema.Space, fields []uint32, skip uint32) *schema.IndexDef {
	for _, idx := range sp.Indexes {
		if idx.IID != skip && idx.Unique && coversExactly(idx, fields) {
			return idx
		}
	}
	return nil
}

/**
 * resolveConstraints turns the constraint definitions of sp.Def into
 * runnable checks and foreign keys. Check predicates of old are reused
 * when the constraint did not change.
 */
func (c *Catalog) resolveConstraints(txn *access.Transaction, sp *schema.Space, old *schema.Space) error {
	sp.Checks = nil
	sp.ForeignKeys = nil
	names := make(map[string]bool)
	var err error
	sp.Def.AllConstraints(func(fieldno int, cdef *schema.ConstraintDef) {
		if err != nil {
			return
		}
		if names[cdef.Name] {
			err = common.NewClientError(common.ER_CONSTRAINT_EXISTS, cdef.Name, sp.Name())
			return
		}
		names[cdef.Name] = true
		switch cdef.Type {
		case schema.CONSTR_FUNC:
			var ck *schema.CheckConstraint
			ck, err = c.resolveCheck(txn, sp, old, fieldno, cdef)
			if err == nil {
				sp.Checks = append(sp.Checks, ck)
			}
		case schema.CONSTR_FKEY:
			fk := &schema.ForeignKey{Name: cdef.Name, FieldNo: fieldno, Def: cdef.FKey}
			if err = c.validateForeignKey(txn, sp, fk); err == nil {
				sp.ForeignKeys = append(sp.ForeignKeys, fk)
			}
		}
	})
	return err
}

func (c *Catalog) resolveCheck(txn *access.Transaction, sp *schema.Space, old *schema.Space,
	fieldno int, cdef *schema.ConstraintDef) (*schema.CheckConstraint, error) {
	f := c.funcByID(txn, cdef.FuncID)
	if f == nil {
		return nil, common.NewClientError(common.ER_NO_SUCH_FUNCTION, cdef.FuncID)
	}
	ck := &schema.CheckConstraint{Name: cdef.Name, FieldNo: fieldno, FuncID: cdef.FuncID}
	if old != nil {
		for _, prev := range old.Checks {
			if prev.Name == ck.Name && prev.FuncID == ck.FuncID && prev.FieldNo == ck.FieldNo && sameFormat(old.Def, sp.Def) {
				ck.Predicate = prev.Predicate
				return ck, nil
			}
		}
	}
	if f.IsSQLExpr() && c.checkCompiler != nil {
		pred, err := c.checkCompiler.CompileCheck(sp.Def, f.Body)
		if err != nil {
			return nil, common.NewClientError(common.ER_CREATE_CK_CONSTRAINT, cdef.Name, common.ErrorMessage(err))
		}
		ck.Predicate = pred
	}
	return ck, nil
}

func sameFormat(a, b *schema.SpaceDef) bool {
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i].Name != b.Fields[i].Name || a.Fields[i].Type != b.Fields[i].Type {
			return false
		}
	}
	return true
}

func (c *Catalog) validateForeignKey(txn *access.Transaction, sp *schema.Space, fk *schema.ForeignKey) error {
	fail := func(reason string) error {
		return common.NewClientError(common.ER_CREATE_FOREIGN_KEY, fk.Name, reason)
	}
	parent := sp
	if fk.Def.SpaceID != sp.ID() {
		parent = c.SpaceByID(txn, fk.Def.SpaceID)
		if parent == nil {
			return fail(fmt.Sprintf("foreign space '%d' does not exist", fk.Def.SpaceID))
		}
	}
	links := fk.Links()
	if len(links) == 0 {
		return fail("at least one link must be specified")
	}
	for _, l := range links {
		if int(l.Local) >= len(sp.Def.Fields) {
			return fail(fmt.Sprintf("field %d does not exist in space '%s'", l.Local+1, sp.Name()))
		}
		if int(l.Foreign) >= len(parent.Def.Fields) {
			return fail(fmt.Sprintf("field %d does not exist in space '%s'", l.Foreign+1, parent.Name()))
		}
		lt, ft := sp.Def.Fields[l.Local].Type, parent.Def.Fields[l.Foreign].Type
		if !lt.IsCompatible(ft) && !ft.IsCompatible(lt) {
			return fail(fmt.Sprintf("field types of '%s' and '%s' are incompatible",
				sp.Def.Fields[l.Local].Name, parent.Def.Fields[l.Foreign].Name))
		}
	}
	if findUniqueIndex(parent, foreignFields(fk), common.BoxIDNil) == nil {
		return fail("referenced fields are not covered by a unique index of space '" + parent.Name() + "'")
	}
	return nil
}

// parentKey builds the lookup key of a child tuple in the parent index.
// ok is false when some referencing field is NULL.
func parentKey(fk *schema.ForeignKey, idx *schema.IndexDef, t *tuple.Tuple) (index.Key, bool, error) {
	links := fk.Links()
	key := make(index.Key, len(idx.Parts))
	for i, p := range idx.Parts {
		for _, l := range links {
			if l.Foreign != p.FieldNo {
				continue
			}
			if int(l.Local) >= t.FieldCount() {
				return nil, false, nil
			}
			v, err := t.GetValue(l.Local)
			if err != nil {
				return nil, false, err
			}
			if v.IsNull() {
				return nil, false, nil
			}
			key[i] = v
		}
	}
	return key, true, nil
}

func referencedValues(fk *schema.ForeignKey, t *tuple.Tuple) ([]types.Value, error) {
	links := fk.Links()
	ret := make([]types.Value, len(links))
	for i, l := range links {
		if int(l.Foreign) >= t.FieldCount() {
			ret[i] = types.NewNull()
			continue
		}
		v, err := t.GetValue(l.Foreign)
		if err != nil {
			return nil, err
		}
		ret[i] = v
	}
	return ret, nil
}

func sameValues(a, b []types.Value) bool {
	for i := range a {
		if a[i].IsNull() != b[i].IsNull() || (!a[i].IsNull() && a[i].CompareTo(b[i]) != 0) {
			return false
		}
	}
	return true
}

// referencingValues returns the values a child tuple points at.
func referencingValues(fk *schema.ForeignKey, t *tuple.Tuple) ([]types.Value, bool, error) {
	links := fk.Links()
	ret := make([]types.Value, len(links))
	for i, l := range links {
		if int(l.Local) >= t.FieldCount() {
			return nil, false, nil
		}
		v, err := t.GetValue(l.Local)
		if err != nil {
			return nil, false, err
		}
		if v.IsNull() {
			return nil, false, nil
		}
		ret[i] = v
	}
	return ret, true, nil
}

func (c *Catalog) checkParentExists(txn *access.Transaction, sp *schema.Space, fk *schema.ForeignKey, t *tuple.Tuple) error {
	parent := sp
	if fk.Def.SpaceID != sp.ID() {
		parent = c.SpaceByID(txn, fk.Def.SpaceID)
	}
	if parent == nil {
		return common.NewClientError(common.ER_FOREIGN_KEY_INTEGRITY, fk.Name, "foreign space was dropped")
	}
	idx := findUniqueIndex(parent, foreignFields(fk), common.BoxIDNil)
	if idx == nil {
		return common.NewClientError(common.ER_FOREIGN_KEY_INTEGRITY, fk.Name, "foreign index was dropped")
	}
	key, ok, err := parentKey(fk, idx, t)
	if err != nil || !ok {
		return err
	}
	if parent == sp {
		// a tuple may reference itself
		own, err := referencedValues(fk, t)
		if err != nil {
			return err
		}
		if ref, _, _ := referencingValues(fk, t); ref != nil && sameValues(own, ref) {
			return nil
		}
	}
	found, err := parent.Table.Get(idx.IID, key)
	if err != nil || found == nil {
		return common.NewClientError(common.ER_FOREIGN_KEY_INTEGRITY, fk.Name, "foreign tuple was not found")
	}
	return nil
}

// checkNotReferenced rejects removing or changing a parent tuple that
// rows of a child space still point at.
func (c *Catalog) checkNotReferenced(txn *access.Transaction, sp *schema.Space, old, new *tuple.Tuple) error {
	for _, child := range c.visibleSpaces(txn) {
		for _, fk := range child.ForeignKeys {
			if fk.Def.SpaceID != sp.ID() {
				continue
			}
			oldValues, err := referencedValues(fk, old)
			if err != nil {
				return err
			}
			if new != nil {
				newValues, err := referencedValues(fk, new)
				if err != nil {
					return err
				}
				if sameValues(oldValues, newValues) {
					continue
				}
			}
			for _, row := range child.Table.Snapshot() {
				if child.ID() == sp.ID() && row.Equals(old) {
					continue
				}
				ref, ok, err := referencingValues(fk, row)
				if err != nil {
					return err
				}
				if ok && sameValues(oldValues, ref) {
					return common.NewClientError(common.ER_FOREIGN_KEY_INTEGRITY, fk.Name, "tuple is referenced")
				}
			}
		}
	}
	return nil
}

// onReplaceUserSpace enforces the format and the constraints of a user
// space. Rows replayed from the log are trusted.
func (c *Catalog) onReplaceUserSpace(txn *access.Transaction, table *access.Table, old *tuple.Tuple, new *tuple.Tuple) error {
	if txn.IsRecovery() {
		return nil
	}
	sp := c.SpaceByID(txn, table.ID())
	if sp == nil {
		return nil
	}
	if new != nil {
		if err := sp.ValidateTuple(new); err != nil {
			return err
		}
		if err := sp.RunChecks(new); err != nil {
			return err
		}
		for _, fk := range sp.ForeignKeys {
			if err := c.checkParentExists(txn, sp, fk, new); err != nil {
				return err
			}
		}
	}
	if old != nil {
		return c.checkNotReferenced(txn, sp, old, new)
	}
	return nil
}

// FindID looks name up in index iid of a system space and returns the id
// stored in the first field of the row, or BoxIDNil when there is none.
func (c *Catalog) FindID(spaceID uint32, iid uint32, name string) (uint32, error) {
	sp := c.cache.SpaceByID(spaceID)
	if sp == nil {
		return 0, common.NewClientError(common.ER_NO_SUCH_SPACE, spaceID)
	}
	if sp.Def.Engine != schema.EngineMemtx {
		return 0, common.NewClientError(common.ER_UNSUPPORTED, sp.Def.Engine, "system data")
	}
	if sp.Table.Index(iid) == nil {
		return 0, common.NewClientError(common.ER_NO_SUCH_INDEX, iid, sp.Name())
	}
	if len(name) > common.BoxNameMax {
		return common.BoxIDNil, nil
	}
	t, err := sp.Table.Get(iid, index.Key{types.NewString(name)})
	if err != nil {
		return 0, err
	}
	if t == nil {
		return common.BoxIDNil, nil
	}
	return getUint32(t, 0)
}

func (c *Catalog) findGrants(txn *access.Transaction, objType string, id uint32) (bool, error) {
	priv := c.cache.SpaceByID(schema.PrivID)
	if priv == nil {
		return false, nil
	}
	key := index.Key{types.NewString(objType), types.NewUnsigned(uint64(id))}
	if priv.Table.Index(2) == nil {
		// the object index is created by the bootstrap
		for _, t := range priv.Table.Snapshot() {
			p, err := PrivFromTuple(t)
			if err != nil {
				return false, err
			}
			if p.Object.Type == objType && p.Object.ID == id {
				return true, nil
			}
		}
		return false, nil
	}
	t, err := priv.Table.Get(2, key)
	if err != nil {
		return false, err
	}
	return t != nil, nil
}

// FindGrants reports whether any privilege is granted on the object.
func (c *Catalog) FindGrants(objType string, id uint32) (bool, error) {
	return c.findGrants(nil, objType, id)
}

// FindName returns the name of a schema object. The universe has an
// empty name.
func (c *Catalog) FindName(objType string, id uint32) (string, error) {
	switch objType {
	case schema.ObjectUniverse:
		return "", nil
	case schema.ObjectSpace:
		if sp := c.cache.SpaceByID(id); sp != nil {
			return sp.Name(), nil
		}
		return "", common.NewClientError(common.ER_NO_SUCH_SPACE, id)
	case schema.ObjectFunction:
		if f := c.cache.FuncByID(id); f != nil {
			return f.Name, nil
		}
		return "", common.NewClientError(common.ER_NO_SUCH_FUNCTION, id)
	case schema.ObjectSequence:
		if seq := c.cache.SequenceByID(id); seq != nil {
			return seq.Def.Name, nil
		}
		return "", common.NewClientError(common.ER_NO_SUCH_SEQUENCE, id)
	case schema.ObjectRole, schema.ObjectUser:
		u := c.cache.UserByID(id)
		if u != nil && u.IsRole() == (objType == schema.ObjectRole) {
			return u.Name, nil
		}
		if objType == schema.ObjectRole {
			return "", common.NewClientError(common.ER_NO_SUCH_ROLE, id)
		}
		return "", common.NewClientError(common.ER_NO_SUCH_USER, id)
	}
	return "", common.NewClientError(common.ER_UNKNOWN_SCHEMA_OBJECT, objType)
}

// constraintTarget locates the options map a constraint lives in: the
// space options when fieldName is empty, otherwise the format entry of
// the field. store writes the modified map back into the row fields.
func constraintTarget(sp *schema.Space, fields []msgpack.RawMessage, fieldName string) (*OptionsBag, func(*OptionsBag), error) {
	if fieldName == "" {
		bag, err := DecodeOptionsBag(fields[schema.SpaceFieldOpts])
		if err != nil {
			return nil, nil, badRow("_space", err)
		}
		return bag, func(b *OptionsBag) { fields[schema.SpaceFieldOpts] = b.Encode() }, nil
	}
	entries, err := splitArray(fields[schema.SpaceFieldFormat])
	if err != nil {
		return nil, nil, badRow("_space", err)
	}
	for i, raw := range entries {
		bag, err := DecodeOptionsBag(raw)
		if err != nil {
			return nil, nil, badRow("_space", err)
		}
		var name string
		if _, err := bag.Unmarshal(fmtName, &name); err != nil {
			return nil, nil, badRow("_space", err)
		}
		if name != fieldName {
			continue
		}
		pos := i
		return bag, func(b *OptionsBag) {
			entries[pos] = b.Encode()
			fields[schema.SpaceFieldFormat] = joinArray(entries)
		}, nil
	}
	return nil, nil, common.NewClientError(common.ER_NO_SUCH_FIELD_NAME, fieldName, sp.Name())
}

// spaceRowFields reads the _space row of sp. Writes of the running
// transaction are already in the table.
func (c *Catalog) spaceRowFields(sp *schema.Space) ([]msgpack.RawMessage, error) {
	spaces := c.cache.SpaceByID(schema.SpaceID)
	row, err := spaces.Table.Get(0, index.Key{types.NewUnsigned(uint64(sp.ID()))})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, common.NewClientError(common.ER_NO_SUCH_SPACE, sp.Name())
	}
	return row.RawFields(), nil
}

/**
 * CreateConstraint adds a constraint to the options of a space, or to
 * the format entry of fieldName when it is set, by rewriting the _space
 * row. The constraint goes in front of the existing ones; every other
 * byte of the row is kept as it is.
 */
func (c *Catalog) CreateConstraint(txn *access.Transaction, uid uint32, spaceID uint32, fieldName string, cdef *schema.ConstraintDef) error {
	sp := c.SpaceByID(txn, spaceID)
	if sp == nil {
		return common.NewClientError(common.ER_NO_SUCH_SPACE, spaceID)
	}
	if err := c.checkAccess(uid, schema.ObjectSpace, sp.ID(), sp.Name(), schema.PRIV_A); err != nil {
		return err
	}
	exists := false
	sp.Def.AllConstraints(func(_ int, other *schema.ConstraintDef) {
		exists = exists || other.Name == cdef.Name
	})
	if exists {
		return common.NewClientError(common.ER_CONSTRAINT_EXISTS, cdef.Name, sp.Name())
	}
	fields, err := c.spaceRowFields(sp)
	if err != nil {
		return err
	}
	bag, store, err := constraintTarget(sp, fields, fieldName)
	if err != nil {
		return err
	}
	value, err := encodeConstraintValue(cdef, fieldName != "")
	if err != nil {
		return err
	}
	key := cdef.Type.Key()
	sub, err := DecodeOptionsBag(bag.Get(key))
	if err != nil {
		return badRow("_space", err)
	}
	sub.InsertFirst(cdef.Name, value)
	if bag.Has(key) {
		bag.Set(key, sub.Encode())
	} else {
		bag.InsertFirst(key, sub.Encode())
	}
	store(bag)
	return c.replaceSpaceRow(txn, fields)
}

// DropConstraint removes a constraint added by CreateConstraint.
func (c *Catalog) DropConstraint(txn *access.Transaction, uid uint32, spaceID uint32, kind schema.ConstraintType, name string) error {
	sp := c.SpaceByID(txn, spaceID)
	if sp == nil {
		return common.NewClientError(common.ER_NO_SUCH_SPACE, spaceID)
	}
	if err := c.checkAccess(uid, schema.ObjectSpace, sp.ID(), sp.Name(), schema.PRIV_A); err != nil {
		return err
	}
	fieldName := ""
	found := false
	sp.Def.AllConstraints(func(fieldno int, other *schema.ConstraintDef) {
		if found || other.Name != name || other.Type != kind {
			return
		}
		found = true
		if fieldno >= 0 {
			fieldName = sp.Def.Fields[fieldno].Name
		}
	})
	if !found {
		if kind == schema.CONSTR_FKEY {
			return common.NewClientError(common.ER_NO_SUCH_FOREIGN_KEY, name, sp.Name())
		}
		return common.NewClientError(common.ER_NO_SUCH_CONSTRAINT, name, sp.Name())
	}
	fields, err := c.spaceRowFields(sp)
	if err != nil {
		return err
	}
	bag, store, err := constraintTarget(sp, fields, fieldName)
	if err != nil {
		return err
	}
	key := kind.Key()
	sub, err := DecodeOptionsBag(bag.Get(key))
	if err != nil {
		return badRow("_space", err)
	}
	sub.Delete(name)
	if sub.Len() == 0 {
		bag.Delete(key)
	} else {
		bag.Set(key, sub.Encode())
	}
	store(bag)
	return c.replaceSpaceRow(txn, fields)
}

func (c *Catalog) replaceSpaceRow(txn *access.Transaction, fields []msgpack.RawMessage) error {
	spaces := c.cache.SpaceByID(schema.SpaceID)
	_, err := spaces.Table.Replace(txn, tuple.NewTupleFromRaw(fields), access.DUP_REPLACE)
	return err
}
