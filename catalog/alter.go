package catalog

import (
	"fmt"

	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/storage/index"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

/*
 * The on_replace triggers of the system spaces. A trigger validates the
 * change before the row is written; a rejected change leaves both the
 * row and the cache untouched. Storage changes (new tables, index
 * builds, truncation) are done right away together with a rollback
 * hook; cache changes are staged in the alter batch of the transaction.
 */

func (c *Catalog) validateSpaceDef(txn *access.Transaction, def *schema.SpaceDef) error {
	if def.Name == "" || len(def.Name) > common.BoxNameMax {
		return common.NewClientError(common.ER_ILLEGAL_PARAMS, "space name must be between 1 and 65000 bytes")
	}
	if def.Engine != schema.EngineMemtx && def.Engine != schema.EngineBlackhole {
		return common.NewClientError(common.ER_ILLEGAL_PARAMS, fmt.Sprintf("space engine '%s' does not exist", def.Engine))
	}
	if def.FieldCount > 0 && len(def.Fields) > int(def.FieldCount) {
		return common.NewClientError(common.ER_ALTER_SPACE, def.Name, "field count is less than the format length")
	}
	names := make(map[string]bool)
	for i := range def.Fields {
		f := &def.Fields[i]
		if names[f.Name] {
			return common.NewClientError(common.ER_ILLEGAL_PARAMS, fmt.Sprintf("space field '%s' is duplicate", f.Name))
		}
		names[f.Name] = true
		if f.Collation != common.BoxIDNil && f.Collation != schema.CollationNoneID {
			if f.Type != types.String && f.Type != types.Scalar && f.Type != types.Any {
				return common.NewClientError(common.ER_ILLEGAL_PARAMS, fmt.Sprintf("collation of field '%s' requires a string type", f.Name))
			}
			if c.collationByID(txn, f.Collation) == nil {
				return common.NewClientError(common.ER_NO_SUCH_COLLATION, f.Collation)
			}
		}
		if f.HasDefault && !f.Default.FitsType(f.Type) {
			return common.NewClientError(common.ER_ILLEGAL_PARAMS, fmt.Sprintf("default value of field '%s' does not match its type", f.Name))
		}
	}
	return nil
}

// newSpaceObject builds the space a new _space row describes. Rows of
// system spaces take over the storage of their placeholders.
func (c *Catalog) newSpaceObject(txn *access.Transaction, def *schema.SpaceDef) (*schema.Space, error) {
	if cur := c.SpaceByID(txn, def.ID); cur != nil {
		if !cur.IsPlaceholder {
			return nil, common.NewClientError(common.ER_SPACE_EXISTS, cur.Name())
		}
		return schema.NewSpace(def, cur.Table), nil
	}
	var table *access.Table
	if def.Engine == schema.EngineBlackhole {
		table = access.NewBlackholeTable(def.ID, def.Name)
	} else {
		table = access.NewTable(def.ID, def.Name)
	}
	table.AddOnReplace(c.onReplaceUserSpace)
	return schema.NewSpace(def, table), nil
}

func (c *Catalog) onReplaceSpace(txn *access.Transaction, _ *access.Table, old *tuple.Tuple, new *tuple.Tuple) error {
	b := c.batch(txn, true)
	switch {
	case old == nil:
		def, err := SpaceDefFromTuple(new)
		if err != nil {
			return err
		}
		if err := c.validateSpaceDef(txn, def); err != nil {
			return err
		}
		if other := c.SpaceByName(txn, def.Name); other != nil && other.ID() != def.ID {
			return common.NewClientError(common.ER_SPACE_EXISTS, def.Name)
		}
		sp, err := c.newSpaceObject(txn, def)
		if err != nil {
			return err
		}
		if err := c.resolveConstraints(txn, sp, nil); err != nil {
			return err
		}
		stage(txn, b.spaces, def.ID, sp)
		return nil
	case new == nil:
		def, err := SpaceDefFromTuple(old)
		if err != nil {
			return err
		}
		return c.dropSpace(txn, b, def.ID)
	default:
		oldDef, err := SpaceDefFromTuple(old)
		if err != nil {
			return err
		}
		def, err := SpaceDefFromTuple(new)
		if err != nil {
			return err
		}
		return c.alterSpace(txn, b, oldDef, def)
	}
}

func (c *Catalog) dropSpace(txn *access.Transaction, b *alterBatch, id uint32) error {
	sp := c.SpaceByID(txn, id)
	if sp == nil {
		return common.NewClientError(common.ER_NO_SUCH_SPACE, id)
	}
	if schema.IsSystemSpace(id) {
		return common.NewClientError(common.ER_DROP_SPACE, sp.Name(), "the space is a system space")
	}
	if len(sp.Indexes) > 0 {
		return common.NewClientError(common.ER_DROP_SPACE, sp.Name(), "the space has indexes")
	}
	if sp.HasSequence {
		return common.NewClientError(common.ER_DROP_SPACE, sp.Name(), "the space has a sequence")
	}
	granted, err := c.findGrants(txn, schema.ObjectSpace, id)
	if err != nil {
		return err
	}
	if granted {
		return common.NewClientError(common.ER_DROP_SPACE, sp.Name(), "the space has grants")
	}
	for _, other := range c.visibleSpaces(txn) {
		if other.ID() == id {
			continue
		}
		for _, fk := range other.ForeignKeys {
			if fk.Def.SpaceID == id {
				return common.NewClientError(common.ER_DROP_SPACE, sp.Name(), "other objects depend on it")
			}
		}
	}
	stage(txn, b.spaces, id, (*schema.Space)(nil))
	return nil
}

func (c *Catalog) alterSpace(txn *access.Transaction, b *alterBatch, oldDef *schema.SpaceDef, def *schema.SpaceDef) error {
	cur := c.SpaceByID(txn, oldDef.ID)
	if cur == nil {
		return common.NewClientError(common.ER_NO_SUCH_SPACE, oldDef.ID)
	}
	if def.ID != oldDef.ID {
		return common.NewClientError(common.ER_ALTER_SPACE, oldDef.Name, "space id is immutable")
	}
	if cur.IsPlaceholder {
		// the real definition of a system space
		sp := schema.NewSpace(def, cur.Table)
		stage(txn, b.spaces, def.ID, sp)
		return nil
	}
	if def.Engine != oldDef.Engine {
		return common.NewClientError(common.ER_ALTER_SPACE, oldDef.Name, "can not change space engine")
	}
	if err := c.validateSpaceDef(txn, def); err != nil {
		return err
	}
	if other := c.SpaceByName(txn, def.Name); other != nil && other.ID() != def.ID {
		return common.NewClientError(common.ER_SPACE_EXISTS, def.Name)
	}
	for _, idx := range cur.Indexes {
		for _, p := range idx.Parts {
			if int(p.FieldNo) >= len(def.Fields) {
				if int(p.FieldNo) < len(oldDef.Fields) {
					return common.NewClientError(common.ER_ALTER_SPACE, def.Name, fmt.Sprintf("field %d is indexed by '%s'", p.FieldNo+1, idx.Name))
				}
				continue
			}
			if !def.Fields[p.FieldNo].Type.IsCompatible(p.Type) {
				return common.NewClientError(common.ER_ALTER_SPACE, def.Name,
					fmt.Sprintf("type of field '%s' is incompatible with index '%s'", def.Fields[p.FieldNo].Name, idx.Name))
			}
		}
	}
	sp := cur.Copy()
	sp.Def = def
	if err := c.resolveConstraints(txn, sp, cur); err != nil {
		return err
	}
	if !txn.IsRecovery() {
		// the stored tuples must satisfy the new format
		for _, t := range sp.Table.Snapshot() {
			if err := sp.ValidateTuple(t); err != nil {
				return common.NewClientError(common.ER_ALTER_SPACE, def.Name, common.ErrorMessage(err))
			}
		}
	}
	stage(txn, b.spaces, def.ID, sp)
	return nil
}

func (c *Catalog) validateIndexDef(txn *access.Transaction, sp *schema.Space, def *schema.IndexDef) error {
	modErr := func(reason string) error {
		return common.NewClientError(common.ER_MODIFY_INDEX, def.Name, sp.Name(), reason)
	}
	if def.IID >= common.BoxIndexMax {
		return modErr("index id too big")
	}
	if def.Name == "" || len(def.Name) > common.BoxNameMax {
		return modErr("index name is empty or too long")
	}
	if sp.Def.Engine == schema.EngineBlackhole {
		return modErr("blackhole spaces have no indexes")
	}
	switch def.Type {
	case schema.IndexTypeTree:
	case schema.IndexTypeHash:
		if def.IID == 0 {
			return common.NewClientError(common.ER_INDEX_TYPE, def.Name, sp.Name())
		}
		if !def.Unique {
			return modErr("HASH index must be unique")
		}
	default:
		return common.NewClientError(common.ER_INDEX_TYPE, def.Name, sp.Name())
	}
	if def.IID == 0 && !def.Unique {
		return modErr("primary key must be unique")
	}
	if len(def.Parts) == 0 {
		return modErr("part count must be positive")
	}
	seen := make(map[uint32]bool)
	for _, p := range def.Parts {
		if seen[p.FieldNo] {
			return modErr("same key part is indexed twice")
		}
		seen[p.FieldNo] = true
		if !p.Type.IsIndexable() {
			return modErr(fmt.Sprintf("field type '%s' is not supported", p.Type))
		}
		if int(p.FieldNo) < len(sp.Def.Fields) {
			f := &sp.Def.Fields[p.FieldNo]
			if !f.Type.IsCompatible(p.Type) {
				return common.NewClientError(common.ER_FIELD_TYPE, fmt.Sprint(p.FieldNo+1), p.Type.String(), f.Type.String())
			}
			if f.IsNullable && def.IID == 0 {
				return modErr("primary key can not contain nullable parts")
			}
		}
		if def.IID == 0 && p.IsNullable {
			return modErr("primary key can not contain nullable parts")
		}
		if p.Collation != common.BoxIDNil && p.Collation != schema.CollationNoneID && c.collationByID(txn, p.Collation) == nil {
			return common.NewClientError(common.ER_NO_SUCH_COLLATION, p.Collation)
		}
	}
	if other := sp.IndexByName(def.Name); other != nil && other.IID != def.IID {
		return common.NewClientError(common.ER_INDEX_EXISTS, def.Name, sp.Name())
	}
	return nil
}

func sameKey(a, b *schema.IndexDef) bool {
	if a.Unique != b.Unique || a.Type != b.Type || len(a.Parts) != len(b.Parts) {
		return false
	}
	for i := range a.Parts {
		if a.Parts[i] != b.Parts[i] {
			return false
		}
	}
	return true
}

func (c *Catalog) onReplaceIndex(txn *access.Transaction, _ *access.Table, old *tuple.Tuple, new *tuple.Tuple) error {
	b := c.batch(txn, true)
	row := new
	if row == nil {
		row = old
	}
	def, err := IndexDefFromTuple(row)
	if err != nil {
		return err
	}
	sp := c.SpaceByID(txn, def.SpaceID)
	if sp == nil {
		return common.NewClientError(common.ER_NO_SUCH_SPACE, def.SpaceID)
	}
	table := sp.Table
	switch {
	case old == nil:
		if err := c.validateIndexDef(txn, sp, def); err != nil {
			return err
		}
		if def.IID > 0 && table.PrimaryIndex() == nil {
			return common.NewClientError(common.ER_MODIFY_INDEX, def.Name, sp.Name(), "can not add a secondary key before primary")
		}
		if storage := table.Index(def.IID); storage != nil {
			if !schema.IsSystemSpace(def.SpaceID) {
				return common.NewClientError(common.ER_INDEX_EXISTS, def.Name, sp.Name())
			}
			// the primary key of a placeholder
			prevName := storage.Name()
			storage.SetName(def.Name)
			txn.OnRollback(func() { storage.SetName(prevName) })
		} else {
			var pk *index.TreeIndex
			if def.IID > 0 {
				pk = table.PrimaryIndex()
			}
			idx, err := c.cache.BuildIndex(def, pk)
			if err != nil {
				return err
			}
			if err := table.AddIndex(idx); err != nil {
				return err
			}
			txn.OnRollback(func() { table.DropIndex(def.IID) })
		}
		newSp := sp.Copy()
		newSp.SetIndex(def)
		stage(txn, b.spaces, sp.ID(), newSp)
		return nil
	case new == nil:
		cur := sp.Index(def.IID)
		if cur == nil {
			return common.NewClientError(common.ER_NO_SUCH_INDEX, def.Name, sp.Name())
		}
		if def.IID == 0 && len(sp.Indexes) > 1 {
			return common.NewClientError(common.ER_DROP_PRIMARY_KEY, sp.Name())
		}
		if err := c.checkIndexNotReferenced(txn, sp, cur); err != nil {
			return err
		}
		if storage := table.Index(def.IID); storage != nil {
			table.DropIndex(def.IID)
			txn.OnRollback(func() { table.AttachIndex(storage) })
		}
		newSp := sp.Copy()
		newSp.RemoveIndex(def.IID)
		stage(txn, b.spaces, sp.ID(), newSp)
		return nil
	default:
		oldDef, err := IndexDefFromTuple(old)
		if err != nil {
			return err
		}
		if err := c.validateIndexDef(txn, sp, def); err != nil {
			return err
		}
		storage := table.Index(def.IID)
		if storage == nil {
			return common.NewClientError(common.ER_NO_SUCH_INDEX, oldDef.Name, sp.Name())
		}
		if sameKey(oldDef, def) {
			storage.SetName(def.Name)
			txn.OnRollback(func() { storage.SetName(oldDef.Name) })
		} else {
			if def.IID == 0 && (table.IndexCount() > 1 || table.Len() > 0) {
				return common.NewClientError(common.ER_ALTER_SPACE, sp.Name(), "can not change the primary key of a non-empty space")
			}
			if err := c.checkIndexNotReferenced(txn, sp, oldDef); err != nil {
				return err
			}
			var pk *index.TreeIndex
			if def.IID > 0 {
				pk = table.PrimaryIndex()
			}
			idx, err := c.cache.BuildIndex(def, pk)
			if err != nil {
				return err
			}
			table.DropIndex(def.IID)
			if err := table.AddIndex(idx); err != nil {
				table.AttachIndex(storage)
				return err
			}
			txn.OnRollback(func() { table.AttachIndex(storage) })
		}
		newSp := sp.Copy()
		newSp.SetIndex(def)
		stage(txn, b.spaces, sp.ID(), newSp)
		return nil
	}
}

// checkIndexNotReferenced rejects the removal of the last unique index a
// foreign key of some space relies on.
func (c *Catalog) checkIndexNotReferenced(txn *access.Transaction, sp *schema.Space, idx *schema.IndexDef) error {
	for _, child := range c.visibleSpaces(txn) {
		if child.ID() == sp.ID() {
			// self references go away with the space
			continue
		}
		for _, fk := range child.ForeignKeys {
			if fk.Def.SpaceID != sp.ID() {
				continue
			}
			fields := foreignFields(fk)
			if !coversExactly(idx, fields) {
				continue
			}
			if findUniqueIndex(sp, fields, idx.IID) == nil {
				return common.NewClientError(common.ER_ALTER_SPACE, sp.Name(),
					fmt.Sprintf("foreign key '%s' depends on index '%s'", fk.Name, idx.Name))
			}
		}
	}
	return nil
}

func (c *Catalog) onReplaceTruncate(txn *access.Transaction, _ *access.Table, old *tuple.Tuple, new *tuple.Tuple) error {
	if new == nil {
		return nil
	}
	id, err := getUint32(new, 0)
	if err != nil {
		return badRow("_truncate", err)
	}
	sp := c.SpaceByID(txn, id)
	if sp == nil {
		return common.NewClientError(common.ER_NO_SUCH_SPACE, id)
	}
	if schema.IsSystemSpace(id) {
		return common.NewClientError(common.ER_UNSUPPORTED, "system space", "truncate")
	}
	if !txn.IsRecovery() && sp.Table.Len() > 0 {
		for _, child := range c.visibleSpaces(txn) {
			for _, fk := range child.ForeignKeys {
				if fk.Def.SpaceID == id && child.ID() != id && child.Table.Len() > 0 {
					return common.NewClientError(common.ER_FOREIGN_KEY_INTEGRITY, fk.Name, "the space is referenced by "+child.Name())
				}
			}
		}
	}
	saved := sp.Table.Snapshot()
	sp.Table.Truncate()
	table := sp.Table
	txn.OnRollback(func() {
		table.Truncate()
		table.Restore(saved)
	})
	return nil
}

func (c *Catalog) onReplaceSequence(txn *access.Transaction, _ *access.Table, old *tuple.Tuple, new *tuple.Tuple) error {
	b := c.batch(txn, true)
	if new == nil {
		def, err := SequenceDefFromTuple(old)
		if err != nil {
			return err
		}
		for _, sp := range c.visibleSpaces(txn) {
			if sp.HasSequence && sp.SequenceID == def.ID {
				return common.NewClientError(common.ER_ALTER_SPACE, sp.Name(), "sequence '"+def.Name+"' is in use")
			}
		}
		granted, err := c.findGrants(txn, schema.ObjectSequence, def.ID)
		if err != nil {
			return err
		}
		if granted {
			return common.NewClientError(common.ER_ILLEGAL_PARAMS, "sequence '"+def.Name+"' has grants")
		}
		stage(txn, b.sequences, def.ID, (*schema.Sequence)(nil))
		return nil
	}
	def, err := SequenceDefFromTuple(new)
	if err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return err
	}
	if len(def.Name) == 0 || len(def.Name) > common.BoxNameMax {
		return common.NewClientError(common.ER_ILLEGAL_PARAMS, "sequence name is empty or too long")
	}
	cur := c.sequenceByID(txn, def.ID)
	if old == nil {
		if cur != nil {
			return common.NewClientError(common.ER_SEQUENCE_EXISTS, def.Name)
		}
		stage(txn, b.sequences, def.ID, schema.NewSequence(def))
		return nil
	}
	if cur == nil {
		return common.NewClientError(common.ER_NO_SUCH_SEQUENCE, def.Name)
	}
	altered := &schema.Sequence{Def: def, Value: cur.Value, IsStarted: cur.IsStarted}
	stage(txn, b.sequences, def.ID, altered)
	return nil
}

func (c *Catalog) onReplaceSequenceData(txn *access.Transaction, _ *access.Table, old *tuple.Tuple, new *tuple.Tuple) error {
	row := new
	if row == nil {
		row = old
	}
	id, err := getUint32(row, 0)
	if err != nil {
		return badRow("_sequence_data", err)
	}
	seq := c.sequenceByID(txn, id)
	if seq == nil {
		return common.NewClientError(common.ER_NO_SUCH_SEQUENCE, id)
	}
	prevValue, prevStarted := seq.Value, seq.IsStarted
	if new == nil {
		seq.Reset()
	} else {
		value, err := getInt64(new, 1)
		if err != nil {
			return badRow("_sequence_data", err)
		}
		seq.Set(value)
	}
	txn.OnRollback(func() {
		seq.Value, seq.IsStarted = prevValue, prevStarted
	})
	return nil
}

func (c *Catalog) onReplaceSpaceSequence(txn *access.Transaction, _ *access.Table, old *tuple.Tuple, new *tuple.Tuple) error {
	b := c.batch(txn, true)
	row := new
	if row == nil {
		row = old
	}
	spaceID, err := getUint32(row, schema.SpaceSequenceFieldID)
	if err != nil {
		return badRow("_space_sequence", err)
	}
	seqID, err := getUint32(row, schema.SpaceSequenceFieldSequenceID)
	if err != nil {
		return badRow("_space_sequence", err)
	}
	sp := c.SpaceByID(txn, spaceID)
	if sp == nil {
		return common.NewClientError(common.ER_NO_SUCH_SPACE, spaceID)
	}
	seq := c.sequenceByID(txn, seqID)
	if seq == nil {
		return common.NewClientError(common.ER_NO_SUCH_SEQUENCE, seqID)
	}
	newSp := sp.Copy()
	if new == nil {
		newSp.HasSequence = false
		newSp.SequenceID = 0
		newSp.SequenceIsGenerated = false
		newSp.SequenceFieldNo = 0
		stage(txn, b.spaces, spaceID, newSp)
		return nil
	}
	pk := sp.PrimaryIndex()
	if pk == nil {
		return common.NewClientError(common.ER_ALTER_SPACE, sp.Name(), "can not attach a sequence to a space without a primary key")
	}
	fieldno, err := getUint32(new, schema.SpaceSequenceFieldField)
	if err != nil {
		return badRow("_space_sequence", err)
	}
	isGenerated, err := getBool(new, schema.SpaceSequenceFieldIsGenerated)
	if err != nil {
		return badRow("_space_sequence", err)
	}
	found := false
	for _, p := range pk.Parts {
		if p.FieldNo == fieldno {
			found = p.Type == types.Unsigned || p.Type == types.Integer
		}
	}
	if !found {
		return common.NewClientError(common.ER_ALTER_SPACE, sp.Name(), "sequence field must be an integer part of the primary key")
	}
	newSp.HasSequence = true
	newSp.SequenceID = seqID
	newSp.SequenceIsGenerated = isGenerated
	newSp.SequenceFieldNo = fieldno
	stage(txn, b.spaces, spaceID, newSp)
	return nil
}

func (c *Catalog) onReplaceUser(txn *access.Transaction, _ *access.Table, old *tuple.Tuple, new *tuple.Tuple) error {
	b := c.batch(txn, true)
	if new == nil {
		u, err := UserFromTuple(old)
		if err != nil {
			return err
		}
		if u.ID <= common.PublicID || u.ID == common.SuperID {
			return common.NewClientError(common.ER_DROP_USER, u.Name, "the user or the role is a system")
		}
		cur := c.userByID(txn, u.ID)
		if cur != nil && len(cur.Grants) > 0 {
			return common.NewClientError(common.ER_DROP_USER, u.Name, "the user has privileges")
		}
		for _, sp := range c.visibleSpaces(txn) {
			if sp.Def.UID == u.ID {
				return common.NewClientError(common.ER_DROP_USER, u.Name, "the user has objects")
			}
		}
		granted, err := c.findGrants(txn, schema.ObjectRole, u.ID)
		if err != nil {
			return err
		}
		if granted {
			return common.NewClientError(common.ER_DROP_USER, u.Name, "the role is granted")
		}
		stage(txn, b.users, u.ID, (*schema.User)(nil))
		return nil
	}
	u, err := UserFromTuple(new)
	if err != nil {
		return err
	}
	if len(u.Name) == 0 || len(u.Name) > common.BoxNameMax {
		return common.NewClientError(common.ER_ILLEGAL_PARAMS, "user name is empty or too long")
	}
	if other := c.userByName(txn, u.Name); other != nil && other.ID != u.ID {
		return common.NewClientError(common.ER_USER_EXISTS, u.Name)
	}
	if cur := c.userByID(txn, u.ID); cur != nil {
		if old == nil {
			return common.NewClientError(common.ER_USER_EXISTS, u.Name)
		}
		if cur.Type != u.Type {
			return common.NewClientError(common.ER_ILLEGAL_PARAMS, "can not change the type of a user")
		}
		for k, v := range cur.Grants {
			u.Grants[k] = v
		}
	}
	stage(txn, b.users, u.ID, u)
	return nil
}

func (c *Catalog) privObjectExists(txn *access.Transaction, obj schema.PrivObject) error {
	switch obj.Type {
	case schema.ObjectUniverse:
		return nil
	case schema.ObjectSpace:
		if obj.ID == 0 || c.SpaceByID(txn, obj.ID) != nil {
			return nil
		}
		return common.NewClientError(common.ER_NO_SUCH_SPACE, obj.ID)
	case schema.ObjectSequence:
		if obj.ID == 0 || c.sequenceByID(txn, obj.ID) != nil {
			return nil
		}
		return common.NewClientError(common.ER_NO_SUCH_SEQUENCE, obj.ID)
	case schema.ObjectFunction:
		if obj.ID == 0 || c.funcByID(txn, obj.ID) != nil {
			return nil
		}
		return common.NewClientError(common.ER_NO_SUCH_FUNCTION, obj.ID)
	case schema.ObjectRole:
		if u := c.userByID(txn, obj.ID); u != nil && u.IsRole() {
			return nil
		}
		return common.NewClientError(common.ER_NO_SUCH_ROLE, obj.ID)
	case schema.ObjectUser:
		if u := c.userByID(txn, obj.ID); u != nil && !u.IsRole() {
			return nil
		}
		return common.NewClientError(common.ER_NO_SUCH_USER, obj.ID)
	}
	return common.NewClientError(common.ER_UNKNOWN_SCHEMA_OBJECT, obj.Type)
}

func (c *Catalog) onReplacePriv(txn *access.Transaction, _ *access.Table, old *tuple.Tuple, new *tuple.Tuple) error {
	b := c.batch(txn, true)
	row := new
	if row == nil {
		row = old
	}
	p, err := PrivFromTuple(row)
	if err != nil {
		return err
	}
	grantee := c.userByID(txn, p.Grantee)
	if grantee == nil {
		return common.NewClientError(common.ER_NO_SUCH_USER, p.Grantee)
	}
	updated := grantee.Copy()
	if new == nil {
		delete(updated.Grants, p.Object)
	} else {
		if err := c.privObjectExists(txn, p.Object); err != nil {
			return err
		}
		if p.Object.Type == schema.ObjectRole && p.Object.ID == p.Grantee {
			return common.NewClientError(common.ER_ILLEGAL_PARAMS, "a role can not be granted to itself")
		}
		if p.Access == 0 {
			delete(updated.Grants, p.Object)
		} else {
			updated.Grants[p.Object] = p.Access
		}
	}
	stage(txn, b.users, grantee.ID, updated)
	return nil
}

func (c *Catalog) onReplaceFunc(txn *access.Transaction, _ *access.Table, old *tuple.Tuple, new *tuple.Tuple) error {
	b := c.batch(txn, true)
	if new == nil {
		f, err := FuncFromTuple(old)
		if err != nil {
			return err
		}
		for _, sp := range c.visibleSpaces(txn) {
			for _, ck := range sp.Checks {
				if ck.FuncID == f.ID {
					return common.NewClientError(common.ER_ILLEGAL_PARAMS,
						fmt.Sprintf("function '%s' is used by constraint '%s' of space '%s'", f.Name, ck.Name, sp.Name()))
				}
			}
		}
		granted, err := c.findGrants(txn, schema.ObjectFunction, f.ID)
		if err != nil {
			return err
		}
		if granted {
			return common.NewClientError(common.ER_ILLEGAL_PARAMS, "function '"+f.Name+"' has grants")
		}
		stage(txn, b.funcs, f.ID, (*schema.Func)(nil))
		return nil
	}
	f, err := FuncFromTuple(new)
	if err != nil {
		return err
	}
	if len(f.Name) == 0 || len(f.Name) > common.BoxNameMax {
		return common.NewClientError(common.ER_ILLEGAL_PARAMS, "function name is empty or too long")
	}
	if old != nil {
		return common.NewClientError(common.ER_UNSUPPORTED, "function", "alter")
	}
	if c.funcByName(txn, f.Name) != nil || c.funcByID(txn, f.ID) != nil {
		return common.NewClientError(common.ER_FUNCTION_EXISTS, f.Name)
	}
	stage(txn, b.funcs, f.ID, f)
	return nil
}

func (c *Catalog) onReplaceCollation(txn *access.Transaction, _ *access.Table, old *tuple.Tuple, new *tuple.Tuple) error {
	b := c.batch(txn, true)
	if new == nil {
		e, err := CollationFromTuple(old)
		if err != nil {
			return err
		}
		if e.ID <= schema.CollationBinaryID {
			return common.NewClientError(common.ER_ILLEGAL_PARAMS, "built-in collation '"+e.Name+"' can not be dropped")
		}
		stage(txn, b.collations, e.ID, (*schema.CollationEntry)(nil))
		return nil
	}
	if old != nil {
		return common.NewClientError(common.ER_UNSUPPORTED, "collation", "alter")
	}
	e, err := CollationFromTuple(new)
	if err != nil {
		return err
	}
	if c.collationByID(txn, e.ID) != nil || c.cache.CollationByName(e.Name) != nil {
		return common.NewClientError(common.ER_ILLEGAL_PARAMS, "collation '"+e.Name+"' already exists")
	}
	stage(txn, b.collations, e.ID, e)
	return nil
}
