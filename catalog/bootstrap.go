package catalog

import (
	"github.com/google/uuid"
	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

// version of the data dictionary layout, stored in _schema
const (
	dictVersionMajor = 2
	dictVersionMinor = 10
	dictVersionPatch = 1
)

type sysField struct {
	name string
	typ  types.TypeID
}

type sysIndex struct {
	iid    uint32
	name   string
	unique bool
	parts  []schema.PartDef
}

func part(fieldno uint32, t types.TypeID) schema.PartDef {
	return schema.PartDef{FieldNo: fieldno, Type: t, Collation: common.BoxIDNil}
}

var (
	fUnsigned = types.Unsigned
	fString   = types.String
	fInteger  = types.Integer
	fBoolean  = types.Boolean
	fAny      = types.Any
	fScalar   = types.Scalar
)

// formats of the system spaces; map and array fields are typed any
var sysFormats = map[uint32][]sysField{
	schema.VinylDeferredDeleteID: {{"space_id", fUnsigned}, {"lsn", fUnsigned}, {"tuple", fAny}},
	schema.SchemaID:              {{"key", fString}},
	schema.CollationID: {{"id", fUnsigned}, {"name", fString}, {"owner", fUnsigned},
		{"type", fString}, {"locale", fString}, {"opts", fAny}},
	schema.SpaceID: {{"id", fUnsigned}, {"owner", fUnsigned}, {"name", fString}, {"engine", fString},
		{"field_count", fUnsigned}, {"flags", fAny}, {"format", fAny}},
	schema.SequenceID: {{"id", fUnsigned}, {"owner", fUnsigned}, {"name", fString}, {"step", fInteger},
		{"min", fInteger}, {"max", fInteger}, {"start", fInteger}, {"cache", fInteger}, {"cycle", fBoolean}},
	schema.SequenceDataID: {{"id", fUnsigned}, {"value", fInteger}},
	schema.IndexID: {{"id", fUnsigned}, {"iid", fUnsigned}, {"name", fString}, {"type", fString},
		{"opts", fAny}, {"parts", fAny}},
	schema.FuncID: {{"id", fUnsigned}, {"owner", fUnsigned}, {"name", fString}, {"setuid", fBoolean},
		{"language", fString}, {"body", fString}, {"returns", fString}},
	schema.UserID: {{"id", fUnsigned}, {"owner", fUnsigned}, {"name", fString}, {"type", fString}, {"auth", fAny}},
	schema.PrivID: {{"grantor", fUnsigned}, {"grantee", fUnsigned}, {"object_type", fString},
		{"object_id", fScalar}, {"privilege", fUnsigned}},
	schema.ClusterID:       {{"id", fUnsigned}, {"uuid", fString}},
	schema.TriggerID:       {{"name", fString}, {"space_id", fUnsigned}, {"opts", fAny}},
	schema.TruncateID:      {{"id", fUnsigned}, {"count", fUnsigned}},
	schema.SpaceSequenceID: {{"id", fUnsigned}, {"sequence_id", fUnsigned}, {"is_generated", fBoolean}, {"field", fUnsigned}},
	schema.FkConstraintID:  {{"name", fString}, {"child_id", fUnsigned}, {"parent_id", fUnsigned}},
	schema.CkConstraintID:  {{"space_id", fUnsigned}, {"name", fString}, {"code", fString}},
	schema.FuncIndexID:     {{"space_id", fUnsigned}, {"index_id", fUnsigned}, {"func_id", fUnsigned}},
}

// secondary indexes of the system spaces
var sysIndexes = map[uint32][]sysIndex{
	schema.SpaceID: {
		{1, "owner", false, []schema.PartDef{part(1, fUnsigned)}},
		{2, "name", true, []schema.PartDef{part(2, fString)}},
	},
	schema.IndexID: {
		{2, "name", true, []schema.PartDef{part(0, fUnsigned), part(2, fString)}},
	},
	schema.SequenceID: {
		{1, "owner", false, []schema.PartDef{part(1, fUnsigned)}},
		{2, "name", true, []schema.PartDef{part(2, fString)}},
	},
	schema.FuncID: {
		{1, "owner", false, []schema.PartDef{part(1, fUnsigned)}},
		{2, "name", true, []schema.PartDef{part(2, fString)}},
	},
	schema.UserID: {
		{1, "owner", false, []schema.PartDef{part(1, fUnsigned)}},
		{2, "name", true, []schema.PartDef{part(2, fString)}},
	},
	schema.PrivID: {
		{1, "owner", false, []schema.PartDef{part(0, fUnsigned)}},
		{2, "object", false, []schema.PartDef{part(2, fString), part(3, fScalar)}},
	},
	schema.CollationID: {
		{1, "name", true, []schema.PartDef{part(1, fString)}},
	},
	schema.SpaceSequenceID: {
		{1, "sequence", false, []schema.PartDef{part(1, fUnsigned)}},
	},
}

func (c *Catalog) insertRow(txn *access.Transaction, spaceID uint32, t *tuple.Tuple) error {
	sp := c.SpaceByID(txn, spaceID)
	if sp == nil {
		return common.NewClientError(common.ER_NO_SUCH_SPACE, spaceID)
	}
	_, err := sp.Table.Replace(txn, t, access.DUP_INSERT)
	return err
}

func (c *Catalog) insertValues(txn *access.Transaction, spaceID uint32, fields ...interface{}) error {
	t, err := makeRow(fields...)
	if err != nil {
		return err
	}
	return c.insertRow(txn, spaceID, t)
}

func systemSpaceDef(id uint32) *schema.SpaceDef {
	engine := schema.EngineMemtx
	if id == schema.VinylDeferredDeleteID {
		engine = schema.EngineBlackhole
	}
	def := &schema.SpaceDef{ID: id, UID: common.AdminID, Name: systemNames[id], Engine: engine}
	for _, f := range sysFormats[id] {
		def.Fields = append(def.Fields, schema.FieldDef{Name: f.name, Type: f.typ, Collation: common.BoxIDNil})
	}
	return def
}

var systemNames = map[uint32]string{
	schema.VinylDeferredDeleteID: "_vinyl_deferred_delete",
	schema.SchemaID:              "_schema",
	schema.CollationID:           "_collation",
	schema.SpaceID:               "_space",
	schema.SequenceID:            "_sequence",
	schema.SequenceDataID:        "_sequence_data",
	schema.IndexID:               "_index",
	schema.FuncID:                "_func",
	schema.UserID:                "_user",
	schema.PrivID:                "_priv",
	schema.ClusterID:             "_cluster",
	schema.TriggerID:             "_trigger",
	schema.TruncateID:            "_truncate",
	schema.SpaceSequenceID:       "_space_sequence",
	schema.FkConstraintID:        "_fk_constraint",
	schema.CkConstraintID:        "_ck_constraint",
	schema.FuncIndexID:           "_func_index",
}

/**
 * Bootstrap writes the initial content of the data dictionary in txn:
 * the _schema keys, the built-in collations, the definitions of the
 * system spaces and their indexes, the built-in users and roles with
 * their grants and the replica set entry. The cache must hold the
 * placeholders of the system spaces with the catalog triggers installed.
 */
func (c *Catalog) Bootstrap(txn *access.Transaction) error {
	clusterUUID := uuid.New().String()
	if err := c.insertValues(txn, schema.SchemaID, "version", dictVersionMajor, dictVersionMinor, dictVersionPatch); err != nil {
		return errors.Trace(err)
	}
	if err := c.insertValues(txn, schema.SchemaID, "max_id", uint32(common.BoxSystemIDMax)); err != nil {
		return errors.Trace(err)
	}
	if err := c.insertValues(txn, schema.SchemaID, "cluster", clusterUUID); err != nil {
		return errors.Trace(err)
	}

	colls := []struct {
		entry      schema.CollationEntry
		ignoreCase bool
	}{
		{schema.CollationEntry{ID: schema.CollationNoneID, Name: "none", Owner: common.AdminID, Type: "BINARY"}, false},
		{schema.CollationEntry{ID: schema.CollationUnicodeID, Name: "unicode", Owner: common.AdminID, Type: "ICU"}, false},
		{schema.CollationEntry{ID: schema.CollationUnicodeCiID, Name: "unicode_ci", Owner: common.AdminID, Type: "ICU"}, true},
		{schema.CollationEntry{ID: schema.CollationBinaryID, Name: "binary", Owner: common.AdminID, Type: "BINARY"}, false},
	}
	for i := range colls {
		t, err := CollationToTuple(&colls[i].entry, colls[i].ignoreCase)
		if err != nil {
			return err
		}
		if err := c.insertRow(txn, schema.CollationID, t); err != nil {
			return errors.Trace(err)
		}
	}

	for _, id := range schema.PlaceholderIDs() {
		t, err := SpaceDefToTuple(systemSpaceDef(id))
		if err != nil {
			return err
		}
		if err := c.insertRow(txn, schema.SpaceID, t); err != nil {
			return errors.Annotatef(err, "bootstrap space %d", id)
		}
	}
	for _, id := range schema.PlaceholderIDs() {
		if id == schema.VinylDeferredDeleteID {
			continue
		}
		defs := []*schema.IndexDef{{SpaceID: id, IID: 0, Name: "primary", Type: schema.IndexTypeTree,
			Unique: true, Parts: schema.PrimaryParts(id)}}
		for _, si := range sysIndexes[id] {
			defs = append(defs, &schema.IndexDef{SpaceID: id, IID: si.iid, Name: si.name,
				Type: schema.IndexTypeTree, Unique: si.unique, Parts: si.parts})
		}
		for _, def := range defs {
			t, err := IndexDefToTuple(def)
			if err != nil {
				return err
			}
			if err := c.insertRow(txn, schema.IndexID, t); err != nil {
				return errors.Annotatef(err, "bootstrap index %d/%d", id, def.IID)
			}
		}
	}

	users := []*schema.User{
		schema.NewUser(common.GuestID, common.AdminID, "guest", schema.UserTypeUser),
		schema.NewUser(common.AdminID, common.AdminID, "admin", schema.UserTypeUser),
		schema.NewUser(common.PublicID, common.AdminID, "public", schema.UserTypeRole),
		schema.NewUser(common.SuperID, common.AdminID, "super", schema.UserTypeRole),
	}
	for _, u := range users {
		t, err := UserToTuple(u)
		if err != nil {
			return err
		}
		if err := c.insertRow(txn, schema.UserID, t); err != nil {
			return errors.Trace(err)
		}
	}
	privs := []PrivRow{
		{common.AdminID, common.AdminID, schema.PrivObject{Type: schema.ObjectUniverse}, schema.PRIV_ALL},
		{common.AdminID, common.GuestID, schema.PrivObject{Type: schema.ObjectRole, ID: common.PublicID}, schema.PRIV_X},
		{common.AdminID, common.SuperID, schema.PrivObject{Type: schema.ObjectUniverse}, schema.PRIV_ALL},
	}
	for i := range privs {
		t, err := PrivToTuple(&privs[i])
		if err != nil {
			return err
		}
		if err := c.insertRow(txn, schema.PrivID, t); err != nil {
			return errors.Trace(err)
		}
	}
	if err := c.insertValues(txn, schema.ClusterID, uint32(1), clusterUUID); err != nil {
		return errors.Trace(err)
	}
	common.ShPrintf(common.INFO, "bootstrapped data dictionary, cluster %s", clusterUUID)
	return nil
}

/**
 * ApplyLogRecords re-applies the changes of one logged transaction. The
 * triggers run as usual so the cache is rebuilt together with the data;
 * txn must be in recovery mode.
 */
func (c *Catalog) ApplyLogRecords(txn *access.Transaction, records []access.LogRecord) error {
	common.SH_Assert(txn.IsRecovery(), "log records applied outside of recovery")
	for _, rec := range records {
		sp := c.SpaceByID(txn, rec.SpaceID)
		if sp == nil {
			return common.NewClientError(common.ER_NO_SUCH_SPACE, rec.SpaceID)
		}
		t, err := tuple.NewTupleFromBytes(rec.Tuple)
		if err != nil {
			return errors.Annotatef(err, "space %d", rec.SpaceID)
		}
		switch rec.Op {
		case access.INSERT, access.UPDATE:
			if _, err := sp.Table.Replace(txn, t, access.DUP_REPLACE_OR_INSERT); err != nil {
				return errors.Annotatef(err, "replay into space '%s'", sp.Name())
			}
		case access.DELETE:
			pk := sp.Table.PrimaryIndex()
			if pk == nil {
				return common.NewClientError(common.ER_NO_SUCH_INDEX, 0, sp.Name())
			}
			key, err := pk.KeyDef().ExtractKey(t)
			if err != nil {
				return errors.Trace(err)
			}
			if _, err := sp.Table.Delete(txn, key); err != nil {
				return errors.Annotatef(err, "replay delete from space '%s'", sp.Name())
			}
		}
	}
	return nil
}
