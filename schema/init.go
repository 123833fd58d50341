package schema

import (
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/types"
)

const EngineMemtx = "memtx"
const EngineBlackhole = "blackhole"

type placeholder struct {
	id    uint32
	name  string
	parts []PartDef
}

func part(fieldno uint32, t types.TypeID) PartDef {
	return PartDef{FieldNo: fieldno, Type: t, Collation: common.BoxIDNil}
}

// system spaces in id order; recovery replays their rows in this order
var placeholders = []placeholder{
	{SchemaID, "_schema", []PartDef{part(0, types.String)}},
	{CollationID, "_collation", []PartDef{part(0, types.Unsigned)}},
	{SpaceID, "_space", []PartDef{part(0, types.Unsigned)}},
	{SequenceID, "_sequence", []PartDef{part(0, types.Unsigned)}},
	{SequenceDataID, "_sequence_data", []PartDef{part(0, types.Unsigned)}},
	{IndexID, "_index", []PartDef{part(0, types.Unsigned), part(1, types.Unsigned)}},
	{FuncID, "_func", []PartDef{part(0, types.Unsigned)}},
	{UserID, "_user", []PartDef{part(0, types.Unsigned)}},
	{PrivID, "_priv", []PartDef{part(1, types.Unsigned), part(2, types.String), part(3, types.Scalar)}},
	{ClusterID, "_cluster", []PartDef{part(0, types.Unsigned)}},
	{TriggerID, "_trigger", []PartDef{part(0, types.String)}},
	{TruncateID, "_truncate", []PartDef{part(0, types.Unsigned)}},
	{SpaceSequenceID, "_space_sequence", []PartDef{part(0, types.Unsigned)}},
	{FkConstraintID, "_fk_constraint", []PartDef{part(0, types.String), part(1, types.Unsigned)}},
	{CkConstraintID, "_ck_constraint", []PartDef{part(0, types.Unsigned), part(1, types.String)}},
	{FuncIndexID, "_func_index", []PartDef{part(0, types.Unsigned), part(1, types.Unsigned)}},
}

// PlaceholderIDs lists the ids of the hand-built system spaces.
func PlaceholderIDs() []uint32 {
	ret := []uint32{VinylDeferredDeleteID}
	for _, p := range placeholders {
		ret = append(ret, p.id)
	}
	return ret
}

// PrimaryParts returns the primary key parts of a system space.
func PrimaryParts(id uint32) []PartDef {
	for _, p := range placeholders {
		if p.id == id {
			return p.parts
		}
	}
	return nil
}

/**
 * InitSystemSpaces seeds the cache with minimal definitions of the system
 * spaces: a primary TREE index, no format, owned by ADMIN. They let the
 * catalog rows be stored (or replayed) before the real definitions exist.
 * Rows of _space and _index for these ids later replace them in place.
 */
func (c *Cache) InitSystemSpaces() error {
	vdd := NewSpace(&SpaceDef{
		ID: VinylDeferredDeleteID, UID: common.AdminID,
		Name: "_vinyl_deferred_delete", Engine: EngineBlackhole,
	}, access.NewBlackholeTable(VinylDeferredDeleteID, "_vinyl_deferred_delete"))
	vdd.IsPlaceholder = true
	c.Replace(nil, vdd)

	for _, p := range placeholders {
		def := &SpaceDef{ID: p.id, UID: common.AdminID, Name: p.name, Engine: EngineMemtx}
		sp := NewSpace(def, access.NewTable(p.id, p.name))
		pkDef := &IndexDef{SpaceID: p.id, IID: 0, Name: "primary", Type: IndexTypeTree, Unique: true, Parts: p.parts}
		pk, err := c.BuildIndex(pkDef, nil)
		if err != nil {
			return err
		}
		if err := sp.Table.AddIndex(pk); err != nil {
			return err
		}
		sp.SetIndex(pkDef)
		sp.IsPlaceholder = true
		c.Replace(nil, sp)
	}
	common.ShPrintf(common.INFO, "initialized %d system spaces", len(placeholders)+1)
	return nil
}
