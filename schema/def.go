package schema

import (
	"strconv"

	"github.com/ryogrid/SamehadaDict/storage/index"
	"github.com/ryogrid/SamehadaDict/types"
)

type ConstraintType int

const (
	// check constraint backed by a function
	CONSTR_FUNC ConstraintType = iota
	CONSTR_FKEY
)

// keys of the constraint sub-maps in space options and format entries
const (
	ConstraintKeyFunc = "constraint"
	ConstraintKeyFKey = "foreign_key"
)

func (t ConstraintType) Key() string {
	if t == CONSTR_FKEY {
		return ConstraintKeyFKey
	}
	return ConstraintKeyFunc
}

// FieldLink maps a field of the child space to a field of the parent.
type FieldLink struct {
	Local   uint32
	Foreign uint32
}

// ForeignKeyDef references a parent space. A field-level key uses Field,
// a tuple-level key uses Links.
type ForeignKeyDef struct {
	SpaceID uint32
	Field   uint32
	Links   []FieldLink
}

type ConstraintDef struct {
	Name   string
	Type   ConstraintType
	FuncID uint32
	FKey   *ForeignKeyDef
}

type FieldDef struct {
	Name        string
	Type        types.TypeID
	IsNullable  bool
	Collation   uint32
	HasDefault  bool
	Default     types.Value
	Constraints []ConstraintDef
}

type SpaceOpts struct {
	IsTemporary bool
	Constraints []ConstraintDef
}

type SpaceDef struct {
	ID         uint32
	UID        uint32
	Name       string
	Engine     string
	FieldCount uint32
	Opts       SpaceOpts
	Fields     []FieldDef
}

// FieldByName returns the field number of a format field.
func (d *SpaceDef) FieldByName(name string) (uint32, bool) {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return uint32(i), true
		}
	}
	return 0, false
}

// FieldName returns the format name of fieldno or its 1-based number.
func (d *SpaceDef) FieldName(fieldno uint32) string {
	if int(fieldno) < len(d.Fields) {
		return d.Fields[fieldno].Name
	}
	return strconv.FormatUint(uint64(fieldno)+1, 10)
}

// AllConstraints lists tuple-level constraints first, then field-level
// ones in field order. fieldno is -1 for tuple-level constraints.
func (d *SpaceDef) AllConstraints(fn func(fieldno int, c *ConstraintDef)) {
	for i := range d.Opts.Constraints {
		fn(-1, &d.Opts.Constraints[i])
	}
	for f := range d.Fields {
		for i := range d.Fields[f].Constraints {
			fn(f, &d.Fields[f].Constraints[i])
		}
	}
}

const (
	IndexTypeTree = "TREE"
	IndexTypeHash = "HASH"
)

type PartDef struct {
	FieldNo    uint32
	Type       types.TypeID
	Collation  uint32
	SortOrder  index.SortOrder
	IsNullable bool
}

type IndexDef struct {
	SpaceID uint32
	IID     uint32
	Name    string
	Type    string
	Unique  bool
	Parts   []PartDef
}

// FieldNos lists the indexed field numbers in key order.
func (d *IndexDef) FieldNos() []uint32 {
	ret := make([]uint32, len(d.Parts))
	for i, p := range d.Parts {
		ret[i] = p.FieldNo
	}
	return ret
}
