package schema

import (
	"strconv"

	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

// CheckPredicate evaluates a check constraint against a tuple.
type CheckPredicate func(t *tuple.Tuple) (bool, error)

type CheckConstraint struct {
	Name      string
	FieldNo   int
	FuncID    uint32
	Predicate CheckPredicate
}

type ForeignKey struct {
	Name    string
	FieldNo int
	Def     *ForeignKeyDef
}

// Links returns the (child field, parent field) pairs of the key.
func (fk *ForeignKey) Links() []FieldLink {
	if fk.FieldNo >= 0 {
		return []FieldLink{{Local: uint32(fk.FieldNo), Foreign: fk.Def.Field}}
	}
	return fk.Def.Links
}

// Space is the cached form of a _space row together with its indexes and
// its storage. Altering a space creates a new Space that shares Table
// with the old one.
type Space struct {
	Def     *SpaceDef
	Indexes []*IndexDef
	Table   *access.Table

	SequenceID          uint32
	HasSequence         bool
	SequenceFieldNo     uint32
	SequenceIsGenerated bool

	Checks      []*CheckConstraint
	ForeignKeys []*ForeignKey

	IsPlaceholder bool
}

func NewSpace(def *SpaceDef, table *access.Table) *Space {
	return &Space{Def: def, Table: table, Indexes: make([]*IndexDef, 0)}
}

func (s *Space) ID() uint32   { return s.Def.ID }
func (s *Space) Name() string { return s.Def.Name }

// Copy returns a Space that can be modified without touching s. The
// storage is shared.
func (s *Space) Copy() *Space {
	ret := *s
	ret.Indexes = make([]*IndexDef, len(s.Indexes))
	copy(ret.Indexes, s.Indexes)
	ret.Checks = make([]*CheckConstraint, len(s.Checks))
	copy(ret.Checks, s.Checks)
	ret.ForeignKeys = make([]*ForeignKey, len(s.ForeignKeys))
	copy(ret.ForeignKeys, s.ForeignKeys)
	return &ret
}

func (s *Space) Index(iid uint32) *IndexDef {
	for _, def := range s.Indexes {
		if def.IID == iid {
			return def
		}
	}
	return nil
}

func (s *Space) IndexByName(name string) *IndexDef {
	for _, def := range s.Indexes {
		if def.Name == name {
			return def
		}
	}
	return nil
}

func (s *Space) PrimaryIndex() *IndexDef {
	return s.Index(0)
}

// SetIndex inserts or replaces an index definition, keeping id order.
func (s *Space) SetIndex(def *IndexDef) {
	for i, cur := range s.Indexes {
		if cur.IID == def.IID {
			s.Indexes[i] = def
			return
		}
		if cur.IID > def.IID {
			s.Indexes = append(s.Indexes, nil)
			copy(s.Indexes[i+1:], s.Indexes[i:])
			s.Indexes[i] = def
			return
		}
	}
	s.Indexes = append(s.Indexes, def)
}

func (s *Space) RemoveIndex(iid uint32) {
	for i, cur := range s.Indexes {
		if cur.IID == iid {
			s.Indexes = append(s.Indexes[:i], s.Indexes[i+1:]...)
			return
		}
	}
}

// ValidateTuple checks a tuple against the space format.
func (s *Space) ValidateTuple(t *tuple.Tuple) error {
	def := s.Def
	if def.FieldCount > 0 && uint32(t.FieldCount()) != def.FieldCount {
		return common.NewClientError(common.ER_EXACT_FIELD_COUNT, t.FieldCount(), def.FieldCount)
	}
	for i := range def.Fields {
		f := &def.Fields[i]
		fieldno := uint32(i)
		if int(fieldno) >= t.FieldCount() {
			if !f.IsNullable {
				return common.NewClientError(common.ER_FIELD_MISSING, fieldDesc(fieldno, f.Name))
			}
			continue
		}
		v, err := t.GetValue(fieldno)
		if err != nil {
			if f.Type == types.Any {
				continue
			}
			return common.NewClientError(common.ER_FIELD_TYPE, fieldDesc(fieldno, f.Name), f.Type.String(), "map or array")
		}
		if v.IsNull() {
			if !f.IsNullable {
				return common.NewClientError(common.ER_FIELD_NULL, def.Name, f.Name)
			}
			continue
		}
		if !v.FitsType(f.Type) {
			return common.NewClientError(common.ER_FIELD_TYPE, fieldDesc(fieldno, f.Name), f.Type.String(), v.ValueType().String())
		}
	}
	return nil
}

// RunChecks evaluates the check constraints of the space.
func (s *Space) RunChecks(t *tuple.Tuple) error {
	for _, ck := range s.Checks {
		if ck.Predicate == nil {
			continue
		}
		ok, err := ck.Predicate(t)
		if err != nil {
			return err
		}
		if !ok {
			target := "tuple"
			if ck.FieldNo >= 0 {
				target = "field " + fieldDesc(uint32(ck.FieldNo), s.Def.FieldName(uint32(ck.FieldNo)))
			}
			return common.NewClientError(common.ER_CK_CONSTRAINT_FAILED, ck.Name, target)
		}
	}
	return nil
}

func fieldDesc(fieldno uint32, name string) string {
	num := strconv.FormatUint(uint64(fieldno)+1, 10)
	if name == "" {
		return num
	}
	return num + " (" + name + ")"
}
