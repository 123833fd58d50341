package schema

import (
	pair "github.com/notEpsilon/go-pair"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/storage/index"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// IndexKey identifies an index by (space id, index id).
type IndexKey = pair.Pair[uint32, uint32]

func NewIndexKey(spaceID uint32, iid uint32) IndexKey {
	return IndexKey{First: spaceID, Second: iid}
}

/**
 * Cache is the in-memory projection of the system spaces. It has a
 * single writer: the commit hooks of catalog-altering transactions.
 * Readers (the SQL compiler, the executors, the box API) run under the
 * engine latch, so no locking is done here.
 */
type Cache struct {
	spaces     map[uint32]*Space
	spaceNames map[string]*Space
	sequences  map[uint32]*Sequence
	users      map[uint32]*User
	userNames  map[string]*User
	funcs      map[uint32]*Func
	funcNames  map[string]*Func
	collations map[uint32]*CollationEntry
	collNames  map[string]*CollationEntry
	version    uint32
}

func NewCache() *Cache {
	c := new(Cache)
	c.reset()
	return c
}

func (c *Cache) reset() {
	c.spaces = make(map[uint32]*Space)
	c.spaceNames = make(map[string]*Space)
	c.sequences = make(map[uint32]*Sequence)
	c.users = make(map[uint32]*User)
	c.userNames = make(map[string]*User)
	c.funcs = make(map[uint32]*Func)
	c.funcNames = make(map[string]*Func)
	c.collations = make(map[uint32]*CollationEntry)
	c.collNames = make(map[string]*CollationEntry)
}

// Version returns the schema version. It grows by one per committed
// catalog-altering transaction.
func (c *Cache) Version() uint32 {
	return c.version
}

func (c *Cache) BumpVersion() {
	c.version++
	common.ShPrintf(common.DEBUG_INFO, "schema version bumped to %d", c.version)
}

func (c *Cache) SpaceByID(id uint32) *Space {
	return c.spaces[id]
}

func (c *Cache) SpaceByName(name string) *Space {
	return c.spaceNames[name]
}

// SpaceCacheFind is SpaceByID reporting a missing space as an error.
func (c *Cache) SpaceCacheFind(id uint32) (*Space, error) {
	if sp := c.spaces[id]; sp != nil {
		return sp, nil
	}
	return nil, common.NewClientError(common.ER_NO_SUCH_SPACE, id)
}

// SpaceIDs lists cached space ids in ascending order.
func (c *Cache) SpaceIDs() []uint32 {
	ids := maps.Keys(c.spaces)
	slices.Sort(ids)
	return ids
}

// Replace swaps the cached object of a space. old is nil for a new
// space, newSpace is nil for a dropped one. The old object stays valid
// for whoever still holds it.
func (c *Cache) Replace(old *Space, newSpace *Space) {
	if old != nil {
		common.SH_Assert(c.spaces[old.ID()] == old, "replacing a space that is not cached")
		delete(c.spaces, old.ID())
		if c.spaceNames[old.Name()] == old {
			delete(c.spaceNames, old.Name())
		}
	}
	if newSpace != nil {
		c.spaces[newSpace.ID()] = newSpace
		c.spaceNames[newSpace.Name()] = newSpace
	}
}

func (c *Cache) SequenceByID(id uint32) *Sequence {
	return c.sequences[id]
}

func (c *Cache) SequenceCacheFind(id uint32) (*Sequence, error) {
	if seq := c.sequences[id]; seq != nil {
		return seq, nil
	}
	return nil, common.NewClientError(common.ER_NO_SUCH_SEQUENCE, id)
}

func (c *Cache) SequenceInsert(seq *Sequence) {
	_, ok := c.sequences[seq.Def.ID]
	common.SH_Assert(!ok, "sequence is already cached")
	c.sequences[seq.Def.ID] = seq
}

func (c *Cache) SequenceDelete(id uint32) {
	delete(c.sequences, id)
}

func (c *Cache) UserByID(id uint32) *User {
	return c.users[id]
}

func (c *Cache) UserByName(name string) *User {
	return c.userNames[name]
}

// ReplaceUser installs, updates (same id) or removes (u == nil) a user.
func (c *Cache) ReplaceUser(id uint32, u *User) {
	if old := c.users[id]; old != nil {
		delete(c.userNames, old.Name)
		delete(c.users, id)
	}
	if u != nil {
		c.users[id] = u
		c.userNames[u.Name] = u
	}
}

func (c *Cache) FuncByID(id uint32) *Func {
	return c.funcs[id]
}

func (c *Cache) FuncByName(name string) *Func {
	return c.funcNames[name]
}

func (c *Cache) ReplaceFunc(id uint32, f *Func) {
	if old := c.funcs[id]; old != nil {
		delete(c.funcNames, old.Name)
		delete(c.funcs, id)
	}
	if f != nil {
		c.funcs[id] = f
		c.funcNames[f.Name] = f
	}
}

func (c *Cache) CollationByID(id uint32) *CollationEntry {
	return c.collations[id]
}

func (c *Cache) CollationByName(name string) *CollationEntry {
	return c.collNames[name]
}

func (c *Cache) ReplaceCollation(id uint32, e *CollationEntry) {
	if old := c.collations[id]; old != nil {
		delete(c.collNames, old.Name)
		delete(c.collations, id)
	}
	if e != nil {
		c.collations[id] = e
		c.collNames[e.Name] = e
	}
}

// CheckAccess reports whether user uid holds need on the object, either
// directly, on the whole object class, on the universe or through a role.
func (c *Cache) CheckAccess(uid uint32, objType string, objID uint32, need Priv) bool {
	if uid == common.AdminID {
		return true
	}
	if objType == ObjectSpace {
		if sp := c.spaces[objID]; sp != nil && sp.Def.UID == uid {
			return true
		}
	}
	var have Priv
	visited := make(map[uint32]bool)
	var collect func(id uint32)
	collect = func(id uint32) {
		if visited[id] {
			return
		}
		visited[id] = true
		u := c.users[id]
		if u == nil {
			return
		}
		have |= u.Grants[PrivObject{ObjectUniverse, 0}]
		have |= u.Grants[PrivObject{objType, 0}]
		have |= u.Grants[PrivObject{objType, objID}]
		for obj, p := range u.Grants {
			if obj.Type == ObjectRole && p&PRIV_X != 0 {
				collect(obj.ID)
			}
		}
	}
	collect(uid)
	collect(common.PublicID)
	return have&need == need
}

// BuildKeyDef turns index parts into a comparator definition.
func (c *Cache) BuildKeyDef(parts []PartDef) (*index.KeyDef, error) {
	kparts := make([]index.KeyPart, len(parts))
	for i, p := range parts {
		kparts[i] = index.KeyPart{FieldNo: p.FieldNo, Type: p.Type, SortOrder: p.SortOrder, IsNullable: p.IsNullable}
		if p.Collation != common.BoxIDNil && p.Collation != CollationNoneID {
			coll := c.collations[p.Collation]
			if coll == nil {
				return nil, common.NewClientError(common.ER_NO_SUCH_COLLATION, p.Collation)
			}
			kparts[i].Collation = coll.Coll
		}
	}
	return index.NewKeyDef(kparts), nil
}

// BuildIndex creates the empty storage index of def. pk is nil when def
// is the primary index.
func (c *Cache) BuildIndex(def *IndexDef, pk *index.TreeIndex) (*index.TreeIndex, error) {
	kd, err := c.BuildKeyDef(def.Parts)
	if err != nil {
		return nil, err
	}
	if pk == nil {
		return index.NewTreeIndex(def.IID, def.Name, kd, true, nil), nil
	}
	return index.NewTreeIndex(def.IID, def.Name, kd, def.Unique, pk.KeyDef()), nil
}

// Teardown drops every cached object.
func (c *Cache) Teardown() {
	c.reset()
	c.version = 0
}
