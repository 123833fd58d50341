package index

import (
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
)

type IteratorType int

const (
	ITER_EQ IteratorType = iota
	ITER_REQ
	ITER_ALL
	ITER_LT
	ITER_LE
	ITER_GE
	ITER_GT
)

// ErrDuplicate is returned by Insert when a unique key is taken. The
// storage layer turns it into ER_TUPLE_FOUND with index and space names.
var ErrDuplicate = errors.New("duplicate key")

// searchKey is a partial key positioned right before (bias -1) or right
// after (bias +1) every stored key sharing its prefix.
type searchKey struct {
	key  Key
	bias int
}

// TreeIndex is an ordered in-memory index. Every entry is stored under
// the index key extended with primary key parts, so entries are distinct
// even for non-unique indexes and for NULLs in unique ones.
type TreeIndex struct {
	id     uint32
	name   string
	unique bool
	keyDef *KeyDef
	cmpDef *KeyDef
	tree   *treemap.Map
}

// NewTreeIndex creates an empty index. pkDef is nil for the primary index.
func NewTreeIndex(id uint32, name string, keyDef *KeyDef, unique bool, pkDef *KeyDef) *TreeIndex {
	ret := new(TreeIndex)
	ret.id = id
	ret.name = name
	ret.unique = unique
	ret.keyDef = keyDef
	if pkDef != nil {
		ret.cmpDef = keyDef.Merge(pkDef)
	} else {
		ret.cmpDef = keyDef
	}
	ret.tree = treemap.NewWith(ret.compare)
	return ret
}

func (idx *TreeIndex) compare(a, b interface{}) int {
	switch x := a.(type) {
	case searchKey:
		return x.compareTo(idx.cmpDef, b.(Key))
	case Key:
		if y, ok := b.(searchKey); ok {
			return -y.compareTo(idx.cmpDef, x)
		}
		return idx.cmpDef.Compare(x, b.(Key))
	}
	panic("unexpected tree index key")
}

func (s searchKey) compareTo(def *KeyDef, stored Key) int {
	if r := def.ComparePrefix(s.key, stored); r != 0 {
		return r
	}
	if len(s.key) >= len(stored) && s.bias == 0 {
		return 0
	}
	return s.bias
}

func (idx *TreeIndex) ID() uint32       { return idx.id }
func (idx *TreeIndex) Name() string     { return idx.name }
func (idx *TreeIndex) IsUnique() bool   { return idx.unique }
func (idx *TreeIndex) KeyDef() *KeyDef  { return idx.keyDef }
func (idx *TreeIndex) Len() int         { return idx.tree.Size() }
func (idx *TreeIndex) SetName(n string) { idx.name = n }

func (idx *TreeIndex) storedKey(t *tuple.Tuple) (Key, error) {
	return idx.cmpDef.ExtractKey(t)
}

// FindDuplicate returns the tuple holding the unique key of t, if any.
// Keys with NULL parts never conflict.
func (idx *TreeIndex) FindDuplicate(t *tuple.Tuple) (*tuple.Tuple, error) {
	if !idx.unique {
		return nil, nil
	}
	key, err := idx.keyDef.ExtractKey(t)
	if err != nil {
		return nil, err
	}
	if key.HasNull() {
		return nil, nil
	}
	return idx.Get(key)
}

// Get returns the first tuple matching a full or partial key.
func (idx *TreeIndex) Get(key Key) (*tuple.Tuple, error) {
	if err := idx.keyDef.ValidateKey(key); err != nil {
		return nil, err
	}
	found, val := idx.tree.Ceiling(searchKey{key, -1})
	if found == nil {
		return nil, nil
	}
	if idx.cmpDef.ComparePrefix(key, found.(Key)) != 0 {
		return nil, nil
	}
	return val.(*tuple.Tuple), nil
}

// Insert adds t. A unique index reports ErrDuplicate together with the
// conflicting tuple, unless that tuple is except.
func (idx *TreeIndex) Insert(t *tuple.Tuple, except *tuple.Tuple) (*tuple.Tuple, error) {
	dup, err := idx.FindDuplicate(t)
	if err != nil {
		return nil, err
	}
	if dup != nil && dup != except {
		return dup, ErrDuplicate
	}
	key, err := idx.storedKey(t)
	if err != nil {
		return nil, err
	}
	idx.tree.Put(key, t)
	return nil, nil
}

func (idx *TreeIndex) Delete(t *tuple.Tuple) error {
	key, err := idx.storedKey(t)
	if err != nil {
		return err
	}
	idx.tree.Remove(key)
	return nil
}

func (idx *TreeIndex) Truncate() {
	idx.tree.Clear()
}

// Select materializes the tuples an iterator of type it over key would
// visit, in visiting order.
func (idx *TreeIndex) Select(it IteratorType, key Key) ([]*tuple.Tuple, error) {
	if err := idx.keyDef.ValidateKey(key); err != nil {
		return nil, err
	}
	if len(key) == 0 {
		switch it {
		case ITER_REQ, ITER_LT, ITER_LE:
			return idx.walkBackward(idx.tree.Max()), nil
		default:
			return idx.walkForward(idx.tree.Min()), nil
		}
	}
	ret := make([]*tuple.Tuple, 0)
	switch it {
	case ITER_ALL, ITER_GE:
		return idx.walkForward(idx.tree.Ceiling(searchKey{key, -1})), nil
	case ITER_GT:
		return idx.walkForward(idx.tree.Ceiling(searchKey{key, 1})), nil
	case ITER_LT:
		return idx.walkBackward(idx.tree.Floor(searchKey{key, -1})), nil
	case ITER_LE:
		return idx.walkBackward(idx.tree.Floor(searchKey{key, 1})), nil
	case ITER_EQ:
		k, v := idx.tree.Ceiling(searchKey{key, -1})
		for k != nil && idx.cmpDef.ComparePrefix(key, k.(Key)) == 0 {
			ret = append(ret, v.(*tuple.Tuple))
			k, v = idx.tree.Ceiling(searchKey{k.(Key), 1})
		}
	case ITER_REQ:
		k, v := idx.tree.Floor(searchKey{key, 1})
		for k != nil && idx.cmpDef.ComparePrefix(key, k.(Key)) == 0 {
			ret = append(ret, v.(*tuple.Tuple))
			k, v = idx.tree.Floor(searchKey{k.(Key), -1})
		}
	default:
		return nil, errors.Errorf("unsupported iterator type %d", it)
	}
	return ret, nil
}

func (idx *TreeIndex) walkForward(k interface{}, v interface{}) []*tuple.Tuple {
	ret := make([]*tuple.Tuple, 0)
	for k != nil {
		ret = append(ret, v.(*tuple.Tuple))
		k, v = idx.tree.Ceiling(searchKey{k.(Key), 1})
	}
	return ret
}

func (idx *TreeIndex) walkBackward(k interface{}, v interface{}) []*tuple.Tuple {
	ret := make([]*tuple.Tuple, 0)
	for k != nil {
		ret = append(ret, v.(*tuple.Tuple))
		k, v = idx.tree.Floor(searchKey{k.(Key), -1})
	}
	return ret
}
