package index

import (
	"fmt"

	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

type SortOrder int

const (
	SortAsc SortOrder = iota
	SortDesc
)

func (o SortOrder) String() string {
	if o == SortDesc {
		return "desc"
	}
	return "asc"
}

// KeyPart describes one component of an index key.
type KeyPart struct {
	FieldNo    uint32
	Type       types.TypeID
	Collation  Collation
	SortOrder  SortOrder
	IsNullable bool
}

// Key is a key extracted from a tuple or supplied by a lookup. Lookup keys
// may be shorter than the key definition (partial keys).
type Key []types.Value

func (k Key) String() string {
	return fmt.Sprint([]types.Value(k))
}

func (k Key) HasNull() bool {
	for _, v := range k {
		if v.IsNull() {
			return true
		}
	}
	return false
}

type KeyDef struct {
	Parts []KeyPart
}

func NewKeyDef(parts []KeyPart) *KeyDef {
	copied := make([]KeyPart, len(parts))
	copy(copied, parts)
	return &KeyDef{Parts: copied}
}

func (kd *KeyDef) PartCount() int {
	return len(kd.Parts)
}

// Contains reports whether fieldno is one of the key parts.
func (kd *KeyDef) Contains(fieldno uint32) bool {
	for _, p := range kd.Parts {
		if p.FieldNo == fieldno {
			return true
		}
	}
	return false
}

// Merge returns kd extended with the parts of other it does not have yet.
// Secondary keys merged with the primary key identify a tuple uniquely.
func (kd *KeyDef) Merge(other *KeyDef) *KeyDef {
	parts := make([]KeyPart, 0, len(kd.Parts)+len(other.Parts))
	parts = append(parts, kd.Parts...)
	for _, p := range other.Parts {
		if !kd.Contains(p.FieldNo) {
			parts = append(parts, p)
		}
	}
	return &KeyDef{Parts: parts}
}

func (kd *KeyDef) ExtractKey(t *tuple.Tuple) (Key, error) {
	key := make(Key, len(kd.Parts))
	for i, p := range kd.Parts {
		v, err := t.GetValue(p.FieldNo)
		if err != nil {
			return nil, err
		}
		key[i] = v
	}
	return key, nil
}

// ValidateKey checks a lookup key against the definition.
func (kd *KeyDef) ValidateKey(key Key) error {
	if len(key) > len(kd.Parts) {
		return fmt.Errorf("invalid key part count (expected [0..%d], got %d)", len(kd.Parts), len(key))
	}
	for i, v := range key {
		if v.IsNull() {
			continue
		}
		if !v.FitsType(kd.Parts[i].Type) {
			return fmt.Errorf("supplied key type of part %d does not match index part type: expected %s", i, kd.Parts[i].Type)
		}
	}
	return nil
}

func (kd *KeyDef) comparePart(i int, a, b types.Value) int {
	p := &kd.Parts[i]
	var r int
	if p.Collation != nil && a.ValueType() == types.String && b.ValueType() == types.String {
		r = p.Collation.Compare(a.ToString(), b.ToString())
	} else {
		r = a.CompareTo(b)
	}
	if p.SortOrder == SortDesc {
		r = -r
	}
	return r
}

// ComparePrefix compares the first min(len(a), len(b)) parts.
func (kd *KeyDef) ComparePrefix(a, b Key) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n > len(kd.Parts) {
		n = len(kd.Parts)
	}
	for i := 0; i < n; i++ {
		if r := kd.comparePart(i, a[i], b[i]); r != 0 {
			return r
		}
	}
	return 0
}

// Compare orders two keys; when one is a prefix of the other the shorter
// key goes first.
func (kd *KeyDef) Compare(a, b Key) int {
	if r := kd.ComparePrefix(a, b); r != 0 {
		return r
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
