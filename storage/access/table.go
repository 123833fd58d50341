package access

import (
	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/storage/index"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
)

type DupReplaceMode int

const (
	// fail when the primary key is taken
	DUP_INSERT DupReplaceMode = iota
	// fail when the primary key is free
	DUP_REPLACE
	// insert or overwrite
	DUP_REPLACE_OR_INSERT
)

// ReplaceTrigger runs before a change is applied. Returning an error
// cancels the change.
type ReplaceTrigger func(txn *Transaction, table *Table, oldTuple *tuple.Tuple, newTuple *tuple.Tuple) error

// Table holds the tuples of one space and keeps its indexes in sync.
type Table struct {
	id        uint32
	name      string
	indexes   []*index.TreeIndex
	onReplace []ReplaceTrigger
	// blackhole tables accept writes and keep nothing
	blackhole bool
}

func NewTable(id uint32, name string) *Table {
	return &Table{id: id, name: name, indexes: make([]*index.TreeIndex, 0)}
}

func NewBlackholeTable(id uint32, name string) *Table {
	t := NewTable(id, name)
	t.blackhole = true
	return t
}

func (t *Table) ID() uint32         { return t.id }
func (t *Table) Name() string       { return t.name }
func (t *Table) SetName(n string)   { t.name = n }
func (t *Table) IsBlackhole() bool  { return t.blackhole }
func (t *Table) IndexCount() int    { return len(t.indexes) }
func (t *Table) Indexes() []*index.TreeIndex {
	ret := make([]*index.TreeIndex, len(t.indexes))
	copy(ret, t.indexes)
	return ret
}

func (t *Table) AddOnReplace(trigger ReplaceTrigger) {
	t.onReplace = append(t.onReplace, trigger)
}

func (t *Table) ClearOnReplace() {
	t.onReplace = nil
}

func (t *Table) PrimaryIndex() *index.TreeIndex {
	if len(t.indexes) == 0 || t.indexes[0].ID() != 0 {
		return nil
	}
	return t.indexes[0]
}

func (t *Table) Index(id uint32) *index.TreeIndex {
	for _, idx := range t.indexes {
		if idx.ID() == id {
			return idx
		}
	}
	return nil
}

func (t *Table) Len() int {
	if pk := t.PrimaryIndex(); pk != nil {
		return pk.Len()
	}
	return 0
}

// AddIndex fills idx with the current content and installs it. A unique
// violation leaves the table unchanged.
func (t *Table) AddIndex(idx *index.TreeIndex) error {
	if t.Index(idx.ID()) != nil {
		return common.NewClientError(common.ER_INDEX_EXISTS, idx.Name(), t.name)
	}
	if pk := t.PrimaryIndex(); pk != nil {
		all, err := pk.Select(index.ITER_ALL, nil)
		if err != nil {
			return err
		}
		for _, tp := range all {
			if _, err := idx.Insert(tp, nil); err != nil {
				if err == index.ErrDuplicate {
					return common.NewClientError(common.ER_TUPLE_FOUND, idx.Name(), t.name)
				}
				return err
			}
		}
	}
	t.AttachIndex(idx)
	return nil
}

// AttachIndex installs an already filled index, as when a dropped index
// is put back.
func (t *Table) AttachIndex(idx *index.TreeIndex) {
	pos := len(t.indexes)
	for i, cur := range t.indexes {
		if cur.ID() == idx.ID() {
			t.indexes[i] = idx
			return
		}
		if cur.ID() > idx.ID() {
			pos = i
			break
		}
	}
	t.indexes = append(t.indexes, nil)
	copy(t.indexes[pos+1:], t.indexes[pos:])
	t.indexes[pos] = idx
}

// DropIndex removes an index. Dropping the primary index drops the data.
func (t *Table) DropIndex(id uint32) {
	for i, cur := range t.indexes {
		if cur.ID() == id {
			t.indexes = append(t.indexes[:i], t.indexes[i+1:]...)
			return
		}
	}
}

func (t *Table) Truncate() {
	for _, idx := range t.indexes {
		idx.Truncate()
	}
}

// Snapshot returns every tuple in primary key order.
func (t *Table) Snapshot() []*tuple.Tuple {
	pk := t.PrimaryIndex()
	if pk == nil {
		return nil
	}
	all, _ := pk.Select(index.ITER_ALL, nil)
	return all
}

// Restore puts back tuples taken with Snapshot.
func (t *Table) Restore(tuples []*tuple.Tuple) {
	for _, tp := range tuples {
		for _, idx := range t.indexes {
			idx.Insert(tp, nil)
		}
	}
}

func (t *Table) Get(indexID uint32, key index.Key) (*tuple.Tuple, error) {
	idx := t.Index(indexID)
	if idx == nil {
		return nil, common.NewClientError(common.ER_NO_SUCH_INDEX, indexID, t.name)
	}
	return idx.Get(key)
}

func (t *Table) Select(indexID uint32, it index.IteratorType, key index.Key) ([]*tuple.Tuple, error) {
	idx := t.Index(indexID)
	if idx == nil {
		return nil, common.NewClientError(common.ER_NO_SUCH_INDEX, indexID, t.name)
	}
	return idx.Select(it, key)
}

func (t *Table) primaryOrError() (*index.TreeIndex, error) {
	pk := t.PrimaryIndex()
	if pk == nil {
		return nil, common.NewClientError(common.ER_NO_SUCH_INDEX, "0", t.name)
	}
	return pk, nil
}

func (t *Table) runTriggers(txn *Transaction, oldTuple, newTuple *tuple.Tuple) error {
	for _, trigger := range t.onReplace {
		if err := trigger(txn, t, oldTuple, newTuple); err != nil {
			return err
		}
	}
	return nil
}

// Replace stores newTuple under its primary key. It returns the tuple it
// overwrote, if any.
func (t *Table) Replace(txn *Transaction, newTuple *tuple.Tuple, mode DupReplaceMode) (*tuple.Tuple, error) {
	if t.blackhole {
		if err := t.runTriggers(txn, nil, newTuple); err != nil {
			return nil, err
		}
		txn.addWriteRecord(&WriteRecord{wtype: INSERT, table: t, newTuple: newTuple})
		return nil, nil
	}
	pk, err := t.primaryOrError()
	if err != nil {
		return nil, err
	}
	key, err := pk.KeyDef().ExtractKey(newTuple)
	if err != nil {
		return nil, err
	}
	if err := pk.KeyDef().ValidateKey(key); err != nil {
		return nil, errors.Annotatef(err, "space '%s'", t.name)
	}
	oldTuple, err := pk.Get(key)
	if err != nil {
		return nil, err
	}
	switch {
	case mode == DUP_INSERT && oldTuple != nil:
		return nil, common.NewClientError(common.ER_TUPLE_FOUND, pk.Name(), t.name)
	case mode == DUP_REPLACE && oldTuple == nil:
		return nil, common.NewClientError(common.ER_TUPLE_NOT_FOUND, pk.Name(), t.name)
	}
	if err := t.runTriggers(txn, oldTuple, newTuple); err != nil {
		return nil, err
	}
	if err := t.apply(oldTuple, newTuple); err != nil {
		return nil, err
	}
	wtype := INSERT
	if oldTuple != nil {
		wtype = UPDATE
	}
	txn.addWriteRecord(&WriteRecord{wtype: wtype, table: t, oldTuple: oldTuple, newTuple: newTuple})
	return oldTuple, nil
}

// Delete removes the tuple with the given primary key. Deleting a missing
// key is not an error and returns nil.
func (t *Table) Delete(txn *Transaction, key index.Key) (*tuple.Tuple, error) {
	pk, err := t.primaryOrError()
	if err != nil {
		return nil, err
	}
	oldTuple, err := pk.Get(key)
	if err != nil || oldTuple == nil {
		return nil, err
	}
	if err := t.runTriggers(txn, oldTuple, nil); err != nil {
		return nil, err
	}
	if err := t.apply(oldTuple, nil); err != nil {
		return nil, err
	}
	txn.addWriteRecord(&WriteRecord{wtype: DELETE, table: t, oldTuple: oldTuple})
	return oldTuple, nil
}

// apply swaps oldTuple for newTuple in every index. On a unique conflict
// in a secondary index the indexes are restored.
func (t *Table) apply(oldTuple, newTuple *tuple.Tuple) error {
	done := make([]*index.TreeIndex, 0, len(t.indexes))
	for _, idx := range t.indexes {
		if oldTuple != nil {
			if err := idx.Delete(oldTuple); err != nil {
				t.restore(done, oldTuple, newTuple)
				return err
			}
		}
		if newTuple != nil {
			if _, err := idx.Insert(newTuple, oldTuple); err != nil {
				if oldTuple != nil {
					idx.Insert(oldTuple, nil)
				}
				t.restore(done, oldTuple, newTuple)
				if err == index.ErrDuplicate {
					return common.NewClientError(common.ER_TUPLE_FOUND, idx.Name(), t.name)
				}
				return err
			}
		}
		done = append(done, idx)
	}
	return nil
}

func (t *Table) restore(done []*index.TreeIndex, oldTuple, newTuple *tuple.Tuple) {
	for _, idx := range done {
		if newTuple != nil {
			idx.Delete(newTuple)
		}
		if oldTuple != nil {
			idx.Insert(oldTuple, nil)
		}
	}
}

func (t *Table) undo(wr *WriteRecord) {
	if t.blackhole {
		return
	}
	for _, idx := range t.indexes {
		if wr.newTuple != nil {
			idx.Delete(wr.newTuple)
		}
		if wr.oldTuple != nil {
			idx.Insert(wr.oldTuple, nil)
		}
	}
}
