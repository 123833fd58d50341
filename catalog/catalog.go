package catalog

import (
	"github.com/ryogrid/SamehadaDict/catalog/catalog_interface"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const alterBatchKey = "catalog.alter_batch"

/**
 * alterBatch collects the cache changes made by one transaction. Every
 * entry is staged together with a rollback hook that puts the previous
 * entry back, so a failed statement only discards its own changes. The
 * batch is applied to the cache when the transaction commits.
 * A nil value stands for a dropped object.
 */
type alterBatch struct {
	spaces     map[uint32]*schema.Space
	sequences  map[uint32]*schema.Sequence
	users      map[uint32]*schema.User
	funcs      map[uint32]*schema.Func
	collations map[uint32]*schema.CollationEntry
}

func newAlterBatch() *alterBatch {
	return &alterBatch{
		spaces:     make(map[uint32]*schema.Space),
		sequences:  make(map[uint32]*schema.Sequence),
		users:      make(map[uint32]*schema.User),
		funcs:      make(map[uint32]*schema.Func),
		collations: make(map[uint32]*schema.CollationEntry),
	}
}

func (b *alterBatch) isEmpty() bool {
	return len(b.spaces) == 0 && len(b.sequences) == 0 && len(b.users) == 0 &&
		len(b.funcs) == 0 && len(b.collations) == 0
}

func stage[V any](txn *access.Transaction, m map[uint32]V, id uint32, v V) {
	prev, had := m[id]
	m[id] = v
	txn.OnRollback(func() {
		if had {
			m[id] = prev
		} else {
			delete(m, id)
		}
	})
}

func sortedIDs[V any](m map[uint32]V) []uint32 {
	ids := maps.Keys(m)
	slices.Sort(ids)
	return ids
}

// Catalog owns the system spaces: their triggers keep the schema cache
// in sync with the rows, and the box helpers write the rows.
type Catalog struct {
	cache         *schema.Cache
	txn_mgr       *access.TransactionManager
	checkCompiler catalog_interface.CheckCompiler
}

func NewCatalog(cache *schema.Cache, txn_mgr *access.TransactionManager) *Catalog {
	return &Catalog{cache: cache, txn_mgr: txn_mgr}
}

func (c *Catalog) Cache() *schema.Cache { return c.cache }

func (c *Catalog) TxnManager() *access.TransactionManager { return c.txn_mgr }

func (c *Catalog) SetCheckCompiler(cc catalog_interface.CheckCompiler) {
	c.checkCompiler = cc
}

// batch returns the alter batch of txn, creating it when create is set.
func (c *Catalog) batch(txn *access.Transaction, create bool) *alterBatch {
	if txn == nil {
		return nil
	}
	if b, ok := txn.Attachment(alterBatchKey).(*alterBatch); ok {
		return b
	}
	if !create {
		return nil
	}
	b := newAlterBatch()
	txn.Attach(alterBatchKey, b)
	txn.OnRollback(func() { txn.Detach(alterBatchKey) })
	txn.OnCommit(func() { c.applyBatch(b) })
	return b
}

func (c *Catalog) applyBatch(b *alterBatch) {
	if b.isEmpty() {
		return
	}
	for _, id := range sortedIDs(b.collations) {
		c.cache.ReplaceCollation(id, b.collations[id])
	}
	for _, id := range sortedIDs(b.users) {
		c.cache.ReplaceUser(id, b.users[id])
	}
	for _, id := range sortedIDs(b.funcs) {
		c.cache.ReplaceFunc(id, b.funcs[id])
	}
	for _, id := range sortedIDs(b.sequences) {
		seq := b.sequences[id]
		cur := c.cache.SequenceByID(id)
		switch {
		case seq == nil:
			c.cache.SequenceDelete(id)
		case cur == nil:
			c.cache.SequenceInsert(seq)
		case cur != seq:
			cur.Def = seq.Def
		}
	}
	for _, id := range sortedIDs(b.spaces) {
		sp := b.spaces[id]
		old := c.cache.SpaceByID(id)
		if old == nil && sp == nil {
			continue
		}
		if sp != nil && sp.Table.Name() != sp.Name() {
			sp.Table.SetName(sp.Name())
		}
		if sp == nil {
			old.Table.ClearOnReplace()
		}
		c.cache.Replace(old, sp)
	}
	c.cache.BumpVersion()
}

// SpaceByID sees the uncommitted catalog changes of txn. txn may be nil.
func (c *Catalog) SpaceByID(txn *access.Transaction, id uint32) *schema.Space {
	if b := c.batch(txn, false); b != nil {
		if sp, ok := b.spaces[id]; ok {
			return sp
		}
	}
	return c.cache.SpaceByID(id)
}

func (c *Catalog) SpaceByName(txn *access.Transaction, name string) *schema.Space {
	b := c.batch(txn, false)
	if b != nil {
		for _, sp := range b.spaces {
			if sp != nil && sp.Name() == name {
				return sp
			}
		}
	}
	sp := c.cache.SpaceByName(name)
	if sp != nil && b != nil {
		if _, changed := b.spaces[sp.ID()]; changed {
			return nil
		}
	}
	return sp
}

// visibleSpaces lists the spaces txn sees in id order.
func (c *Catalog) visibleSpaces(txn *access.Transaction) []*schema.Space {
	ids := c.cache.SpaceIDs()
	if b := c.batch(txn, false); b != nil {
		for id := range b.spaces {
			if c.cache.SpaceByID(id) == nil {
				ids = append(ids, id)
			}
		}
		slices.Sort(ids)
	}
	ret := make([]*schema.Space, 0, len(ids))
	for _, id := range ids {
		if sp := c.SpaceByID(txn, id); sp != nil {
			ret = append(ret, sp)
		}
	}
	return ret
}

func (c *Catalog) sequenceByID(txn *access.Transaction, id uint32) *schema.Sequence {
	if b := c.batch(txn, false); b != nil {
		if seq, ok := b.sequences[id]; ok {
			return seq
		}
	}
	return c.cache.SequenceByID(id)
}

func (c *Catalog) userByID(txn *access.Transaction, id uint32) *schema.User {
	if b := c.batch(txn, false); b != nil {
		if u, ok := b.users[id]; ok {
			return u
		}
	}
	return c.cache.UserByID(id)
}

func (c *Catalog) userByName(txn *access.Transaction, name string) *schema.User {
	b := c.batch(txn, false)
	if b != nil {
		for _, u := range b.users {
			if u != nil && u.Name == name {
				return u
			}
		}
	}
	u := c.cache.UserByName(name)
	if u != nil && b != nil {
		if _, changed := b.users[u.ID]; changed {
			return nil
		}
	}
	return u
}

func (c *Catalog) funcByID(txn *access.Transaction, id uint32) *schema.Func {
	if b := c.batch(txn, false); b != nil {
		if f, ok := b.funcs[id]; ok {
			return f
		}
	}
	return c.cache.FuncByID(id)
}

func (c *Catalog) funcByName(txn *access.Transaction, name string) *schema.Func {
	b := c.batch(txn, false)
	if b != nil {
		for _, f := range b.funcs {
			if f != nil && f.Name == name {
				return f
			}
		}
	}
	f := c.cache.FuncByName(name)
	if f != nil && b != nil {
		if _, changed := b.funcs[f.ID]; changed {
			return nil
		}
	}
	return f
}

func (c *Catalog) collationByID(txn *access.Transaction, id uint32) *schema.CollationEntry {
	if b := c.batch(txn, false); b != nil {
		if e, ok := b.collations[id]; ok {
			return e
		}
	}
	return c.cache.CollationByID(id)
}

// CollationByName resolves a collation name, COLLATE clauses use it.
func (c *Catalog) CollationByName(name string) *schema.CollationEntry {
	return c.cache.CollationByName(name)
}

// checkAccess reports ER_ACCESS_DENIED when uid lacks need on the object.
func (c *Catalog) checkAccess(uid uint32, objType string, objID uint32, objName string, need schema.Priv) error {
	if c.cache.CheckAccess(uid, objType, objID, need) {
		return nil
	}
	userName := "?"
	if u := c.cache.UserByID(uid); u != nil {
		userName = u.Name
	}
	return common.NewClientError(common.ER_ACCESS_DENIED, schema.PrivName(need), objType, objName, userName)
}

// CheckSpaceAccess is the access check of DML on a space.
func (c *Catalog) CheckSpaceAccess(uid uint32, sp *schema.Space, need schema.Priv) error {
	return c.checkAccess(uid, schema.ObjectSpace, sp.ID(), sp.Name(), need)
}

// InstallTriggers hooks the catalog into the system spaces of the cache.
// It must run right after the placeholders are created.
func (c *Catalog) InstallTriggers() {
	triggers := map[uint32]access.ReplaceTrigger{
		schema.SpaceID:         c.onReplaceSpace,
		schema.IndexID:         c.onReplaceIndex,
		schema.TruncateID:      c.onReplaceTruncate,
		schema.SequenceID:      c.onReplaceSequence,
		schema.SequenceDataID:  c.onReplaceSequenceData,
		schema.SpaceSequenceID: c.onReplaceSpaceSequence,
		schema.UserID:          c.onReplaceUser,
		schema.PrivID:          c.onReplacePriv,
		schema.FuncID:          c.onReplaceFunc,
		schema.CollationID:     c.onReplaceCollation,
	}
	for id, trigger := range triggers {
		sp := c.cache.SpaceByID(id)
		common.SH_Assert(sp != nil, "system space is not initialized")
		sp.Table.AddOnReplace(trigger)
	}
}
