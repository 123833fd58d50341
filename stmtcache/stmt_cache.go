package stmtcache

import (
	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/execution/prepared"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Compiler builds a fresh statement from its text against the current
// schema.
type Compiler func(sql string) (*prepared.Statement, error)

// ErrIDTaken means the fingerprint of a text is the id of another cached
// text.
var ErrIDTaken = errors.New("statement id is taken by a different statement")

type entry struct {
	stmt *prepared.Statement
	// number of sessions holding the id
	refs int
}

type Stats struct {
	Entries    int
	Size       int
	Limit      int
	Hits       uint64
	Misses     uint64
	Recompiles uint64
	OneShots   uint64
}

/**
 * StmtCache holds the compiled statements shared by all sessions of an
 * engine instance, at most one per id. Entries are owned by the cache;
 * sessions claim them with Ref and release them with Unref, and an
 * entry is destroyed when its last claim is released.
 */
type StmtCache struct {
	entries map[StmtID]*entry
	size    int
	limit   int
	stats   Stats
}

// NewStmtCache makes a cache holding at most limit bytes of statements.
func NewStmtCache(limit int) *StmtCache {
	return &StmtCache{entries: make(map[StmtID]*entry), limit: limit}
}

func (c *StmtCache) Find(id StmtID) *prepared.Statement {
	e, ok := c.entries[id]
	if !ok {
		return nil
	}
	return e.stmt
}

func (c *StmtCache) checkLimit(grow int) error {
	if c.size+grow > c.limit {
		return common.NewClientError(common.ER_SQL_PREPARE,
			"Memory limit for SQL prepared statements has been reached. Please, deallocate active statements or increase SQL cache size.")
	}
	return nil
}

// Insert adds a statement under a new id. The id must not be cached.
func (c *StmtCache) Insert(id StmtID, stmt *prepared.Statement) error {
	if _, ok := c.entries[id]; ok {
		return common.NewClientError(common.ER_SQL_PREPARE, "statement is already in the statement cache")
	}
	if err := c.checkLimit(stmt.Size()); err != nil {
		return err
	}
	c.entries[id] = &entry{stmt: stmt}
	c.size += stmt.Size()
	return nil
}

// Update swaps the compiled form of a cached statement. The claims on
// the id are kept. The current form must not be busy.
func (c *StmtCache) Update(id StmtID, stmt *prepared.Statement) error {
	e, ok := c.entries[id]
	if !ok {
		return common.NewClientError(common.ER_NO_SUCH_STATEMENT, id)
	}
	common.SH_Assert(!e.stmt.IsBusy(), "update of a busy statement")
	if err := c.checkLimit(stmt.Size() - e.stmt.Size()); err != nil {
		return err
	}
	c.size += stmt.Size() - e.stmt.Size()
	e.stmt = stmt
	return nil
}

func (c *StmtCache) Ref(id StmtID) error {
	e, ok := c.entries[id]
	if !ok {
		return common.NewClientError(common.ER_NO_SUCH_STATEMENT, id)
	}
	e.refs++
	return nil
}

// Unref releases one claim on id and destroys the entry with the last.
func (c *StmtCache) Unref(id StmtID) error {
	e, ok := c.entries[id]
	if !ok {
		return common.NewClientError(common.ER_NO_SUCH_STATEMENT, id)
	}
	common.SH_Assert(e.refs > 0, "unref of an unclaimed statement")
	e.refs--
	if e.refs == 0 {
		c.size -= e.stmt.Size()
		delete(c.entries, id)
		common.ShPrintf(common.DEBUG_INFO, "statement %d evicted", id)
	}
	return nil
}

// Refs is the number of claims on id.
func (c *StmtCache) Refs(id StmtID) int {
	if e, ok := c.entries[id]; ok {
		return e.refs
	}
	return 0
}

// IDs lists the cached ids in ascending order.
func (c *StmtCache) IDs() []StmtID {
	ids := maps.Keys(c.entries)
	slices.Sort(ids)
	return ids
}

func (c *StmtCache) Stats() Stats {
	ret := c.stats
	ret.Entries = len(c.entries)
	ret.Size = c.size
	ret.Limit = c.limit
	return ret
}

// Clear drops every entry. It is used when the engine shuts down.
func (c *StmtCache) Clear() {
	c.entries = make(map[StmtID]*entry)
	c.size = 0
}

/**
 * Prepare returns a statement for sql that is compiled against schema
 * version. cached is false when the statement is a private one-shot
 * compilation that must not be registered:
 *   - cached and current: the cached statement
 *   - cached, stale, not busy: recompiled in place under the same id
 *   - cached, stale, busy: a private compilation, the entry is untouched
 *   - absent: compiled and inserted
 * The id of a text is its fingerprint. When the id is cached for a
 * different text Prepare fails with ErrIDTaken.
 */
func (c *StmtCache) Prepare(sql string, version uint32, compile Compiler) (id StmtID, stmt *prepared.Statement, cached bool, err error) {
	id = Fingerprint(sql)
	if e, ok := c.entries[id]; ok {
		if normalize(e.stmt.SQL()) != normalize(sql) {
			return id, nil, false, errors.Annotatef(ErrIDTaken, "statement %d", id)
		}
		if !e.stmt.IsExpired(version) {
			c.stats.Hits++
			return id, e.stmt, true, nil
		}
		if e.stmt.IsBusy() {
			c.stats.OneShots++
			common.ShPrintf(common.DEBUG_INFO, "statement %d is stale and busy, compiling a private copy", id)
			stmt, err = compile(e.stmt.SQL())
			return id, stmt, false, err
		}
		if stmt, err = compile(e.stmt.SQL()); err != nil {
			return id, nil, false, err
		}
		if err = c.Update(id, stmt); err != nil {
			return id, nil, false, err
		}
		c.stats.Recompiles++
		common.ShPrintf(common.DEBUG_INFO, "statement %d recompiled for schema version %d", id, version)
		return id, stmt, true, nil
	}
	c.stats.Misses++
	if stmt, err = compile(sql); err != nil {
		return id, nil, false, err
	}
	if err = c.Insert(id, stmt); err != nil {
		return id, nil, false, err
	}
	return id, stmt, true, nil
}
