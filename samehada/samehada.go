package samehada

import (
	"fmt"

	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/catalog"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/planner"
	"github.com/ryogrid/SamehadaDict/recovery"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/session"
	"github.com/ryogrid/SamehadaDict/stmtcache"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/types"
	"go.uber.org/zap"
)

/**
 * SamehadaDB is one engine instance: the data dictionary, the statement
 * cache shared by all sessions and the log they are recovered from.
 * Every exported method runs inside one acquisition of the engine latch,
 * except Cursor.Next which takes it once per row.
 */
type SamehadaDB struct {
	shi_        *SamehadaInstance
	catalog_    *catalog.Catalog
	stmt_cache_ *stmtcache.StmtCache
	// session of ExecuteSQL
	admin_ *session.Session
}

type options struct {
	store          recovery.LogStore
	replayObserver func(c *catalog.Catalog, txnID access.TxnID)
}

type Option func(*options)

// WithLogStore makes the instance log to store instead of the store
// described by the wal section of the config.
func WithLogStore(store recovery.LogStore) Option {
	return func(o *options) { o.store = store }
}

// WithReplayObserver calls fn before each transaction replayed from the
// log at startup.
func WithReplayObserver(fn func(c *catalog.Catalog, txnID access.TxnID)) Option {
	return func(o *options) { o.replayObserver = fn }
}

/**
 * NewSamehadaDB starts an engine instance. The schema cache is seeded
 * with the system space placeholders first; then either the log is
 * replayed through the catalog triggers or, when it is empty, the
 * dictionary is bootstrapped and the bootstrap itself is logged.
 */
func NewSamehadaDB(cfg *common.Config, opts ...Option) (*SamehadaDB, error) {
	if cfg == nil {
		cfg = common.DefaultConfig()
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	shi, err := NewSamehadaInstance(cfg, o.store)
	if err != nil {
		return nil, err
	}

	cache := schema.NewCache()
	if err := cache.InitSystemSpaces(); err != nil {
		shi.Shutdown()
		return nil, errors.Annotate(err, "system spaces")
	}
	c := catalog.NewCatalog(cache, shi.GetTransactionManager())
	c.InstallTriggers()
	c.SetCheckCompiler(planner.NewCheckCompiler())

	if shi.GetLogManager().IsEmpty() {
		err = bootstrap(c)
	} else {
		err = recoverFromLog(c, shi.GetLogManager(), o.replayObserver)
	}
	if err != nil {
		shi.Shutdown()
		return nil, err
	}

	admin := c.UserByName(nil, "admin")
	common.SH_Assert(admin != nil, "admin user is missing after startup")
	sdb := &SamehadaDB{
		shi_:        shi,
		catalog_:    c,
		stmt_cache_: stmtcache.NewStmtCache(cfg.SQL.CacheSize),
		admin_:      session.NewSession(admin),
	}
	common.Logger().Info("engine started",
		zap.Uint32("schema_version", cache.Version()),
		zap.String("wal", string(cfg.WAL.Mode)))
	return sdb, nil
}

func bootstrap(c *catalog.Catalog) error {
	common.Logger().Info("empty log, bootstrapping the data dictionary")
	txn := c.TxnManager().Begin()
	if err := c.Bootstrap(txn); err != nil {
		c.TxnManager().Abort(txn)
		return errors.Annotate(err, "bootstrap")
	}
	return c.TxnManager().Commit(txn)
}

func recoverFromLog(c *catalog.Catalog, lm *recovery.LogManager, observer func(*catalog.Catalog, access.TxnID)) error {
	common.Logger().Info("recovering the data dictionary from the log")
	return lm.Replay(func(txnID access.TxnID, records []access.LogRecord) error {
		if observer != nil {
			observer(c, txnID)
		}
		txn := c.TxnManager().Begin()
		txn.SetRecovery(true)
		if err := c.ApplyLogRecords(txn, records); err != nil {
			c.TxnManager().Abort(txn)
			return errors.Annotatef(err, "recover txn %d", txnID)
		}
		return c.TxnManager().Commit(txn)
	})
}

// Shutdown releases every cached statement, clears the schema cache and
// closes the log. The instance must not be used afterwards.
func (sdb *SamehadaDB) Shutdown() error {
	latch := sdb.shi_.GetLatch()
	latch.Lock()
	defer latch.Unlock()
	sdb.admin_.Close(sdb.stmt_cache_, sdb.catalog_.TxnManager())
	sdb.stmt_cache_.Clear()
	sdb.catalog_.Cache().Teardown()
	common.Logger().Info("engine stopped")
	return sdb.shi_.Shutdown()
}

func (sdb *SamehadaDB) GetCatalog() *catalog.Catalog { return sdb.catalog_ }

func (sdb *SamehadaDB) GetStmtCache() *stmtcache.StmtCache { return sdb.stmt_cache_ }

func (sdb *SamehadaDB) GetInstance() *SamehadaInstance { return sdb.shi_ }

// NewSession opens a session authenticated as the user named userName.
func (sdb *SamehadaDB) NewSession(userName string) (*session.Session, error) {
	latch := sdb.shi_.GetLatch()
	latch.Lock()
	defer latch.Unlock()
	user := sdb.catalog_.UserByName(nil, userName)
	if user == nil || user.IsRole() {
		return nil, common.NewClientError(common.ER_NO_SUCH_USER, userName)
	}
	s := session.NewSession(user)
	common.ShPrintf(common.DEBUG_INFO, "session %s opened for %s", s.ID(), userName)
	return s, nil
}

// CloseSession deallocates the statements of s and rolls back its
// transaction.
func (sdb *SamehadaDB) CloseSession(s *session.Session) {
	latch := sdb.shi_.GetLatch()
	latch.Lock()
	defer latch.Unlock()
	s.Close(sdb.stmt_cache_, sdb.catalog_.TxnManager())
}

// ExecuteSQL runs sql as admin and returns the result rows as plain
// values. Statements without result columns return nil rows.
func (sdb *SamehadaDB) ExecuteSQL(sql string) ([][]interface{}, error) {
	port, err := sdb.Execute(sdb.admin_, sql, nil)
	if err != nil {
		return nil, err
	}
	if port.Format != DQL_EXECUTE {
		return nil, nil
	}
	return port.Values(), nil
}

// ConvValues converts plain Go values into bind values.
func ConvValues(args []interface{}) ([]types.Value, error) {
	ret := make([]types.Value, len(args))
	for i, a := range args {
		v, err := types.NewValueFromInterface(a)
		if err != nil {
			return nil, common.NewClientError(common.ER_SQL_BIND_VALUE, i+1, fmt.Sprintf("%T", a))
		}
		ret[i] = v
	}
	return ret, nil
}
