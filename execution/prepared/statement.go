package prepared

import (
	"github.com/ryogrid/SamehadaDict/catalog"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/execution/executors"
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/parser"
	"github.com/ryogrid/SamehadaDict/planner"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

// Env is what a statement runs against: the catalog, the transaction of
// the calling session and the user the session is authenticated as.
type Env struct {
	Catalog *catalog.Catalog
	Txn     *access.Transaction
	UID     uint32
}

/**
 * Statement is a compiled SQL statement. It keeps the text it was built
 * from so it can be compiled again when the schema changes, and the
 * cursor of its current execution. A statement is busy from its first
 * Step until Reset; a busy statement must not be rebound or stepped by
 * another execution.
 */
type Statement struct {
	sql     string
	version uint32
	query   *planner.CompiledQuery

	binds []types.Value

	busy     bool
	done     bool
	executor executors.Executor
	context  *executors.ExecutorContext

	rowCount   uint64
	autoIncIDs []int64
}

// Compile parses and plans sql against the schema visible to txn.
func Compile(c *catalog.Catalog, txn *access.Transaction, sql string) (*Statement, error) {
	qi, err := parser.ProcessSQLStr(sql)
	if err != nil {
		return nil, err
	}
	query, err := planner.NewSimplePlanner(c).MakePlan(qi, txn)
	if err != nil {
		return nil, err
	}
	ret := &Statement{
		sql:     sql,
		version: c.Cache().Version(),
		query:   query,
		binds:   make([]types.Value, query.ParamCount),
	}
	ret.Unbind()
	return ret, nil
}

func (s *Statement) SQL() string { return s.sql }

// SchemaVersion is the schema version the statement was compiled with.
func (s *Statement) SchemaVersion() uint32 { return s.version }

// IsExpired reports whether the schema changed since compilation.
func (s *Statement) IsExpired(version uint32) bool { return s.version != version }

func (s *Statement) IsBusy() bool { return s.busy }

func (s *Statement) Type() parser.QueryType { return s.query.Type }

func (s *Statement) ColumnCount() int { return len(s.query.Columns) }

func (s *Statement) Columns() []plans.Column { return s.query.Columns }

func (s *Statement) ParamCount() int { return s.query.ParamCount }

func (s *Statement) Params() []plans.Param { return s.query.Params }

func (s *Statement) Plan() plans.Plan { return s.query.Plan }

// SpaceIDs lists the spaces the statement reads or writes.
func (s *Statement) SpaceIDs() []uint32 { return s.query.Spaces.ToSlice() }

// Size estimates the memory the statement holds in the statement cache.
func (s *Statement) Size() int {
	size := 256 + len(s.sql)
	for _, col := range s.query.Columns {
		size += 32 + len(col.Name) + len(col.Type)
	}
	return size + 16*s.query.ParamCount
}

/**
 * Bind sets the values of the ? markers in order. Markers without a
 * value stay NULL; more values than markers is an error.
 */
func (s *Statement) Bind(values []types.Value) error {
	if s.busy {
		return common.NewClientError(common.ER_SQL_EXECUTE, "can not bind a statement that is being executed")
	}
	if len(values) > s.query.ParamCount {
		return common.NewClientError(common.ER_SQL_BIND_COUNT, s.query.ParamCount, len(values))
	}
	for i, v := range values {
		s.binds[i] = v
	}
	return nil
}

// Unbind sets every marker back to NULL.
func (s *Statement) Unbind() {
	for i := range s.binds {
		s.binds[i] = types.NewNull()
	}
}

func (s *Statement) BoundValues() []types.Value { return s.binds }

/**
 * Step advances the execution by one row. The first call starts the
 * execution in env. A statement without result columns runs to
 * completion in its first step, which must then report done.
 */
func (s *Statement) Step(env *Env) (*tuple.Tuple, executors.Done, error) {
	if s.done {
		return nil, true, nil
	}
	if !s.busy {
		if err := s.Start(env); err != nil {
			return nil, true, err
		}
	}

	if s.ColumnCount() == 0 {
		for {
			_, done, err := s.executor.Next()
			if err != nil {
				return nil, true, err
			}
			if done {
				break
			}
		}
		s.finish()
		return nil, true, nil
	}

	t, done, err := s.executor.Next()
	if err != nil {
		return nil, true, err
	}
	if done {
		s.finish()
		return nil, true, nil
	}
	return t, false, nil
}

// Start begins an execution in env with the current bindings and makes
// the statement busy. Step starts the execution itself when needed.
func (s *Statement) Start(env *Env) error {
	if s.busy {
		return common.NewClientError(common.ER_SQL_EXECUTE, "statement is already being executed")
	}
	if s.query.Type.IsTxnControl() {
		return common.NewClientError(common.ER_SQL_EXECUTE, s.query.Type.String()+" is executed by the session")
	}
	params := make([]types.Value, len(s.binds))
	copy(params, s.binds)
	s.busy = true
	s.context = executors.NewExecutorContext(env.Catalog, env.Txn, env.UID, params)
	engine := &executors.ExecutionEngine{}
	executor, err := engine.CreateExecutor(s.query.Plan, s.context)
	if err == nil {
		err = executor.Init()
	}
	if err != nil {
		s.Reset()
		return err
	}
	s.executor = executor
	return nil
}

func (s *Statement) finish() {
	s.done = true
	s.rowCount = s.context.GetRowCount()
	s.autoIncIDs = append(s.autoIncIDs, s.context.GetAutoIncrementIDs()...)
}

// Reset ends the current execution. Bound values are kept.
func (s *Statement) Reset() {
	s.busy = false
	s.done = false
	s.executor = nil
	s.context = nil
}

// RowCount is the number of rows the last finished DML changed.
func (s *Statement) RowCount() uint64 { return s.rowCount }

func (s *Statement) AutoIncrementIDs() []int64 { return s.autoIncIDs }

func (s *Statement) ClearAutoIncrementIDs() {
	s.autoIncIDs = nil
	s.rowCount = 0
}
