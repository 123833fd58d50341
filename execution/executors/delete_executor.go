package executors

import (
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
)

/**
 * DeleteExecutor deletes the rows its child selects by their primary key.
 */
type DeleteExecutor struct {
	context *ExecutorContext
	plan    *plans.DeletePlanNode
	child   Executor
	rows    []*tuple.Tuple
	pos     int
}

func NewDeleteExecutor(context *ExecutorContext, plan *plans.DeletePlanNode, child Executor) Executor {
	return &DeleteExecutor{context: context, plan: plan, child: child}
}

func (e *DeleteExecutor) Init() error {
	rows, err := collectRows(e.child)
	if err != nil {
		return err
	}
	e.rows, e.pos = rows, 0
	return nil
}

func (e *DeleteExecutor) Next() (*tuple.Tuple, Done, error) {
	if e.pos >= len(e.rows) {
		return nil, true, nil
	}
	t := e.rows[e.pos]
	e.pos++

	sp, err := spaceDef(e.context, e.plan.GetSpaceID())
	if err != nil {
		return nil, true, err
	}
	key, err := sp.Table.PrimaryIndex().KeyDef().ExtractKey(t)
	if err != nil {
		return nil, true, err
	}
	res, err := e.context.GetCatalog().Delete(e.context.GetTransaction(), e.context.GetUID(), e.plan.GetSpaceID(), key)
	if err != nil {
		return nil, true, err
	}
	if res.Old != nil {
		e.context.addRow()
	}
	return t, false, nil
}
