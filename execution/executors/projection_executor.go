package executors

import (
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

// ProjectionExecutor builds the result rows of a query from the select list.
type ProjectionExecutor struct {
	context *ExecutorContext
	plan    *plans.ProjectionPlanNode
	child   Executor
}

func NewProjectionExecutor(context *ExecutorContext, plan *plans.ProjectionPlanNode, child Executor) Executor {
	return &ProjectionExecutor{context, plan, child}
}

func (e *ProjectionExecutor) Init() error {
	return e.child.Init()
}

func (e *ProjectionExecutor) Next() (*tuple.Tuple, Done, error) {
	t, done, err := e.child.Next()
	if err != nil || done {
		return nil, true, err
	}
	exprs := e.plan.GetExpressions()
	values := make([]types.Value, len(exprs))
	for i, expr := range exprs {
		if values[i], err = expr.Evaluate(t, e.context.GetParams()); err != nil {
			return nil, true, err
		}
	}
	return tuple.NewTupleFromValues(values), false, nil
}
