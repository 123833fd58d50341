package executors

import (
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
)

type ExecutionEngine struct {
}

// Execute runs a plan to completion and returns the rows it produced.
func (e *ExecutionEngine) Execute(plan plans.Plan, context *ExecutorContext) ([]*tuple.Tuple, error) {
	executor, err := e.CreateExecutor(plan, context)
	if err != nil {
		return nil, err
	}
	if err := executor.Init(); err != nil {
		return nil, err
	}

	tuples := make([]*tuple.Tuple, 0)
	for {
		t, done, err := executor.Next()
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
		if t != nil {
			tuples = append(tuples, t)
		}
	}
	return tuples, nil
}

func (e *ExecutionEngine) CreateExecutor(plan plans.Plan, context *ExecutorContext) (Executor, error) {
	child := func() (Executor, error) {
		return e.CreateExecutor(plan.GetChildAt(0), context)
	}
	switch p := plan.(type) {
	case *plans.SeqScanPlanNode:
		return NewSeqScanExecutor(context, p), nil
	case *plans.PointScanWithIndexPlanNode:
		return NewPointScanWithIndexExecutor(context, p), nil
	case *plans.ValuesPlanNode:
		return NewValuesExecutor(), nil
	case *plans.ProjectionPlanNode:
		c, err := child()
		if err != nil {
			return nil, err
		}
		return NewProjectionExecutor(context, p, c), nil
	case *plans.OrderbyPlanNode:
		c, err := child()
		if err != nil {
			return nil, err
		}
		return NewOrderbyExecutor(context, p, c), nil
	case *plans.LimitPlanNode:
		c, err := child()
		if err != nil {
			return nil, err
		}
		return NewLimitExecutor(context, p, c), nil
	case *plans.InsertPlanNode:
		return NewInsertExecutor(context, p), nil
	case *plans.UpdatePlanNode:
		c, err := child()
		if err != nil {
			return nil, err
		}
		return NewUpdateExecutor(context, p, c), nil
	case *plans.DeletePlanNode:
		c, err := child()
		if err != nil {
			return nil, err
		}
		return NewDeleteExecutor(context, p, c), nil
	case *plans.DDLPlanNode:
		return NewDDLExecutor(context, p), nil
	}
	return nil, common.NewClientError(common.ER_SQL_EXECUTE, "no executor for plan "+plan.GetType().String())
}
