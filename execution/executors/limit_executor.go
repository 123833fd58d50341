package executors

import (
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/execution/expression"
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
)

// LimitExecutor implements the limit/offset operation
type LimitExecutor struct {
	context *ExecutorContext
	plan    *plans.LimitPlanNode // contains information about limit and offset
	child   Executor             // the child executor that will provide tuples to the limit executor
	limit   int64                // -1 when there is no limit
	offset  int64
	emitted int64 // counts the number of tuples processed. It is compared to the LIMIT
	skipped int64 // counts the number of tuples skiped. It is compared to the OFFSET
}

func NewLimitExecutor(context *ExecutorContext, plan *plans.LimitPlanNode, child Executor) Executor {
	return &LimitExecutor{context: context, plan: plan, child: child}
}

// evalCount evaluates a LIMIT or OFFSET operand, which must be a
// non-negative integer.
func (e *LimitExecutor) evalCount(expr expression.Expression, clause string, dflt int64) (int64, error) {
	if expr == nil {
		return dflt, nil
	}
	v, err := expr.Evaluate(nil, e.context.GetParams())
	if err != nil {
		return 0, err
	}
	if !v.IsInteger() || v.ToInteger() < 0 {
		return 0, common.NewClientError(common.ER_SQL_EXECUTE,
			"Only positive integers are allowed in the "+clause+" clause")
	}
	return v.ToInteger(), nil
}

func (e *LimitExecutor) Init() error {
	var err error
	if e.limit, err = e.evalCount(e.plan.GetLimit(), "LIMIT", -1); err != nil {
		return err
	}
	if e.offset, err = e.evalCount(e.plan.GetOffset(), "OFFSET", 0); err != nil {
		return err
	}
	e.emitted, e.skipped = 0, 0
	return e.child.Init()
}

func (e *LimitExecutor) Next() (*tuple.Tuple, Done, error) {
	for {
		if e.limit >= 0 && e.emitted >= e.limit {
			return nil, true, nil
		}
		t, done, err := e.child.Next()
		if err != nil || done {
			return nil, true, err
		}
		if e.skipped < e.offset {
			e.skipped++
			continue
		}
		e.emitted++
		return t, false, nil
	}
}
