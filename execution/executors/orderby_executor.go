package executors

import (
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
	"golang.org/x/exp/slices"
)

/**
 * OrderbyExecutor reads all rows of its child at Init and returns them
 * sorted. Rows with equal keys keep the order of the child.
 */
type OrderbyExecutor struct {
	context      *ExecutorContext
	plan_        *plans.OrderbyPlanNode
	child_       Executor
	sort_tuples_ []*tuple.Tuple
	cur_idx_     int // target tuple index on Next method
}

func NewOrderbyExecutor(exec_ctx *ExecutorContext, plan *plans.OrderbyPlanNode, child Executor) *OrderbyExecutor {
	return &OrderbyExecutor{exec_ctx, plan, child, make([]*tuple.Tuple, 0), 0}
}

func (e *OrderbyExecutor) Init() error {
	if err := e.child_.Init(); err != nil {
		return err
	}
	e.sort_tuples_ = e.sort_tuples_[:0]
	e.cur_idx_ = 0
	exprs := e.plan_.GetExpressions()
	sort_values := make([][]types.Value, 0)
	for {
		tuple_, done, err := e.child_.Next()
		if err != nil {
			return err
		}
		if done {
			break
		}
		row := make([]types.Value, len(exprs))
		for i, expr := range exprs {
			if row[i], err = expr.Evaluate(tuple_, e.context.GetParams()); err != nil {
				return err
			}
		}
		e.sort_tuples_ = append(e.sort_tuples_, tuple_)
		sort_values = append(sort_values, row)
	}

	order := make([]int, len(e.sort_tuples_))
	for i := range order {
		order[i] = i
	}
	orderbyTypes := e.plan_.GetOrderbyTypes()
	slices.SortStableFunc(order, func(i, j int) int {
		l, r := sort_values[i], sort_values[j]
		for idx := range exprs {
			cmp := l[idx].CompareTo(r[idx])
			if cmp == 0 {
				continue
			}
			if orderbyTypes[idx] == plans.DESC {
				return -cmp
			}
			return cmp
		}
		return 0
	})
	sorted := make([]*tuple.Tuple, len(order))
	for i, idx := range order {
		sorted[i] = e.sort_tuples_[idx]
	}
	e.sort_tuples_ = sorted
	return nil
}

func (e *OrderbyExecutor) Next() (*tuple.Tuple, Done, error) {
	if e.cur_idx_ < len(e.sort_tuples_) {
		ret := e.sort_tuples_[e.cur_idx_]
		e.cur_idx_++
		return ret, false, nil
	}
	return nil, true, nil
}
