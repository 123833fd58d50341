package executors

import (
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

// collectRows drains an executor. DML reads its target rows before the
// first write, so its own writes never feed back into the scan.
func collectRows(child Executor) ([]*tuple.Tuple, error) {
	if err := child.Init(); err != nil {
		return nil, err
	}
	ret := make([]*tuple.Tuple, 0)
	for {
		t, done, err := child.Next()
		if err != nil {
			return nil, err
		}
		if done {
			return ret, nil
		}
		ret = append(ret, t)
	}
}

/**
 * UpdateExecutor rewrites the rows its child selects. The assignments
 * are evaluated against the old row; a change of the primary key is
 * refused.
 */
type UpdateExecutor struct {
	context *ExecutorContext
	plan    *plans.UpdatePlanNode
	child   Executor
	rows    []*tuple.Tuple
	pos     int
}

func NewUpdateExecutor(context *ExecutorContext, plan *plans.UpdatePlanNode, child Executor) Executor {
	return &UpdateExecutor{context: context, plan: plan, child: child}
}

func (e *UpdateExecutor) Init() error {
	rows, err := collectRows(e.child)
	if err != nil {
		return err
	}
	e.rows, e.pos = rows, 0
	return nil
}

func (e *UpdateExecutor) Next() (*tuple.Tuple, Done, error) {
	if e.pos >= len(e.rows) {
		return nil, true, nil
	}
	old := e.rows[e.pos]
	e.pos++

	sp, err := spaceDef(e.context, e.plan.GetSpaceID())
	if err != nil {
		return nil, true, err
	}
	values, err := old.Values()
	if err != nil {
		return nil, true, err
	}
	for len(values) < len(sp.Def.Fields) {
		values = append(values, types.NewNull())
	}
	for _, a := range e.plan.GetAssignments() {
		v, err := a.Expr.Evaluate(old, e.context.GetParams())
		if err != nil {
			return nil, true, err
		}
		if values[a.FieldNo], err = castToField(sp.Def, int(a.FieldNo), v); err != nil {
			return nil, true, err
		}
	}
	newTuple := tuple.NewTupleFromValues(values)

	pk := sp.Table.PrimaryIndex()
	oldKey, err := pk.KeyDef().ExtractKey(old)
	if err != nil {
		return nil, true, err
	}
	newKey, err := pk.KeyDef().ExtractKey(newTuple)
	if err != nil {
		return nil, true, err
	}
	if pk.KeyDef().Compare(oldKey, newKey) != 0 {
		return nil, true, common.NewClientError(common.ER_CANT_UPDATE_PRIMARY_KEY, pk.Name(), sp.Name())
	}

	res, err := e.context.GetCatalog().Replace(e.context.GetTransaction(), e.context.GetUID(),
		e.plan.GetSpaceID(), newTuple, access.DUP_REPLACE)
	if err != nil {
		return nil, true, err
	}
	e.context.addRow()
	return res.New, false, nil
}
