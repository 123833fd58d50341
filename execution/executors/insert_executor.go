package executors

import (
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/execution/expression"
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

// castToField converts v to the type of field fieldno of the space
// format. NULL passes; the nullability check is left to the space.
func castToField(def *schema.SpaceDef, fieldno int, v types.Value) (types.Value, error) {
	if v.IsNull() || fieldno >= len(def.Fields) {
		return v, nil
	}
	ftype := def.Fields[fieldno].Type
	casted, err := v.CastTo(ftype)
	if err != nil {
		return v, common.NewClientError(common.ER_SQL_TYPE_MISMATCH, v.String(), ftype.String())
	}
	return casted, nil
}

func spaceDef(context *ExecutorContext, spaceID uint32) (*schema.Space, error) {
	sp := context.GetCatalog().SpaceByID(context.GetTransaction(), spaceID)
	if sp == nil {
		return nil, common.NewClientError(common.ER_NO_SUCH_SPACE, spaceID)
	}
	return sp, nil
}

// InsertExecutor executes an insert into a space. Each Next writes one row.
type InsertExecutor struct {
	context *ExecutorContext
	plan    *plans.InsertPlanNode
	pos     int
}

func NewInsertExecutor(context *ExecutorContext, plan *plans.InsertPlanNode) Executor {
	return &InsertExecutor{context, plan, 0}
}

func (e *InsertExecutor) Init() error {
	e.pos = 0
	return nil
}

func (e *InsertExecutor) Next() (*tuple.Tuple, Done, error) {
	rows := e.plan.GetRows()
	if e.pos >= len(rows) {
		return nil, true, nil
	}
	row := rows[e.pos]
	e.pos++

	sp, err := spaceDef(e.context, e.plan.GetSpaceID())
	if err != nil {
		return nil, true, err
	}
	values, err := evalRow(e.context, sp.Def, row)
	if err != nil {
		return nil, true, err
	}
	res, err := e.context.GetCatalog().Replace(e.context.GetTransaction(), e.context.GetUID(),
		e.plan.GetSpaceID(), tuple.NewTupleFromValues(values), e.plan.GetMode())
	if err != nil {
		return nil, true, err
	}
	if res.AutoIncrement {
		e.context.addAutoIncrementID(res.AutoID)
	}
	e.context.addRow()
	return res.New, false, nil
}

func evalRow(context *ExecutorContext, def *schema.SpaceDef, row []expression.Expression) ([]types.Value, error) {
	values := make([]types.Value, len(row))
	for i, expr := range row {
		v, err := expr.Evaluate(nil, context.GetParams())
		if err != nil {
			return nil, err
		}
		if values[i], err = castToField(def, i, v); err != nil {
			return nil, err
		}
	}
	return values, nil
}
