package expression

import (
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

type LogicalOpType int

const (
	AND LogicalOpType = iota
	OR
	NOT
)

/**
 * LogicalOp combines boolean children with three-valued logic. NOT uses
 * only the first child.
 */
type LogicalOp struct {
	*AbstractExpression
	logicalOpType LogicalOpType
}

func NewLogicalOp(left Expression, right Expression, logicalOpType LogicalOpType) Expression {
	return &LogicalOp{&AbstractExpression{[2]Expression{left, right}, EXPRESSION_TYPE_LOGICAL_OP}, logicalOpType}
}

func (op *LogicalOp) Evaluate(t *tuple.Tuple, params []types.Value) (types.Value, error) {
	lhs, err := op.children[0].Evaluate(t, params)
	if err != nil {
		return types.NewNull(), err
	}
	if op.logicalOpType == NOT {
		if lhs.IsNull() {
			return lhs, nil
		}
		return types.NewBoolean(!lhs.ToBoolean()), nil
	}

	// short circuit: false AND x, true OR x
	if !lhs.IsNull() && lhs.ToBoolean() == (op.logicalOpType == OR) {
		return types.NewBoolean(lhs.ToBoolean()), nil
	}
	rhs, err := op.children[1].Evaluate(t, params)
	if err != nil {
		return types.NewNull(), err
	}
	if !rhs.IsNull() && rhs.ToBoolean() == (op.logicalOpType == OR) {
		return types.NewBoolean(rhs.ToBoolean()), nil
	}
	if lhs.IsNull() || rhs.IsNull() {
		return types.NewNull(), nil
	}
	// both true for AND, both false for OR
	return types.NewBoolean(op.logicalOpType == AND), nil
}

func (op *LogicalOp) GetLogicalOpType() LogicalOpType {
	return op.logicalOpType
}
