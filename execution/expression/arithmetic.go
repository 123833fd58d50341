package expression

import (
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

// Arithmetic applies a binary numeric operator. A nil right child makes
// it the unary minus of the left child.
type Arithmetic struct {
	*AbstractExpression
	op types.ArithOp
}

func NewArithmetic(left Expression, right Expression, op types.ArithOp) Expression {
	return &Arithmetic{&AbstractExpression{[2]Expression{left, right}, EXPRESSION_TYPE_ARITHMETIC}, op}
}

func NewNegate(operand Expression) Expression {
	return &Arithmetic{&AbstractExpression{[2]Expression{operand, nil}, EXPRESSION_TYPE_ARITHMETIC}, types.OpSub}
}

func (a *Arithmetic) Evaluate(t *tuple.Tuple, params []types.Value) (types.Value, error) {
	lhs, err := a.children[0].Evaluate(t, params)
	if err != nil {
		return types.NewNull(), err
	}
	if a.children[1] == nil {
		ret, err := types.Negate(lhs)
		if err != nil {
			return ret, common.NewClientError(common.ER_SQL_EXECUTE, err.Error())
		}
		return ret, nil
	}
	rhs, err := a.children[1].Evaluate(t, params)
	if err != nil {
		return types.NewNull(), err
	}
	ret, err := types.Arithmetic(a.op, lhs, rhs)
	if err != nil {
		return ret, common.NewClientError(common.ER_SQL_EXECUTE, err.Error())
	}
	return ret, nil
}

// IsNull tests its child for NULL, negated when not is set.
type IsNull struct {
	*AbstractExpression
	not bool
}

func NewIsNull(operand Expression, not bool) Expression {
	return &IsNull{&AbstractExpression{[2]Expression{operand, nil}, EXPRESSION_TYPE_IS_NULL}, not}
}

func (e *IsNull) Evaluate(t *tuple.Tuple, params []types.Value) (types.Value, error) {
	v, err := e.children[0].Evaluate(t, params)
	if err != nil {
		return types.NewNull(), err
	}
	return types.NewBoolean(v.IsNull() != e.not), nil
}
