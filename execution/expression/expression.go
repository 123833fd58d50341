package expression

import (
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

type ExpressionType int

const (
	EXPRESSION_TYPE_INVALID ExpressionType = iota
	EXPRESSION_TYPE_COMPARISON
	EXPRESSION_TYPE_LOGICAL_OP
	EXPRESSION_TYPE_ARITHMETIC
	EXPRESSION_TYPE_IS_NULL
	EXPRESSION_TYPE_COLUMN_VALUE
	EXPRESSION_TYPE_CONSTANT_VALUE
	EXPRESSION_TYPE_PARAM_VALUE
)

/**
 * Expression interface is the base of all the expressions in the system.
 * Expressions are modeled as trees, i.e. every expression may have a variable number of children.
 * The tuple is the row being evaluated (nil when there is no row) and
 * params are the values bound to the ? markers of the statement.
 */
type Expression interface {
	Evaluate(t *tuple.Tuple, params []types.Value) (types.Value, error)
	GetChildAt(child_idx uint32) Expression
	GetType() ExpressionType
}

type AbstractExpression struct {
	/** The children of this expression. Note that the order of appearance of children may matter. */
	children  [2]Expression
	expr_type ExpressionType
}

func (e *AbstractExpression) GetChildAt(child_idx uint32) Expression {
	if child_idx >= uint32(len(e.children)) {
		return nil
	}
	return e.children[child_idx]
}

func (e *AbstractExpression) GetType() ExpressionType { return e.expr_type }

// IsTrue is the WHERE semantics of a value: NULL and false reject a row.
func IsTrue(v types.Value) bool {
	return !v.IsNull() && v.ToBoolean()
}
