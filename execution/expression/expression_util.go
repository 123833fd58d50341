package expression

import (
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/parser"
	"github.com/ryogrid/SamehadaDict/types"
)

// ColumnResolver maps a column reference to its field number. It is nil
// where no row is in scope.
type ColumnResolver func(ref *parser.ColumnRef) (uint32, error)

var comparisonTypes = map[parser.BinaryOpType]ComparisonType{
	parser.OpEqual:              Equal,
	parser.OpNotEqual:           NotEqual,
	parser.OpLessThan:           LessThan,
	parser.OpLessThanOrEqual:    LessThanOrEqual,
	parser.OpGreaterThan:        GreaterThan,
	parser.OpGreaterThanOrEqual: GreaterThanOrEqual,
}

var arithOps = map[parser.BinaryOpType]types.ArithOp{
	parser.OpAdd: types.OpAdd,
	parser.OpSub: types.OpSub,
	parser.OpMul: types.OpMul,
	parser.OpDiv: types.OpDiv,
	parser.OpMod: types.OpMod,
}

// Build turns a parsed expression into an evaluable tree.
func Build(e parser.Expr, resolve ColumnResolver) (Expression, error) {
	switch x := e.(type) {
	case *parser.Literal:
		return NewConstantValue(x.Value), nil
	case *parser.Param:
		return NewParamValue(x.Index), nil
	case *parser.ColumnRef:
		if resolve == nil {
			return nil, common.NewClientError(common.ER_SQL_NO_SUCH_COLUMN, x.Name)
		}
		fieldno, err := resolve(x)
		if err != nil {
			return nil, err
		}
		return NewColumnValue(fieldno, x.Name), nil
	case *parser.IsNull:
		operand, err := Build(x.Operand, resolve)
		if err != nil {
			return nil, err
		}
		return NewIsNull(operand, x.Not), nil
	case *parser.Unary:
		operand, err := Build(x.Operand, resolve)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case parser.OpNot:
			return NewLogicalOp(operand, nil, NOT), nil
		case parser.OpNegate:
			return NewNegate(operand), nil
		}
		return operand, nil
	case *parser.Binary:
		left, err := Build(x.Left, resolve)
		if err != nil {
			return nil, err
		}
		right, err := Build(x.Right, resolve)
		if err != nil {
			return nil, err
		}
		if ct, ok := comparisonTypes[x.Op]; ok {
			return NewComparison(left, right, ct), nil
		}
		if op, ok := arithOps[x.Op]; ok {
			return NewArithmetic(left, right, op), nil
		}
		if x.Op == parser.OpOr {
			return NewLogicalOp(left, right, OR), nil
		}
		return NewLogicalOp(left, right, AND), nil
	}
	return nil, common.NewClientError(common.ER_SQL_EXECUTE, "unsupported expression")
}

// EvalConstant evaluates an expression that refers to no column and no
// parameter, such as a column DEFAULT.
func EvalConstant(e parser.Expr) (types.Value, error) {
	expr, err := Build(e, nil)
	if err != nil {
		return types.NewNull(), err
	}
	return expr.Evaluate(nil, nil)
}
