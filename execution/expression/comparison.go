package expression

import (
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

type ComparisonType int

/** ComparisonType represents the type of comparison that we want to perform. */
const (
	Equal ComparisonType = iota
	NotEqual
	GreaterThan        // A > B
	GreaterThanOrEqual // A >= B
	LessThan           // A < B
	LessThanOrEqual    // A <= B
)

/**
 * Comparison represents two expressions being compared. A NULL operand
 * makes the result NULL.
 */
type Comparison struct {
	*AbstractExpression
	comparisonType ComparisonType
}

func NewComparison(left Expression, right Expression, comparisonType ComparisonType) Expression {
	return &Comparison{&AbstractExpression{[2]Expression{left, right}, EXPRESSION_TYPE_COMPARISON}, comparisonType}
}

func (c *Comparison) Evaluate(t *tuple.Tuple, params []types.Value) (types.Value, error) {
	lhs, err := c.children[0].Evaluate(t, params)
	if err != nil {
		return types.NewNull(), err
	}
	rhs, err := c.children[1].Evaluate(t, params)
	if err != nil {
		return types.NewNull(), err
	}
	if lhs.IsNull() || rhs.IsNull() {
		return types.NewNull(), nil
	}
	if !comparable(lhs, rhs) {
		return types.NewNull(), common.NewClientError(common.ER_SQL_TYPE_MISMATCH, lhs.String(), rhs.ValueType().String())
	}
	return types.NewBoolean(c.performComparison(lhs, rhs)), nil
}

// comparable allows numbers of any representation against each other and
// otherwise requires the same type.
func comparable(lhs types.Value, rhs types.Value) bool {
	if lhs.IsNumeric() || rhs.IsNumeric() {
		return lhs.IsNumeric() && rhs.IsNumeric()
	}
	return lhs.ValueType() == rhs.ValueType()
}

func (c *Comparison) performComparison(lhs types.Value, rhs types.Value) bool {
	switch c.comparisonType {
	case Equal:
		return lhs.CompareEquals(rhs)
	case NotEqual:
		return lhs.CompareNotEquals(rhs)
	case GreaterThan:
		return lhs.CompareGreaterThan(rhs)
	case GreaterThanOrEqual:
		return lhs.CompareGreaterThanOrEqual(rhs)
	case LessThan:
		return lhs.CompareLessThan(rhs)
	case LessThanOrEqual:
		return lhs.CompareLessThanOrEqual(rhs)
	default:
		panic("illegal comparisonType is passed!")
	}
}

func (c *Comparison) GetComparisonType() ComparisonType {
	return c.comparisonType
}
