package expression

import (
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

/**
 * ConstantValue represents constants.
 */
type ConstantValue struct {
	*AbstractExpression
	value types.Value
}

func NewConstantValue(value types.Value) Expression {
	return &ConstantValue{&AbstractExpression{expr_type: EXPRESSION_TYPE_CONSTANT_VALUE}, value}
}

func (c *ConstantValue) Evaluate(*tuple.Tuple, []types.Value) (types.Value, error) {
	return c.value, nil
}

func (c *ConstantValue) GetValue() types.Value { return c.value }

// ParamValue reads the value bound to the idx'th ? marker.
type ParamValue struct {
	*AbstractExpression
	idx int
}

func NewParamValue(idx int) Expression {
	return &ParamValue{&AbstractExpression{expr_type: EXPRESSION_TYPE_PARAM_VALUE}, idx}
}

func (p *ParamValue) Evaluate(_ *tuple.Tuple, params []types.Value) (types.Value, error) {
	// unbound parameters read as NULL
	if p.idx >= len(params) {
		return types.NewNull(), nil
	}
	common.SH_Assert(p.idx >= 0, "negative parameter index")
	return params[p.idx], nil
}

func (p *ParamValue) GetIndex() int { return p.idx }
