package plans

import (
	"github.com/ryogrid/SamehadaDict/execution/expression"
)

// ProjectionPlanNode evaluates the select list over the rows of its child.
type ProjectionPlanNode struct {
	*AbstractPlanNode
	exprs []expression.Expression
}

func NewProjectionPlanNode(child Plan, exprs []expression.Expression) Plan {
	return &ProjectionPlanNode{&AbstractPlanNode{[]Plan{child}}, exprs}
}

func (p *ProjectionPlanNode) GetExpressions() []expression.Expression { return p.exprs }

func (p *ProjectionPlanNode) GetType() PlanType { return Projection }

type OrderbyType int

const (
	ASC OrderbyType = iota
	DESC
)

/**
 * OrderbyPlanNode sorts the rows of its child. The sort keys are
 * evaluated on the child rows, so they may use columns the select list
 * does not return.
 */
type OrderbyPlanNode struct {
	*AbstractPlanNode
	exprs        []expression.Expression
	orderbyTypes []OrderbyType
}

func NewOrderbyPlanNode(child Plan, exprs []expression.Expression, orderbyTypes []OrderbyType) Plan {
	return &OrderbyPlanNode{&AbstractPlanNode{[]Plan{child}}, exprs, orderbyTypes}
}

func (p *OrderbyPlanNode) GetExpressions() []expression.Expression { return p.exprs }

func (p *OrderbyPlanNode) GetOrderbyTypes() []OrderbyType { return p.orderbyTypes }

func (p *OrderbyPlanNode) GetType() PlanType { return Orderby }

/**
 * LimitPlanNode skips offset rows and then returns at most limit rows.
 * Both are expressions so that they can be bound parameters; a nil limit
 * means no limit.
 */
type LimitPlanNode struct {
	*AbstractPlanNode
	limit  expression.Expression
	offset expression.Expression
}

func NewLimitPlanNode(child Plan, limit expression.Expression, offset expression.Expression) Plan {
	return &LimitPlanNode{&AbstractPlanNode{[]Plan{child}}, limit, offset}
}

func (p *LimitPlanNode) GetLimit() expression.Expression { return p.limit }

func (p *LimitPlanNode) GetOffset() expression.Expression { return p.offset }

func (p *LimitPlanNode) GetType() PlanType { return Limit }
