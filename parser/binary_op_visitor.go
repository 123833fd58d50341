package parser

import (
	"github.com/pingcap/parser/ast"
	"github.com/pingcap/parser/opcode"
	driver "github.com/pingcap/tidb/types/parser_driver"
	"github.com/ryogrid/SamehadaDict/common"
	"golang.org/x/exp/slices"
)

/**
 * ParamMarkerVisitor collects the ? markers of a statement. The markers
 * are numbered by their offset in the SQL text, so the numbering does not
 * depend on the order in which the conversion visits clauses.
 */
type ParamMarkerVisitor struct {
	markers []*driver.ParamMarkerExpr
}

func (v *ParamMarkerVisitor) Enter(in ast.Node) (ast.Node, bool) {
	if node, ok := in.(*driver.ParamMarkerExpr); ok {
		v.markers = append(v.markers, node)
		return in, true
	}
	return in, false
}

func (v *ParamMarkerVisitor) Leave(in ast.Node) (ast.Node, bool) {
	return in, true
}

func (v *ParamMarkerVisitor) order() map[*driver.ParamMarkerExpr]int {
	slices.SortStableFunc(v.markers, func(a, b *driver.ParamMarkerExpr) int { return a.Offset - b.Offset })
	ret := make(map[*driver.ParamMarkerExpr]int, len(v.markers))
	for i, m := range v.markers {
		ret[m] = i
	}
	return ret
}

// exprConverter turns pingcap expression nodes into Expr trees.
type exprConverter struct {
	params map[*driver.ParamMarkerExpr]int
}

func (c *exprConverter) convert(node ast.ExprNode) (Expr, error) {
	switch n := node.(type) {
	case nil:
		return nil, nil
	case *driver.ParamMarkerExpr:
		idx, ok := c.params[n]
		common.SH_Assert(ok, "parameter marker was not collected")
		return &Param{Index: idx}, nil
	case *driver.ValueExpr:
		val, err := ValueExprToValue(n)
		if err != nil {
			return nil, err
		}
		return &Literal{Value: val}, nil
	case *ast.ColumnNameExpr:
		return &ColumnRef{Table: n.Name.Table.O, Name: n.Name.Name.O}, nil
	case *ast.ParenthesesExpr:
		return c.convert(n.Expr)
	case *ast.IsNullExpr:
		operand, err := c.convert(n.Expr)
		if err != nil {
			return nil, err
		}
		return &IsNull{Operand: operand, Not: n.Not}, nil
	case *ast.UnaryOperationExpr:
		operand, err := c.convert(n.V)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case opcode.Not:
			return &Unary{Op: OpNot, Operand: operand}, nil
		case opcode.Minus:
			return &Unary{Op: OpNegate, Operand: operand}, nil
		case opcode.Plus:
			return &Unary{Op: OpPlus, Operand: operand}, nil
		}
		return nil, common.NewClientError(common.ER_SQL_PARSER, "unsupported unary operator "+n.Op.String())
	case *ast.BinaryOperationExpr:
		op, err := GetTypesForBOperationExpr(n.Op)
		if err != nil {
			return nil, err
		}
		left, err := c.convert(n.L)
		if err != nil {
			return nil, err
		}
		right, err := c.convert(n.R)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: op, Left: left, Right: right}, nil
	}
	text, _ := restoreText(node)
	return nil, common.NewClientError(common.ER_SQL_PARSER, "unsupported expression "+text)
}

func GetTypesForBOperationExpr(opcode_ opcode.Op) (BinaryOpType, error) {
	switch opcode_ {
	case opcode.EQ:
		return OpEqual, nil
	case opcode.NE:
		return OpNotEqual, nil
	case opcode.GT:
		return OpGreaterThan, nil
	case opcode.GE:
		return OpGreaterThanOrEqual, nil
	case opcode.LT:
		return OpLessThan, nil
	case opcode.LE:
		return OpLessThanOrEqual, nil
	case opcode.LogicAnd:
		return OpAnd, nil
	case opcode.LogicOr:
		return OpOr, nil
	case opcode.Plus:
		return OpAdd, nil
	case opcode.Minus:
		return OpSub, nil
	case opcode.Mul:
		return OpMul, nil
	case opcode.Div, opcode.IntDiv:
		return OpDiv, nil
	case opcode.Mod:
		return OpMod, nil
	}
	return 0, common.NewClientError(common.ER_SQL_PARSER, "unsupported operator "+opcode_.String())
}
