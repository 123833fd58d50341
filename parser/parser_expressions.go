package parser

import (
	"github.com/ryogrid/SamehadaDict/types"
)

/**
 * Expr is a scalar SQL expression. The concrete variants are Literal,
 * Param, ColumnRef, Unary, Binary and IsNull.
 */
type Expr interface {
	exprNode()
}

type BinaryOpType int

const (
	OpEqual BinaryOpType = iota
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpAnd
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

func (op BinaryOpType) IsComparison() bool {
	return op <= OpGreaterThanOrEqual
}

func (op BinaryOpType) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

type UnaryOpType int

const (
	OpNot UnaryOpType = iota
	OpNegate
	OpPlus
)

type Literal struct {
	Value types.Value
}

// Param is a ? marker. Index counts the markers of the statement in text
// order starting from 0.
type Param struct {
	Index int
}

type ColumnRef struct {
	Table string
	Name  string
}

type Unary struct {
	Op      UnaryOpType
	Operand Expr
}

type Binary struct {
	Op    BinaryOpType
	Left  Expr
	Right Expr
}

type IsNull struct {
	Operand Expr
	Not     bool
}

func (*Literal) exprNode()   {}
func (*Param) exprNode()     {}
func (*ColumnRef) exprNode() {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*IsNull) exprNode()    {}

// WalkExpr calls fn for e and then for every subexpression.
func WalkExpr(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch x := e.(type) {
	case *Unary:
		WalkExpr(x.Operand, fn)
	case *Binary:
		WalkExpr(x.Left, fn)
		WalkExpr(x.Right, fn)
	case *IsNull:
		WalkExpr(x.Operand, fn)
	}
}
