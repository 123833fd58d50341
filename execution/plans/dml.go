package plans

import (
	"github.com/ryogrid/SamehadaDict/execution/expression"
	"github.com/ryogrid/SamehadaDict/storage/access"
)

/**
 * InsertPlanNode identifies a space into which tuples are inserted.
 * Every row holds one expression per field of the space format; fields
 * the statement did not name carry their default.
 */
type InsertPlanNode struct {
	*AbstractPlanNode
	rows    [][]expression.Expression
	spaceID uint32
	mode    access.DupReplaceMode
}

func NewInsertPlanNode(spaceID uint32, rows [][]expression.Expression, mode access.DupReplaceMode) Plan {
	return &InsertPlanNode{&AbstractPlanNode{}, rows, spaceID, mode}
}

func (p *InsertPlanNode) GetRows() [][]expression.Expression { return p.rows }

func (p *InsertPlanNode) GetSpaceID() uint32 { return p.spaceID }

func (p *InsertPlanNode) GetMode() access.DupReplaceMode { return p.mode }

func (p *InsertPlanNode) GetType() PlanType { return Insert }

// Assignment sets field FieldNo to the value of Expr.
type Assignment struct {
	FieldNo uint32
	Expr    expression.Expression
}

// UpdatePlanNode rewrites the rows produced by its scan child.
type UpdatePlanNode struct {
	*AbstractPlanNode
	spaceID     uint32
	assignments []Assignment
}

func NewUpdatePlanNode(child Plan, spaceID uint32, assignments []Assignment) Plan {
	return &UpdatePlanNode{&AbstractPlanNode{[]Plan{child}}, spaceID, assignments}
}

func (p *UpdatePlanNode) GetSpaceID() uint32 { return p.spaceID }

func (p *UpdatePlanNode) GetAssignments() []Assignment { return p.assignments }

func (p *UpdatePlanNode) GetType() PlanType { return Update }

// DeletePlanNode deletes the rows produced by its scan child.
type DeletePlanNode struct {
	*AbstractPlanNode
	spaceID uint32
}

func NewDeletePlanNode(child Plan, spaceID uint32) Plan {
	return &DeletePlanNode{&AbstractPlanNode{[]Plan{child}}, spaceID}
}

func (p *DeletePlanNode) GetSpaceID() uint32 { return p.spaceID }

func (p *DeletePlanNode) GetType() PlanType { return Delete }
