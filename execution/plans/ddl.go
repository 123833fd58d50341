package plans

import (
	"github.com/ryogrid/SamehadaDict/parser"
)

/**
 * DDLPlanNode carries a schema changing statement. Names are resolved
 * when it runs, against the catalog as the transaction sees it.
 */
type DDLPlanNode struct {
	*AbstractPlanNode
	stmt parser.Statement
}

func NewDDLPlanNode(stmt parser.Statement) Plan {
	return &DDLPlanNode{&AbstractPlanNode{}, stmt}
}

func (p *DDLPlanNode) GetStatement() parser.Statement { return p.stmt }

func (p *DDLPlanNode) GetType() PlanType { return DDL }

// TxnControlPlanNode is BEGIN, COMMIT or ROLLBACK. The session runs it,
// not an executor.
type TxnControlPlanNode struct {
	*AbstractPlanNode
	kind parser.QueryType
}

func NewTxnControlPlanNode(kind parser.QueryType) Plan {
	return &TxnControlPlanNode{&AbstractPlanNode{}, kind}
}

func (p *TxnControlPlanNode) GetKind() parser.QueryType { return p.kind }

func (p *TxnControlPlanNode) GetType() PlanType { return TxnControl }
