package parser

import (
	"strconv"

	"github.com/pingcap/parser"
	"github.com/pingcap/parser/ast"
	_ "github.com/pingcap/tidb/types/parser_driver"
	"github.com/ryogrid/SamehadaDict/common"
)

type QueryInfo struct {
	Statement_  Statement
	ParamCount_ int
	SQL_        string
}

func (qi *QueryInfo) GetType() QueryType {
	return qi.Statement_.GetType()
}

func parse(sql string) (ast.StmtNode, error) {
	p := parser.New()

	stmtNodes, _, err := p.Parse(sql, "", "")
	if err != nil {
		return nil, common.NewClientError(common.ER_SQL_PARSER, err.Error())
	}
	if len(stmtNodes) != 1 {
		return nil, common.NewClientError(common.ER_SQL_PARSER,
			"expected exactly one statement, got "+strconv.Itoa(len(stmtNodes)))
	}
	return stmtNodes[0], nil
}

// ProcessSQLStr parses one SQL statement into its typed form.
func ProcessSQLStr(sql string) (*QueryInfo, error) {
	astNode, err := parse(sql)
	if err != nil {
		return nil, err
	}

	pv := new(ParamMarkerVisitor)
	astNode.Accept(pv)
	if len(pv.markers) > common.SQLBindParameterMax {
		return nil, common.NewClientError(common.ER_SQL_PARSER, "too many SQL variables")
	}
	conv := &exprConverter{params: pv.order()}
	stmt, err := conv.statement(astNode)
	if err != nil {
		return nil, err
	}
	return &QueryInfo{stmt, len(pv.markers), sql}, nil
}

// ParseExpr parses the text of a standalone expression, such as the body
// of a CHECK constraint. Parameters are not allowed.
func ParseExpr(text string) (Expr, error) {
	astNode, err := parse("SELECT " + text)
	if err != nil {
		return nil, err
	}
	sel, ok := astNode.(*ast.SelectStmt)
	if !ok || sel.From != nil || len(sel.Fields.Fields) != 1 || sel.Fields.Fields[0].Expr == nil {
		return nil, common.NewClientError(common.ER_SQL_PARSER, "'"+text+"' is not an expression")
	}
	pv := new(ParamMarkerVisitor)
	astNode.Accept(pv)
	if len(pv.markers) > 0 {
		return nil, common.NewClientError(common.ER_SQL_PARSER, "parameters are not allowed in '"+text+"'")
	}
	conv := &exprConverter{params: pv.order()}
	return conv.convert(sel.Fields.Fields[0].Expr)
}
