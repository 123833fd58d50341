package planner

import (
	"github.com/ryogrid/SamehadaDict/catalog/catalog_interface"
	"github.com/ryogrid/SamehadaDict/execution/expression"
	"github.com/ryogrid/SamehadaDict/parser"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
)

// CheckCompiler compiles the SQL text of CHECK constraints for the
// catalog. A check passes unless its expression is false; NULL passes.
type CheckCompiler struct {
}

var _ catalog_interface.CheckCompiler = (*CheckCompiler)(nil)

func NewCheckCompiler() *CheckCompiler {
	return &CheckCompiler{}
}

func (cc *CheckCompiler) CompileCheck(def *schema.SpaceDef, text string) (schema.CheckPredicate, error) {
	parsed, err := parser.ParseExpr(text)
	if err != nil {
		return nil, err
	}
	expr, err := expression.Build(parsed, resolverFor(def))
	if err != nil {
		return nil, err
	}
	return func(t *tuple.Tuple) (bool, error) {
		v, err := expr.Evaluate(t, nil)
		if err != nil {
			return false, err
		}
		return v.IsNull() || v.ToBoolean(), nil
	}, nil
}
