package optimizer

import (
	stack "github.com/golang-collections/collections/stack"
	pair "github.com/notEpsilon/go-pair"
	"github.com/ryogrid/SamehadaDict/execution/expression"
	"github.com/ryogrid/SamehadaDict/parser"
	"github.com/ryogrid/SamehadaDict/schema"
)

// fieldEquality binds a field number to the value it must equal.
type fieldEquality = pair.Pair[uint32, parser.Expr]

/**
 * IndexScanOptimizer looks for the index whose leading parts are all
 * fixed by `column = value` terms of the AND-chain of a WHERE clause.
 * The clause itself stays the filter of the scan, so the choice only
 * narrows the rows read and never changes the result.
 */
type IndexScanOptimizer struct {
}

func NewIndexScanOptimizer() Optimizer {
	return &IndexScanOptimizer{}
}

// Conjuncts splits an expression on its top level ANDs.
func Conjuncts(where parser.Expr) []parser.Expr {
	ret := make([]parser.Expr, 0)
	if where == nil {
		return ret
	}
	exp := stack.New()
	exp.Push(where)
	for exp.Len() > 0 {
		here := exp.Pop().(parser.Expr)
		if be, ok := here.(*parser.Binary); ok && be.Op == parser.OpAnd {
			// right first so the left term is popped first
			exp.Push(be.Right)
			exp.Push(be.Left)
			continue
		}
		ret = append(ret, here)
	}
	return ret
}

// isKeyValue reports whether e is known before the scan starts.
func isKeyValue(e parser.Expr) bool {
	switch x := e.(type) {
	case *parser.Literal, *parser.Param:
		return true
	case *parser.Unary:
		return x.Op != parser.OpNot && isKeyValue(x.Operand)
	}
	return false
}

func equalities(conjuncts []parser.Expr, resolve expression.ColumnResolver) ([]fieldEquality, error) {
	ret := make([]fieldEquality, 0)
	for _, c := range conjuncts {
		be, ok := c.(*parser.Binary)
		if !ok || be.Op != parser.OpEqual {
			continue
		}
		col, value := be.Left, be.Right
		if _, isCol := col.(*parser.ColumnRef); !isCol {
			col, value = value, col
		}
		ref, isCol := col.(*parser.ColumnRef)
		if !isCol || !isKeyValue(value) {
			continue
		}
		fieldno, err := resolve(ref)
		if err != nil {
			return nil, err
		}
		ret = append(ret, fieldEquality{First: fieldno, Second: value})
	}
	return ret, nil
}

func (o *IndexScanOptimizer) BestScan(sp *schema.Space, where parser.Expr, resolve expression.ColumnResolver) (*ScanChoice, error) {
	equals, err := equalities(Conjuncts(where), resolve)
	if err != nil || len(equals) == 0 {
		return &ScanChoice{}, err
	}
	best := &ScanChoice{}
	bestFull := false
	for _, idx := range sp.Indexes {
		if idx == nil {
			continue
		}
		key := make([]parser.Expr, 0, len(idx.Parts))
		for _, part := range idx.Parts {
			var found parser.Expr
			for _, eq := range equals {
				if eq.First == part.FieldNo {
					found = eq.Second
					break
				}
			}
			if found == nil {
				break
			}
			key = append(key, found)
		}
		if len(key) == 0 {
			continue
		}
		// a fully covered unique index reads at most one row
		full := idx.Unique && len(key) == len(idx.Parts)
		if best.Index == nil || (full && !bestFull) || (full == bestFull && len(key) > len(best.Key)) {
			best = &ScanChoice{Index: idx, Key: key}
			bestFull = full
		}
	}
	return best, nil
}
