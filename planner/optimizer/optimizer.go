package optimizer

import (
	"github.com/ryogrid/SamehadaDict/execution/expression"
	"github.com/ryogrid/SamehadaDict/parser"
	"github.com/ryogrid/SamehadaDict/schema"
)

// ScanChoice is the access path picked for the rows of one space. A nil
// Index means a full scan of the primary index.
type ScanChoice struct {
	Index *schema.IndexDef
	// values compared for equality with the leading parts of Index
	Key []parser.Expr
}

type Optimizer interface {
	BestScan(sp *schema.Space, where parser.Expr, resolve expression.ColumnResolver) (*ScanChoice, error)
}
