package planner

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/parser"
	"github.com/ryogrid/SamehadaDict/storage/access"
)

// CompiledQuery is a statement bound to the schema it was compiled
// against: the plan tree plus what a client learns at prepare time.
type CompiledQuery struct {
	Plan       plans.Plan
	Type       parser.QueryType
	Columns    []plans.Column
	Params     []plans.Param
	ParamCount int
	// ids of the spaces the plan reads or writes
	Spaces mapset.Set[uint32]
}

type Planner interface {
	MakePlan(*parser.QueryInfo, *access.Transaction) (*CompiledQuery, error)
}
