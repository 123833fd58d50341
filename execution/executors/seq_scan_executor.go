package executors

import (
	"github.com/ryogrid/SamehadaDict/execution/expression"
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/storage/index"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

// scanState hands out the rows a scan read at Init, filtered by the
// predicate of the plan.
type scanState struct {
	context   *ExecutorContext
	predicate expression.Expression
	rows      []*tuple.Tuple
	pos       int
}

func (s *scanState) next() (*tuple.Tuple, Done, error) {
	for s.pos < len(s.rows) {
		t := s.rows[s.pos]
		s.pos++
		if s.predicate == nil {
			return t, false, nil
		}
		v, err := s.predicate.Evaluate(t, s.context.GetParams())
		if err != nil {
			return nil, true, err
		}
		if expression.IsTrue(v) {
			return t, false, nil
		}
	}
	return nil, true, nil
}

/**
 * SeqScanExecutor executes a sequential scan over a space. The rows are
 * read when the executor is initialized, so writes made while the scan
 * runs are not seen by it.
 */
type SeqScanExecutor struct {
	scanState
	plan *plans.SeqScanPlanNode
}

func NewSeqScanExecutor(context *ExecutorContext, plan *plans.SeqScanPlanNode) Executor {
	return &SeqScanExecutor{scanState{context: context, predicate: plan.GetPredicate()}, plan}
}

func (e *SeqScanExecutor) Init() error {
	rows, err := e.context.GetCatalog().Select(e.context.GetTransaction(), e.context.GetUID(),
		e.plan.GetSpaceID(), 0, index.ITER_ALL, index.Key{})
	if err != nil {
		return err
	}
	e.rows = rows
	e.pos = 0
	return nil
}

func (e *SeqScanExecutor) Next() (*tuple.Tuple, Done, error) {
	return e.next()
}

/**
 * PointScanWithIndexExecutor looks rows up with an EQ iterator. A key
 * value of a type the index part can not hold falls back to a full scan
 * so that the predicate reports the mismatch the same way a scan would.
 */
type PointScanWithIndexExecutor struct {
	scanState
	plan *plans.PointScanWithIndexPlanNode
}

func NewPointScanWithIndexExecutor(context *ExecutorContext, plan *plans.PointScanWithIndexPlanNode) Executor {
	return &PointScanWithIndexExecutor{scanState{context: context, predicate: plan.GetPredicate()}, plan}
}

func (e *PointScanWithIndexExecutor) Init() error {
	e.pos = 0
	e.rows = nil
	key := make(index.Key, 0, len(e.plan.GetKey()))
	parts := e.plan.GetParts()
	iid := e.plan.GetIndexID()
	for i, expr := range e.plan.GetKey() {
		v, err := expr.Evaluate(nil, e.context.GetParams())
		if err != nil {
			return err
		}
		if v.IsNull() {
			// col = NULL matches nothing
			return nil
		}
		casted, err := v.CastTo(parts[i].Type)
		if err != nil {
			key = nil
			break
		}
		key = append(key, casted)
	}
	it := index.ITER_EQ
	if key == nil {
		iid, it, key = 0, index.ITER_ALL, index.Key{}
	}
	rows, err := e.context.GetCatalog().Select(e.context.GetTransaction(), e.context.GetUID(),
		e.plan.GetSpaceID(), iid, it, key)
	if err != nil {
		return err
	}
	e.rows = rows
	return nil
}

func (e *PointScanWithIndexExecutor) Next() (*tuple.Tuple, Done, error) {
	return e.next()
}

// ValuesExecutor yields a single row without fields.
type ValuesExecutor struct {
	emitted bool
}

func NewValuesExecutor() Executor {
	return &ValuesExecutor{}
}

func (e *ValuesExecutor) Init() error {
	e.emitted = false
	return nil
}

func (e *ValuesExecutor) Next() (*tuple.Tuple, Done, error) {
	if e.emitted {
		return nil, true, nil
	}
	e.emitted = true
	return tuple.NewTupleFromValues([]types.Value{}), false, nil
}
