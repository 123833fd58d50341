package plans

import (
	"github.com/ryogrid/SamehadaDict/execution/expression"
	"github.com/ryogrid/SamehadaDict/schema"
)

/**
 * SeqScanPlanNode reads every row of a space through its primary index
 * and keeps those matching the predicate. A nil predicate keeps all rows.
 */
type SeqScanPlanNode struct {
	*AbstractPlanNode
	predicate expression.Expression
	spaceID   uint32
}

func NewSeqScanPlanNode(spaceID uint32, predicate expression.Expression) Plan {
	return &SeqScanPlanNode{&AbstractPlanNode{}, predicate, spaceID}
}

func (p *SeqScanPlanNode) GetPredicate() expression.Expression { return p.predicate }

func (p *SeqScanPlanNode) GetSpaceID() uint32 { return p.spaceID }

func (p *SeqScanPlanNode) GetType() PlanType { return SeqScan }

/**
 * PointScanWithIndexPlanNode looks rows up by equality on a prefix of
 * the parts of one index. The key expressions are evaluated when the
 * scan starts; the predicate is still applied to every row found.
 */
type PointScanWithIndexPlanNode struct {
	*AbstractPlanNode
	predicate expression.Expression
	spaceID   uint32
	indexID   uint32
	key       []expression.Expression
	parts     []schema.PartDef
}

func NewPointScanWithIndexPlanNode(spaceID uint32, idx *schema.IndexDef, key []expression.Expression, predicate expression.Expression) Plan {
	return &PointScanWithIndexPlanNode{&AbstractPlanNode{}, predicate, spaceID, idx.IID, key, idx.Parts[:len(key)]}
}

func (p *PointScanWithIndexPlanNode) GetPredicate() expression.Expression { return p.predicate }

func (p *PointScanWithIndexPlanNode) GetSpaceID() uint32 { return p.spaceID }

func (p *PointScanWithIndexPlanNode) GetIndexID() uint32 { return p.indexID }

func (p *PointScanWithIndexPlanNode) GetKey() []expression.Expression { return p.key }

// GetParts returns the index parts the key covers.
func (p *PointScanWithIndexPlanNode) GetParts() []schema.PartDef { return p.parts }

func (p *PointScanWithIndexPlanNode) GetType() PlanType { return IndexPointScan }

// ValuesPlanNode produces one empty row, the source of SELECT without FROM.
type ValuesPlanNode struct {
	*AbstractPlanNode
}

func NewValuesPlanNode() Plan {
	return &ValuesPlanNode{&AbstractPlanNode{}}
}

func (p *ValuesPlanNode) GetType() PlanType { return Values }
