package plans

type PlanType int

const (
	SeqScan PlanType = iota
	IndexPointScan
	Values
	Projection
	Orderby
	Limit
	Insert
	Update
	Delete
	DDL
	TxnControl
)

var planTypeNames = map[PlanType]string{
	SeqScan:        "SeqScan",
	IndexPointScan: "IndexPointScan",
	Values:         "Values",
	Projection:     "Projection",
	Orderby:        "Orderby",
	Limit:          "Limit",
	Insert:         "Insert",
	Update:         "Update",
	Delete:         "Delete",
	DDL:            "DDL",
	TxnControl:     "TxnControl",
}

func (t PlanType) String() string { return planTypeNames[t] }

/**
 * Plan is a node of the tree a statement compiles into. Rows flow from
 * the leaves to the root; the root of a query produces the result set.
 */
type Plan interface {
	GetChildAt(childIndex uint32) Plan
	GetChildren() []Plan
	GetType() PlanType
}

type AbstractPlanNode struct {
	children []Plan
}

func (p *AbstractPlanNode) GetChildAt(childIndex uint32) Plan {
	if int(childIndex) >= len(p.children) {
		return nil
	}
	return p.children[childIndex]
}

func (p *AbstractPlanNode) GetChildren() []Plan {
	return p.children
}

// Column describes one column of a result set.
type Column struct {
	Name string
	Type string
}

// Param describes one ? marker of a statement.
type Param struct {
	Name string
	Type string
}

// GetDebugStr prints a plan tree with one node per line.
func GetDebugStr(p Plan) string {
	return debugStr(p, "")
}

func debugStr(p Plan, indent string) string {
	ret := indent + p.GetType().String() + "\n"
	for _, child := range p.GetChildren() {
		ret += debugStr(child, indent+"  ")
	}
	return ret
}
