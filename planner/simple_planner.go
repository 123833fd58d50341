package planner

import (
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ryogrid/SamehadaDict/catalog"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/execution/expression"
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/parser"
	"github.com/ryogrid/SamehadaDict/planner/optimizer"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/types"
)

/**
 * SimplePlanner compiles one statement against the schema visible to a
 * transaction. Names are resolved to ids and field numbers here, so a
 * plan is only valid for the schema version it was built with.
 */
type SimplePlanner struct {
	qi        *parser.QueryInfo
	catalog_  *catalog.Catalog
	txn       *access.Transaction
	optimizer optimizer.Optimizer
}

func NewSimplePlanner(c *catalog.Catalog) *SimplePlanner {
	return &SimplePlanner{nil, c, nil, optimizer.NewIndexScanOptimizer()}
}

func (pner *SimplePlanner) MakePlan(qi *parser.QueryInfo, txn *access.Transaction) (*CompiledQuery, error) {
	pner.qi = qi
	pner.txn = txn

	ret := &CompiledQuery{
		Type:       qi.GetType(),
		Columns:    make([]plans.Column, 0),
		Params:     make([]plans.Param, qi.ParamCount_),
		ParamCount: qi.ParamCount_,
		Spaces:     mapset.NewSet[uint32](),
	}
	for i := range ret.Params {
		ret.Params[i] = plans.Param{Name: "?", Type: "ANY"}
	}

	var err error
	switch stmt := qi.Statement_.(type) {
	case *parser.Select:
		err = pner.MakeSelectPlan(stmt, ret)
	case *parser.Insert:
		err = pner.MakeInsertPlan(stmt, ret)
	case *parser.Update:
		err = pner.MakeUpdatePlan(stmt, ret)
	case *parser.Delete:
		err = pner.MakeDeletePlan(stmt, ret)
	case *parser.Begin, *parser.Commit, *parser.Rollback:
		ret.Plan = plans.NewTxnControlPlanNode(qi.GetType())
	default:
		if !qi.GetType().IsDDL() {
			return nil, common.NewClientError(common.ER_SQL_EXECUTE, "unknown statement "+qi.GetType().String())
		}
		ret.Plan = plans.NewDDLPlanNode(stmt)
	}
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (pner *SimplePlanner) spaceByName(name string) (*schema.Space, error) {
	sp := pner.catalog_.SpaceByName(pner.txn, name)
	if sp == nil {
		return nil, common.NewClientError(common.ER_NO_SUCH_SPACE, name)
	}
	return sp, nil
}

// resolverFor resolves the columns of one space. A qualified reference
// must name that space.
func resolverFor(def *schema.SpaceDef) expression.ColumnResolver {
	return func(ref *parser.ColumnRef) (uint32, error) {
		if ref.Table != "" && ref.Table != def.Name {
			return 0, common.NewClientError(common.ER_SQL_NO_SUCH_COLUMN, ref.Table+"."+ref.Name)
		}
		fieldno, ok := def.FieldByName(ref.Name)
		if !ok {
			return 0, common.NewClientError(common.ER_SQL_NO_SUCH_COLUMN, ref.Name)
		}
		return fieldno, nil
	}
}

// makeScan builds the row source of a statement over sp, filtered by
// where. An equality on an index prefix turns it into a point scan.
func (pner *SimplePlanner) makeScan(sp *schema.Space, where parser.Expr) (plans.Plan, error) {
	resolve := resolverFor(sp.Def)
	var predicate expression.Expression
	if where != nil {
		var err error
		if predicate, err = expression.Build(where, resolve); err != nil {
			return nil, err
		}
	}
	choice, err := pner.optimizer.BestScan(sp, where, resolve)
	if err != nil {
		return nil, err
	}
	if choice.Index == nil {
		return plans.NewSeqScanPlanNode(sp.ID(), predicate), nil
	}
	key := make([]expression.Expression, len(choice.Key))
	for i, e := range choice.Key {
		if key[i], err = expression.Build(e, nil); err != nil {
			return nil, err
		}
	}
	common.ShPrintf(common.DEBUG_INFO_DETAIL, "point scan on index %s of %s", choice.Index.Name, sp.Name())
	return plans.NewPointScanWithIndexPlanNode(sp.ID(), choice.Index, key, predicate), nil
}

// columnType names the type of a result column the way space formats do.
func columnType(e parser.Expr, def *schema.SpaceDef) string {
	switch x := e.(type) {
	case *parser.ColumnRef:
		if def != nil {
			if fieldno, ok := def.FieldByName(x.Name); ok {
				return def.Fields[fieldno].Type.String()
			}
		}
	case *parser.Literal:
		if x.Value.IsNull() {
			return "any"
		}
		return x.Value.ValueType().String()
	case *parser.IsNull:
		return types.Boolean.String()
	case *parser.Unary:
		if x.Op == parser.OpNot {
			return types.Boolean.String()
		}
		return columnType(x.Operand, def)
	case *parser.Binary:
		if x.Op.IsComparison() || x.Op.IsLogical() {
			return types.Boolean.String()
		}
		return types.Number.String()
	}
	return "any"
}

func (pner *SimplePlanner) MakeSelectPlan(stmt *parser.Select, ret *CompiledQuery) error {
	var sp *schema.Space
	var def *schema.SpaceDef
	var resolve expression.ColumnResolver
	var source plans.Plan
	if stmt.Table != "" {
		var err error
		if sp, err = pner.spaceByName(stmt.Table); err != nil {
			return err
		}
		def = sp.Def
		resolve = resolverFor(def)
		if source, err = pner.makeScan(sp, stmt.Where); err != nil {
			return err
		}
		ret.Spaces.Add(sp.ID())
	} else {
		if stmt.Where != nil {
			return common.NewClientError(common.ER_SQL_EXECUTE, "WHERE clause requires a FROM clause")
		}
		source = plans.NewValuesPlanNode()
	}

	// * is expanded against the format the statement is compiled with
	fields := make([]*parser.SelectField, 0, len(stmt.Fields))
	for _, f := range stmt.Fields {
		if !f.Star {
			fields = append(fields, f)
			continue
		}
		if def == nil {
			return common.NewClientError(common.ER_SQL_EXECUTE, "no tables specified")
		}
		for _, fd := range def.Fields {
			fields = append(fields, &parser.SelectField{Expr: &parser.ColumnRef{Name: fd.Name}})
		}
	}

	exprs := make([]expression.Expression, len(fields))
	for i, f := range fields {
		var err error
		if exprs[i], err = expression.Build(f.Expr, resolve); err != nil {
			return err
		}
		name := f.Alias
		if name == "" {
			if ref, ok := f.Expr.(*parser.ColumnRef); ok {
				name = ref.Name
			} else {
				name = "COLUMN_" + strconv.Itoa(i+1)
			}
		}
		ret.Columns = append(ret.Columns, plans.Column{Name: name, Type: columnType(f.Expr, def)})
	}

	if len(stmt.OrderBy) > 0 {
		orderExprs := make([]expression.Expression, len(stmt.OrderBy))
		orderTypes := make([]plans.OrderbyType, len(stmt.OrderBy))
		for i, item := range stmt.OrderBy {
			e, err := pner.orderTerm(item.Expr, fields, resolve)
			if err != nil {
				return err
			}
			orderExprs[i] = e
			orderTypes[i] = plans.ASC
			if item.Desc {
				orderTypes[i] = plans.DESC
			}
		}
		source = plans.NewOrderbyPlanNode(source, orderExprs, orderTypes)
	}

	plan := plans.NewProjectionPlanNode(source, exprs)
	if stmt.Limit != nil || stmt.Offset != nil {
		var limit, offset expression.Expression
		var err error
		if stmt.Limit != nil {
			if limit, err = expression.Build(stmt.Limit, nil); err != nil {
				return err
			}
		}
		if stmt.Offset != nil {
			if offset, err = expression.Build(stmt.Offset, nil); err != nil {
				return err
			}
		}
		plan = plans.NewLimitPlanNode(plan, limit, offset)
	}
	ret.Plan = plan
	return nil
}

// orderTerm resolves an ORDER BY term. The sort runs below the
// projection, so an alias or a position is replaced by the expression
// of that result column.
func (pner *SimplePlanner) orderTerm(e parser.Expr, fields []*parser.SelectField, resolve expression.ColumnResolver) (expression.Expression, error) {
	switch x := e.(type) {
	case *parser.Literal:
		if x.Value.IsInteger() {
			pos := x.Value.ToInteger()
			if pos < 1 || pos > int64(len(fields)) {
				return nil, common.NewClientError(common.ER_SQL_EXECUTE,
					"ORDER BY term out of range - should be between 1 and "+strconv.Itoa(len(fields)))
			}
			return expression.Build(fields[pos-1].Expr, resolve)
		}
	case *parser.ColumnRef:
		if x.Table == "" {
			for _, f := range fields {
				if f.Alias != "" && f.Alias == x.Name {
					return expression.Build(f.Expr, resolve)
				}
			}
		}
	}
	return expression.Build(e, resolve)
}

func (pner *SimplePlanner) MakeInsertPlan(stmt *parser.Insert, ret *CompiledQuery) error {
	sp, err := pner.spaceByName(stmt.Table)
	if err != nil {
		return err
	}
	def := sp.Def
	ret.Spaces.Add(sp.ID())

	// target field of each value position
	targets := make([]uint32, 0, len(def.Fields))
	if len(stmt.Columns) == 0 {
		for i := range def.Fields {
			targets = append(targets, uint32(i))
		}
	} else {
		seen := mapset.NewThreadUnsafeSet[uint32]()
		for _, name := range stmt.Columns {
			fieldno, ok := def.FieldByName(name)
			if !ok {
				return common.NewClientError(common.ER_SQL_NO_SUCH_COLUMN, name)
			}
			if !seen.Add(fieldno) {
				return common.NewClientError(common.ER_SQL_EXECUTE, "column '"+name+"' specified more than once")
			}
			targets = append(targets, fieldno)
		}
	}

	rows := make([][]expression.Expression, 0, len(stmt.Rows))
	for _, values := range stmt.Rows {
		if len(values) != len(targets) {
			return common.NewClientError(common.ER_SQL_EXECUTE, "table "+def.Name+" has "+
				strconv.Itoa(len(targets))+" columns but "+strconv.Itoa(len(values))+" values were supplied")
		}
		row := make([]expression.Expression, len(def.Fields))
		for i, v := range values {
			if row[targets[i]], err = expression.Build(v, nil); err != nil {
				return err
			}
		}
		for i := range row {
			if row[i] != nil {
				continue
			}
			if def.Fields[i].HasDefault {
				row[i] = expression.NewConstantValue(def.Fields[i].Default)
			} else {
				row[i] = expression.NewConstantValue(types.NewNull())
			}
		}
		rows = append(rows, row)
	}

	mode := access.DUP_INSERT
	if stmt.IsReplace {
		mode = access.DUP_REPLACE_OR_INSERT
	}
	ret.Plan = plans.NewInsertPlanNode(sp.ID(), rows, mode)
	return nil
}

func (pner *SimplePlanner) MakeUpdatePlan(stmt *parser.Update, ret *CompiledQuery) error {
	sp, err := pner.spaceByName(stmt.Table)
	if err != nil {
		return err
	}
	ret.Spaces.Add(sp.ID())
	resolve := resolverFor(sp.Def)
	assignments := make([]plans.Assignment, 0, len(stmt.Assignments))
	for _, a := range stmt.Assignments {
		fieldno, err := resolve(&parser.ColumnRef{Name: a.Column})
		if err != nil {
			return err
		}
		e, err := expression.Build(a.Expr, resolve)
		if err != nil {
			return err
		}
		assignments = append(assignments, plans.Assignment{FieldNo: fieldno, Expr: e})
	}
	scan, err := pner.makeScan(sp, stmt.Where)
	if err != nil {
		return err
	}
	ret.Plan = plans.NewUpdatePlanNode(scan, sp.ID(), assignments)
	return nil
}

func (pner *SimplePlanner) MakeDeletePlan(stmt *parser.Delete, ret *CompiledQuery) error {
	sp, err := pner.spaceByName(stmt.Table)
	if err != nil {
		return err
	}
	ret.Spaces.Add(sp.ID())
	scan, err := pner.makeScan(sp, stmt.Where)
	if err != nil {
		return err
	}
	ret.Plan = plans.NewDeletePlanNode(scan, sp.ID())
	return nil
}
