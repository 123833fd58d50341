package executors

import (
	"strconv"

	"github.com/ryogrid/SamehadaDict/catalog"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/execution/expression"
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/parser"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

/**
 * DDLExecutor runs a schema changing statement through the box helpers
 * of the catalog. Every helper writes system space rows in the session
 * transaction, so the change becomes visible to other sessions when that
 * transaction commits.
 */
type DDLExecutor struct {
	context *ExecutorContext
	plan    *plans.DDLPlanNode
	done    bool
}

func NewDDLExecutor(context *ExecutorContext, plan *plans.DDLPlanNode) Executor {
	return &DDLExecutor{context: context, plan: plan}
}

func (e *DDLExecutor) Init() error {
	e.done = false
	return nil
}

func (e *DDLExecutor) Next() (*tuple.Tuple, Done, error) {
	if e.done {
		return nil, true, nil
	}
	e.done = true
	var err error
	switch stmt := e.plan.GetStatement().(type) {
	case *parser.CreateTable:
		err = e.createTable(stmt)
	case *parser.DropTable:
		err = e.dropTable(stmt)
	case *parser.AlterTable:
		err = e.alterTable(stmt)
	case *parser.CreateIndex:
		err = e.createIndex(stmt)
	case *parser.DropIndex:
		err = e.dropIndex(stmt)
	case *parser.Truncate:
		var sp *schema.Space
		if sp, err = e.spaceByName(stmt.Table); err == nil {
			err = e.cat().TruncateSpace(e.txn(), e.context.GetUID(), sp.ID())
		}
	default:
		err = common.NewClientError(common.ER_SQL_EXECUTE, "unexpected DDL statement")
	}
	if err != nil {
		return nil, true, err
	}
	e.context.addRow()
	return nil, true, nil
}

func (e *DDLExecutor) cat() *catalog.Catalog { return e.context.GetCatalog() }

func (e *DDLExecutor) txn() *access.Transaction { return e.context.GetTransaction() }

func (e *DDLExecutor) uid() uint32 { return e.context.GetUID() }

func sqlError(msg string) error {
	return common.NewClientError(common.ER_SQL_EXECUTE, msg)
}

func unnamed(kind string, table string, n int) string {
	return kind + "_unnamed_" + table + "_" + strconv.Itoa(n)
}

func (e *DDLExecutor) spaceByName(name string) (*schema.Space, error) {
	sp := e.cat().SpaceByName(e.txn(), name)
	if sp == nil {
		return nil, common.NewClientError(common.ER_NO_SUCH_SPACE, name)
	}
	return sp, nil
}

func (e *DDLExecutor) fieldDef(col *parser.ColumnDefinition) (schema.FieldDef, error) {
	f := schema.FieldDef{
		Name:       col.Name,
		Type:       col.Type,
		IsNullable: !col.NotNull && !col.PrimaryKey,
		Collation:  common.BoxIDNil,
	}
	if col.Collation != "" {
		coll := e.cat().CollationByName(col.Collation)
		if coll == nil {
			return f, common.NewClientError(common.ER_NO_SUCH_COLLATION, col.Collation)
		}
		if col.Type != types.String && col.Type != types.Scalar {
			return f, sqlError("COLLATE clause can't be used with non-string arguments")
		}
		f.Collation = coll.ID
	}
	if col.Default != nil {
		v, err := expression.EvalConstant(col.Default)
		if err != nil {
			return f, err
		}
		if !v.IsNull() {
			if v, err = v.CastTo(col.Type); err != nil {
				return f, common.NewClientError(common.ER_SQL_TYPE_MISMATCH, v.String(), col.Type.String())
			}
		}
		f.HasDefault = true
		f.Default = v
	}
	return f, nil
}

func indexParts(def *schema.SpaceDef, columns []string) ([]schema.PartDef, error) {
	parts := make([]schema.PartDef, 0, len(columns))
	for _, name := range columns {
		fieldno, ok := def.FieldByName(name)
		if !ok {
			return nil, common.NewClientError(common.ER_NO_SUCH_FIELD_NAME, name, def.Name)
		}
		f := &def.Fields[fieldno]
		parts = append(parts, schema.PartDef{FieldNo: fieldno, Type: f.Type, Collation: f.Collation, IsNullable: f.IsNullable})
	}
	return parts, nil
}

func (e *DDLExecutor) addIndex(sp *schema.Space, iid uint32, name string, unique bool, columns []string) error {
	parts, err := indexParts(sp.Def, columns)
	if err != nil {
		return err
	}
	_, err = e.cat().CreateIndex(e.txn(), e.uid(), &schema.IndexDef{
		SpaceID: sp.ID(), IID: iid, Name: name, Type: schema.IndexTypeTree, Unique: unique, Parts: parts,
	})
	return err
}

// addCheck stores the text of a check as a SQL_EXPR function and links
// it to the space, or to the field fieldName when it is set.
func (e *DDLExecutor) addCheck(sp *schema.Space, fieldName string, ck *parser.CheckDefinition) error {
	fid, err := e.cat().CreateFunction(e.txn(), e.uid(), &schema.Func{
		Name:     catalog.CheckFuncName(sp.Name(), ck.Name),
		Language: "SQL_EXPR",
		Body:     ck.Text,
		Returns:  "boolean",
	})
	if err != nil {
		return err
	}
	return e.cat().CreateConstraint(e.txn(), e.uid(), sp.ID(), fieldName,
		&schema.ConstraintDef{Name: ck.Name, Type: schema.CONSTR_FUNC, FuncID: fid})
}

// addForeignKey links the columns of sp to the parent columns, or to the
// primary key of the parent when they are not named. A single column
// key is stored in the format entry of that column.
func (e *DDLExecutor) addForeignKey(sp *schema.Space, fk *parser.ForeignKeyDefinition) error {
	fail := func(reason string) error {
		return common.NewClientError(common.ER_CREATE_FOREIGN_KEY, fk.Name, reason)
	}
	parent, err := e.spaceByName(fk.ParentTable)
	if err != nil {
		return err
	}
	var parentFields []uint32
	if len(fk.ParentColumns) == 0 {
		pk := parent.PrimaryIndex()
		if pk == nil {
			return fail("referenced space '" + parent.Name() + "' has no primary key")
		}
		parentFields = pk.FieldNos()
	} else {
		for _, name := range fk.ParentColumns {
			fieldno, ok := parent.Def.FieldByName(name)
			if !ok {
				return common.NewClientError(common.ER_NO_SUCH_FIELD_NAME, name, parent.Name())
			}
			parentFields = append(parentFields, fieldno)
		}
	}
	if len(parentFields) != len(fk.Columns) {
		return fail("number of columns in foreign key does not match the number of columns in the referenced table")
	}
	links := make([]schema.FieldLink, len(fk.Columns))
	for i, name := range fk.Columns {
		fieldno, ok := sp.Def.FieldByName(name)
		if !ok {
			return common.NewClientError(common.ER_NO_SUCH_FIELD_NAME, name, sp.Name())
		}
		links[i] = schema.FieldLink{Local: fieldno, Foreign: parentFields[i]}
	}
	cdef := &schema.ConstraintDef{Name: fk.Name, Type: schema.CONSTR_FKEY}
	fieldName := ""
	if len(links) == 1 {
		fieldName = fk.Columns[0]
		cdef.FKey = &schema.ForeignKeyDef{SpaceID: parent.ID(), Field: links[0].Foreign}
	} else {
		cdef.FKey = &schema.ForeignKeyDef{SpaceID: parent.ID(), Links: links}
	}
	return e.cat().CreateConstraint(e.txn(), e.uid(), sp.ID(), fieldName, cdef)
}

// columnConstraints creates what a column definition declares besides
// its field: UNIQUE, CHECK and REFERENCES.
func (e *DDLExecutor) columnConstraints(sp *schema.Space, col *parser.ColumnDefinition, uniqueNo *int) error {
	if col.Unique && !col.PrimaryKey {
		*uniqueNo++
		if err := e.addIndex(sp, common.BoxIDNil, unnamed("unique", sp.Name(), *uniqueNo), true, []string{col.Name}); err != nil {
			return err
		}
	}
	if col.Check != nil {
		if err := e.addCheck(sp, col.Name, col.Check); err != nil {
			return err
		}
	}
	if col.References != nil {
		if err := e.addForeignKey(sp, col.References); err != nil {
			return err
		}
	}
	return nil
}

func (e *DDLExecutor) createTable(stmt *parser.CreateTable) error {
	if e.cat().SpaceByName(e.txn(), stmt.Name) != nil {
		if stmt.IfNotExists {
			return nil
		}
		return common.NewClientError(common.ER_SPACE_EXISTS, stmt.Name)
	}

	// column and table level keys are merged by the parser
	pkColumns := stmt.PrimaryKey
	if len(pkColumns) == 0 {
		return sqlError("PRIMARY KEY missing on table " + stmt.Name)
	}

	def := &schema.SpaceDef{Name: stmt.Name, Engine: schema.EngineMemtx}
	for _, col := range stmt.Columns {
		f, err := e.fieldDef(col)
		if err != nil {
			return err
		}
		if _, dup := def.FieldByName(f.Name); dup {
			return sqlError("duplicate column name " + f.Name)
		}
		def.Fields = append(def.Fields, f)
	}
	for _, name := range pkColumns {
		fieldno, ok := def.FieldByName(name)
		if !ok {
			return common.NewClientError(common.ER_NO_SUCH_FIELD_NAME, name, stmt.Name)
		}
		def.Fields[fieldno].IsNullable = false
	}

	spaceID, err := e.cat().CreateSpace(e.txn(), e.uid(), def)
	if err != nil {
		return err
	}
	sp, err := e.spaceByName(stmt.Name)
	if err != nil {
		return err
	}
	if err := e.addIndex(sp, 0, unnamed("pk", stmt.Name, 1), true, pkColumns); err != nil {
		return err
	}
	// constraints below resolve against the space with its primary key
	if sp, err = e.spaceByName(stmt.Name); err != nil {
		return err
	}

	uniqueNo := 1
	for _, col := range stmt.Columns {
		if col.AutoIncrement {
			if err := e.attachSequence(sp, col, pkColumns); err != nil {
				return err
			}
		}
	}
	for _, col := range stmt.Columns {
		if err := e.columnConstraints(sp, col, &uniqueNo); err != nil {
			return err
		}
	}
	for _, idx := range stmt.Indexes {
		name := idx.Name
		if name == "" {
			uniqueNo++
			name = unnamed("unique", stmt.Name, uniqueNo)
		}
		if err := e.addIndex(sp, common.BoxIDNil, name, idx.Unique, idx.Columns); err != nil {
			return err
		}
	}
	for _, ck := range stmt.Checks {
		if err := e.addCheck(sp, "", ck); err != nil {
			return err
		}
	}
	for _, fk := range stmt.ForeignKeys {
		if sp, err = e.spaceByName(stmt.Name); err != nil {
			return err
		}
		if err := e.addForeignKey(sp, fk); err != nil {
			return err
		}
	}
	common.ShPrintf(common.DEBUG_INFO, "created space %s id %d", stmt.Name, spaceID)
	return nil
}

// attachSequence backs an AUTOINCREMENT column with a sequence named
// after the table.
func (e *DDLExecutor) attachSequence(sp *schema.Space, col *parser.ColumnDefinition, pkColumns []string) error {
	if len(pkColumns) != 1 || pkColumns[0] != col.Name || (col.Type != types.Integer && col.Type != types.Unsigned) {
		return sqlError("AUTOINCREMENT is only allowed on an INTEGER PRIMARY KEY")
	}
	fieldno, _ := sp.Def.FieldByName(col.Name)
	seqID, err := e.cat().CreateSequence(e.txn(), e.uid(), schema.NewSequenceDef(0, e.uid(), sp.Name()))
	if err != nil {
		return err
	}
	return e.cat().AttachSequence(e.txn(), sp.ID(), seqID, fieldno, true)
}

func (e *DDLExecutor) dropTable(stmt *parser.DropTable) error {
	for _, name := range stmt.Names {
		sp := e.cat().SpaceByName(e.txn(), name)
		if sp == nil {
			if stmt.IfExists {
				continue
			}
			return common.NewClientError(common.ER_NO_SUCH_SPACE, name)
		}
		if err := e.cat().DropSpace(e.txn(), e.uid(), sp.ID()); err != nil {
			return err
		}
	}
	return nil
}

func (e *DDLExecutor) createIndex(stmt *parser.CreateIndex) error {
	sp, err := e.spaceByName(stmt.Table)
	if err != nil {
		return err
	}
	if sp.IndexByName(stmt.Index.Name) != nil && stmt.IfNotExists {
		return nil
	}
	return e.addIndex(sp, common.BoxIDNil, stmt.Index.Name, stmt.Index.Unique, stmt.Index.Columns)
}

func (e *DDLExecutor) dropIndex(stmt *parser.DropIndex) error {
	sp, err := e.spaceByName(stmt.Table)
	if err != nil {
		return err
	}
	idx := sp.IndexByName(stmt.Name)
	if idx == nil {
		if stmt.IfExists {
			return nil
		}
		return common.NewClientError(common.ER_NO_SUCH_INDEX, stmt.Name, sp.Name())
	}
	return e.cat().DropIndex(e.txn(), e.uid(), sp.ID(), idx.IID)
}

func (e *DDLExecutor) alterTable(stmt *parser.AlterTable) error {
	for _, action := range stmt.Actions {
		// every action sees the space as the previous one left it
		sp, err := e.spaceByName(stmt.Table)
		if err != nil {
			return err
		}
		switch a := action.(type) {
		case *parser.AddColumn:
			col := a.Column
			if col.PrimaryKey || col.AutoIncrement {
				return sqlError("PRIMARY KEY and AUTOINCREMENT can't be added with ADD COLUMN")
			}
			f, err := e.fieldDef(col)
			if err != nil {
				return err
			}
			if err := e.cat().AddField(e.txn(), e.uid(), sp.ID(), &f); err != nil {
				return err
			}
			if sp, err = e.spaceByName(stmt.Table); err != nil {
				return err
			}
			uniqueNo := len(sp.Indexes)
			err = e.columnConstraints(sp, col, &uniqueNo)
		case *parser.AddIndex:
			name := a.Index.Name
			if name == "" {
				name = unnamed("unique", sp.Name(), len(sp.Indexes)+1)
			}
			err = e.addIndex(sp, common.BoxIDNil, name, a.Index.Unique, a.Index.Columns)
		case *parser.AddCheck:
			err = e.addCheck(sp, "", a.Check)
		case *parser.AddForeignKey:
			err = e.addForeignKey(sp, a.ForeignKey)
		case *parser.DropForeignKey:
			err = e.cat().DropConstraint(e.txn(), e.uid(), sp.ID(), schema.CONSTR_FKEY, a.Name)
		case *parser.DropIndexAction:
			idx := sp.IndexByName(a.Name)
			if idx == nil {
				return common.NewClientError(common.ER_NO_SUCH_INDEX, a.Name, sp.Name())
			}
			err = e.cat().DropIndex(e.txn(), e.uid(), sp.ID(), idx.IID)
		case *parser.RenameTable:
			err = e.cat().RenameSpace(e.txn(), e.uid(), sp.ID(), a.NewName)
		default:
			err = sqlError("unsupported ALTER TABLE action")
		}
		if err != nil {
			return err
		}
	}
	return nil
}
