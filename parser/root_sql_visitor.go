package parser

import (
	"strconv"

	"github.com/pingcap/parser/ast"
	"github.com/ryogrid/SamehadaDict/common"
)

func unsupported(what string) error {
	return common.NewClientError(common.ER_SQL_PARSER, what+" is not supported")
}

// statement converts the root node of a parsed statement.
func (c *exprConverter) statement(root ast.StmtNode) (Statement, error) {
	switch node := root.(type) {
	case *ast.CreateTableStmt:
		return c.createTable(node)
	case *ast.DropTableStmt:
		if node.IsView {
			return nil, unsupported("DROP VIEW")
		}
		stmt := &DropTable{IfExists: node.IfExists}
		for _, tn := range node.Tables {
			stmt.Names = append(stmt.Names, tn.Name.O)
		}
		return stmt, nil
	case *ast.AlterTableStmt:
		return c.alterTable(node)
	case *ast.CreateIndexStmt:
		idx := &IndexDefinition{Name: node.IndexName, Unique: node.KeyType == ast.IndexKeyTypeUnique}
		cols, err := keyColumns(node.IndexPartSpecifications)
		if err != nil {
			return nil, err
		}
		idx.Columns = cols
		return &CreateIndex{Table: node.Table.Name.O, Index: idx, IfNotExists: node.IfNotExists}, nil
	case *ast.DropIndexStmt:
		return &DropIndex{Table: node.Table.Name.O, Name: node.IndexName, IfExists: node.IfExists}, nil
	case *ast.TruncateTableStmt:
		return &Truncate{Table: node.Table.Name.O}, nil
	case *ast.InsertStmt:
		return c.insert(node)
	case *ast.SelectStmt:
		return c.selectStmt(node)
	case *ast.UpdateStmt:
		return c.update(node)
	case *ast.DeleteStmt:
		if node.IsMultiTable {
			return nil, unsupported("multi-table DELETE")
		}
		table, err := tableFromRefs(node.TableRefs)
		if err != nil {
			return nil, err
		}
		where, err := c.convert(node.Where)
		if err != nil {
			return nil, err
		}
		return &Delete{Table: table, Where: where}, nil
	case *ast.BeginStmt:
		return &Begin{}, nil
	case *ast.CommitStmt:
		return &Commit{}, nil
	case *ast.RollbackStmt:
		return &Rollback{}, nil
	}
	return nil, unsupported("statement '" + root.Text() + "'")
}

func tableFromRefs(refs *ast.TableRefsClause) (string, error) {
	if refs == nil || refs.TableRefs == nil {
		return "", unsupported("statement without a table")
	}
	join := refs.TableRefs
	if join.Right != nil {
		return "", unsupported("JOIN")
	}
	ts, ok := join.Left.(*ast.TableSource)
	if !ok {
		return "", unsupported("subquery")
	}
	tn, ok := ts.Source.(*ast.TableName)
	if !ok {
		return "", unsupported("subquery")
	}
	return tn.Name.O, nil
}

func keyColumns(parts []*ast.IndexPartSpecification) ([]string, error) {
	ret := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Column == nil {
			return nil, unsupported("expression key part")
		}
		ret = append(ret, p.Column.Name.O)
	}
	return ret, nil
}

func (c *exprConverter) check(name string, expr ast.ExprNode) (*CheckDefinition, error) {
	converted, err := c.convert(expr)
	if err != nil {
		return nil, err
	}
	text, err := restoreText(expr)
	if err != nil {
		return nil, err
	}
	return &CheckDefinition{Name: name, Expr: converted, Text: text}, nil
}

func foreignKey(name string, cols []string, refer *ast.ReferenceDef) (*ForeignKeyDefinition, error) {
	parentCols, err := keyColumns(refer.IndexPartSpecifications)
	if err != nil {
		return nil, err
	}
	return &ForeignKeyDefinition{Name: name, Columns: cols, ParentTable: refer.Table.Name.O, ParentColumns: parentCols}, nil
}

func (c *exprConverter) column(table string, col *ast.ColumnDef, n *int) (*ColumnDefinition, error) {
	tp, err := fieldTypeToTypeID(col.Tp)
	if err != nil {
		return nil, err
	}
	def := &ColumnDefinition{Name: col.Name.Name.O, Type: tp}
	for _, opt := range col.Options {
		switch opt.Tp {
		case ast.ColumnOptionPrimaryKey:
			def.PrimaryKey = true
			def.NotNull = true
		case ast.ColumnOptionNotNull:
			def.NotNull = true
		case ast.ColumnOptionNull:
			def.NotNull = false
		case ast.ColumnOptionAutoIncrement:
			def.AutoIncrement = true
		case ast.ColumnOptionUniqKey:
			def.Unique = true
		case ast.ColumnOptionCollate:
			def.Collation = opt.StrValue
		case ast.ColumnOptionDefaultValue:
			if def.Default, err = c.convert(opt.Expr); err != nil {
				return nil, err
			}
		case ast.ColumnOptionCheck:
			*n++
			if def.Check, err = c.check("ck_unnamed_"+table+"_"+strconv.Itoa(*n), opt.Expr); err != nil {
				return nil, err
			}
		case ast.ColumnOptionReference:
			*n++
			if def.References, err = foreignKey("fk_unnamed_"+table+"_"+strconv.Itoa(*n), []string{def.Name}, opt.Refer); err != nil {
				return nil, err
			}
		case ast.ColumnOptionComment, ast.ColumnOptionNoOption:
		default:
			return nil, unsupported("column option of '" + def.Name + "'")
		}
	}
	return def, nil
}

// constraint handles a table level constraint of CREATE TABLE and ALTER
// TABLE ADD. PRIMARY KEY is returned as a unique index named "pk".
func (c *exprConverter) constraint(table string, cons *ast.Constraint, n *int) (AlterAction, bool, error) {
	switch cons.Tp {
	case ast.ConstraintPrimaryKey, ast.ConstraintKey, ast.ConstraintIndex,
		ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
		cols, err := keyColumns(cons.Keys)
		if err != nil {
			return nil, false, err
		}
		idx := &IndexDefinition{Name: cons.Name, Columns: cols}
		switch cons.Tp {
		case ast.ConstraintPrimaryKey:
			idx.Unique = true
			return &AddIndex{Index: idx}, true, nil
		case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
			idx.Unique = true
		}
		return &AddIndex{Index: idx}, false, nil
	case ast.ConstraintCheck:
		name := cons.Name
		if name == "" {
			*n++
			name = "ck_unnamed_" + table + "_" + strconv.Itoa(*n)
		}
		ck, err := c.check(name, cons.Expr)
		if err != nil {
			return nil, false, err
		}
		return &AddCheck{Check: ck}, false, nil
	case ast.ConstraintForeignKey:
		cols, err := keyColumns(cons.Keys)
		if err != nil {
			return nil, false, err
		}
		name := cons.Name
		if name == "" {
			*n++
			name = "fk_unnamed_" + table + "_" + strconv.Itoa(*n)
		}
		fk, err := foreignKey(name, cols, cons.Refer)
		if err != nil {
			return nil, false, err
		}
		return &AddForeignKey{ForeignKey: fk}, false, nil
	}
	return nil, false, unsupported("constraint '" + cons.Name + "'")
}

func (c *exprConverter) createTable(node *ast.CreateTableStmt) (Statement, error) {
	if node.Select != nil || node.ReferTable != nil {
		return nil, unsupported("CREATE TABLE AS")
	}
	stmt := &CreateTable{Name: node.Table.Name.O, IfNotExists: node.IfNotExists}
	unnamed := 0
	for _, col := range node.Cols {
		def, err := c.column(stmt.Name, col, &unnamed)
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, def)
		if def.PrimaryKey {
			if stmt.PrimaryKey != nil {
				return nil, common.NewClientError(common.ER_SQL_PARSER, "primary key has been already declared")
			}
			stmt.PrimaryKey = []string{def.Name}
		}
	}
	for _, cons := range node.Constraints {
		action, isPK, err := c.constraint(stmt.Name, cons, &unnamed)
		if err != nil {
			return nil, err
		}
		switch a := action.(type) {
		case *AddIndex:
			if isPK {
				if stmt.PrimaryKey != nil {
					return nil, common.NewClientError(common.ER_SQL_PARSER, "primary key has been already declared")
				}
				stmt.PrimaryKey = a.Index.Columns
			} else {
				stmt.Indexes = append(stmt.Indexes, a.Index)
			}
		case *AddCheck:
			stmt.Checks = append(stmt.Checks, a.Check)
		case *AddForeignKey:
			stmt.ForeignKeys = append(stmt.ForeignKeys, a.ForeignKey)
		}
	}
	return stmt, nil
}

func (c *exprConverter) alterTable(node *ast.AlterTableStmt) (Statement, error) {
	stmt := &AlterTable{Table: node.Table.Name.O}
	unnamed := 0
	for _, spec := range node.Specs {
		switch spec.Tp {
		case ast.AlterTableAddColumns:
			for _, col := range spec.NewColumns {
				def, err := c.column(stmt.Table, col, &unnamed)
				if err != nil {
					return nil, err
				}
				if def.PrimaryKey {
					return nil, unsupported("adding a primary key column")
				}
				stmt.Actions = append(stmt.Actions, &AddColumn{Column: def})
			}
		case ast.AlterTableAddConstraint:
			action, isPK, err := c.constraint(stmt.Table, spec.Constraint, &unnamed)
			if err != nil {
				return nil, err
			}
			if isPK {
				return nil, unsupported("ALTER TABLE ADD PRIMARY KEY")
			}
			stmt.Actions = append(stmt.Actions, action)
		case ast.AlterTableDropForeignKey:
			stmt.Actions = append(stmt.Actions, &DropForeignKey{Name: spec.Name})
		case ast.AlterTableDropIndex:
			stmt.Actions = append(stmt.Actions, &DropIndexAction{Name: spec.Name})
		case ast.AlterTableRenameTable:
			stmt.Actions = append(stmt.Actions, &RenameTable{NewName: spec.NewTable.Name.O})
		default:
			return nil, unsupported("ALTER TABLE action")
		}
	}
	return stmt, nil
}

func (c *exprConverter) insert(node *ast.InsertStmt) (Statement, error) {
	if node.Select != nil || len(node.Setlist) > 0 || len(node.OnDuplicate) > 0 {
		return nil, unsupported("INSERT form")
	}
	table, err := tableFromRefs(node.Table)
	if err != nil {
		return nil, err
	}
	stmt := &Insert{Table: table, IsReplace: node.IsReplace}
	for _, col := range node.Columns {
		stmt.Columns = append(stmt.Columns, col.Name.O)
	}
	for _, list := range node.Lists {
		row := make([]Expr, 0, len(list))
		for _, e := range list {
			converted, err := c.convert(e)
			if err != nil {
				return nil, err
			}
			row = append(row, converted)
		}
		stmt.Rows = append(stmt.Rows, row)
	}
	return stmt, nil
}

func (c *exprConverter) selectStmt(node *ast.SelectStmt) (Statement, error) {
	if node.Distinct || node.GroupBy != nil || node.Having != nil {
		return nil, unsupported("DISTINCT, GROUP BY or HAVING")
	}
	stmt := &Select{}
	if node.From != nil {
		table, err := tableFromRefs(node.From)
		if err != nil {
			return nil, err
		}
		stmt.Table = table
	}
	var err error
	for _, f := range node.Fields.Fields {
		if f.WildCard != nil {
			stmt.Fields = append(stmt.Fields, &SelectField{Star: true})
			continue
		}
		sf := &SelectField{Alias: f.AsName.O}
		if sf.Expr, err = c.convert(f.Expr); err != nil {
			return nil, err
		}
		stmt.Fields = append(stmt.Fields, sf)
	}
	if stmt.Where, err = c.convert(node.Where); err != nil {
		return nil, err
	}
	if node.OrderBy != nil {
		for _, item := range node.OrderBy.Items {
			e, err := c.convert(item.Expr)
			if err != nil {
				return nil, err
			}
			stmt.OrderBy = append(stmt.OrderBy, &OrderByItem{Expr: e, Desc: item.Desc})
		}
	}
	if node.Limit != nil {
		if stmt.Limit, err = c.convert(node.Limit.Count); err != nil {
			return nil, err
		}
		if stmt.Offset, err = c.convert(node.Limit.Offset); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (c *exprConverter) update(node *ast.UpdateStmt) (Statement, error) {
	if node.MultipleTable || node.Order != nil || node.Limit != nil {
		return nil, unsupported("UPDATE form")
	}
	table, err := tableFromRefs(node.TableRefs)
	if err != nil {
		return nil, err
	}
	stmt := &Update{Table: table}
	for _, a := range node.List {
		e, err := c.convert(a.Expr)
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, &Assignment{Column: a.Column.Name.O, Expr: e})
	}
	if stmt.Where, err = c.convert(node.Where); err != nil {
		return nil, err
	}
	return stmt, nil
}
