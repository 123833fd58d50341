package parser

import (
	"github.com/ryogrid/SamehadaDict/types"
)

type QueryType int32

const (
	SELECT QueryType = iota
	INSERT
	UPDATE
	DELETE
	CREATE_TABLE
	DROP_TABLE
	ALTER_TABLE
	CREATE_INDEX
	DROP_INDEX
	TRUNCATE
	BEGIN
	COMMIT
	ROLLBACK
)

var queryTypeNames = map[QueryType]string{
	SELECT:       "SELECT",
	INSERT:       "INSERT",
	UPDATE:       "UPDATE",
	DELETE:       "DELETE",
	CREATE_TABLE: "CREATE TABLE",
	DROP_TABLE:   "DROP TABLE",
	ALTER_TABLE:  "ALTER TABLE",
	CREATE_INDEX: "CREATE INDEX",
	DROP_INDEX:   "DROP INDEX",
	TRUNCATE:     "TRUNCATE",
	BEGIN:        "BEGIN",
	COMMIT:       "COMMIT",
	ROLLBACK:     "ROLLBACK",
}

func (t QueryType) String() string {
	return queryTypeNames[t]
}

// IsDDL reports whether statements of this type change the catalog.
func (t QueryType) IsDDL() bool {
	return t >= CREATE_TABLE && t <= TRUNCATE
}

// IsTxnControl reports BEGIN, COMMIT and ROLLBACK.
func (t QueryType) IsTxnControl() bool {
	return t >= BEGIN
}

/**
 * Statement is one parsed SQL statement. Each QueryType has its own
 * variant carrying only the fields of that kind of statement.
 */
type Statement interface {
	GetType() QueryType
}

type ColumnDefinition struct {
	Name          string
	Type          types.TypeID
	NotNull       bool
	PrimaryKey    bool
	Unique        bool
	AutoIncrement bool
	Default       Expr
	Collation     string
	Check         *CheckDefinition
	References    *ForeignKeyDefinition
}

type IndexDefinition struct {
	Name    string
	Columns []string
	Unique  bool
}

type CheckDefinition struct {
	Name string
	Expr Expr
	// canonical SQL text of Expr, compiled again whenever the check is
	// loaded from the catalog
	Text string
}

type ForeignKeyDefinition struct {
	Name          string
	Columns       []string
	ParentTable   string
	ParentColumns []string
}

type CreateTable struct {
	Name        string
	IfNotExists bool
	Columns     []*ColumnDefinition
	PrimaryKey  []string
	Indexes     []*IndexDefinition
	Checks      []*CheckDefinition
	ForeignKeys []*ForeignKeyDefinition
}

type DropTable struct {
	Names    []string
	IfExists bool
}

type AlterAction interface {
	alterAction()
}

type AddColumn struct {
	Column *ColumnDefinition
}

type AddIndex struct {
	Index *IndexDefinition
}

type AddCheck struct {
	Check *CheckDefinition
}

type AddForeignKey struct {
	ForeignKey *ForeignKeyDefinition
}

type DropForeignKey struct {
	Name string
}

type DropIndexAction struct {
	Name string
}

type RenameTable struct {
	NewName string
}

func (*AddColumn) alterAction()       {}
func (*AddIndex) alterAction()        {}
func (*AddCheck) alterAction()        {}
func (*AddForeignKey) alterAction()   {}
func (*DropForeignKey) alterAction()  {}
func (*DropIndexAction) alterAction() {}
func (*RenameTable) alterAction()     {}

type AlterTable struct {
	Table   string
	Actions []AlterAction
}

type CreateIndex struct {
	Table       string
	Index       *IndexDefinition
	IfNotExists bool
}

type DropIndex struct {
	Table    string
	Name     string
	IfExists bool
}

type Truncate struct {
	Table string
}

type Insert struct {
	Table     string
	Columns   []string
	Rows      [][]Expr
	IsReplace bool
}

type SelectField struct {
	Expr  Expr
	Alias string
	// set for *, Expr is nil then
	Star bool
}

type OrderByItem struct {
	Expr Expr
	Desc bool
}

type Select struct {
	// empty for SELECT without FROM
	Table   string
	Fields  []*SelectField
	Where   Expr
	OrderBy []*OrderByItem
	Limit   Expr
	Offset  Expr
}

type Assignment struct {
	Column string
	Expr   Expr
}

type Update struct {
	Table       string
	Assignments []*Assignment
	Where       Expr
}

type Delete struct {
	Table string
	Where Expr
}

type Begin struct{}
type Commit struct{}
type Rollback struct{}

func (*CreateTable) GetType() QueryType { return CREATE_TABLE }
func (*DropTable) GetType() QueryType   { return DROP_TABLE }
func (*AlterTable) GetType() QueryType  { return ALTER_TABLE }
func (*CreateIndex) GetType() QueryType { return CREATE_INDEX }
func (*DropIndex) GetType() QueryType   { return DROP_INDEX }
func (*Truncate) GetType() QueryType    { return TRUNCATE }
func (*Insert) GetType() QueryType      { return INSERT }
func (*Select) GetType() QueryType      { return SELECT }
func (*Update) GetType() QueryType      { return UPDATE }
func (*Delete) GetType() QueryType      { return DELETE }
func (*Begin) GetType() QueryType       { return BEGIN }
func (*Commit) GetType() QueryType      { return COMMIT }
func (*Rollback) GetType() QueryType    { return ROLLBACK }
