package expression

import (
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
)

/**
 * ColumnValue maintains the field number of the column in the tuple being evaluated.
 */
type ColumnValue struct {
	*AbstractExpression
	colIndex uint32
	colName  string
}

func NewColumnValue(colIndex uint32, colName string) Expression {
	return &ColumnValue{&AbstractExpression{expr_type: EXPRESSION_TYPE_COLUMN_VALUE}, colIndex, colName}
}

func (c *ColumnValue) Evaluate(t *tuple.Tuple, _ []types.Value) (types.Value, error) {
	if t == nil {
		return types.NewNull(), common.NewClientError(common.ER_SQL_NO_SUCH_COLUMN, c.colName)
	}
	return t.GetValue(c.colIndex)
}

func (c *ColumnValue) GetColIndex() uint32 { return c.colIndex }

func (c *ColumnValue) GetColName() string { return c.colName }
