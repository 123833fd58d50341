package parser

import (
	"strings"

	"github.com/pingcap/parser/format"
	"github.com/pingcap/parser/mysql"
	ptypes "github.com/pingcap/parser/types"
	tidbtypes "github.com/pingcap/tidb/types"
	driver "github.com/pingcap/tidb/types/parser_driver"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/types"
)

func ValueExprToValue(expr *driver.ValueExpr) (types.Value, error) {
	switch expr.Datum.Kind() {
	case tidbtypes.KindNull:
		return types.NewNull(), nil
	case tidbtypes.KindInt64:
		return types.NewInteger(expr.Datum.GetInt64()), nil
	case tidbtypes.KindUint64:
		return types.NewUnsigned(expr.Datum.GetUint64()), nil
	case tidbtypes.KindFloat32, tidbtypes.KindFloat64:
		return types.NewDouble(expr.Datum.GetFloat64()), nil
	case tidbtypes.KindMysqlDecimal:
		f, err := expr.Datum.GetMysqlDecimal().ToFloat64()
		if err != nil {
			return types.NewNull(), common.NewClientError(common.ER_SQL_PARSER, err.Error())
		}
		return types.NewDouble(f), nil
	case tidbtypes.KindString, tidbtypes.KindBytes:
		return types.NewString(expr.Datum.GetString()), nil
	}
	return types.NewNull(), common.NewClientError(common.ER_SQL_PARSER, "unsupported literal "+expr.Datum.String())
}

// fieldTypeToTypeID maps a column type of CREATE TABLE to a format type.
func fieldTypeToTypeID(tp *ptypes.FieldType) (types.TypeID, error) {
	switch tp.Tp {
	case mysql.TypeTiny:
		if tp.Flen == 1 {
			return types.Boolean, nil
		}
		fallthrough
	case mysql.TypeShort, mysql.TypeInt24, mysql.TypeLong, mysql.TypeLonglong:
		if mysql.HasUnsignedFlag(tp.Flag) {
			return types.Unsigned, nil
		}
		return types.Integer, nil
	case mysql.TypeFloat, mysql.TypeDouble:
		return types.Double, nil
	case mysql.TypeNewDecimal:
		return types.Number, nil
	case mysql.TypeVarchar, mysql.TypeVarString, mysql.TypeString,
		mysql.TypeBlob, mysql.TypeTinyBlob, mysql.TypeMediumBlob, mysql.TypeLongBlob:
		return types.String, nil
	}
	return types.Invalid, common.NewClientError(common.ER_SQL_PARSER, "unsupported column type "+tp.String())
}

// restoreText prints a node back as canonical SQL.
func restoreText(node interface {
	Restore(ctx *format.RestoreCtx) error
}) (string, error) {
	var sb strings.Builder
	if err := node.Restore(format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)); err != nil {
		return "", common.NewClientError(common.ER_SQL_PARSER, err.Error())
	}
	return sb.String(), nil
}
