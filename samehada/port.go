package samehada

import (
	"github.com/ryogrid/SamehadaDict/execution/plans"
	"github.com/ryogrid/SamehadaDict/stmtcache"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
)

type SerializationFormat int

const (
	DQL_EXECUTE SerializationFormat = iota
	DML_EXECUTE
	DQL_PREPARE
	DML_PREPARE
)

var formatNames = map[SerializationFormat]string{
	DQL_EXECUTE: "DQL_EXECUTE",
	DML_EXECUTE: "DML_EXECUTE",
	DQL_PREPARE: "DQL_PREPARE",
	DML_PREPARE: "DML_PREPARE",
}

func (f SerializationFormat) String() string { return formatNames[f] }

// SQLInfo is what a statement without result columns reports.
type SQLInfo struct {
	RowCount         uint64
	AutoIncrementIDs []int64
}

/**
 * Port collects the response of one facade call. Result rows are
 * appended in the order they are produced and are never reordered.
 */
type Port struct {
	Format       SerializationFormat
	StmtID       stmtcache.StmtID
	Metadata     []plans.Column
	BindMetadata []plans.Param
	Rows         []*tuple.Tuple
	Info         SQLInfo
}

func newExecutePort(columnCount int) *Port {
	if columnCount > 0 {
		return &Port{Format: DQL_EXECUTE}
	}
	return &Port{Format: DML_EXECUTE}
}

func newPreparePort(id stmtcache.StmtID, columnCount int) *Port {
	if columnCount > 0 {
		return &Port{Format: DQL_PREPARE, StmtID: id}
	}
	return &Port{Format: DML_PREPARE, StmtID: id}
}

func (p *Port) AddTuple(t *tuple.Tuple) {
	p.Rows = append(p.Rows, t)
}

// Values returns the rows as plain Go values.
func (p *Port) Values() [][]interface{} {
	ret := make([][]interface{}, 0, len(p.Rows))
	for _, t := range p.Rows {
		values, err := t.Values()
		if err != nil {
			ret = append(ret, t.ToInterfaces())
			continue
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v.ToInterface()
		}
		ret = append(ret, row)
	}
	return ret
}

func columnMaps(cols []plans.Column) []map[string]interface{} {
	ret := make([]map[string]interface{}, len(cols))
	for i, c := range cols {
		ret[i] = map[string]interface{}{"name": c.Name, "type": c.Type}
	}
	return ret
}

func paramMaps(params []plans.Param) []map[string]interface{} {
	ret := make([]map[string]interface{}, len(params))
	for i, p := range params {
		ret[i] = map[string]interface{}{"name": p.Name, "type": p.Type}
	}
	return ret
}

/**
 * Dump renders the response as a map keyed the way a client sees it:
 *   DQL_EXECUTE: metadata, rows
 *   DML_EXECUTE: sql_info{row_count, autoincrement_ids}
 *   DQL_PREPARE: stmt_id, param_count, params, metadata
 *   DML_PREPARE: stmt_id, param_count, params
 * autoincrement_ids is present only when a sequence generated values.
 */
func (p *Port) Dump() map[string]interface{} {
	ret := make(map[string]interface{})
	switch p.Format {
	case DQL_EXECUTE:
		ret["metadata"] = columnMaps(p.Metadata)
		ret["rows"] = p.Values()
	case DML_EXECUTE:
		info := map[string]interface{}{"row_count": p.Info.RowCount}
		if len(p.Info.AutoIncrementIDs) > 0 {
			info["autoincrement_ids"] = p.Info.AutoIncrementIDs
		}
		ret["sql_info"] = info
	case DQL_PREPARE, DML_PREPARE:
		ret["stmt_id"] = uint32(p.StmtID)
		ret["param_count"] = len(p.BindMetadata)
		ret["params"] = paramMaps(p.BindMetadata)
		if p.Format == DQL_PREPARE {
			ret["metadata"] = columnMaps(p.Metadata)
		}
	}
	return ret
}
