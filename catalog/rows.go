package catalog

import (
	"bytes"
	"strings"

	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/schema"
	"github.com/ryogrid/SamehadaDict/storage/index"
	"github.com/ryogrid/SamehadaDict/storage/tuple"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// keys of space options and format entries
const (
	optTemporary  = "temporary"
	fmtName       = "name"
	fmtType       = "type"
	fmtIsNullable = "is_nullable"
	fmtCollation  = "collation"
	fmtDefault    = "default"
	fkSpace       = "space"
	fkField       = "field"
	idxUnique     = "unique"
	partField     = "field"
	partType      = "type"
	partSortOrder = "sort_order"
)

func badRow(space string, err error) error {
	return common.NewClientError(common.ER_ILLEGAL_PARAMS, space+" row: "+err.Error())
}

// makeRow encodes a system row. Fields given as msgpack.RawMessage are
// copied as they are.
func makeRow(fields ...interface{}) (*tuple.Tuple, error) {
	raws := make([]msgpack.RawMessage, len(fields))
	for i, f := range fields {
		if raw, ok := f.(msgpack.RawMessage); ok {
			raws[i] = raw
			continue
		}
		raw, err := marshalCompact(f)
		if err != nil {
			return nil, err
		}
		raws[i] = raw
	}
	return tuple.NewTupleFromRaw(raws), nil
}

func getUint32(t *tuple.Tuple, fieldno uint32) (uint32, error) {
	v, err := t.GetUint(fieldno)
	if err != nil {
		return 0, err
	}
	if v > uint64(^uint32(0)) {
		return 0, errors.Errorf("field %d is out of range", fieldno+1)
	}
	return uint32(v), nil
}

func getInt64(t *tuple.Tuple, fieldno uint32) (int64, error) {
	v, err := t.GetValue(fieldno)
	if err != nil {
		return 0, err
	}
	if !v.IsInteger() {
		return 0, errors.Errorf("field %d must be an integer", fieldno+1)
	}
	return v.ToInteger(), nil
}

func getBool(t *tuple.Tuple, fieldno uint32) (bool, error) {
	v, err := t.GetValue(fieldno)
	if err != nil {
		return false, err
	}
	if v.IsNull() {
		return false, nil
	}
	if v.ValueType() != types.Boolean {
		return false, errors.Errorf("field %d must be a boolean", fieldno+1)
	}
	return v.ToBoolean(), nil
}

// splitArray returns the encoded elements of a msgpack array.
func splitArray(raw msgpack.RawMessage) ([]msgpack.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	ret := make([]msgpack.RawMessage, 0, n)
	for i := 0; i < n; i++ {
		elem, err := dec.DecodeRaw()
		if err != nil {
			return nil, err
		}
		ret = append(ret, elem)
	}
	return ret, nil
}

func joinArray(elems []msgpack.RawMessage) msgpack.RawMessage {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeArrayLen(len(elems)); err != nil {
		panic(err)
	}
	for _, e := range elems {
		buf.Write(e)
	}
	return buf.Bytes()
}

func isMap(raw msgpack.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	c := raw[0]
	return msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32
}

func encodeForeignKey(fk *schema.ForeignKeyDef, fieldLevel bool) (msgpack.RawMessage, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.EncodeMapLen(2); err != nil {
		return nil, err
	}
	if err := enc.EncodeString(fkSpace); err != nil {
		return nil, err
	}
	if err := enc.EncodeUint(uint64(fk.SpaceID)); err != nil {
		return nil, err
	}
	if err := enc.EncodeString(fkField); err != nil {
		return nil, err
	}
	if fieldLevel {
		if err := enc.EncodeUint(uint64(fk.Field)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if err := enc.EncodeMapLen(len(fk.Links)); err != nil {
		return nil, err
	}
	for _, l := range fk.Links {
		if err := enc.EncodeUint(uint64(l.Local)); err != nil {
			return nil, err
		}
		if err := enc.EncodeUint(uint64(l.Foreign)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeForeignKey(raw msgpack.RawMessage) (*schema.ForeignKeyDef, error) {
	bag, err := DecodeOptionsBag(raw)
	if err != nil {
		return nil, err
	}
	fk := new(schema.ForeignKeyDef)
	if ok, err := bag.Unmarshal(fkSpace, &fk.SpaceID); err != nil || !ok {
		return nil, errors.New("foreign key must have a space")
	}
	field := bag.Get(fkField)
	if field == nil {
		return nil, errors.New("foreign key must have a field")
	}
	if !isMap(field) {
		if err := msgpack.Unmarshal(field, &fk.Field); err != nil {
			return nil, errors.Trace(err)
		}
		return fk, nil
	}
	dec := msgpack.NewDecoder(bytes.NewReader(field))
	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		local, err := dec.DecodeUint32()
		if err != nil {
			return nil, err
		}
		foreign, err := dec.DecodeUint32()
		if err != nil {
			return nil, err
		}
		fk.Links = append(fk.Links, schema.FieldLink{Local: local, Foreign: foreign})
	}
	return fk, nil
}

func encodeConstraintValue(c *schema.ConstraintDef, fieldLevel bool) (msgpack.RawMessage, error) {
	if c.Type == schema.CONSTR_FKEY {
		return encodeForeignKey(c.FKey, fieldLevel)
	}
	return marshalCompact(c.FuncID)
}

// decodeConstraints reads the "constraint" and "foreign_key" sub-maps of
// a bag in map order.
func decodeConstraints(bag *OptionsBag) ([]schema.ConstraintDef, error) {
	var ret []schema.ConstraintDef
	for _, key := range bag.Keys() {
		var ctype schema.ConstraintType
		switch key {
		case schema.ConstraintKeyFunc:
			ctype = schema.CONSTR_FUNC
		case schema.ConstraintKeyFKey:
			ctype = schema.CONSTR_FKEY
		default:
			continue
		}
		sub, err := DecodeOptionsBag(bag.Get(key))
		if err != nil {
			return nil, err
		}
		for _, name := range sub.Keys() {
			c := schema.ConstraintDef{Name: name, Type: ctype}
			if ctype == schema.CONSTR_FUNC {
				if _, err := sub.Unmarshal(name, &c.FuncID); err != nil {
					return nil, err
				}
			} else {
				if c.FKey, err = decodeForeignKey(sub.Get(name)); err != nil {
					return nil, err
				}
			}
			ret = append(ret, c)
		}
	}
	return ret, nil
}

func encodeConstraints(bag *OptionsBag, constraints []schema.ConstraintDef, fieldLevel bool) error {
	for _, ctype := range []schema.ConstraintType{schema.CONSTR_FUNC, schema.CONSTR_FKEY} {
		sub := NewOptionsBag()
		for i := range constraints {
			c := &constraints[i]
			if c.Type != ctype {
				continue
			}
			raw, err := encodeConstraintValue(c, fieldLevel)
			if err != nil {
				return err
			}
			sub.Set(c.Name, raw)
		}
		if sub.Len() > 0 {
			bag.Set(ctype.Key(), sub.Encode())
		}
	}
	return nil
}

func encodeFieldDef(f *schema.FieldDef) (msgpack.RawMessage, error) {
	bag := NewOptionsBag()
	bag.SetValue(fmtName, f.Name)
	bag.SetValue(fmtType, f.Type.String())
	if f.IsNullable {
		bag.SetValue(fmtIsNullable, true)
	}
	if f.Collation != common.BoxIDNil && f.Collation != schema.CollationNoneID {
		bag.SetValue(fmtCollation, f.Collation)
	}
	if f.HasDefault {
		if err := bag.SetValue(fmtDefault, f.Default); err != nil {
			return nil, err
		}
	}
	if err := encodeConstraints(bag, f.Constraints, true); err != nil {
		return nil, err
	}
	return bag.Encode(), nil
}

func decodeFieldDef(raw msgpack.RawMessage) (*schema.FieldDef, error) {
	bag, err := DecodeOptionsBag(raw)
	if err != nil {
		return nil, err
	}
	f := &schema.FieldDef{Type: types.Any, Collation: common.BoxIDNil}
	if ok, err := bag.Unmarshal(fmtName, &f.Name); err != nil || !ok {
		return nil, errors.New("field name is missing")
	}
	var typeName string
	if ok, err := bag.Unmarshal(fmtType, &typeName); err != nil {
		return nil, err
	} else if ok {
		if f.Type = types.ParseTypeID(typeName); f.Type == types.Invalid {
			return nil, errors.Errorf("field '%s' has unknown type '%s'", f.Name, typeName)
		}
	}
	if _, err := bag.Unmarshal(fmtIsNullable, &f.IsNullable); err != nil {
		return nil, err
	}
	if _, err := bag.Unmarshal(fmtCollation, &f.Collation); err != nil {
		return nil, err
	}
	if bag.Has(fmtDefault) {
		f.HasDefault = true
		if _, err := bag.Unmarshal(fmtDefault, &f.Default); err != nil {
			return nil, err
		}
	}
	if f.Constraints, err = decodeConstraints(bag); err != nil {
		return nil, err
	}
	return f, nil
}

func encodeSpaceOpts(opts *schema.SpaceOpts) (msgpack.RawMessage, error) {
	bag := NewOptionsBag()
	if opts.IsTemporary {
		bag.SetValue(optTemporary, true)
	}
	if err := encodeConstraints(bag, opts.Constraints, false); err != nil {
		return nil, err
	}
	return bag.Encode(), nil
}

// SpaceDefToTuple builds the _space row of def.
func SpaceDefToTuple(def *schema.SpaceDef) (*tuple.Tuple, error) {
	opts, err := encodeSpaceOpts(&def.Opts)
	if err != nil {
		return nil, err
	}
	format := make([]msgpack.RawMessage, len(def.Fields))
	for i := range def.Fields {
		if format[i], err = encodeFieldDef(&def.Fields[i]); err != nil {
			return nil, err
		}
	}
	return makeRow(def.ID, def.UID, def.Name, def.Engine, def.FieldCount, opts, joinArray(format))
}

// SpaceDefFromTuple decodes a _space row.
func SpaceDefFromTuple(t *tuple.Tuple) (*schema.SpaceDef, error) {
	def, err := spaceDefFromTuple(t)
	if err != nil {
		return nil, badRow("_space", err)
	}
	return def, nil
}

func spaceDefFromTuple(t *tuple.Tuple) (*schema.SpaceDef, error) {
	def := new(schema.SpaceDef)
	var err error
	if def.ID, err = getUint32(t, schema.SpaceFieldID); err != nil {
		return nil, err
	}
	if def.UID, err = getUint32(t, schema.SpaceFieldUID); err != nil {
		return nil, err
	}
	if def.Name, err = t.GetString(schema.SpaceFieldName); err != nil {
		return nil, err
	}
	if def.Engine, err = t.GetString(schema.SpaceFieldEngine); err != nil {
		return nil, err
	}
	if def.FieldCount, err = getUint32(t, schema.SpaceFieldFieldCount); err != nil {
		return nil, err
	}
	opts, err := DecodeOptionsBag(t.RawField(schema.SpaceFieldOpts))
	if err != nil {
		return nil, err
	}
	if _, err := opts.Unmarshal(optTemporary, &def.Opts.IsTemporary); err != nil {
		return nil, err
	}
	if def.Opts.Constraints, err = decodeConstraints(opts); err != nil {
		return nil, err
	}
	entries, err := splitArray(t.RawField(schema.SpaceFieldFormat))
	if err != nil {
		return nil, err
	}
	for _, raw := range entries {
		f, err := decodeFieldDef(raw)
		if err != nil {
			return nil, err
		}
		def.Fields = append(def.Fields, *f)
	}
	return def, nil
}

func encodePart(p *schema.PartDef) msgpack.RawMessage {
	bag := NewOptionsBag()
	bag.SetValue(partField, p.FieldNo)
	bag.SetValue(partType, p.Type.String())
	if p.Collation != common.BoxIDNil && p.Collation != schema.CollationNoneID {
		bag.SetValue(fmtCollation, p.Collation)
	}
	if p.IsNullable {
		bag.SetValue(fmtIsNullable, true)
	}
	if p.SortOrder == index.SortDesc {
		bag.SetValue(partSortOrder, p.SortOrder.String())
	}
	return bag.Encode()
}

func decodePart(raw msgpack.RawMessage) (schema.PartDef, error) {
	p := schema.PartDef{Collation: common.BoxIDNil}
	var typeName string
	if !isMap(raw) {
		// legacy [fieldno, type] form
		var pair []interface{}
		if err := msgpack.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return p, errors.New("key part must be a map or a [field, type] pair")
		}
		v, err := types.NewValueFromInterface(pair[0])
		if err != nil || !v.IsInteger() {
			return p, errors.New("key part field must be a number")
		}
		p.FieldNo = uint32(v.ToInteger())
		typeName, _ = pair[1].(string)
	} else {
		bag, err := DecodeOptionsBag(raw)
		if err != nil {
			return p, err
		}
		if ok, err := bag.Unmarshal(partField, &p.FieldNo); err != nil || !ok {
			return p, errors.New("key part field is missing")
		}
		if _, err := bag.Unmarshal(partType, &typeName); err != nil {
			return p, err
		}
		if _, err := bag.Unmarshal(fmtCollation, &p.Collation); err != nil {
			return p, err
		}
		if _, err := bag.Unmarshal(fmtIsNullable, &p.IsNullable); err != nil {
			return p, err
		}
		var order string
		if _, err := bag.Unmarshal(partSortOrder, &order); err != nil {
			return p, err
		}
		if strings.EqualFold(order, "desc") {
			p.SortOrder = index.SortDesc
		}
	}
	if p.Type = types.ParseTypeID(typeName); p.Type == types.Invalid {
		return p, errors.Errorf("unknown key part type '%s'", typeName)
	}
	return p, nil
}

// IndexDefToTuple builds the _index row of def.
func IndexDefToTuple(def *schema.IndexDef) (*tuple.Tuple, error) {
	opts := NewOptionsBag()
	opts.SetValue(idxUnique, def.Unique)
	parts := make([]msgpack.RawMessage, len(def.Parts))
	for i := range def.Parts {
		parts[i] = encodePart(&def.Parts[i])
	}
	return makeRow(def.SpaceID, def.IID, def.Name, def.Type, opts.Encode(), joinArray(parts))
}

func IndexDefFromTuple(t *tuple.Tuple) (*schema.IndexDef, error) {
	def, err := indexDefFromTuple(t)
	if err != nil {
		return nil, badRow("_index", err)
	}
	return def, nil
}

func indexDefFromTuple(t *tuple.Tuple) (*schema.IndexDef, error) {
	def := new(schema.IndexDef)
	var err error
	if def.SpaceID, err = getUint32(t, schema.IndexFieldSpaceID); err != nil {
		return nil, err
	}
	if def.IID, err = getUint32(t, schema.IndexFieldID); err != nil {
		return nil, err
	}
	if def.Name, err = t.GetString(schema.IndexFieldName); err != nil {
		return nil, err
	}
	if def.Type, err = t.GetString(schema.IndexFieldType); err != nil {
		return nil, err
	}
	def.Type = strings.ToUpper(def.Type)
	opts, err := DecodeOptionsBag(t.RawField(schema.IndexFieldOpts))
	if err != nil {
		return nil, err
	}
	def.Unique = true
	if _, err := opts.Unmarshal(idxUnique, &def.Unique); err != nil {
		return nil, err
	}
	parts, err := splitArray(t.RawField(schema.IndexFieldParts))
	if err != nil {
		return nil, err
	}
	for _, raw := range parts {
		p, err := decodePart(raw)
		if err != nil {
			return nil, err
		}
		def.Parts = append(def.Parts, p)
	}
	return def, nil
}

func SequenceDefToTuple(def *schema.SequenceDef) (*tuple.Tuple, error) {
	return makeRow(def.ID, def.UID, def.Name, def.Step, def.Min, def.Max, def.Start, def.Cache, def.Cycle)
}

func SequenceDefFromTuple(t *tuple.Tuple) (*schema.SequenceDef, error) {
	def := new(schema.SequenceDef)
	var err error
	fail := func(err error) (*schema.SequenceDef, error) { return nil, badRow("_sequence", err) }
	if def.ID, err = getUint32(t, schema.SequenceFieldID); err != nil {
		return fail(err)
	}
	if def.UID, err = getUint32(t, schema.SequenceFieldUID); err != nil {
		return fail(err)
	}
	if def.Name, err = t.GetString(schema.SequenceFieldName); err != nil {
		return fail(err)
	}
	for fieldno, dst := range map[uint32]*int64{
		schema.SequenceFieldStep:  &def.Step,
		schema.SequenceFieldMin:   &def.Min,
		schema.SequenceFieldMax:   &def.Max,
		schema.SequenceFieldStart: &def.Start,
		schema.SequenceFieldCache: &def.Cache,
	} {
		if *dst, err = getInt64(t, fieldno); err != nil {
			return fail(err)
		}
	}
	if def.Cycle, err = getBool(t, schema.SequenceFieldCycle); err != nil {
		return fail(err)
	}
	return def, nil
}

func UserToTuple(u *schema.User) (*tuple.Tuple, error) {
	return makeRow(u.ID, u.Owner, u.Name, u.Type, msgpack.RawMessage(NewOptionsBag().Encode()))
}

func UserFromTuple(t *tuple.Tuple) (*schema.User, error) {
	id, err := getUint32(t, schema.UserFieldID)
	if err != nil {
		return nil, badRow("_user", err)
	}
	owner, err := getUint32(t, schema.UserFieldUID)
	if err != nil {
		return nil, badRow("_user", err)
	}
	name, err := t.GetString(schema.UserFieldName)
	if err != nil {
		return nil, badRow("_user", err)
	}
	userType, err := t.GetString(schema.UserFieldType)
	if err != nil {
		return nil, badRow("_user", err)
	}
	if userType != schema.UserTypeUser && userType != schema.UserTypeRole {
		return nil, common.NewClientError(common.ER_ILLEGAL_PARAMS, "unknown user type "+userType)
	}
	return schema.NewUser(id, owner, name, userType), nil
}

// PrivRow is a decoded _priv row.
type PrivRow struct {
	Grantor  uint32
	Grantee  uint32
	Object   schema.PrivObject
	Access   schema.Priv
}

func PrivToTuple(p *PrivRow) (*tuple.Tuple, error) {
	return makeRow(p.Grantor, p.Grantee, p.Object.Type, p.Object.ID, uint32(p.Access))
}

func PrivFromTuple(t *tuple.Tuple) (*PrivRow, error) {
	p := new(PrivRow)
	var err error
	fail := func(err error) (*PrivRow, error) { return nil, badRow("_priv", err) }
	if p.Grantor, err = getUint32(t, schema.PrivFieldGrantor); err != nil {
		return fail(err)
	}
	if p.Grantee, err = getUint32(t, schema.PrivFieldGrantee); err != nil {
		return fail(err)
	}
	if p.Object.Type, err = t.GetString(schema.PrivFieldObjectType); err != nil {
		return fail(err)
	}
	if p.Object.ID, err = getUint32(t, schema.PrivFieldObjectID); err != nil {
		return fail(err)
	}
	access, err := getUint32(t, schema.PrivFieldAccess)
	if err != nil {
		return fail(err)
	}
	p.Access = schema.Priv(access)
	return p, nil
}

func FuncToTuple(f *schema.Func) (*tuple.Tuple, error) {
	return makeRow(f.ID, f.Owner, f.Name, f.Setuid, f.Language, f.Body, f.Returns)
}

func FuncFromTuple(t *tuple.Tuple) (*schema.Func, error) {
	f := new(schema.Func)
	var err error
	fail := func(err error) (*schema.Func, error) { return nil, badRow("_func", err) }
	if f.ID, err = getUint32(t, schema.FuncFieldID); err != nil {
		return fail(err)
	}
	if f.Owner, err = getUint32(t, schema.FuncFieldUID); err != nil {
		return fail(err)
	}
	if f.Name, err = t.GetString(schema.FuncFieldName); err != nil {
		return fail(err)
	}
	if f.Setuid, err = getBool(t, schema.FuncFieldSetuid); err != nil {
		return fail(err)
	}
	if f.Language, err = t.GetString(schema.FuncFieldLanguage); err != nil {
		return fail(err)
	}
	if f.Body, err = t.GetString(schema.FuncFieldBody); err != nil {
		return fail(err)
	}
	if f.Returns, err = t.GetString(schema.FuncFieldReturns); err != nil {
		return fail(err)
	}
	return f, nil
}

const collStrength = "strength"

func CollationToTuple(e *schema.CollationEntry, ignoreCase bool) (*tuple.Tuple, error) {
	opts := NewOptionsBag()
	if ignoreCase {
		opts.SetValue(collStrength, "secondary")
	}
	return makeRow(e.ID, e.Name, e.Owner, e.Type, e.Locale, opts.Encode())
}

func CollationFromTuple(t *tuple.Tuple) (*schema.CollationEntry, error) {
	e := new(schema.CollationEntry)
	var err error
	fail := func(err error) (*schema.CollationEntry, error) { return nil, badRow("_collation", err) }
	if e.ID, err = getUint32(t, schema.CollationFieldID); err != nil {
		return fail(err)
	}
	if e.Name, err = t.GetString(schema.CollationFieldName); err != nil {
		return fail(err)
	}
	if e.Owner, err = getUint32(t, schema.CollationFieldUID); err != nil {
		return fail(err)
	}
	if e.Type, err = t.GetString(schema.CollationFieldType); err != nil {
		return fail(err)
	}
	if e.Locale, err = t.GetString(schema.CollationFieldLocale); err != nil {
		return fail(err)
	}
	opts, err := DecodeOptionsBag(t.RawField(schema.CollationFieldOpts))
	if err != nil {
		return fail(err)
	}
	var strength string
	if _, err := opts.Unmarshal(collStrength, &strength); err != nil {
		return fail(err)
	}
	e.Coll = index.NewCollation(e.Name, e.Type, e.Locale, strength == "secondary")
	if e.Coll == nil {
		return nil, common.NewClientError(common.ER_ILLEGAL_PARAMS, "unknown collation type "+e.Type)
	}
	return e, nil
}
