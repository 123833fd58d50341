package tuple

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Tuple is an immutable row: a msgpack array. Fields are split lazily and
// kept as raw msgpack so that system rows with nested maps survive a
// decode/encode cycle untouched.
type Tuple struct {
	data   []byte
	fields []msgpack.RawMessage
}

// NewTupleFromBytes validates that data holds exactly one msgpack array.
func NewTupleFromBytes(data []byte) (*Tuple, error) {
	t := &Tuple{data: data}
	if err := t.split(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewTupleFromValues encodes scalar values.
func NewTupleFromValues(values []types.Value) *Tuple {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.EncodeArrayLen(len(values))
	for _, v := range values {
		v.EncodeMsgpack(enc)
	}
	t, err := NewTupleFromBytes(buf.Bytes())
	if err != nil {
		panic(err)
	}
	return t
}

// NewTupleFromRaw assembles a tuple out of already encoded fields.
func NewTupleFromRaw(fields []msgpack.RawMessage) *Tuple {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.EncodeArrayLen(len(fields))
	for _, f := range fields {
		buf.Write(f)
	}
	copied := make([]msgpack.RawMessage, len(fields))
	copy(copied, fields)
	return &Tuple{data: buf.Bytes(), fields: copied}
}

func (t *Tuple) split() error {
	dec := msgpack.NewDecoder(bytes.NewReader(t.data))
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return errors.Annotate(err, "tuple must be a msgpack array")
	}
	if n < 0 {
		return errors.New("tuple must not be nil")
	}
	fields := make([]msgpack.RawMessage, 0, n)
	for i := 0; i < n; i++ {
		raw, err := dec.DecodeRaw()
		if err != nil {
			return errors.Annotatef(err, "decode tuple field %d", i)
		}
		fields = append(fields, raw)
	}
	t.fields = fields
	return nil
}

func (t *Tuple) Data() []byte {
	return t.data
}

func (t *Tuple) Size() int {
	return len(t.data)
}

func (t *Tuple) FieldCount() int {
	return len(t.fields)
}

// RawField returns nil when the tuple is shorter than fieldno.
func (t *Tuple) RawField(fieldno uint32) msgpack.RawMessage {
	if int(fieldno) >= len(t.fields) {
		return nil
	}
	return t.fields[fieldno]
}

func (t *Tuple) RawFields() []msgpack.RawMessage {
	ret := make([]msgpack.RawMessage, len(t.fields))
	copy(ret, t.fields)
	return ret
}

// GetValue decodes a scalar field. A missing field reads as NULL.
func (t *Tuple) GetValue(fieldno uint32) (types.Value, error) {
	raw := t.RawField(fieldno)
	if raw == nil {
		return types.NewNull(), nil
	}
	// nil is decoded here, Unmarshal leaves a zero Value for it
	if len(raw) == 1 && raw[0] == msgpcode.Nil {
		return types.NewNull(), nil
	}
	var v types.Value
	if err := msgpack.Unmarshal(raw, &v); err != nil {
		return types.NewNull(), errors.Annotatef(err, "field %d is not a scalar", fieldno+1)
	}
	return v, nil
}

// Values decodes every field as a scalar.
func (t *Tuple) Values() ([]types.Value, error) {
	ret := make([]types.Value, len(t.fields))
	for i := range t.fields {
		v, err := t.GetValue(uint32(i))
		if err != nil {
			return nil, err
		}
		ret[i] = v
	}
	return ret, nil
}

// GetUint decodes an unsigned field of a system row.
func (t *Tuple) GetUint(fieldno uint32) (uint64, error) {
	raw := t.RawField(fieldno)
	if raw == nil {
		return 0, errors.Errorf("field %d is missing", fieldno+1)
	}
	var u uint64
	if err := msgpack.Unmarshal(raw, &u); err != nil {
		return 0, errors.Annotatef(err, "field %d is not unsigned", fieldno+1)
	}
	return u, nil
}

func (t *Tuple) GetString(fieldno uint32) (string, error) {
	raw := t.RawField(fieldno)
	if raw == nil {
		return "", errors.Errorf("field %d is missing", fieldno+1)
	}
	var s string
	if err := msgpack.Unmarshal(raw, &s); err != nil {
		return "", errors.Annotatef(err, "field %d is not a string", fieldno+1)
	}
	return s, nil
}

// ToInterfaces decodes the whole tuple into plain Go values.
func (t *Tuple) ToInterfaces() []interface{} {
	ret := make([]interface{}, len(t.fields))
	for i, raw := range t.fields {
		dec := msgpack.NewDecoder(bytes.NewReader(raw))
		v, err := dec.DecodeInterfaceLoose()
		if err != nil {
			ret[i] = nil
			continue
		}
		ret[i] = v
	}
	return ret
}

func (t *Tuple) Equals(other *Tuple) bool {
	if t == nil || other == nil {
		return t == other
	}
	return bytes.Equal(t.data, other.data)
}

func (t *Tuple) String() string {
	parts := make([]string, 0, len(t.fields))
	for _, v := range t.ToInterfaces() {
		parts = append(parts, fmt.Sprintf("%v", v))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
