package types

import (
	"github.com/vmihailenco/msgpack/v5"
)

// EncodeMsgpack writes the value in its most compact msgpack form.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch v.valueType {
	case Boolean:
		return enc.EncodeBool(v.boolean)
	case Integer:
		if v.integer >= 0 {
			return enc.EncodeUint(uint64(v.integer))
		}
		return enc.EncodeInt(v.integer)
	case Unsigned:
		return enc.EncodeUint(v.unsigned)
	case Double:
		return enc.EncodeFloat64(v.double)
	case String:
		return enc.EncodeString(v.str)
	}
	return enc.EncodeNil()
}

func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return err
	}
	decoded, err := NewValueFromInterface(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}
