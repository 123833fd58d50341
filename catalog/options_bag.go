package catalog

import (
	"bytes"

	"github.com/pingcap/errors"
	"github.com/vmihailenco/msgpack/v5"
)

type bagEntry struct {
	key    string
	rawKey msgpack.RawMessage
	value  msgpack.RawMessage
}

/**
 * OptionsBag is an ordered msgpack map with string keys whose values are
 * kept encoded. Decoding and encoding an unmodified bag gives back the
 * same bytes, and a modification only touches the entry it names.
 */
type OptionsBag struct {
	header  []byte
	decoded int
	entries []bagEntry
}

func NewOptionsBag() *OptionsBag {
	return &OptionsBag{decoded: -1}
}

// DecodeOptionsBag parses a msgpack map. nil or an empty slice gives an
// empty bag.
func DecodeOptionsBag(data []byte) (*OptionsBag, error) {
	bag := NewOptionsBag()
	if len(data) == 0 {
		return bag, nil
	}
	reader := bytes.NewReader(data)
	dec := msgpack.NewDecoder(reader)
	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, errors.Annotate(err, "options must be a map")
	}
	if n < 0 {
		return bag, nil
	}
	bag.header = append([]byte(nil), data[:len(data)-reader.Len()]...)
	bag.decoded = n
	for i := 0; i < n; i++ {
		rawKey, err := dec.DecodeRaw()
		if err != nil {
			return nil, errors.Trace(err)
		}
		var key string
		if err := msgpack.Unmarshal(rawKey, &key); err != nil {
			return nil, errors.Annotate(err, "option keys must be strings")
		}
		value, err := dec.DecodeRaw()
		if err != nil {
			return nil, errors.Trace(err)
		}
		bag.entries = append(bag.entries, bagEntry{key: key, rawKey: rawKey, value: value})
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes after options map")
	}
	return bag, nil
}

func (b *OptionsBag) Len() int { return len(b.entries) }

func (b *OptionsBag) Keys() []string {
	ret := make([]string, len(b.entries))
	for i, e := range b.entries {
		ret[i] = e.key
	}
	return ret
}

func (b *OptionsBag) find(key string) int {
	for i, e := range b.entries {
		if e.key == key {
			return i
		}
	}
	return -1
}

func (b *OptionsBag) Has(key string) bool { return b.find(key) >= 0 }

// Get returns the encoded value of key or nil.
func (b *OptionsBag) Get(key string) msgpack.RawMessage {
	if i := b.find(key); i >= 0 {
		return b.entries[i].value
	}
	return nil
}

// Unmarshal decodes the value of key into v. It reports false when key
// is absent.
func (b *OptionsBag) Unmarshal(key string, v interface{}) (bool, error) {
	raw := b.Get(key)
	if raw == nil {
		return false, nil
	}
	if err := msgpack.Unmarshal(raw, v); err != nil {
		return true, errors.Annotatef(err, "option '%s'", key)
	}
	return true, nil
}

func encodeKey(key string) msgpack.RawMessage {
	raw, err := msgpack.Marshal(key)
	if err != nil {
		panic(err)
	}
	return raw
}

// Set replaces the value of key in place or appends a new entry.
func (b *OptionsBag) Set(key string, value msgpack.RawMessage) {
	if i := b.find(key); i >= 0 {
		b.entries[i].value = value
		return
	}
	b.entries = append(b.entries, bagEntry{key: key, rawKey: encodeKey(key), value: value})
}

// SetValue encodes v and stores it under key.
func (b *OptionsBag) SetValue(key string, v interface{}) error {
	raw, err := marshalCompact(v)
	if err != nil {
		return err
	}
	b.Set(key, raw)
	return nil
}

// InsertFirst puts a new entry in front of the others.
func (b *OptionsBag) InsertFirst(key string, value msgpack.RawMessage) {
	entry := bagEntry{key: key, rawKey: encodeKey(key), value: value}
	b.entries = append([]bagEntry{entry}, b.entries...)
}

func (b *OptionsBag) Delete(key string) bool {
	i := b.find(key)
	if i < 0 {
		return false
	}
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
	return true
}

// Encode writes the map back. The original header is reused while the
// entry count is unchanged.
func (b *OptionsBag) Encode() msgpack.RawMessage {
	var buf bytes.Buffer
	if b.decoded == len(b.entries) && b.header != nil {
		buf.Write(b.header)
	} else {
		enc := msgpack.NewEncoder(&buf)
		if err := enc.EncodeMapLen(len(b.entries)); err != nil {
			panic(err)
		}
	}
	for _, e := range b.entries {
		buf.Write(e.rawKey)
		buf.Write(e.value)
	}
	return buf.Bytes()
}

func marshalCompact(v interface{}) (msgpack.RawMessage, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Trace(err)
	}
	return buf.Bytes(), nil
}
