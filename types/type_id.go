package types

import "strings"

// TypeID names a field type of a space format as well as the run-time
// type of a Value.
type TypeID int

// The zero TypeID is Null, so the zero Value is NULL.
const (
	Null TypeID = iota
	Invalid
	Any
	Unsigned
	Integer
	Number
	Double
	String
	Boolean
	Scalar
)

var typeNames = map[TypeID]string{
	Invalid:  "invalid",
	Null:     "nil",
	Any:      "any",
	Unsigned: "unsigned",
	Integer:  "integer",
	Number:   "number",
	Double:   "double",
	String:   "string",
	Boolean:  "boolean",
	Scalar:   "scalar",
}

func (t TypeID) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "invalid"
}

// ParseTypeID accepts the names stored in space formats and index parts.
// "num" and "str" are the legacy spellings of index parts.
func ParseTypeID(name string) TypeID {
	switch strings.ToLower(name) {
	case "any":
		return Any
	case "unsigned", "num":
		return Unsigned
	case "integer", "int":
		return Integer
	case "number":
		return Number
	case "double":
		return Double
	case "string", "str":
		return String
	case "boolean", "bool":
		return Boolean
	case "scalar":
		return Scalar
	}
	return Invalid
}

// IsIndexable reports whether a key part may have this type.
func (t TypeID) IsIndexable() bool {
	switch t {
	case Unsigned, Integer, Number, Double, String, Boolean, Scalar:
		return true
	}
	return false
}

// IsCompatible reports whether data stored as t can stay in a field whose
// type is changed to other without checking every tuple.
func (t TypeID) IsCompatible(other TypeID) bool {
	if t == other || other == Any {
		return true
	}
	switch other {
	case Scalar:
		return t != Any
	case Number:
		return t == Unsigned || t == Integer || t == Double
	case Integer:
		return t == Unsigned
	}
	return false
}
