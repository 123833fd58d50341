package schema

import "github.com/ryogrid/SamehadaDict/common"

// ids of the system spaces
const (
	VinylDeferredDeleteID uint32 = 257
	SchemaID              uint32 = 272
	CollationID           uint32 = 276
	SpaceID               uint32 = 280
	SequenceID            uint32 = 284
	SequenceDataID        uint32 = 285
	IndexID               uint32 = 288
	FuncID                uint32 = 296
	UserID                uint32 = 304
	PrivID                uint32 = 312
	ClusterID             uint32 = 320
	TriggerID             uint32 = 328
	TruncateID            uint32 = 330
	SpaceSequenceID       uint32 = 340
	FkConstraintID        uint32 = 356
	CkConstraintID        uint32 = 364
	FuncIndexID           uint32 = 372
)

// field numbers of _space rows
const (
	SpaceFieldID uint32 = iota
	SpaceFieldUID
	SpaceFieldName
	SpaceFieldEngine
	SpaceFieldFieldCount
	SpaceFieldOpts
	SpaceFieldFormat
)

// field numbers of _index rows
const (
	IndexFieldSpaceID uint32 = iota
	IndexFieldID
	IndexFieldName
	IndexFieldType
	IndexFieldOpts
	IndexFieldParts
)

// field numbers of _sequence rows
const (
	SequenceFieldID uint32 = iota
	SequenceFieldUID
	SequenceFieldName
	SequenceFieldStep
	SequenceFieldMin
	SequenceFieldMax
	SequenceFieldStart
	SequenceFieldCache
	SequenceFieldCycle
)

// field numbers of _space_sequence rows
const (
	SpaceSequenceFieldID uint32 = iota
	SpaceSequenceFieldSequenceID
	SpaceSequenceFieldIsGenerated
	SpaceSequenceFieldField
)

// field numbers of _user rows
const (
	UserFieldID uint32 = iota
	UserFieldUID
	UserFieldName
	UserFieldType
	UserFieldAuth
)

// field numbers of _priv rows
const (
	PrivFieldGrantor uint32 = iota
	PrivFieldGrantee
	PrivFieldObjectType
	PrivFieldObjectID
	PrivFieldAccess
)

// field numbers of _func rows
const (
	FuncFieldID uint32 = iota
	FuncFieldUID
	FuncFieldName
	FuncFieldSetuid
	FuncFieldLanguage
	FuncFieldBody
	FuncFieldReturns
)

// field numbers of _collation rows
const (
	CollationFieldID uint32 = iota
	CollationFieldName
	CollationFieldUID
	CollationFieldType
	CollationFieldLocale
	CollationFieldOpts
)

// IsSystemSpace reports whether id is in the reserved range.
func IsSystemSpace(id uint32) bool {
	return id >= common.BoxSystemIDMin && id <= common.BoxSystemIDMax
}

// ids of the built-in collations
const (
	CollationNoneID      uint32 = 0
	CollationUnicodeID   uint32 = 1
	CollationUnicodeCiID uint32 = 2
	CollationBinaryID    uint32 = 3
)
