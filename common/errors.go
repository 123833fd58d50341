package common

import (
	"fmt"

	"github.com/pingcap/errors"
)

type ErrorCode uint32

const (
	ER_UNKNOWN                 ErrorCode = 0
	ER_ILLEGAL_PARAMS          ErrorCode = 1
	ER_MEMORY_ISSUE            ErrorCode = 2
	ER_TUPLE_FOUND             ErrorCode = 3
	ER_TUPLE_NOT_FOUND         ErrorCode = 4
	ER_UNSUPPORTED             ErrorCode = 5
	ER_SPACE_EXISTS            ErrorCode = 10
	ER_DROP_SPACE              ErrorCode = 11
	ER_ALTER_SPACE             ErrorCode = 12
	ER_INDEX_TYPE              ErrorCode = 13
	ER_MODIFY_INDEX            ErrorCode = 14
	ER_DROP_PRIMARY_KEY        ErrorCode = 17
	ER_KEY_PART_COUNT          ErrorCode = 18
	ER_FIELD_TYPE              ErrorCode = 23
	ER_EXACT_FIELD_COUNT       ErrorCode = 38
	ER_NO_SUCH_INDEX           ErrorCode = 35
	ER_NO_SUCH_SPACE           ErrorCode = 36
	ER_NO_SUCH_FIELD_NO        ErrorCode = 37
	ER_FIELD_MISSING           ErrorCode = 39
	ER_WAL_IO                  ErrorCode = 40
	ER_ACCESS_DENIED           ErrorCode = 42
	ER_NO_SUCH_USER            ErrorCode = 45
	ER_USER_EXISTS             ErrorCode = 46
	ER_DROP_USER               ErrorCode = 44
	ER_CANT_UPDATE_PRIMARY_KEY ErrorCode = 94
	ER_NO_SUCH_FUNCTION        ErrorCode = 51
	ER_FUNCTION_EXISTS         ErrorCode = 52
	ER_NO_SUCH_ROLE            ErrorCode = 82
	ER_INDEX_EXISTS            ErrorCode = 85
	ER_ACTIVE_TRANSACTION      ErrorCode = 79
	ER_NO_TRANSACTION          ErrorCode = 80
	ER_NO_SUCH_COLLATION       ErrorCode = 115
	ER_NO_SUCH_SEQUENCE        ErrorCode = 140
	ER_SEQUENCE_EXISTS         ErrorCode = 141
	ER_SEQUENCE_OVERFLOW       ErrorCode = 142
	ER_SQL_PARSER              ErrorCode = 162
	ER_SQL_EXECUTE             ErrorCode = 166
	ER_SQL_BIND_VALUE          ErrorCode = 168
	ER_SQL_BIND_COUNT          ErrorCode = 170
	ER_SQL_TYPE_MISMATCH       ErrorCode = 175
	ER_NO_SUCH_FIELD_NAME      ErrorCode = 176
	ER_UNKNOWN_SCHEMA_OBJECT   ErrorCode = 180
	ER_CONSTRAINT_EXISTS       ErrorCode = 184
	ER_NO_SUCH_CONSTRAINT      ErrorCode = 185
	ER_NO_SUCH_FOREIGN_KEY     ErrorCode = 186
	ER_CREATE_FOREIGN_KEY      ErrorCode = 187
	ER_FOREIGN_KEY_INTEGRITY   ErrorCode = 188
	ER_CK_CONSTRAINT_FAILED    ErrorCode = 189
	ER_WRONG_QUERY_ID          ErrorCode = 190
	ER_SQL_PREPARE             ErrorCode = 191
	ER_NO_SUCH_STATEMENT       ErrorCode = 192
	ER_SQL_NO_SUCH_COLUMN      ErrorCode = 193
	ER_FIELD_NULL              ErrorCode = 194
	ER_CREATE_CK_CONSTRAINT    ErrorCode = 195
)

var errorTemplates = map[ErrorCode]string{
	ER_UNKNOWN:                 "Unknown error",
	ER_ILLEGAL_PARAMS:          "Illegal parameters, %v",
	ER_MEMORY_ISSUE:            "Failed to allocate %d bytes in %v for %v",
	ER_TUPLE_FOUND:             "Duplicate key exists in unique index \"%v\" in space \"%v\"",
	ER_TUPLE_NOT_FOUND:         "Tuple doesn't exist in index '%v' in space '%v'",
	ER_UNSUPPORTED:             "%v does not support %v",
	ER_SPACE_EXISTS:            "Space '%v' already exists",
	ER_DROP_SPACE:              "Can't drop space '%v': %v",
	ER_ALTER_SPACE:             "Can't modify space '%v': %v",
	ER_INDEX_TYPE:              "Unsupported index type supplied for index '%v' in space '%v'",
	ER_MODIFY_INDEX:            "Can't create or modify index '%v' in space '%v': %v",
	ER_DROP_PRIMARY_KEY:        "Can't drop primary key in space '%v' while secondary keys exist",
	ER_KEY_PART_COUNT:          "Invalid key part count (expected [0..%d], got %d)",
	ER_FIELD_TYPE:              "Tuple field %v type does not match one required by operation: expected %v, got %v",
	ER_EXACT_FIELD_COUNT:       "Tuple field count %d does not match space field count %d",
	ER_NO_SUCH_INDEX:           "No index '%v' is defined in space '%v'",
	ER_NO_SUCH_SPACE:           "Space '%v' does not exist",
	ER_NO_SUCH_FIELD_NO:        "Field %d was not found in the tuple",
	ER_FIELD_MISSING:           "Tuple field %v required by space format is missing",
	ER_WAL_IO:                  "Failed to write to disk: %v",
	ER_ACCESS_DENIED:           "%v access to %v '%v' is denied for user '%v'",
	ER_NO_SUCH_USER:            "User '%v' is not found",
	ER_USER_EXISTS:             "User '%v' already exists",
	ER_DROP_USER:               "Failed to drop user or role '%v': %v",
	ER_CANT_UPDATE_PRIMARY_KEY: "Attempt to modify a tuple field which is part of index '%v' in space '%v'",
	ER_NO_SUCH_FUNCTION:        "Function '%v' does not exist",
	ER_FUNCTION_EXISTS:         "Function '%v' already exists",
	ER_NO_SUCH_ROLE:            "Role '%v' is not found",
	ER_INDEX_EXISTS:            "Index '%v' already exists in space '%v'",
	ER_ACTIVE_TRANSACTION:      "Operation is not permitted when there is an active transaction",
	ER_NO_TRANSACTION:          "Operation is not permitted when there is no active transaction",
	ER_NO_SUCH_COLLATION:       "Collation '%v' does not exist",
	ER_NO_SUCH_SEQUENCE:        "Sequence '%v' does not exist",
	ER_SEQUENCE_EXISTS:         "Sequence '%v' already exists",
	ER_SEQUENCE_OVERFLOW:       "Sequence '%v' has overflowed",
	ER_SQL_PARSER:              "Syntax error: %v",
	ER_SQL_EXECUTE:             "Failed to execute SQL statement: %v",
	ER_SQL_BIND_VALUE:          "Bind value for parameter %d is out of range for type %v",
	ER_SQL_BIND_COUNT:          "Wrong number of bind parameters: expected %d, got %d",
	ER_SQL_TYPE_MISMATCH:       "Type mismatch: can not convert %v to %v",
	ER_NO_SUCH_FIELD_NAME:      "Field '%v' was not found in space '%v' format",
	ER_UNKNOWN_SCHEMA_OBJECT:   "Unknown object type '%v'",
	ER_CONSTRAINT_EXISTS:       "Constraint '%v' already exists in space '%v'",
	ER_NO_SUCH_CONSTRAINT:      "Constraint '%v' does not exist in space '%v'",
	ER_NO_SUCH_FOREIGN_KEY:     "Foreign key '%v' does not exist in space '%v'",
	ER_CREATE_FOREIGN_KEY:      "Failed to create foreign key constraint '%v': %v",
	ER_FOREIGN_KEY_INTEGRITY:   "Foreign key '%v' integrity check failed: %v",
	ER_CK_CONSTRAINT_FAILED:    "Check constraint '%v' failed for %v",
	ER_WRONG_QUERY_ID:          "Prepared statement with id %d does not exist",
	ER_SQL_PREPARE:             "Failed to prepare SQL statement: %v",
	ER_NO_SUCH_STATEMENT:       "Prepared statement %d is not in the statement cache",
	ER_SQL_NO_SUCH_COLUMN:      "Can't resolve field '%v'",
	ER_FIELD_NULL:              "Failed to execute SQL statement: NOT NULL constraint failed: %v.%v",
	ER_CREATE_CK_CONSTRAINT:    "Failed to create check constraint '%v': %v",
}

// ClientError is an error reported back to the caller of a box or SQL
// operation. Code identifies the failure class, Message is the
// rendered template.
type ClientError struct {
	Code    ErrorCode
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}

func NewClientError(code ErrorCode, args ...interface{}) error {
	tmpl, ok := errorTemplates[code]
	if !ok {
		tmpl = errorTemplates[ER_UNKNOWN]
	}
	return errors.Trace(&ClientError{Code: code, Message: fmt.Sprintf(tmpl, args...)})
}

// GetErrorCode returns the code carried by err or ER_UNKNOWN when err is
// not a ClientError.
func GetErrorCode(err error) ErrorCode {
	if err == nil {
		return ER_UNKNOWN
	}
	if ce, ok := errors.Cause(err).(*ClientError); ok {
		return ce.Code
	}
	return ER_UNKNOWN
}

func HasErrorCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	ce, ok := errors.Cause(err).(*ClientError)
	return ok && ce.Code == code
}

func IsNotFound(err error) bool {
	switch GetErrorCode(err) {
	case ER_NO_SUCH_SPACE, ER_NO_SUCH_INDEX, ER_NO_SUCH_SEQUENCE,
		ER_NO_SUCH_USER, ER_NO_SUCH_ROLE, ER_NO_SUCH_FUNCTION,
		ER_NO_SUCH_CONSTRAINT, ER_NO_SUCH_FOREIGN_KEY, ER_NO_SUCH_STATEMENT,
		ER_NO_SUCH_FIELD_NAME, ER_NO_SUCH_FIELD_NO, ER_NO_SUCH_COLLATION,
		ER_TUPLE_NOT_FOUND, ER_SQL_NO_SUCH_COLUMN:
		return true
	}
	return false
}

func IsConflict(err error) bool {
	switch GetErrorCode(err) {
	case ER_TUPLE_FOUND, ER_SPACE_EXISTS, ER_INDEX_EXISTS,
		ER_CONSTRAINT_EXISTS, ER_SEQUENCE_EXISTS, ER_USER_EXISTS,
		ER_FUNCTION_EXISTS, ER_DROP_PRIMARY_KEY, ER_INDEX_TYPE,
		ER_MODIFY_INDEX, ER_ALTER_SPACE, ER_DROP_SPACE:
		return true
	}
	return false
}

func IsAuthorization(err error) bool {
	switch GetErrorCode(err) {
	case ER_WRONG_QUERY_ID, ER_ACCESS_DENIED:
		return true
	}
	return false
}

// ErrorMessage returns the message of a ClientError without the trace
// annotations, or err.Error() for other errors.
func ErrorMessage(err error) string {
	if ce, ok := errors.Cause(err).(*ClientError); ok {
		return ce.Message
	}
	return err.Error()
}
