package common

import (
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
)

func TestClientErrorCodes(t *testing.T) {
	err := NewClientError(ER_NO_SUCH_SPACE, "t")
	assert.Equal(t, "Space 't' does not exist", ErrorMessage(err))
	assert.Equal(t, ER_NO_SUCH_SPACE, GetErrorCode(err))

	wrapped := errors.Annotate(err, "select")
	assert.True(t, HasErrorCode(wrapped, ER_NO_SUCH_SPACE))
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, "Space 't' does not exist", ErrorMessage(wrapped))

	assert.True(t, IsConflict(NewClientError(ER_SPACE_EXISTS, "t")))
	assert.True(t, IsAuthorization(NewClientError(ER_WRONG_QUERY_ID, 1)))
	assert.False(t, IsNotFound(NewClientError(ER_WRONG_QUERY_ID, 1)))

	plain := errors.New("boom")
	assert.Equal(t, ER_UNKNOWN, GetErrorCode(plain))
	assert.Equal(t, ER_UNKNOWN, GetErrorCode(nil))
	assert.False(t, HasErrorCode(nil, ER_UNKNOWN))
	assert.Equal(t, "boom", ErrorMessage(plain))
}
