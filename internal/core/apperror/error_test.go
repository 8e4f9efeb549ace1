package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("decrement stock: %w", NewNotFound("product", int64(9)))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(err))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}

func TestNewStorage_Timeout(t *testing.T) {
	err := NewStorage("update product", fmt.Errorf("exec: %w", context.DeadlineExceeded))

	assert.Equal(t, CodeTimeout, err.Code)
	assert.Equal(t, http.StatusGatewayTimeout, err.HTTPStatus)
	assert.True(t, IsStorage(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewStorage_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStorage("insert sale", cause)

	assert.Equal(t, CodeDatabase, err.Code)
	assert.Equal(t, "insert sale", err.Details["op"])
	assert.ErrorIs(t, err, cause)
}
