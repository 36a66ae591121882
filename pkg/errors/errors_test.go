package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesSentinel(t *testing.T) {
	err := Clone(ErrInvalidArgument, "duration must be positive")

	assert.Equal(t, "duration must be positive", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "invalid argument", ErrInvalidArgument.Message)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(cause, ErrInternal.Code, ErrInternal.Status, "failed to load commitments")

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrInternal))
	assert.Equal(t, "failed to load commitments: dial tcp: refused", err.Error())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	typed := FromError(Clone(ErrValidation, "bad"))
	assert.Equal(t, ErrValidation.Code, typed.Code)
	assert.Equal(t, http.StatusBadRequest, typed.Status)

	generic := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, generic.Code)
	assert.Equal(t, http.StatusInternalServerError, generic.Status)
}
