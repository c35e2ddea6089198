package passlock

import (
	"errors"
	"fmt"
	"testing"

	"github.com/saylorsolutions/pwcrypt/pkg/fernet"
	"github.com/stretchr/testify/assert"
)

func TestErrorTypes(t *testing.T) {
	pre := preconditionf("password", "must be at least %d bytes", 6)
	assert.ErrorIs(t, pre, ErrPrecondition)
	assert.True(t, IsPreconditionError(fmt.Errorf("wrapped: %w", pre)))
	assert.False(t, IsMalformedContainerError(pre))
	assert.False(t, IsAuthenticationError(pre))
	assert.Contains(t, pre.Error(), "password")

	mal := &MalformedContainerError{Size: 10, Reason: "too short"}
	assert.ErrorIs(t, mal, ErrMalformedContainer)
	assert.True(t, IsMalformedContainerError(mal))
	assert.Contains(t, mal.Error(), "10 bytes")

	auth := &AuthenticationError{Err: fernet.ErrInvalidToken}
	assert.ErrorIs(t, auth, ErrAuthentication)
	assert.ErrorIs(t, auth, fernet.ErrInvalidToken)
	assert.True(t, IsAuthenticationError(auth))
	assert.Equal(t, ErrAuthentication.Error(), auth.Error(), "The cause should not be exposed in the message")

	assert.ErrorIs(t, &AuthenticationError{}, ErrAuthentication)
	assert.False(t, IsAuthenticationError(errors.New("other")))
}
