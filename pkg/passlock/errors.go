package passlock

import (
	"errors"
	"fmt"
)

var (
	ErrPrecondition       = errors.New("precondition failed")
	ErrMalformedContainer = errors.New("malformed container")
	ErrAuthentication     = errors.New("authentication failed: wrong secret or corrupted data")
)

// PreconditionError is returned when caller input is rejected before any cryptographic work is done.
type PreconditionError struct {
	Field  string // The input that was rejected
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrPrecondition, e.Field, e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

// MalformedContainerError is returned when a container is too short to hold the required framing.
type MalformedContainerError struct {
	Size   int
	Reason string
}

func (e *MalformedContainerError) Error() string {
	return fmt.Sprintf("%v (%d bytes): %s", ErrMalformedContainer, e.Size, e.Reason)
}

func (e *MalformedContainerError) Unwrap() error {
	return ErrMalformedContainer
}

// AuthenticationError is returned when a container fails verification.
// The message is the same for a wrong secret, corruption, or tampering.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return ErrAuthentication.Error()
}

func (e *AuthenticationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAuthentication}
	}
	return []error{ErrAuthentication, e.Err}
}

func preconditionf(field, format string, args ...any) error {
	return &PreconditionError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// IsPreconditionError reports whether err is or wraps a *PreconditionError.
func IsPreconditionError(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// IsMalformedContainerError reports whether err is or wraps a *MalformedContainerError.
func IsMalformedContainerError(err error) bool {
	var me *MalformedContainerError
	return errors.As(err, &me)
}

// IsAuthenticationError reports whether err is or wraps an *AuthenticationError.
func IsAuthenticationError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}
