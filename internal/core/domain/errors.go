package domain

import (
	"errors"
	"fmt"
)

// Credential operation failures. These are recovered by the form
// controllers and never reach the session snapshot.
var (
	ErrAuthentication   = errors.New("authentication failed")
	ErrDuplicateAccount = errors.New("account already exists")
	ErrNetwork          = errors.New("identity provider unreachable")
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrInvalidInput = errors.New("invalid input")

	ErrAlreadyOnWaitlist   = errors.New("email already on waiting list")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// ProviderError carries what the identity provider said about a failure.
// Kind is one of the credential operation sentinels and is what errors.Is
// matches against; Code and Message are kept for logs only.
type ProviderError struct {
	Kind    error
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%v: %s (%s, status %d)", e.Kind, e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("%v: %s (status %d)", e.Kind, e.Message, e.Status)
}

func (e *ProviderError) Unwrap() error { return e.Kind }
