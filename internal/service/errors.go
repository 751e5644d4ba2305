package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package for a caller mistake
// wraps exactly one of them.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConstraint     = errors.New("constraint violation")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("not authorized")
	ErrDomainRule     = errors.New("domain rule violated")
	ErrNotFound       = errors.New("not found")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuthentication)
	ErrInvalidPassword    = fmt.Errorf("%w: invalid password", ErrAuthentication)

	ErrUsernameTaken = fmt.Errorf("%w: username already taken", ErrConstraint)
	ErrEmailTaken    = fmt.Errorf("%w: email already taken", ErrConstraint)

	ErrLoginRequired   = fmt.Errorf("%w: login required", ErrAuthorization)
	ErrNotMessageOwner = fmt.Errorf("%w: message belongs to a different user", ErrAuthorization)

	ErrSelfFollow = fmt.Errorf("%w: cannot follow yourself", ErrDomainRule)
	ErrSelfLike   = fmt.Errorf("%w: cannot like your own message", ErrDomainRule)

	ErrUserNotFound    = fmt.Errorf("%w: user", ErrNotFound)
	ErrMessageNotFound = fmt.Errorf("%w: message", ErrNotFound)
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
