package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrUserExists         = errors.New("user with this email or login already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrSlugTaken          = errors.New("organization with this slug already exists")
	ErrOrgNotFound        = errors.New("organization not found")
	ErrMembershipExists   = errors.New("membership already exists for this user in this organization")
	ErrMembershipNotFound = errors.New("membership not found")
)

// invalid wraps ErrInvalidInput with a client-facing reason.
func invalid(reason string) error {
	return &inputError{reason: reason}
}

type inputError struct{ reason string }

func (e *inputError) Error() string        { return e.reason }
func (e *inputError) Is(target error) bool { return target == ErrInvalidInput }
