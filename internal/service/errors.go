package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidAdminSecret = errors.New("invalid admin secret key")
	ErrUserExists         = errors.New("user already exists")
	ErrAccountBlocked     = errors.New("account disabled or blocked")
	ErrStudentNotFound    = errors.New("student not found")
	ErrExamNotFound       = errors.New("exam not found")
	ErrInvalidExamKey     = errors.New("invalid exam key")
	ErrExamAlreadyTaken   = errors.New("exam already taken")
	ErrResultNotFound     = errors.New("result not found")
	ErrNoActiveSession    = errors.New("no active proctoring session")
)

// ValidationError rejects a malformed request body
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
