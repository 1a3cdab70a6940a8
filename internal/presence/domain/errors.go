package domain

import (
	"errors"
	"fmt"
)

// DomainError is a coded failure surfaced to callers. Two DomainErrors match
// under errors.Is when their codes are equal.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Code == t.Code
	}
	return false
}

const (
	CodeAuthRequired = "AUTH_REQUIRED"
	CodeTeamNotFound = "TEAM_NOT_FOUND"
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION"
	CodePersistence  = "PERSISTENCE"
)

var (
	// ErrAuthRequired is returned when an operation needs a signed-in user.
	ErrAuthRequired = &DomainError{Code: CodeAuthRequired, Message: "authentication required"}

	// ErrTeamNotFound is returned when joining or looking up an unknown code.
	ErrTeamNotFound = &DomainError{Code: CodeTeamNotFound, Message: "team not found"}

	// ErrMemberNotFound is returned when looking up an unknown user record.
	ErrMemberNotFound = &DomainError{Code: CodeNotFound, Message: "member not found"}

	// ErrValidation matches every error built by NewValidationError.
	ErrValidation = &DomainError{Code: CodeValidation, Message: "validation failed"}

	// ErrPersistence matches every PersistenceError.
	ErrPersistence = &DomainError{Code: CodePersistence, Message: "store unavailable"}
)

// NewValidationError reports a rejected input before any store call.
func NewValidationError(field, reason string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: fmt.Sprintf("%s: %s", field, reason)}
}

// NewTeamNotFoundError names the code that could not be resolved.
func NewTeamNotFoundError(code string) *DomainError {
	return &DomainError{Code: CodeTeamNotFound, Message: fmt.Sprintf("team %q not found", code)}
}

// PersistenceError wraps a failed store read or write.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persistence: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Persistence wraps err as a PersistenceError unless it already is a domain
// error, in which case it is returned as is.
func Persistence(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Path: path, Err: err}
}
