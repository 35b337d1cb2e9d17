package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrBookNotFound   = fmt.Errorf("book %w", ErrNotFound)
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrUsernameTaken  = errors.New("username already exists")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
)

// ValidationError reports a field that was assigned an empty or out of range
// value. It is raised at construction or mutation time and never persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type IDMismatchError struct {
	Entity string
	PathID int64
	BodyID int64
}

func (e *IDMismatchError) Error() string {
	return fmt.Sprintf("the %s's id %d does not match the path id %d", e.Entity, e.BodyID, e.PathID)
}

type AlreadyOwnedError struct {
	UserID int64
	BookID int64
}

func (e *AlreadyOwnedError) Error() string {
	return fmt.Sprintf("user %d already owns book %d", e.UserID, e.BookID)
}

type NotOwnedError struct {
	UserID int64
	BookID int64
}

func (e *NotOwnedError) Error() string {
	return fmt.Sprintf("user %d does not own book %d", e.UserID, e.BookID)
}

// ExternalServiceError means a collaborator answered with something other
// than success or affirmative absence, or its answer could not be read.
type ExternalServiceError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *ExternalServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s responded with HTTP %d", e.Service, e.StatusCode)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
