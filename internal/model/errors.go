package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrDeadlineExceeded = errors.New("submission deadline exceeded")
)

// Entities named by NotFoundError.
const (
	EntityUser    = "user"
	EntityTeacher = "teacher"
	EntityTest    = "test"
	EntityResult  = "test result"
	EntitySession = "test session"
)

// NotFoundError reports a missing or inactive entity. It matches ErrNotFound.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns a NotFoundError for entity.
func NotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// ValidationError reports a malformed request rejected before any persistence call.
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

// Invalid returns a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError reports a user-visible uniqueness violation. It matches ErrConflict.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
