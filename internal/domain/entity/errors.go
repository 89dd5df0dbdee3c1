package entity

import (
	"errors"
	"fmt"
)

// Validation reasons
var (
	ErrAmountZero       = errors.New("amount must be greater than zero")
	ErrAmountNegative   = errors.New("amount must not be negative")
	ErrMissingDate      = errors.New("date is required")
	ErrEmptyDescription = errors.New("description is required")
	ErrInvalidType      = errors.New("type must be expense or income")
)

// Error kinds matched with errors.Is
var (
	ErrNotFound    = errors.New("transaction not found")
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError reports an invalid create or update payload
type ValidationError struct {
	Field  string
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// NotFoundError reports a mutation targeting an id that is not stored
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction not found: %s", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError wraps a storage failure
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
