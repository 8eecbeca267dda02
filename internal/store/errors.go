package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a second review log for the same submission).
	ErrDuplicate = errors.New("entity already exists")

	// ErrConflict is returned when a conditional write loses an optimistic
	// concurrency race: the row exists but its version moved on between the
	// read and the write. Callers retry against a fresh read.
	ErrConflict = errors.New("version conflict")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrCardNotFound indicates that the requested card does not exist in the store.
	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)

	// ErrReviewLogNotFound indicates that the requested review log does not exist in the store.
	ErrReviewLogNotFound = fmt.Errorf("%w: review log", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrDuplicateSubmission indicates a review log already exists for the same
	// (card, reviewer, reviewed-at) triple. The review service treats this as an
	// idempotent resubmission, never as a second transition.
	ErrDuplicateSubmission = fmt.Errorf("%w: review submission", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflictError checks if the error is an optimistic concurrency conflict.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}
