package apperrs

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrReviewNotPending signals a resolution action on an already-terminal review.
	ErrReviewNotPending = errors.New("review is not pending")
)

// ValidationError marks a row or field that failed input validation. The
// offending row is skipped, never the whole batch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

// ConflictPendingReview signals that a staged row is held behind a
// ProductMatchReview and must not be auto-applied.
type ConflictPendingReview struct {
	ReviewID uuid.UUID
	Reason   string
}

func (e *ConflictPendingReview) Error() string {
	return fmt.Sprintf("held for review %s (%s)", e.ReviewID, e.Reason)
}

// StorageError wraps a storage-layer failure. Staged rows touched by a
// failed write stay unprocessed so a later run retries them.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
