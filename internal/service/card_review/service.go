// Package card_review orchestrates review submissions: it validates a
// submission against the card's current state, applies the scheduling
// algorithm, and persists the new schedule together with an audit log entry
// in one transaction. It also answers the due-card queue.
package card_review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/domain"
)

// CardReviewService provides methods for reviewing flashcards
// using the spaced repetition algorithm.
type CardReviewService interface {
	// SubmitReview processes a review of the given quality grade (0-5) and
	// returns the card's new schedule state.
	//
	// reviewedAt is the client-supplied review timestamp; it anchors the new
	// schedule and doubles as the idempotency key. Submitting the same
	// (card, reviewer, reviewedAt) twice returns the already-computed result
	// without applying the algorithm a second time.
	//
	// Submissions for the same card are serialized through optimistic
	// versioning: a submission that loses the race is retried internally
	// against the fresh state a bounded number of times before ErrConflict
	// is surfaced. Submissions for different cards never contend.
	//
	// Returns ErrCardNotFound, ErrCardNotOwned, ErrCardSuspended,
	// ErrInvalidQuality, or ErrInvalidTimestamp on precondition failures.
	SubmitReview(
		ctx context.Context,
		cardID, reviewerID uuid.UUID,
		quality int,
		reviewedAt time.Time,
	) (domain.ScheduleState, error)

	// GetDueCards returns up to limit cards owned by userID that are due
	// now, most overdue first. A non-nil lessonID restricts the queue to one
	// lesson. When fewer than limit cards are due the result is short; the
	// queue is never padded with not-yet-due cards.
	GetDueCards(
		ctx context.Context,
		userID uuid.UUID,
		lessonID *uuid.UUID,
		limit int,
	) ([]*domain.Card, error)

	// PostponeCard pushes a card's next review forward by days without
	// altering its ease factor, interval, or repetition streak. Owner only.
	PostponeCard(
		ctx context.Context,
		cardID, ownerID uuid.UUID,
		days int,
	) (domain.ScheduleState, error)

	// GetReviewHistory returns a card's review log, most recent first.
	// Owner only.
	GetReviewHistory(
		ctx context.Context,
		cardID, callerID uuid.UUID,
		page int,
	) ([]*domain.ReviewLog, error)
}

// Common error types for CardReviewService
var (
	// ErrCardNotFound indicates that the card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrCardNotOwned indicates that the user does not own the card.
	ErrCardNotOwned = errors.New("unauthorized access: card not owned by user")

	// ErrCardSuspended indicates a review was submitted against a suspended card.
	ErrCardSuspended = errors.New("card is suspended")

	// ErrInvalidQuality indicates the quality grade is outside 0-5.
	ErrInvalidQuality = errors.New("review quality must be between 0 and 5")

	// ErrInvalidTimestamp indicates the review timestamp is missing.
	ErrInvalidTimestamp = errors.New("review timestamp is required")

	// ErrInvalidDays indicates a postpone request with fewer than one day.
	ErrInvalidDays = errors.New("postpone days must be at least 1")

	// ErrConflict indicates concurrent submissions kept winning the version
	// race after several internal retries. The caller may retry.
	ErrConflict = errors.New("concurrent review conflict, retry")
)

// ServiceError wraps errors from the card review service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
