package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewLog validation errors
var (
	// ErrLogCardIDEmpty is returned when a review log's card ID is empty or nil.
	ErrLogCardIDEmpty = errors.New("review log card ID cannot be empty")

	// ErrLogReviewerIDEmpty is returned when a review log's reviewer ID is empty or nil.
	ErrLogReviewerIDEmpty = errors.New("review log reviewer ID cannot be empty")

	// ErrLogReviewedAtZero is returned when a review log has no review timestamp.
	ErrLogReviewedAtZero = errors.New("review log timestamp cannot be zero")
)

// ReviewLog is the append-only audit record of one accepted review submission.
// Entries are never mutated or deleted. The (CardID, ReviewerID, ReviewedAt)
// triple is unique and doubles as the idempotency key for duplicate
// submissions.
type ReviewLog struct {
	ID                 uuid.UUID `json:"id"`
	CardID             uuid.UUID `json:"card_id"`
	ReviewerID         uuid.UUID `json:"reviewer_id"`
	Quality            int       `json:"quality"`
	PreviousInterval   int       `json:"previous_interval"`
	NewInterval        int       `json:"new_interval"`
	PreviousEaseFactor float64   `json:"previous_ease_factor"`
	NewEaseFactor      float64   `json:"new_ease_factor"`
	ReviewedAt         time.Time `json:"reviewed_at"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewReviewLog records the transition from the previous schedule to the new
// one for an accepted review. ReviewedAt is the client-supplied review
// timestamp, not the persistence time.
func NewReviewLog(
	cardID, reviewerID uuid.UUID,
	quality int,
	previous, next ScheduleState,
	reviewedAt time.Time,
) (*ReviewLog, error) {
	log := &ReviewLog{
		ID:                 uuid.New(),
		CardID:             cardID,
		ReviewerID:         reviewerID,
		Quality:            quality,
		PreviousInterval:   previous.IntervalDays,
		NewInterval:        next.IntervalDays,
		PreviousEaseFactor: previous.EaseFactor,
		NewEaseFactor:      next.EaseFactor,
		ReviewedAt:         reviewedAt,
		CreatedAt:          time.Now().UTC(),
	}

	if err := log.Validate(); err != nil {
		return nil, err
	}

	return log, nil
}

// Validate checks if the ReviewLog has valid data.
func (l *ReviewLog) Validate() error {
	if l.CardID == uuid.Nil {
		return ErrLogCardIDEmpty
	}

	if l.ReviewerID == uuid.Nil {
		return ErrLogReviewerIDEmpty
	}

	if l.Quality < 0 || l.Quality > 5 {
		return ErrInvalidQuality
	}

	if l.ReviewedAt.IsZero() {
		return ErrLogReviewedAtZero
	}

	return nil
}
