package domain

import (
	"errors"
	"time"
)

// Schedule validation errors
var (
	// ErrInvalidInterval is returned when an interval is negative.
	ErrInvalidInterval = errors.New("interval must be greater than or equal to 0")

	// ErrInvalidRepetitions is returned when a repetition count is negative.
	ErrInvalidRepetitions = errors.New("repetitions must be greater than or equal to 0")

	// ErrInvalidEaseFactor is returned when an ease factor is below the SM-2 floor.
	ErrInvalidEaseFactor = errors.New("ease factor must be at least 1.3")
)

// MinEaseFactor is the SM-2 floor for the ease factor. No reachable schedule
// state may carry an ease factor below this value.
const MinEaseFactor = 1.3

// DefaultEaseFactor is the ease factor assigned to a freshly created card.
const DefaultEaseFactor = 2.5

// ScheduleState tracks a card's spaced repetition schedule. It is embedded in
// Card and mutated only through the srs package, which returns new values
// rather than modifying existing ones.
type ScheduleState struct {
	EaseFactor     float64   `json:"ease_factor"`      // Growth multiplier, 1.3 or above
	IntervalDays   int       `json:"interval_days"`    // Current interval in days
	Repetitions    int       `json:"repetitions"`      // Consecutive non-lapse reviews
	NextReviewAt   time.Time `json:"next_review_at"`   // When the card becomes due
	LastReviewedAt time.Time `json:"last_reviewed_at"` // Zero until the first review
	IsSuspended    bool      `json:"is_suspended"`     // Suspended cards are never due
}

// NewScheduleState returns the schedule for a freshly created card: immediately
// due, default ease factor, no review history.
func NewScheduleState(now time.Time) ScheduleState {
	return ScheduleState{
		EaseFactor:   DefaultEaseFactor,
		IntervalDays: 0,
		Repetitions:  0,
		NextReviewAt: now,
	}
}

// Validate checks if the ScheduleState has valid data.
// Returns an error if any field fails validation.
func (s ScheduleState) Validate() error {
	if s.IntervalDays < 0 {
		return ErrInvalidInterval
	}

	if s.Repetitions < 0 {
		return ErrInvalidRepetitions
	}

	if s.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}

	return nil
}

// Reviewed reports whether the card has ever been reviewed.
func (s ScheduleState) Reviewed() bool {
	return !s.LastReviewedAt.IsZero()
}

// Due reports whether the card is due for review at the given time.
// Suspended cards are never due regardless of NextReviewAt.
func (s ScheduleState) Due(now time.Time) bool {
	return !s.IsSuspended && !s.NextReviewAt.After(now)
}
