package srs

import (
	"errors"
	"time"

	"github.com/parrotdeck/srs-api/internal/domain"
)

// Common errors
var (
	ErrInvalidQuality = errors.New("review quality must be between 0 and 5")
	ErrInvalidDays    = errors.New("postpone days must be at least 1")
)

// Service defines the interface for SRS algorithm operations.
type Service interface {
	// NextReview computes the new schedule based on a review quality grade.
	NextReview(
		state domain.ScheduleState,
		quality int,
		reviewedAt time.Time,
	) (domain.ScheduleState, error)

	// Postpone pushes the next review time forward by a number of days
	// without touching the ease factor, interval, or repetition streak.
	Postpone(
		state domain.ScheduleState,
		days int,
	) (domain.ScheduleState, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a new SRS service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

// NextReview implements the Service interface for computing the next schedule.
func (s *defaultService) NextReview(
	state domain.ScheduleState,
	quality int,
	reviewedAt time.Time,
) (domain.ScheduleState, error) {
	if !ValidQuality(quality) {
		return domain.ScheduleState{}, ErrInvalidQuality
	}

	if reviewedAt.IsZero() {
		return domain.ScheduleState{}, domain.ErrLogReviewedAtZero
	}

	return NextSchedule(state, quality, reviewedAt, s.params), nil
}

// Postpone implements the Service interface for postponing reviews.
func (s *defaultService) Postpone(
	state domain.ScheduleState,
	days int,
) (domain.ScheduleState, error) {
	if days < 1 {
		return domain.ScheduleState{}, ErrInvalidDays
	}

	next := state
	next.NextReviewAt = state.NextReviewAt.AddDate(0, 0, days)
	return next, nil
}

// ValidQuality reports whether the given grade is within the accepted range.
func ValidQuality(quality int) bool {
	return quality >= MinQuality && quality <= MaxQuality
}
