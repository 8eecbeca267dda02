// Package srs implements the spaced repetition scheduling algorithm, an SM-2
// variant operating on review quality grades from 0 (total blackout) to 5
// (perfect recall).
//
// The algorithm functions are pure: they take the review timestamp as an
// explicit input and never read a wall clock, so batched and backfilled
// reviews compute the same schedule as live ones and tests are fully
// deterministic.
package srs

import (
	"math"
	"time"

	"github.com/parrotdeck/srs-api/internal/domain"
)

// Quality grade bounds. Clients with a two-button UI submit 1 for "Again" and
// 5 for "Easy"; the full range is accepted for richer clients.
const (
	MinQuality = 0
	MaxQuality = 5
)

// successThreshold separates lapses from successful recalls. A quality below
// this value resets the repetition streak.
const successThreshold = 3

// nextEaseFactor computes the new ease factor after a review.
//
// For a lapse the ease factor drops by a fixed penalty. For a success it
// moves by the standard SM-2 adjustment, which rewards quality 5 most
// (+0.1), leaves quality 4 unchanged, and penalizes a barely-passing
// quality 3 (-0.14). The result is always clamped to
// [params.MinEaseFactor, params.MaxEaseFactor].
func nextEaseFactor(currentEF float64, quality int, params *Params) float64 {
	var newEF float64
	if quality < successThreshold {
		newEF = currentEF - params.LapseEasePenalty
	} else {
		miss := float64(MaxQuality - quality)
		newEF = currentEF + (0.1 - miss*(0.08+miss*0.02))
	}

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}
	if newEF > params.MaxEaseFactor {
		newEF = params.MaxEaseFactor
	}

	return newEF
}

// nextInterval computes the new interval in days after a successful review.
//
// The first two successful repetitions use fixed bootstrap intervals
// (1 day, then 6 days); from the third on, the interval grows by the new
// ease factor, rounded to the nearest whole day and clamped to at least one
// day so a just-reviewed card can never be immediately due again.
func nextInterval(currentInterval, newRepetitions int, newEF float64, params *Params) int {
	switch newRepetitions {
	case 1:
		return params.FirstSuccessIntervalDays
	case 2:
		return params.SecondSuccessIntervalDays
	}

	interval := int(math.Round(float64(currentInterval) * newEF))
	if interval < 1 {
		interval = 1
	}
	return interval
}

// NextSchedule computes the schedule state following a review of the given
// quality at the given time. It is total over the valid quality domain
// [MinQuality, MaxQuality]; callers validate the grade before invoking it.
//
// A lapse (quality < 3) resets the repetition streak and the interval: a
// failed recall invalidates the accumulated spacing, so the card re-enters
// the learning phase with a one-day interval regardless of prior history.
//
// The next review time is anchored on the review timestamp, not on the
// wall clock at persistence time.
func NextSchedule(
	state domain.ScheduleState,
	quality int,
	reviewedAt time.Time,
	params *Params,
) domain.ScheduleState {
	next := state
	next.EaseFactor = nextEaseFactor(state.EaseFactor, quality, params)

	if quality < successThreshold {
		next.Repetitions = 0
		next.IntervalDays = params.LapseIntervalDays
	} else {
		next.Repetitions = state.Repetitions + 1
		next.IntervalDays = nextInterval(state.IntervalDays, next.Repetitions, next.EaseFactor, params)
	}

	next.LastReviewedAt = reviewedAt
	next.NextReviewAt = reviewedAt.AddDate(0, 0, next.IntervalDays)

	return next
}
