package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReviewLog(t *testing.T) {
	t.Parallel()

	cardID := uuid.New()
	reviewerID := uuid.New()
	reviewedAt := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)

	previous := ScheduleState{
		EaseFactor:   2.5,
		IntervalDays: 6,
		Repetitions:  2,
	}
	next := ScheduleState{
		EaseFactor:   2.6,
		IntervalDays: 16,
		Repetitions:  3,
	}

	t.Run("records the schedule transition", func(t *testing.T) {
		t.Parallel()

		log, err := NewReviewLog(cardID, reviewerID, 5, previous, next, reviewedAt)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, log.ID)
		assert.Equal(t, cardID, log.CardID)
		assert.Equal(t, reviewerID, log.ReviewerID)
		assert.Equal(t, 5, log.Quality)
		assert.Equal(t, 6, log.PreviousInterval)
		assert.Equal(t, 16, log.NewInterval)
		assert.Equal(t, 2.5, log.PreviousEaseFactor)
		assert.Equal(t, 2.6, log.NewEaseFactor)
		assert.Equal(t, reviewedAt, log.ReviewedAt)
		assert.False(t, log.CreatedAt.IsZero())
	})

	t.Run("validation failures", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name       string
			cardID     uuid.UUID
			reviewerID uuid.UUID
			quality    int
			reviewedAt time.Time
			wantErr    error
		}{
			{
				name:       "empty card ID",
				reviewerID: reviewerID,
				quality:    4,
				reviewedAt: reviewedAt,
				wantErr:    ErrLogCardIDEmpty,
			},
			{
				name:       "empty reviewer ID",
				cardID:     cardID,
				quality:    4,
				reviewedAt: reviewedAt,
				wantErr:    ErrLogReviewerIDEmpty,
			},
			{
				name:       "quality out of range",
				cardID:     cardID,
				reviewerID: reviewerID,
				quality:    6,
				reviewedAt: reviewedAt,
				wantErr:    ErrInvalidQuality,
			},
			{
				name:       "zero timestamp",
				cardID:     cardID,
				reviewerID: reviewerID,
				quality:    4,
				wantErr:    ErrLogReviewedAtZero,
			},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				_, err := NewReviewLog(tc.cardID, tc.reviewerID, tc.quality, previous, next, tc.reviewedAt)
				assert.ErrorIs(t, err, tc.wantErr)
			})
		}
	})
}
