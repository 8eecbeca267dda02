package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/api/shared"
	"github.com/parrotdeck/srs-api/internal/domain"
	"github.com/parrotdeck/srs-api/internal/service/card_review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReviewService is a hand-written stub for card_review.CardReviewService.
type fakeReviewService struct {
	submitFn   func(ctx context.Context, cardID, reviewerID uuid.UUID, quality int, reviewedAt time.Time) (domain.ScheduleState, error)
	dueFn      func(ctx context.Context, userID uuid.UUID, lessonID *uuid.UUID, limit int) ([]*domain.Card, error)
	postponeFn func(ctx context.Context, cardID, ownerID uuid.UUID, days int) (domain.ScheduleState, error)
	historyFn  func(ctx context.Context, cardID, callerID uuid.UUID, page int) ([]*domain.ReviewLog, error)
}

func (f *fakeReviewService) SubmitReview(
	ctx context.Context,
	cardID, reviewerID uuid.UUID,
	quality int,
	reviewedAt time.Time,
) (domain.ScheduleState, error) {
	return f.submitFn(ctx, cardID, reviewerID, quality, reviewedAt)
}

func (f *fakeReviewService) GetDueCards(
	ctx context.Context,
	userID uuid.UUID,
	lessonID *uuid.UUID,
	limit int,
) ([]*domain.Card, error) {
	return f.dueFn(ctx, userID, lessonID, limit)
}

func (f *fakeReviewService) PostponeCard(
	ctx context.Context,
	cardID, ownerID uuid.UUID,
	days int,
) (domain.ScheduleState, error) {
	return f.postponeFn(ctx, cardID, ownerID, days)
}

func (f *fakeReviewService) GetReviewHistory(
	ctx context.Context,
	cardID, callerID uuid.UUID,
	page int,
) ([]*domain.ReviewLog, error) {
	return f.historyFn(ctx, cardID, callerID, page)
}

func reviewRouter(svc card_review.CardReviewService, userID uuid.UUID) http.Handler {
	h := NewReviewHandler(svc, testLogger())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.SetUserID(req.Context(), userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/api/cards/due", h.GetDueCards)
	r.Post("/api/cards/{id}/review", h.SubmitReview)
	r.Post("/api/cards/{id}/postpone", h.PostponeCard)
	r.Get("/api/cards/{id}/reviews", h.GetReviewHistory)
	return r
}

func TestSubmitReviewHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cardID := uuid.New()
	reviewedAt := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("valid submission", func(t *testing.T) {
		t.Parallel()

		svc := &fakeReviewService{
			submitFn: func(ctx context.Context, gotCard, gotReviewer uuid.UUID, quality int, gotAt time.Time) (domain.ScheduleState, error) {
				assert.Equal(t, cardID, gotCard)
				assert.Equal(t, userID, gotReviewer)
				assert.Equal(t, 4, quality)
				assert.True(t, reviewedAt.Equal(gotAt))
				return domain.ScheduleState{
					EaseFactor:     2.5,
					IntervalDays:   1,
					Repetitions:    1,
					NextReviewAt:   reviewedAt.AddDate(0, 0, 1),
					LastReviewedAt: reviewedAt,
				}, nil
			},
		}

		body := fmt.Sprintf(`{"quality":4,"reviewed_at":%q}`, reviewedAt.Format(time.RFC3339))
		req := httptest.NewRequest(
			http.MethodPost,
			"/api/cards/"+cardID.String()+"/review",
			bytes.NewBufferString(body),
		)
		rec := httptest.NewRecorder()
		reviewRouter(svc, userID).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp ScheduleResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 1, resp.Repetitions)
		require.NotNil(t, resp.LastReviewedAt)
	})

	t.Run("quality zero is a valid grade", func(t *testing.T) {
		t.Parallel()

		called := false
		svc := &fakeReviewService{
			submitFn: func(ctx context.Context, gotCard, gotReviewer uuid.UUID, quality int, gotAt time.Time) (domain.ScheduleState, error) {
				called = true
				assert.Equal(t, 0, quality)
				return domain.ScheduleState{EaseFactor: 2.3, IntervalDays: 1}, nil
			},
		}

		body := fmt.Sprintf(`{"quality":0,"reviewed_at":%q}`, reviewedAt.Format(time.RFC3339))
		req := httptest.NewRequest(
			http.MethodPost,
			"/api/cards/"+cardID.String()+"/review",
			bytes.NewBufferString(body),
		)
		rec := httptest.NewRecorder()
		reviewRouter(svc, userID).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, called)
	})

	t.Run("missing quality fails validation", func(t *testing.T) {
		t.Parallel()

		svc := &fakeReviewService{}
		body := fmt.Sprintf(`{"reviewed_at":%q}`, reviewedAt.Format(time.RFC3339))
		req := httptest.NewRequest(
			http.MethodPost,
			"/api/cards/"+cardID.String()+"/review",
			bytes.NewBufferString(body),
		)
		rec := httptest.NewRecorder()
		reviewRouter(svc, userID).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("quality out of range fails validation", func(t *testing.T) {
		t.Parallel()

		svc := &fakeReviewService{}
		body := fmt.Sprintf(`{"quality":6,"reviewed_at":%q}`, reviewedAt.Format(time.RFC3339))
		req := httptest.NewRequest(
			http.MethodPost,
			"/api/cards/"+cardID.String()+"/review",
			bytes.NewBufferString(body),
		)
		rec := httptest.NewRecorder()
		reviewRouter(svc, userID).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("service errors map to status codes", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name       string
			serviceErr error
			wantStatus int
		}{
			{name: "not found", serviceErr: card_review.ErrCardNotFound, wantStatus: http.StatusNotFound},
			{name: "not owned", serviceErr: card_review.ErrCardNotOwned, wantStatus: http.StatusForbidden},
			{name: "suspended", serviceErr: card_review.ErrCardSuspended, wantStatus: http.StatusUnprocessableEntity},
			{name: "conflict", serviceErr: card_review.ErrConflict, wantStatus: http.StatusConflict},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				svc := &fakeReviewService{
					submitFn: func(ctx context.Context, gotCard, gotReviewer uuid.UUID, quality int, gotAt time.Time) (domain.ScheduleState, error) {
						return domain.ScheduleState{}, tc.serviceErr
					},
				}

				body := fmt.Sprintf(`{"quality":4,"reviewed_at":%q}`, reviewedAt.Format(time.RFC3339))
				req := httptest.NewRequest(
					http.MethodPost,
					"/api/cards/"+cardID.String()+"/review",
					bytes.NewBufferString(body),
				)
				rec := httptest.NewRecorder()
				reviewRouter(svc, userID).ServeHTTP(rec, req)

				assert.Equal(t, tc.wantStatus, rec.Code)

				var resp shared.ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.NotEmpty(t, resp.Error)
				assert.NotContains(t, resp.Error, "sql")
			})
		}
	})
}

func TestGetDueCardsHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("default limit", func(t *testing.T) {
		t.Parallel()

		svc := &fakeReviewService{
			dueFn: func(ctx context.Context, gotUser uuid.UUID, lessonID *uuid.UUID, limit int) ([]*domain.Card, error) {
				assert.Equal(t, userID, gotUser)
				assert.Nil(t, lessonID)
				assert.Zero(t, limit)
				return []*domain.Card{}, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/api/cards/due", nil)
		rec := httptest.NewRecorder()
		reviewRouter(svc, userID).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp CardListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Zero(t, resp.Count)
		assert.NotNil(t, resp.Cards)
	})

	t.Run("lesson filter and limit", func(t *testing.T) {
		t.Parallel()

		lessonID := uuid.New()
		svc := &fakeReviewService{
			dueFn: func(ctx context.Context, gotUser uuid.UUID, gotLesson *uuid.UUID, limit int) ([]*domain.Card, error) {
				require.NotNil(t, gotLesson)
				assert.Equal(t, lessonID, *gotLesson)
				assert.Equal(t, 5, limit)
				return []*domain.Card{}, nil
			},
		}

		url := fmt.Sprintf("/api/cards/due?lesson_id=%s&limit=5", lessonID)
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		reviewRouter(svc, userID).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bad lesson ID", func(t *testing.T) {
		t.Parallel()

		svc := &fakeReviewService{}
		req := httptest.NewRequest(http.MethodGet, "/api/cards/due?lesson_id=nope", nil)
		rec := httptest.NewRecorder()
		reviewRouter(svc, userID).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		t.Parallel()

		svc := &fakeReviewService{}
		req := httptest.NewRequest(http.MethodGet, "/api/cards/due?limit=-1", nil)
		rec := httptest.NewRecorder()
		reviewRouter(svc, userID).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPostponeCardHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cardID := uuid.New()

	t.Run("valid postpone", func(t *testing.T) {
		t.Parallel()

		svc := &fakeReviewService{
			postponeFn: func(ctx context.Context, gotCard, gotOwner uuid.UUID, days int) (domain.ScheduleState, error) {
				assert.Equal(t, cardID, gotCard)
				assert.Equal(t, 3, days)
				return domain.ScheduleState{EaseFactor: 2.5, IntervalDays: 6}, nil
			},
		}

		req := httptest.NewRequest(
			http.MethodPost,
			"/api/cards/"+cardID.String()+"/postpone",
			bytes.NewBufferString(`{"days":3}`),
		)
		rec := httptest.NewRecorder()
		reviewRouter(svc, userID).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("zero days fails validation", func(t *testing.T) {
		t.Parallel()

		svc := &fakeReviewService{}
		req := httptest.NewRequest(
			http.MethodPost,
			"/api/cards/"+cardID.String()+"/postpone",
			bytes.NewBufferString(`{"days":0}`),
		)
		rec := httptest.NewRecorder()
		reviewRouter(svc, userID).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetReviewHistoryHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cardID := uuid.New()

	svc := &fakeReviewService{
		historyFn: func(ctx context.Context, gotCard, gotCaller uuid.UUID, page int) ([]*domain.ReviewLog, error) {
			assert.Equal(t, cardID, gotCard)
			assert.Equal(t, 1, page)
			log, err := domain.NewReviewLog(
				cardID,
				userID,
				4,
				domain.ScheduleState{EaseFactor: 2.5},
				domain.ScheduleState{EaseFactor: 2.5, IntervalDays: 1, Repetitions: 1},
				time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
			)
			require.NoError(t, err)
			return []*domain.ReviewLog{log}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/cards/"+cardID.String()+"/reviews", nil)
	rec := httptest.NewRecorder()
	reviewRouter(svc, userID).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReviewLogListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 4, resp.Logs[0].Quality)
}
