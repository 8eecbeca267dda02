package card_review

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/domain"
	"github.com/parrotdeck/srs-api/internal/domain/srs"
	"github.com/parrotdeck/srs-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner invokes the transaction function directly; the fake
// repositories ignore the nil transaction handle.
type fakeRunner struct{}

func (r *fakeRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

// fakeCardRepo is an in-memory CardRepository that mimics the store's
// optimistic versioning behavior.
type fakeCardRepo struct {
	mu    sync.Mutex
	cards map[uuid.UUID]*domain.Card

	// updateScheduleHook runs inside UpdateSchedule before any state is
	// touched, letting tests interleave a competing writer.
	updateScheduleHook func()
}

func newFakeCardRepo(cards ...*domain.Card) *fakeCardRepo {
	repo := &fakeCardRepo{cards: make(map[uuid.UUID]*domain.Card)}
	for _, c := range cards {
		copied := *c
		repo.cards[c.ID] = &copied
	}
	return repo
}

func (r *fakeCardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	card, ok := r.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	copied := *card
	return &copied, nil
}

func (r *fakeCardRepo) UpdateSchedule(
	ctx context.Context,
	id uuid.UUID,
	schedule domain.ScheduleState,
	expectedVersion int,
) error {
	if r.updateScheduleHook != nil {
		r.updateScheduleHook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	card, ok := r.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}
	if card.Version != expectedVersion {
		return store.ErrConflict
	}
	// Mirrors the store: schedule writes never change suspension.
	schedule.IsSuspended = card.Schedule.IsSuspended
	card.Schedule = schedule
	card.Version++
	return nil
}

func (r *fakeCardRepo) DueCards(
	ctx context.Context,
	ownerID uuid.UUID,
	lessonID *uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	due := []*domain.Card{}
	for _, card := range r.cards {
		if card.OwnerID != ownerID || !card.Schedule.Due(now) {
			continue
		}
		if lessonID != nil && card.LessonID != *lessonID {
			continue
		}
		if len(due) == limit {
			break
		}
		copied := *card
		due = append(due, &copied)
	}
	return due, nil
}

func (r *fakeCardRepo) WithTx(tx *sql.Tx) CardRepository { return r }

// fakeLogRepo is an in-memory ReviewLogRepository enforcing the
// submission-triple uniqueness constraint.
type fakeLogRepo struct {
	mu   sync.Mutex
	logs []*domain.ReviewLog
}

func (r *fakeLogRepo) Create(ctx context.Context, log *domain.ReviewLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.logs {
		if existing.CardID == log.CardID &&
			existing.ReviewerID == log.ReviewerID &&
			existing.ReviewedAt.Equal(log.ReviewedAt) {
			return store.ErrDuplicateSubmission
		}
	}
	copied := *log
	r.logs = append(r.logs, &copied)
	return nil
}

func (r *fakeLogRepo) GetBySubmission(
	ctx context.Context,
	cardID, reviewerID uuid.UUID,
	reviewedAt time.Time,
) (*domain.ReviewLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.logs {
		if existing.CardID == cardID &&
			existing.ReviewerID == reviewerID &&
			existing.ReviewedAt.Equal(reviewedAt) {
			copied := *existing
			return &copied, nil
		}
	}
	return nil, store.ErrReviewLogNotFound
}

func (r *fakeLogRepo) ListByCard(
	ctx context.Context,
	cardID uuid.UUID,
	limit, offset int,
) ([]*domain.ReviewLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := []*domain.ReviewLog{}
	for _, existing := range r.logs {
		if existing.CardID == cardID {
			copied := *existing
			matched = append(matched, &copied)
		}
	}
	if offset >= len(matched) {
		return []*domain.ReviewLog{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *fakeLogRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs)
}

func (r *fakeLogRepo) WithTx(tx *sql.Tx) ReviewLogRepository { return r }

func newTestCard(t *testing.T, ownerID uuid.UUID) *domain.Card {
	t.Helper()

	card, err := domain.NewCard(ownerID, uuid.New(), domain.CardContent{
		Front: "犬",
		Back:  "dog",
	}, false)
	require.NoError(t, err)
	return card
}

func newTestService(cardRepo CardRepository, logRepo ReviewLogRepository) CardReviewService {
	return NewCardReviewService(cardRepo, logRepo, &fakeRunner{}, srs.NewDefaultService(), nil)
}

func TestSubmitReview(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	reviewedAt := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("applies the algorithm and persists", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		cardRepo := newFakeCardRepo(card)
		logRepo := &fakeLogRepo{}
		svc := newTestService(cardRepo, logRepo)

		schedule, err := svc.SubmitReview(context.Background(), card.ID, ownerID, 5, reviewedAt)
		require.NoError(t, err)

		assert.Equal(t, 1, schedule.Repetitions)
		assert.Equal(t, 1, schedule.IntervalDays)
		assert.InDelta(t, 2.6, schedule.EaseFactor, 1e-9)
		assert.Equal(t, reviewedAt.AddDate(0, 0, 1), schedule.NextReviewAt)

		stored, err := cardRepo.GetByID(context.Background(), card.ID)
		require.NoError(t, err)
		assert.Equal(t, schedule, stored.Schedule)
		assert.Equal(t, card.Version+1, stored.Version)
		assert.Equal(t, 1, logRepo.count())
	})

	t.Run("duplicate submission is idempotent", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		cardRepo := newFakeCardRepo(card)
		logRepo := &fakeLogRepo{}
		svc := newTestService(cardRepo, logRepo)

		first, err := svc.SubmitReview(context.Background(), card.ID, ownerID, 4, reviewedAt)
		require.NoError(t, err)

		// The retried submission must not advance the schedule again.
		second, err := svc.SubmitReview(context.Background(), card.ID, ownerID, 4, reviewedAt)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, logRepo.count())

		stored, err := cardRepo.GetByID(context.Background(), card.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Schedule.Repetitions)
	})

	t.Run("distinct timestamps are distinct reviews", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		cardRepo := newFakeCardRepo(card)
		logRepo := &fakeLogRepo{}
		svc := newTestService(cardRepo, logRepo)

		_, err := svc.SubmitReview(context.Background(), card.ID, ownerID, 4, reviewedAt)
		require.NoError(t, err)

		later, err := svc.SubmitReview(context.Background(), card.ID, ownerID, 4, reviewedAt.AddDate(0, 0, 1))
		require.NoError(t, err)

		assert.Equal(t, 2, later.Repetitions)
		assert.Equal(t, 2, logRepo.count())
	})

	t.Run("unknown card", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(newFakeCardRepo(), &fakeLogRepo{})

		_, err := svc.SubmitReview(context.Background(), uuid.New(), ownerID, 4, reviewedAt)
		assert.ErrorIs(t, err, ErrCardNotFound)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		svc := newTestService(newFakeCardRepo(card), &fakeLogRepo{})

		_, err := svc.SubmitReview(context.Background(), card.ID, uuid.New(), 4, reviewedAt)
		assert.ErrorIs(t, err, ErrCardNotOwned)
	})

	t.Run("suspended card is rejected", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		card.Schedule.IsSuspended = true
		logRepo := &fakeLogRepo{}
		svc := newTestService(newFakeCardRepo(card), logRepo)

		_, err := svc.SubmitReview(context.Background(), card.ID, ownerID, 4, reviewedAt)
		assert.ErrorIs(t, err, ErrCardSuspended)
		assert.Zero(t, logRepo.count())
	})

	t.Run("invalid quality", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		svc := newTestService(newFakeCardRepo(card), &fakeLogRepo{})

		_, err := svc.SubmitReview(context.Background(), card.ID, ownerID, 6, reviewedAt)
		assert.ErrorIs(t, err, ErrInvalidQuality)

		_, err = svc.SubmitReview(context.Background(), card.ID, ownerID, -1, reviewedAt)
		assert.ErrorIs(t, err, ErrInvalidQuality)
	})

	t.Run("zero timestamp", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		svc := newTestService(newFakeCardRepo(card), &fakeLogRepo{})

		_, err := svc.SubmitReview(context.Background(), card.ID, ownerID, 4, time.Time{})
		assert.ErrorIs(t, err, ErrInvalidTimestamp)
	})
}

func TestSubmitReviewVersionRace(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	reviewedAt := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("retries after losing the race once", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		cardRepo := newFakeCardRepo(card)
		logRepo := &fakeLogRepo{}
		svc := newTestService(cardRepo, logRepo)

		// On the first write attempt a competing reviewer slips in and
		// bumps the version; the service must re-read and succeed.
		raced := false
		cardRepo.updateScheduleHook = func() {
			if raced {
				return
			}
			raced = true
			cardRepo.mu.Lock()
			cardRepo.cards[card.ID].Version++
			cardRepo.mu.Unlock()
		}

		schedule, err := svc.SubmitReview(context.Background(), card.ID, ownerID, 4, reviewedAt)
		require.NoError(t, err)
		assert.Equal(t, 1, schedule.Repetitions)
		assert.Equal(t, 1, logRepo.count())
	})

	t.Run("surfaces conflict when retries are exhausted", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		cardRepo := newFakeCardRepo(card)
		svc := newTestService(cardRepo, &fakeLogRepo{})

		// Every attempt loses the race.
		cardRepo.updateScheduleHook = func() {
			cardRepo.mu.Lock()
			cardRepo.cards[card.ID].Version++
			cardRepo.mu.Unlock()
		}

		_, err := svc.SubmitReview(context.Background(), card.ID, ownerID, 4, reviewedAt)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("suspension during review wins the race", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		cardRepo := newFakeCardRepo(card)
		logRepo := &fakeLogRepo{}
		svc := newTestService(cardRepo, logRepo)

		// The owner suspends the card between the service's read and its
		// version-gated write. The write must lose, and the retry must see
		// the suspension instead of committing against the stale flag.
		suspended := false
		cardRepo.updateScheduleHook = func() {
			if suspended {
				return
			}
			suspended = true
			cardRepo.mu.Lock()
			cardRepo.cards[card.ID].Schedule.IsSuspended = true
			cardRepo.cards[card.ID].Version++
			cardRepo.mu.Unlock()
		}

		_, err := svc.SubmitReview(context.Background(), card.ID, ownerID, 4, reviewedAt)
		assert.ErrorIs(t, err, ErrCardSuspended)
		assert.Zero(t, logRepo.count())

		stored, err := cardRepo.GetByID(context.Background(), card.ID)
		require.NoError(t, err)
		assert.True(t, stored.Schedule.IsSuspended, "suspension must survive the racing review")
		assert.Zero(t, stored.Schedule.Repetitions)
	})

	t.Run("concurrent distinct submissions both land", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		cardRepo := newFakeCardRepo(card)
		logRepo := &fakeLogRepo{}
		svc := newTestService(cardRepo, logRepo)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				submittedAt := reviewedAt.Add(time.Duration(i) * time.Minute)
				_, errs[i] = svc.SubmitReview(context.Background(), card.ID, ownerID, 4, submittedAt)
			}()
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		// Both reviews are recorded and the final state reflects a
		// serial order of the two.
		assert.Equal(t, 2, logRepo.count())
		stored, err := cardRepo.GetByID(context.Background(), card.ID)
		require.NoError(t, err)
		assert.Equal(t, card.Version+2, stored.Version)
	})
}

func TestGetDueCards(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	now := time.Now().UTC()

	overdue := newTestCard(t, ownerID)
	overdue.Schedule.NextReviewAt = now.Add(-time.Hour)

	future := newTestCard(t, ownerID)
	future.Schedule.NextReviewAt = now.Add(48 * time.Hour)

	suspended := newTestCard(t, ownerID)
	suspended.Schedule.NextReviewAt = now.Add(-time.Hour)
	suspended.Schedule.IsSuspended = true

	otherOwner := newTestCard(t, uuid.New())
	otherOwner.Schedule.NextReviewAt = now.Add(-time.Hour)

	t.Run("returns only the caller's due cards", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(newFakeCardRepo(overdue, future, suspended, otherOwner), &fakeLogRepo{})

		cards, err := svc.GetDueCards(context.Background(), ownerID, nil, 0)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, overdue.ID, cards[0].ID)
	})

	t.Run("lesson filter", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(newFakeCardRepo(overdue, future, suspended), &fakeLogRepo{})

		otherLesson := uuid.New()
		cards, err := svc.GetDueCards(context.Background(), ownerID, &otherLesson, 0)
		require.NoError(t, err)
		assert.Empty(t, cards)

		cards, err = svc.GetDueCards(context.Background(), ownerID, &overdue.LessonID, 0)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, overdue.ID, cards[0].ID)
	})

	t.Run("limit clamping", func(t *testing.T) {
		t.Parallel()

		dueCards := make([]*domain.Card, 0, MaxDueLimit+30)
		for i := 0; i < MaxDueLimit+30; i++ {
			c := newTestCard(t, ownerID)
			c.Schedule.NextReviewAt = now.Add(-time.Hour)
			dueCards = append(dueCards, c)
		}
		svc := newTestService(newFakeCardRepo(dueCards...), &fakeLogRepo{})

		// Zero limit falls back to the default page size.
		cards, err := svc.GetDueCards(context.Background(), ownerID, nil, 0)
		require.NoError(t, err)
		assert.Len(t, cards, DefaultDueLimit)

		// Oversized limits are capped.
		cards, err = svc.GetDueCards(context.Background(), ownerID, nil, 1000)
		require.NoError(t, err)
		assert.Len(t, cards, MaxDueLimit)
	})
}

func TestPostponeCard(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	t.Run("pushes next review forward", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		before := card.Schedule
		cardRepo := newFakeCardRepo(card)
		svc := newTestService(cardRepo, &fakeLogRepo{})

		schedule, err := svc.PostponeCard(context.Background(), card.ID, ownerID, 3)
		require.NoError(t, err)

		assert.Equal(t, before.NextReviewAt.AddDate(0, 0, 3), schedule.NextReviewAt)
		assert.Equal(t, before.EaseFactor, schedule.EaseFactor)
		assert.Equal(t, before.Repetitions, schedule.Repetitions)
	})

	t.Run("invalid days", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		svc := newTestService(newFakeCardRepo(card), &fakeLogRepo{})

		_, err := svc.PostponeCard(context.Background(), card.ID, ownerID, 0)
		assert.ErrorIs(t, err, ErrInvalidDays)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		svc := newTestService(newFakeCardRepo(card), &fakeLogRepo{})

		_, err := svc.PostponeCard(context.Background(), card.ID, uuid.New(), 3)
		assert.ErrorIs(t, err, ErrCardNotOwned)
	})

	t.Run("unknown card", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(newFakeCardRepo(), &fakeLogRepo{})

		_, err := svc.PostponeCard(context.Background(), uuid.New(), ownerID, 3)
		assert.ErrorIs(t, err, ErrCardNotFound)
	})
}

func TestGetReviewHistory(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	reviewedAt := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("owner reads history", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		cardRepo := newFakeCardRepo(card)
		logRepo := &fakeLogRepo{}
		svc := newTestService(cardRepo, logRepo)

		for i := 0; i < 3; i++ {
			_, err := svc.SubmitReview(
				context.Background(),
				card.ID,
				ownerID,
				4,
				reviewedAt.AddDate(0, 0, i*7),
			)
			require.NoError(t, err)
		}

		logs, err := svc.GetReviewHistory(context.Background(), card.ID, ownerID, 1)
		require.NoError(t, err)
		assert.Len(t, logs, 3)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		t.Parallel()

		card := newTestCard(t, ownerID)
		svc := newTestService(newFakeCardRepo(card), &fakeLogRepo{})

		_, err := svc.GetReviewHistory(context.Background(), card.ID, uuid.New(), 1)
		assert.ErrorIs(t, err, ErrCardNotOwned)
	})

	t.Run("unknown card", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(newFakeCardRepo(), &fakeLogRepo{})

		_, err := svc.GetReviewHistory(context.Background(), uuid.New(), ownerID, 1)
		assert.ErrorIs(t, err, ErrCardNotFound)
	})
}
