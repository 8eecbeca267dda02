package card_review

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/domain"
	"github.com/parrotdeck/srs-api/internal/store"
)

// CardRepository defines the card operations the review service needs,
// narrowed from store.CardStore so tests can substitute fakes.
type CardRepository interface {
	// GetByID retrieves a card by its unique ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// UpdateSchedule writes a card's schedule conditionally on its version.
	UpdateSchedule(
		ctx context.Context,
		id uuid.UUID,
		schedule domain.ScheduleState,
		expectedVersion int,
	) error

	// DueCards returns due cards for an owner, most overdue first.
	DueCards(
		ctx context.Context,
		ownerID uuid.UUID,
		lessonID *uuid.UUID,
		now time.Time,
		limit int,
	) ([]*domain.Card, error)

	// WithTx returns a new repository instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CardRepository
}

// ReviewLogRepository defines the review log operations the review service
// needs.
type ReviewLogRepository interface {
	// Create appends a new review log entry.
	Create(ctx context.Context, log *domain.ReviewLog) error

	// GetBySubmission looks up the entry for one submission by its idempotency key.
	GetBySubmission(
		ctx context.Context,
		cardID, reviewerID uuid.UUID,
		reviewedAt time.Time,
	) (*domain.ReviewLog, error)

	// ListByCard returns a card's review history, most recent first.
	ListByCard(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]*domain.ReviewLog, error)

	// WithTx returns a new repository instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewLogRepository
}

// NewCardRepositoryAdapter creates a new adapter that allows a store.CardStore
// to be used where a CardRepository is expected.
func NewCardRepositoryAdapter(cardStore store.CardStore) CardRepository {
	return &cardRepositoryAdapter{cardStore: cardStore}
}

// cardRepositoryAdapter adapts a store.CardStore to the CardRepository interface
type cardRepositoryAdapter struct {
	cardStore store.CardStore
}

// GetByID implements CardRepository.GetByID
func (a *cardRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return a.cardStore.GetByID(ctx, id)
}

// UpdateSchedule implements CardRepository.UpdateSchedule
func (a *cardRepositoryAdapter) UpdateSchedule(
	ctx context.Context,
	id uuid.UUID,
	schedule domain.ScheduleState,
	expectedVersion int,
) error {
	return a.cardStore.UpdateSchedule(ctx, id, schedule, expectedVersion)
}

// DueCards implements CardRepository.DueCards
func (a *cardRepositoryAdapter) DueCards(
	ctx context.Context,
	ownerID uuid.UUID,
	lessonID *uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.Card, error) {
	return a.cardStore.DueCards(ctx, ownerID, lessonID, now, limit)
}

// WithTx implements CardRepository.WithTx
func (a *cardRepositoryAdapter) WithTx(tx *sql.Tx) CardRepository {
	return &cardRepositoryAdapter{cardStore: a.cardStore.WithTx(tx)}
}

// NewReviewLogRepositoryAdapter creates a new adapter that allows a
// store.ReviewLogStore to be used where a ReviewLogRepository is expected.
func NewReviewLogRepositoryAdapter(logStore store.ReviewLogStore) ReviewLogRepository {
	return &reviewLogRepositoryAdapter{logStore: logStore}
}

// reviewLogRepositoryAdapter adapts a store.ReviewLogStore to the ReviewLogRepository interface
type reviewLogRepositoryAdapter struct {
	logStore store.ReviewLogStore
}

// Create implements ReviewLogRepository.Create
func (a *reviewLogRepositoryAdapter) Create(ctx context.Context, log *domain.ReviewLog) error {
	return a.logStore.Create(ctx, log)
}

// GetBySubmission implements ReviewLogRepository.GetBySubmission
func (a *reviewLogRepositoryAdapter) GetBySubmission(
	ctx context.Context,
	cardID, reviewerID uuid.UUID,
	reviewedAt time.Time,
) (*domain.ReviewLog, error) {
	return a.logStore.GetBySubmission(ctx, cardID, reviewerID, reviewedAt)
}

// ListByCard implements ReviewLogRepository.ListByCard
func (a *reviewLogRepositoryAdapter) ListByCard(
	ctx context.Context,
	cardID uuid.UUID,
	limit, offset int,
) ([]*domain.ReviewLog, error) {
	return a.logStore.ListByCard(ctx, cardID, limit, offset)
}

// WithTx implements ReviewLogRepository.WithTx
func (a *reviewLogRepositoryAdapter) WithTx(tx *sql.Tx) ReviewLogRepository {
	return &reviewLogRepositoryAdapter{logStore: a.logStore.WithTx(tx)}
}
