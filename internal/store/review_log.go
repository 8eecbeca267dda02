package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/domain"
)

// ReviewLogStore defines the interface for review log persistence.
// The log is append-only: entries are never updated or deleted.
type ReviewLogStore interface {
	// Create appends a new review log entry.
	// Returns ErrDuplicateSubmission if an entry already exists for the same
	// (card, reviewer, reviewed-at) triple.
	Create(ctx context.Context, log *domain.ReviewLog) error

	// GetBySubmission looks up the log entry for one submission by its
	// idempotency key. Returns ErrReviewLogNotFound if no entry exists.
	GetBySubmission(
		ctx context.Context,
		cardID, reviewerID uuid.UUID,
		reviewedAt time.Time,
	) (*domain.ReviewLog, error)

	// ListByCard returns a card's review history, most recent first.
	ListByCard(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]*domain.ReviewLog, error)

	// WithTx returns a new ReviewLogStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewLogStore
}
