package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/domain"
)

// CardStore defines the interface for card data persistence.
//
// All read methods exclude soft-deleted cards. Cards are never hard-deleted:
// soft deletion preserves origin back-references and claim counts on cards
// that were claimed from them.
type CardStore interface {
	// Create saves a new card, including its initial schedule state.
	// Returns validation errors if the card data is invalid.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist or is soft-deleted.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// UpdateContent replaces an existing card's content fields.
	// Returns ErrCardNotFound if the card does not exist.
	UpdateContent(ctx context.Context, id uuid.UUID, content domain.CardContent) error

	// UpdateSchedule writes a card's schedule state conditionally on the
	// version read earlier. The suspended flag is not written here; only
	// SetSuspended changes it. Returns ErrConflict if the version moved on
	// (another review or a suspension won the race), ErrCardNotFound if the
	// card is gone. On success the stored version is incremented.
	UpdateSchedule(
		ctx context.Context,
		id uuid.UUID,
		schedule domain.ScheduleState,
		expectedVersion int,
	) error

	// SetSuspended toggles a card's suspended flag without altering the rest
	// of its schedule state, and increments the stored version so concurrent
	// version-gated schedule writes conflict and retry against the new flag.
	// Returns ErrCardNotFound if the card does not exist.
	SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) error

	// SoftDelete marks a card as deleted. The row is retained.
	// Returns ErrCardNotFound if the card does not exist or is already deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// IncrementClaimCount atomically bumps the claim counter on a card.
	// This is the only mutation path on a card available to a non-owner, and
	// MUST run in the same transaction as the claimed-copy insert.
	IncrementClaimCount(ctx context.Context, id uuid.UUID) error

	// DueCards returns up to limit cards owned by ownerID that are due at the
	// given time, most overdue first (NextReviewAt ascending, ID ascending as
	// the deterministic tie-break). Suspended cards are excluded regardless
	// of NextReviewAt. A non-nil lessonID restricts the scan to one lesson.
	// Never pads the result with not-yet-due cards.
	DueCards(
		ctx context.Context,
		ownerID uuid.UUID,
		lessonID *uuid.UUID,
		now time.Time,
		limit int,
	) ([]*domain.Card, error)

	// ListCommunity returns public cards for a lesson ordered by creation
	// time descending (ID as tie-break) for stable pagination.
	ListCommunity(ctx context.Context, lessonID uuid.UUID, limit, offset int) ([]*domain.Card, error)

	// WithTx returns a new CardStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller,
	// typically through RunInTransaction.
	WithTx(tx *sql.Tx) CardStore
}
