package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/domain"
	"github.com/parrotdeck/srs-api/internal/platform/logger"
	"github.com/parrotdeck/srs-api/internal/store"
)

// cardColumns is the column list shared by every card SELECT.
const cardColumns = `
	id, owner_id, lesson_id, front, back, example_sentence, image_url,
	audio_url, tags, is_public, origin_card_id, claim_count, ease_factor,
	interval_days, repetitions, next_review_at, last_reviewed_at,
	is_suspended, version, created_at, updated_at
`

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx implements store.CardStore.WithTx
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.CardStore.Create
// It saves a new card to the database, handling domain validation.
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tags, err := json.Marshal(card.Content.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
		INSERT INTO cards (
			id, owner_id, lesson_id, front, back, example_sentence, image_url,
			audio_url, tags, is_public, origin_card_id, claim_count, ease_factor,
			interval_days, repetitions, next_review_at, last_reviewed_at,
			is_suspended, version, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.OwnerID,
		card.LessonID,
		card.Content.Front,
		card.Content.Back,
		card.Content.ExampleSentence,
		card.Content.ImageURL,
		card.Content.AudioURL,
		tags,
		card.IsPublic,
		nullUUID(card.OriginCardID),
		card.ClaimCount,
		card.Schedule.EaseFactor,
		card.Schedule.IntervalDays,
		card.Schedule.Repetitions,
		card.Schedule.NextReviewAt,
		nullTime(card.Schedule.LastReviewedAt),
		card.Schedule.IsSuspended,
		card.Version,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()),
			slog.String("owner_id", card.OwnerID.String()))
		return MapError(err)
	}

	log.Debug("card created",
		slog.String("card_id", card.ID.String()),
		slog.String("owner_id", card.OwnerID.String()),
		slog.String("lesson_id", card.LessonID.String()))
	return nil
}

// GetByID implements store.CardStore.GetByID
// It retrieves a card by its unique ID, excluding soft-deleted cards.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1 AND deleted_at IS NULL`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}

	return card, nil
}

// UpdateContent implements store.CardStore.UpdateContent
// It replaces an existing card's content fields.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) UpdateContent(
	ctx context.Context,
	id uuid.UUID,
	content domain.CardContent,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := content.Validate(); err != nil {
		log.Warn("content validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tags, err := json.Marshal(content.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
		UPDATE cards
		SET front = $1, back = $2, example_sentence = $3, image_url = $4,
			audio_url = $5, tags = $6, updated_at = $7
		WHERE id = $8 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		content.Front,
		content.Back,
		content.ExampleSentence,
		content.ImageURL,
		content.AudioURL,
		tags,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to update card content",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "card")
}

// UpdateSchedule implements store.CardStore.UpdateSchedule
// It writes the schedule state conditionally on the version read earlier and
// increments the stored version. Returns store.ErrConflict when the version
// moved on, store.ErrCardNotFound when the card is gone.
func (s *PostgresCardStore) UpdateSchedule(
	ctx context.Context,
	id uuid.UUID,
	schedule domain.ScheduleState,
	expectedVersion int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := schedule.Validate(); err != nil {
		log.Warn("schedule validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	// is_suspended is deliberately absent from the SET list. Schedule writes
	// never change suspension; only SetSuspended does, and it bumps the
	// version so a schedule write racing a suspension loses here and retries.
	query := `
		UPDATE cards
		SET ease_factor = $1, interval_days = $2, repetitions = $3,
			next_review_at = $4, last_reviewed_at = $5,
			version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		schedule.EaseFactor,
		schedule.IntervalDays,
		schedule.Repetitions,
		schedule.NextReviewAt,
		nullTime(schedule.LastReviewedAt),
		time.Now().UTC(),
		id,
		expectedVersion,
	)
	if err != nil {
		log.Error("failed to update card schedule",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// Zero rows: either the card vanished or another writer won the race.
	var exists bool
	existsQuery := `SELECT EXISTS (SELECT 1 FROM cards WHERE id = $1 AND deleted_at IS NULL)`
	if err := s.db.QueryRowContext(ctx, existsQuery, id).Scan(&exists); err != nil {
		return MapError(err)
	}
	if !exists {
		return store.ErrCardNotFound
	}

	log.Debug("schedule write lost version race",
		slog.String("card_id", id.String()),
		slog.Int("expected_version", expectedVersion))
	return store.ErrConflict
}

// SetSuspended implements store.CardStore.SetSuspended
// The version bump invalidates any in-flight version-gated schedule write,
// so a review racing a suspension conflicts instead of silently committing
// against the stale flag. Returns store.ErrCardNotFound if the card does
// not exist.
func (s *PostgresCardStore) SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE cards
		SET is_suspended = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, suspended, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to set card suspension",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "card")
}

// SoftDelete implements store.CardStore.SoftDelete
// The row is retained to preserve origin back-references and claim counts.
// Returns store.ErrCardNotFound if the card does not exist or is already deleted.
func (s *PostgresCardStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE cards
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to soft-delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "card")
}

// IncrementClaimCount implements store.CardStore.IncrementClaimCount
// The increment happens in-row so concurrent claims never lose updates.
func (s *PostgresCardStore) IncrementClaimCount(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE cards
		SET claim_count = claim_count + 1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to increment claim count",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "card")
}

// DueCards implements store.CardStore.DueCards
// Most overdue first; suspended and soft-deleted cards are excluded.
func (s *PostgresCardStore) DueCards(
	ctx context.Context,
	ownerID uuid.UUID,
	lessonID *uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE owner_id = $1
			AND deleted_at IS NULL
			AND NOT is_suspended
			AND next_review_at <= $2
			AND ($3::uuid IS NULL OR lesson_id = $3)
		ORDER BY next_review_at ASC, id ASC
		LIMIT $4
	`

	var lesson uuid.NullUUID
	if lessonID != nil {
		lesson = uuid.NullUUID{UUID: *lessonID, Valid: true}
	}

	rows, err := s.db.QueryContext(ctx, query, ownerID, now, lesson, limit)
	if err != nil {
		log.Error("failed to query due cards",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, MapError(err)
	}

	return collectCards(rows, log)
}

// ListCommunity implements store.CardStore.ListCommunity
// Newest first, ID as tie-break, for stable pagination.
func (s *PostgresCardStore) ListCommunity(
	ctx context.Context,
	lessonID uuid.UUID,
	limit, offset int,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE lesson_id = $1 AND is_public AND deleted_at IS NULL
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, lessonID, limit, offset)
	if err != nil {
		log.Error("failed to query community cards",
			slog.String("error", err.Error()),
			slog.String("lesson_id", lessonID.String()))
		return nil, MapError(err)
	}

	return collectCards(rows, log)
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanCard.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCard reads one card row in cardColumns order.
func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card           domain.Card
		tags           []byte
		originCardID   uuid.NullUUID
		lastReviewedAt sql.NullTime
	)

	err := row.Scan(
		&card.ID,
		&card.OwnerID,
		&card.LessonID,
		&card.Content.Front,
		&card.Content.Back,
		&card.Content.ExampleSentence,
		&card.Content.ImageURL,
		&card.Content.AudioURL,
		&tags,
		&card.IsPublic,
		&originCardID,
		&card.ClaimCount,
		&card.Schedule.EaseFactor,
		&card.Schedule.IntervalDays,
		&card.Schedule.Repetitions,
		&card.Schedule.NextReviewAt,
		&lastReviewedAt,
		&card.Schedule.IsSuspended,
		&card.Version,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &card.Content.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if originCardID.Valid {
		card.OriginCardID = originCardID.UUID
	}
	if lastReviewedAt.Valid {
		card.Schedule.LastReviewedAt = lastReviewedAt.Time
	}

	return &card, nil
}

// collectCards drains a card result set, always returning a non-nil slice.
func collectCards(rows *sql.Rows, log *slog.Logger) ([]*domain.Card, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	cards := []*domain.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row", slog.String("error", err.Error()))
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return cards, nil
}

// nullUUID converts a possibly-nil UUID to its SQL representation.
func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

// nullTime converts a possibly-zero time to its SQL representation.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
