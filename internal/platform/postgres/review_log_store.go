package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/domain"
	"github.com/parrotdeck/srs-api/internal/platform/logger"
	"github.com/parrotdeck/srs-api/internal/store"
)

const reviewLogColumns = `
	id, card_id, reviewer_id, quality, previous_interval, new_interval,
	previous_ease_factor, new_ease_factor, reviewed_at, created_at
`

// PostgresReviewLogStore implements the store.ReviewLogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewLogStore creates a new PostgreSQL implementation of the ReviewLogStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresReviewLogStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

// Ensure PostgresReviewLogStore implements store.ReviewLogStore interface
var _ store.ReviewLogStore = (*PostgresReviewLogStore)(nil)

// WithTx implements store.ReviewLogStore.WithTx
func (s *PostgresReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &PostgresReviewLogStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ReviewLogStore.Create
// Returns store.ErrDuplicateSubmission if an entry already exists for the
// same (card, reviewer, reviewed-at) triple.
func (s *PostgresReviewLogStore) Create(ctx context.Context, log *domain.ReviewLog) error {
	lg := logger.FromContextOrDefault(ctx, s.logger)

	if err := log.Validate(); err != nil {
		lg.Warn("review log validation failed during create",
			slog.String("error", err.Error()),
			slog.String("log_id", log.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO review_logs (
			id, card_id, reviewer_id, quality, previous_interval, new_interval,
			previous_ease_factor, new_ease_factor, reviewed_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		log.ID,
		log.CardID,
		log.ReviewerID,
		log.Quality,
		log.PreviousInterval,
		log.NewInterval,
		log.PreviousEaseFactor,
		log.NewEaseFactor,
		log.ReviewedAt,
		log.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			lg.Debug("duplicate review submission",
				slog.String("card_id", log.CardID.String()),
				slog.String("reviewer_id", log.ReviewerID.String()),
				slog.Time("reviewed_at", log.ReviewedAt))
			return store.ErrDuplicateSubmission
		}
		lg.Error("failed to create review log",
			slog.String("error", err.Error()),
			slog.String("card_id", log.CardID.String()))
		return MapError(err)
	}

	return nil
}

// GetBySubmission implements store.ReviewLogStore.GetBySubmission
// Returns store.ErrReviewLogNotFound if no entry exists for the key.
func (s *PostgresReviewLogStore) GetBySubmission(
	ctx context.Context,
	cardID, reviewerID uuid.UUID,
	reviewedAt time.Time,
) (*domain.ReviewLog, error) {
	lg := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reviewLogColumns + `
		FROM review_logs
		WHERE card_id = $1 AND reviewer_id = $2 AND reviewed_at = $3
	`

	log, err := scanReviewLog(s.db.QueryRowContext(ctx, query, cardID, reviewerID, reviewedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewLogNotFound
		}
		lg.Error("failed to get review log by submission",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}

	return log, nil
}

// ListByCard implements store.ReviewLogStore.ListByCard
// Most recent reviews first.
func (s *PostgresReviewLogStore) ListByCard(
	ctx context.Context,
	cardID uuid.UUID,
	limit, offset int,
) ([]*domain.ReviewLog, error) {
	lg := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reviewLogColumns + `
		FROM review_logs
		WHERE card_id = $1
		ORDER BY reviewed_at DESC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, cardID, limit, offset)
	if err != nil {
		lg.Error("failed to query review logs",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			lg.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	logs := []*domain.ReviewLog{}
	for rows.Next() {
		log, err := scanReviewLog(rows)
		if err != nil {
			lg.Error("failed to scan review log row", slog.String("error", err.Error()))
			return nil, err
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		lg.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return logs, nil
}

// scanReviewLog reads one review log row in reviewLogColumns order.
func scanReviewLog(row rowScanner) (*domain.ReviewLog, error) {
	var log domain.ReviewLog
	err := row.Scan(
		&log.ID,
		&log.CardID,
		&log.ReviewerID,
		&log.Quality,
		&log.PreviousInterval,
		&log.NewInterval,
		&log.PreviousEaseFactor,
		&log.NewEaseFactor,
		&log.ReviewedAt,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &log, nil
}
