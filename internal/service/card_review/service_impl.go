package card_review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/domain"
	"github.com/parrotdeck/srs-api/internal/domain/srs"
	"github.com/parrotdeck/srs-api/internal/platform/logger"
	"github.com/parrotdeck/srs-api/internal/store"
)

// maxConflictRetries bounds the internal retry loop for version races.
// Conflicts are expected under legitimate concurrent load and usually
// resolve on the first retry.
const maxConflictRetries = 3

// Due-queue limit bounds.
const (
	DefaultDueLimit = 20
	MaxDueLimit     = 100
)

// historyPageSize is the page size for GetReviewHistory.
const historyPageSize = 50

// Verify interface compliance at compile time
var _ CardReviewService = (*cardReviewServiceImpl)(nil)

// cardReviewServiceImpl implements the CardReviewService interface.
type cardReviewServiceImpl struct {
	cardRepo   CardRepository
	logRepo    ReviewLogRepository
	txRunner   store.Runner
	srsService srs.Service
	logger     *slog.Logger
}

// NewCardReviewService creates a new CardReviewService implementation.
func NewCardReviewService(
	cardRepo CardRepository,
	logRepo ReviewLogRepository,
	txRunner store.Runner,
	srsService srs.Service,
	logger *slog.Logger,
) CardReviewService {
	if cardRepo == nil {
		panic("cardRepo cannot be nil")
	}
	if logRepo == nil {
		panic("logRepo cannot be nil")
	}
	if txRunner == nil {
		panic("txRunner cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &cardReviewServiceImpl{
		cardRepo:   cardRepo,
		logRepo:    logRepo,
		txRunner:   txRunner,
		srsService: srsService,
		logger:     logger.With(slog.String("component", "card_review_service")),
	}
}

// SubmitReview implements CardReviewService.SubmitReview.
func (s *cardReviewServiceImpl) SubmitReview(
	ctx context.Context,
	cardID, reviewerID uuid.UUID,
	quality int,
	reviewedAt time.Time,
) (domain.ScheduleState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !srs.ValidQuality(quality) {
		log.Warn("invalid review quality",
			slog.String("card_id", cardID.String()),
			slog.Int("quality", quality))
		return domain.ScheduleState{}, ErrInvalidQuality
	}
	if reviewedAt.IsZero() {
		return domain.ScheduleState{}, ErrInvalidTimestamp
	}
	reviewedAt = reviewedAt.UTC()

	var result domain.ScheduleState
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
			cards := s.cardRepo.WithTx(tx)
			logs := s.logRepo.WithTx(tx)

			card, err := cards.GetByID(ctx, cardID)
			if err != nil {
				if errors.Is(err, store.ErrCardNotFound) {
					return ErrCardNotFound
				}
				return fmt.Errorf("failed to get card: %w", err)
			}

			if card.OwnerID != reviewerID {
				log.Warn("reviewer does not own card",
					slog.String("reviewer_id", reviewerID.String()),
					slog.String("card_id", cardID.String()),
					slog.String("owner_id", card.OwnerID.String()))
				return ErrCardNotOwned
			}

			if card.Schedule.IsSuspended {
				return ErrCardSuspended
			}

			// Duplicate submission: return the already-persisted result
			// instead of applying the algorithm a second time.
			if _, err := logs.GetBySubmission(ctx, cardID, reviewerID, reviewedAt); err == nil {
				log.Debug("duplicate review submission, returning persisted state",
					slog.String("card_id", cardID.String()),
					slog.Time("reviewed_at", reviewedAt))
				result = card.Schedule
				return nil
			} else if !errors.Is(err, store.ErrReviewLogNotFound) {
				return fmt.Errorf("failed to check for duplicate submission: %w", err)
			}

			next, err := s.srsService.NextReview(card.Schedule, quality, reviewedAt)
			if err != nil {
				return fmt.Errorf("failed to compute next review: %w", err)
			}

			if err := cards.UpdateSchedule(ctx, card.ID, next, card.Version); err != nil {
				return err
			}

			entry, err := domain.NewReviewLog(card.ID, reviewerID, quality, card.Schedule, next, reviewedAt)
			if err != nil {
				return fmt.Errorf("failed to build review log: %w", err)
			}
			if err := logs.Create(ctx, entry); err != nil {
				return err
			}

			result = next
			return nil
		})

		if err == nil {
			log.Debug("review submitted",
				slog.String("card_id", cardID.String()),
				slog.Int("quality", quality),
				slog.Int("attempt", attempt),
				slog.Float64("ease_factor", result.EaseFactor),
				slog.Int("interval_days", result.IntervalDays),
				slog.Time("next_review_at", result.NextReviewAt))
			return result, nil
		}

		// A lost version race, or a duplicate log insert from a racing
		// submission, is resolved by rerunning against the fresh state.
		if store.IsConflictError(err) || errors.Is(err, store.ErrDuplicateSubmission) {
			log.Debug("review submission lost race, retrying",
				slog.String("card_id", cardID.String()),
				slog.Int("attempt", attempt))
			continue
		}

		if errors.Is(err, ErrCardNotFound) ||
			errors.Is(err, ErrCardNotOwned) ||
			errors.Is(err, ErrCardSuspended) {
			return domain.ScheduleState{}, err
		}

		log.Error("failed to submit review",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return domain.ScheduleState{}, &ServiceError{
			Operation: "submit_review",
			Message:   "failed to submit review",
			Err:       err,
		}
	}

	log.Warn("review submission exhausted conflict retries",
		slog.String("card_id", cardID.String()))
	return domain.ScheduleState{}, ErrConflict
}

// GetDueCards implements CardReviewService.GetDueCards.
// Due-ness is a pure function of stored NextReviewAt versus the read time;
// no background scheduler is involved.
func (s *cardReviewServiceImpl) GetDueCards(
	ctx context.Context,
	userID uuid.UUID,
	lessonID *uuid.UUID,
	limit int,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = DefaultDueLimit
	}
	if limit > MaxDueLimit {
		limit = MaxDueLimit
	}

	cards, err := s.cardRepo.DueCards(ctx, userID, lessonID, time.Now().UTC(), limit)
	if err != nil {
		log.Error("failed to get due cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, &ServiceError{
			Operation: "get_due_cards",
			Message:   "failed to get due cards",
			Err:       err,
		}
	}

	return cards, nil
}

// PostponeCard implements CardReviewService.PostponeCard.
func (s *cardReviewServiceImpl) PostponeCard(
	ctx context.Context,
	cardID, ownerID uuid.UUID,
	days int,
) (domain.ScheduleState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if days < 1 {
		return domain.ScheduleState{}, ErrInvalidDays
	}

	var result domain.ScheduleState
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
			cards := s.cardRepo.WithTx(tx)

			card, err := cards.GetByID(ctx, cardID)
			if err != nil {
				if errors.Is(err, store.ErrCardNotFound) {
					return ErrCardNotFound
				}
				return fmt.Errorf("failed to get card: %w", err)
			}

			if card.OwnerID != ownerID {
				return ErrCardNotOwned
			}

			next, err := s.srsService.Postpone(card.Schedule, days)
			if err != nil {
				return fmt.Errorf("failed to postpone: %w", err)
			}

			if err := cards.UpdateSchedule(ctx, card.ID, next, card.Version); err != nil {
				return err
			}

			result = next
			return nil
		})

		if err == nil {
			return result, nil
		}
		if store.IsConflictError(err) {
			continue
		}
		if errors.Is(err, ErrCardNotFound) || errors.Is(err, ErrCardNotOwned) {
			return domain.ScheduleState{}, err
		}

		log.Error("failed to postpone card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return domain.ScheduleState{}, &ServiceError{
			Operation: "postpone_card",
			Message:   "failed to postpone card",
			Err:       err,
		}
	}

	return domain.ScheduleState{}, ErrConflict
}

// GetReviewHistory implements CardReviewService.GetReviewHistory.
func (s *cardReviewServiceImpl) GetReviewHistory(
	ctx context.Context,
	cardID, callerID uuid.UUID,
	page int,
) ([]*domain.ReviewLog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	if card.OwnerID != callerID {
		return nil, ErrCardNotOwned
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * historyPageSize

	logs, err := s.logRepo.ListByCard(ctx, cardID, historyPageSize, offset)
	if err != nil {
		log.Error("failed to list review history",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, &ServiceError{
			Operation: "get_review_history",
			Message:   "failed to list review history",
			Err:       err,
		}
	}

	return logs, nil
}
