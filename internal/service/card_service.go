package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/domain"
	"github.com/parrotdeck/srs-api/internal/platform/logger"
	"github.com/parrotdeck/srs-api/internal/store"
)

// CommunityPageSize is the page size for community card listings.
const CommunityPageSize = 20

// CardService manages card lifecycle and the community claim workflow.
type CardService interface {
	// CreateCard validates and persists a new card owned by ownerID with a
	// fresh schedule state.
	CreateCard(
		ctx context.Context,
		ownerID, lessonID uuid.UUID,
		content domain.CardContent,
		isPublic bool,
	) (*domain.Card, error)

	// GetCard returns a card readable by callerID. Owners can read their own
	// cards; everyone can read public cards. Returns ErrCardNotOwned for a
	// private card the caller does not own.
	GetCard(ctx context.Context, cardID, callerID uuid.UUID) (*domain.Card, error)

	// UpdateCard replaces the content of a card owned by ownerID.
	UpdateCard(
		ctx context.Context,
		cardID, ownerID uuid.UUID,
		content domain.CardContent,
	) (*domain.Card, error)

	// DeleteCard soft-deletes a card owned by ownerID. Cards claimed from it
	// are unaffected.
	DeleteCard(ctx context.Context, cardID, ownerID uuid.UUID) error

	// SuspendCard sets or clears the suspended flag on a card owned by
	// ownerID. Suspended cards never appear in the due queue.
	SuspendCard(ctx context.Context, cardID, ownerID uuid.UUID, suspended bool) (*domain.Card, error)

	// ClaimCard copies a public card into claimerID's collection with a fresh
	// schedule, records the origin card, and bumps the origin's claim count.
	// Returns ErrCardNotPublic for private cards and ErrAlreadyOwned when a
	// user claims their own card.
	ClaimCard(ctx context.Context, cardID, claimerID uuid.UUID) (*domain.Card, error)

	// ListCommunityCards returns a page of public cards for a lesson, newest
	// first. Pages are 1-based.
	ListCommunityCards(ctx context.Context, lessonID uuid.UUID, page int) ([]*domain.Card, error)
}

// Verify interface compliance at compile time
var _ CardService = (*cardServiceImpl)(nil)

type cardServiceImpl struct {
	cardStore store.CardStore
	txRunner  store.Runner
	logger    *slog.Logger
}

// NewCardService creates a new CardService implementation.
func NewCardService(cardStore store.CardStore, txRunner store.Runner, logger *slog.Logger) CardService {
	if cardStore == nil {
		panic("cardStore cannot be nil")
	}
	if txRunner == nil {
		panic("txRunner cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &cardServiceImpl{
		cardStore: cardStore,
		txRunner:  txRunner,
		logger:    logger.With(slog.String("component", "card_service")),
	}
}

func (s *cardServiceImpl) CreateCard(
	ctx context.Context,
	ownerID, lessonID uuid.UUID,
	content domain.CardContent,
	isPublic bool,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := domain.NewCard(ownerID, lessonID, content, isPublic)
	if err != nil {
		log.Warn("card creation rejected",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrInvalidContent, err)
	}

	if err := s.cardStore.Create(ctx, card); err != nil {
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	log.Info("card created",
		slog.String("card_id", card.ID.String()),
		slog.String("lesson_id", lessonID.String()),
		slog.Bool("is_public", isPublic))
	return card, nil
}

func (s *cardServiceImpl) GetCard(ctx context.Context, cardID, callerID uuid.UUID) (*domain.Card, error) {
	card, err := s.cardStore.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	if card.OwnerID != callerID && !card.IsPublic {
		return nil, ErrCardNotOwned
	}

	return card, nil
}

func (s *cardServiceImpl) UpdateCard(
	ctx context.Context,
	cardID, ownerID uuid.UUID,
	content domain.CardContent,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.getOwnedCard(ctx, s.cardStore, cardID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := card.UpdateContent(content); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidContent, err)
	}

	if err := s.cardStore.UpdateContent(ctx, cardID, content); err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		log.Error("failed to update card content",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, fmt.Errorf("failed to update card: %w", err)
	}

	return card, nil
}

func (s *cardServiceImpl) DeleteCard(ctx context.Context, cardID, ownerID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.getOwnedCard(ctx, s.cardStore, cardID, ownerID); err != nil {
		return err
	}

	if err := s.cardStore.SoftDelete(ctx, cardID); err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return ErrCardNotFound
		}
		log.Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return fmt.Errorf("failed to delete card: %w", err)
	}

	log.Info("card deleted", slog.String("card_id", cardID.String()))
	return nil
}

func (s *cardServiceImpl) SuspendCard(
	ctx context.Context,
	cardID, ownerID uuid.UUID,
	suspended bool,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.getOwnedCard(ctx, s.cardStore, cardID, ownerID); err != nil {
		return nil, err
	}

	if err := s.cardStore.SetSuspended(ctx, cardID, suspended); err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		log.Error("failed to set suspended flag",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, fmt.Errorf("failed to update card: %w", err)
	}

	// Re-read so the response reflects the stored row, including the version
	// bumped by SetSuspended.
	card, err := s.cardStore.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	log.Info("card suspension updated",
		slog.String("card_id", cardID.String()),
		slog.Bool("suspended", suspended))
	return card, nil
}

func (s *cardServiceImpl) ClaimCard(ctx context.Context, cardID, claimerID uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var claimed *domain.Card
	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cardStore.WithTx(tx)

		origin, err := cards.GetByID(ctx, cardID)
		if err != nil {
			if errors.Is(err, store.ErrCardNotFound) {
				return ErrCardNotFound
			}
			return fmt.Errorf("failed to get card: %w", err)
		}

		if origin.OwnerID == claimerID {
			return ErrAlreadyOwned
		}
		if !origin.IsPublic {
			return ErrCardNotPublic
		}

		copy, err := domain.NewClaimedCard(origin, claimerID)
		if err != nil {
			return fmt.Errorf("failed to build claimed card: %w", err)
		}

		if err := cards.Create(ctx, copy); err != nil {
			return fmt.Errorf("failed to save claimed card: %w", err)
		}
		if err := cards.IncrementClaimCount(ctx, origin.ID); err != nil {
			return fmt.Errorf("failed to increment claim count: %w", err)
		}

		claimed = copy
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCardNotFound) ||
			errors.Is(err, ErrAlreadyOwned) ||
			errors.Is(err, ErrCardNotPublic) {
			return nil, err
		}
		log.Error("failed to claim card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()),
			slog.String("claimer_id", claimerID.String()))
		return nil, fmt.Errorf("failed to claim card: %w", err)
	}

	log.Info("card claimed",
		slog.String("origin_card_id", cardID.String()),
		slog.String("claimed_card_id", claimed.ID.String()),
		slog.String("claimer_id", claimerID.String()))
	return claimed, nil
}

func (s *cardServiceImpl) ListCommunityCards(
	ctx context.Context,
	lessonID uuid.UUID,
	page int,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * CommunityPageSize

	cards, err := s.cardStore.ListCommunity(ctx, lessonID, CommunityPageSize, offset)
	if err != nil {
		log.Error("failed to list community cards",
			slog.String("error", err.Error()),
			slog.String("lesson_id", lessonID.String()))
		return nil, fmt.Errorf("failed to list community cards: %w", err)
	}

	return cards, nil
}

// getOwnedCard fetches a card and enforces that ownerID owns it.
func (s *cardServiceImpl) getOwnedCard(
	ctx context.Context,
	cards store.CardStore,
	cardID, ownerID uuid.UUID,
) (*domain.Card, error) {
	card, err := cards.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	if card.OwnerID != ownerID {
		return nil, ErrCardNotOwned
	}
	return card, nil
}
