// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/api/shared"
	"github.com/parrotdeck/srs-api/internal/platform/logger"
	"github.com/parrotdeck/srs-api/internal/redact"
	"github.com/parrotdeck/srs-api/internal/service"
)

// CardHandler handles card lifecycle and community HTTP requests.
type CardHandler struct {
	cardService service.CardService
	logger      *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardService service.CardService, logger *slog.Logger) *CardHandler {
	if cardService == nil {
		panic("cardService cannot be nil for CardHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for CardHandler")
	}

	return &CardHandler{
		cardService: cardService,
		logger:      logger.With(slog.String("component", "card_handler")),
	}
}

// CreateCard handles POST /api/cards requests.
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateCardRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	lessonID, err := uuid.Parse(req.LessonID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid lesson ID format")
		return
	}

	card, err := h.cardService.CreateCard(r.Context(), userID, lessonID, req.Content.ToDomain(), req.IsPublic)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, cardToResponse(card))
}

// GetCard handles GET /api/cards/{id} requests.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := h.identifyCardRequest(w, r)
	if !ok {
		return
	}

	card, err := h.cardService.GetCard(r.Context(), cardID, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// UpdateCard handles PUT /api/cards/{id} requests.
func (h *CardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := h.identifyCardRequest(w, r)
	if !ok {
		return
	}

	var req UpdateCardRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("card_id", cardID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	card, err := h.cardService.UpdateCard(r.Context(), cardID, userID, req.Content.ToDomain())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// DeleteCard handles DELETE /api/cards/{id} requests.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := h.identifyCardRequest(w, r)
	if !ok {
		return
	}

	if err := h.cardService.DeleteCard(r.Context(), cardID, userID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SuspendCard handles POST /api/cards/{id}/suspend requests.
func (h *CardHandler) SuspendCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := h.identifyCardRequest(w, r)
	if !ok {
		return
	}

	var req SuspendCardRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("card_id", cardID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	card, err := h.cardService.SuspendCard(r.Context(), cardID, userID, *req.Suspended)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// ClaimCard handles POST /api/cards/{id}/claim requests.
func (h *CardHandler) ClaimCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := h.identifyCardRequest(w, r)
	if !ok {
		return
	}

	claimed, err := h.cardService.ClaimCard(r.Context(), cardID, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("card claimed",
		slog.String("origin_card_id", cardID.String()),
		slog.String("claimed_card_id", claimed.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, cardToResponse(claimed))
}

// ListCommunityCards handles GET /api/lessons/{lessonID}/community-cards requests.
func (h *CardHandler) ListCommunityCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	lessonID, err := uuid.Parse(chi.URLParam(r, "lessonID"))
	if err != nil {
		log.Warn("invalid lesson ID format", slog.String("lesson_id", chi.URLParam(r, "lessonID")))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid lesson ID format")
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid page parameter")
			return
		}
	}

	cards, err := h.cardService.ListCommunityCards(r.Context(), lessonID, page)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardsToResponse(cards))
}

// identifyCardRequest extracts the caller's user ID from the context and the
// card ID from the URL path, writing the error response itself on failure.
func (h *CardHandler) identifyCardRequest(
	w http.ResponseWriter,
	r *http.Request,
) (userID, cardID uuid.UUID, ok bool) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, found := shared.GetUserID(r.Context())
	if !found {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, uuid.Nil, false
	}

	pathCardID := chi.URLParam(r, "id")
	if pathCardID == "" {
		log.Warn("card ID not found in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Card ID is required")
		return uuid.Nil, uuid.Nil, false
	}

	cardID, err := uuid.Parse(pathCardID)
	if err != nil {
		log.Warn("invalid card ID format", slog.String("card_id", pathCardID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid card ID format")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, cardID, true
}
