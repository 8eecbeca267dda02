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
	"github.com/parrotdeck/srs-api/internal/service/card_review"
)

// ReviewHandler handles review submission and due-queue HTTP requests.
type ReviewHandler struct {
	reviewService card_review.CardReviewService
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService card_review.CardReviewService, logger *slog.Logger) *ReviewHandler {
	if reviewService == nil {
		panic("reviewService cannot be nil for ReviewHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "review_handler")),
	}
}

// SubmitReview handles POST /api/cards/{id}/review requests. A resubmission
// of the same (card, reviewer, reviewed_at) triple returns the already
// persisted schedule state.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := h.identifyReviewRequest(w, r)
	if !ok {
		return
	}

	var req SubmitReviewRequest
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

	schedule, err := h.reviewService.SubmitReview(r.Context(), cardID, userID, *req.Quality, req.ReviewedAt)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("review submitted",
		slog.String("card_id", cardID.String()),
		slog.Int("quality", *req.Quality))
	shared.RespondWithJSON(w, r, http.StatusOK, scheduleToResponse(schedule))
}

// GetDueCards handles GET /api/cards/due requests. Due-ness is evaluated
// against the server clock at read time.
func (h *ReviewHandler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var lessonID *uuid.UUID
	if raw := r.URL.Query().Get("lesson_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid lesson ID format")
			return
		}
		lessonID = &parsed
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	cards, err := h.reviewService.GetDueCards(r.Context(), userID, lessonID, limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardsToResponse(cards))
}

// PostponeCard handles POST /api/cards/{id}/postpone requests.
func (h *ReviewHandler) PostponeCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := h.identifyReviewRequest(w, r)
	if !ok {
		return
	}

	var req PostponeCardRequest
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

	schedule, err := h.reviewService.PostponeCard(r.Context(), cardID, userID, *req.Days)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, scheduleToResponse(schedule))
}

// GetReviewHistory handles GET /api/cards/{id}/reviews requests.
func (h *ReviewHandler) GetReviewHistory(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := h.identifyReviewRequest(w, r)
	if !ok {
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid page parameter")
			return
		}
		page = parsed
	}

	logs, err := h.reviewService.GetReviewHistory(r.Context(), cardID, userID, page)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, logsToResponse(logs))
}

func (h *ReviewHandler) identifyReviewRequest(
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
