package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/domain"
)

// CardContentPayload carries the user-editable content fields of a card.
type CardContentPayload struct {
	Front           string   `json:"front"            validate:"required,max=2000"`
	Back            string   `json:"back"             validate:"required,max=2000"`
	ExampleSentence string   `json:"example_sentence" validate:"omitempty,max=2000"`
	ImageURL        string   `json:"image_url"        validate:"omitempty,url"`
	AudioURL        string   `json:"audio_url"        validate:"omitempty,url"`
	Tags            []string `json:"tags"             validate:"omitempty,dive,max=64"`
}

// ToDomain converts the payload to a domain.CardContent.
func (p CardContentPayload) ToDomain() domain.CardContent {
	return domain.CardContent{
		Front:           p.Front,
		Back:            p.Back,
		ExampleSentence: p.ExampleSentence,
		ImageURL:        p.ImageURL,
		AudioURL:        p.AudioURL,
		Tags:            p.Tags,
	}
}

// CreateCardRequest is the request body for POST /api/cards.
type CreateCardRequest struct {
	LessonID string             `json:"lesson_id" validate:"required,uuid"`
	Content  CardContentPayload `json:"content"   validate:"required"`
	IsPublic bool               `json:"is_public"`
}

// UpdateCardRequest is the request body for PUT /api/cards/{id}.
type UpdateCardRequest struct {
	Content CardContentPayload `json:"content" validate:"required"`
}

// SuspendCardRequest is the request body for POST /api/cards/{id}/suspend.
// Pointer field so a missing value is distinguishable from false.
type SuspendCardRequest struct {
	Suspended *bool `json:"suspended" validate:"required"`
}

// SubmitReviewRequest is the request body for POST /api/cards/{id}/review.
// Quality is a pointer so that an omitted field fails validation instead of
// silently defaulting to 0.
type SubmitReviewRequest struct {
	Quality    *int      `json:"quality"     validate:"required,min=0,max=5"`
	ReviewedAt time.Time `json:"reviewed_at" validate:"required"`
}

// PostponeCardRequest is the request body for POST /api/cards/{id}/postpone.
type PostponeCardRequest struct {
	Days *int `json:"days" validate:"required,min=1"`
}

// ScheduleResponse represents a card's schedule state.
type ScheduleResponse struct {
	EaseFactor     float64    `json:"ease_factor"`
	IntervalDays   int        `json:"interval_days"`
	Repetitions    int        `json:"repetitions"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	IsSuspended    bool       `json:"is_suspended"`
}

// CardResponse represents a card.
type CardResponse struct {
	ID           string             `json:"id"`
	OwnerID      string             `json:"owner_id"`
	LessonID     string             `json:"lesson_id"`
	Content      CardContentPayload `json:"content"`
	IsPublic     bool               `json:"is_public"`
	OriginCardID string             `json:"origin_card_id,omitempty"`
	ClaimCount   int                `json:"claim_count"`
	Schedule     ScheduleResponse   `json:"schedule"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// ReviewLogResponse represents one entry in a card's review history.
type ReviewLogResponse struct {
	ID                 string    `json:"id"`
	CardID             string    `json:"card_id"`
	Quality            int       `json:"quality"`
	PreviousInterval   int       `json:"previous_interval"`
	NewInterval        int       `json:"new_interval"`
	PreviousEaseFactor float64   `json:"previous_ease_factor"`
	NewEaseFactor      float64   `json:"new_ease_factor"`
	ReviewedAt         time.Time `json:"reviewed_at"`
}

// CardListResponse wraps a page of cards.
type CardListResponse struct {
	Cards []CardResponse `json:"cards"`
	Count int            `json:"count"`
}

// ReviewLogListResponse wraps a page of review history entries.
type ReviewLogListResponse struct {
	Logs  []ReviewLogResponse `json:"logs"`
	Count int                 `json:"count"`
}

func scheduleToResponse(s domain.ScheduleState) ScheduleResponse {
	resp := ScheduleResponse{
		EaseFactor:   s.EaseFactor,
		IntervalDays: s.IntervalDays,
		Repetitions:  s.Repetitions,
		NextReviewAt: s.NextReviewAt,
		IsSuspended:  s.IsSuspended,
	}
	if !s.LastReviewedAt.IsZero() {
		t := s.LastReviewedAt
		resp.LastReviewedAt = &t
	}
	return resp
}

func cardToResponse(card *domain.Card) CardResponse {
	resp := CardResponse{
		ID:       card.ID.String(),
		OwnerID:  card.OwnerID.String(),
		LessonID: card.LessonID.String(),
		Content: CardContentPayload{
			Front:           card.Content.Front,
			Back:            card.Content.Back,
			ExampleSentence: card.Content.ExampleSentence,
			ImageURL:        card.Content.ImageURL,
			AudioURL:        card.Content.AudioURL,
			Tags:            card.Content.Tags,
		},
		IsPublic:   card.IsPublic,
		ClaimCount: card.ClaimCount,
		Schedule:   scheduleToResponse(card.Schedule),
		CreatedAt:  card.CreatedAt,
		UpdatedAt:  card.UpdatedAt,
	}
	if card.OriginCardID != uuid.Nil {
		resp.OriginCardID = card.OriginCardID.String()
	}
	return resp
}

func cardsToResponse(cards []*domain.Card) CardListResponse {
	out := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardToResponse(c))
	}
	return CardListResponse{Cards: out, Count: len(out)}
}

func logToResponse(entry *domain.ReviewLog) ReviewLogResponse {
	return ReviewLogResponse{
		ID:                 entry.ID.String(),
		CardID:             entry.CardID.String(),
		Quality:            entry.Quality,
		PreviousInterval:   entry.PreviousInterval,
		NewInterval:        entry.NewInterval,
		PreviousEaseFactor: entry.PreviousEaseFactor,
		NewEaseFactor:      entry.NewEaseFactor,
		ReviewedAt:         entry.ReviewedAt,
	}
}

func logsToResponse(logs []*domain.ReviewLog) ReviewLogListResponse {
	out := make([]ReviewLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, logToResponse(l))
	}
	return ReviewLogListResponse{Logs: out, Count: len(out)}
}
