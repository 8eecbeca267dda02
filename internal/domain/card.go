package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardOwnerIDEmpty is returned when a card's owner ID is empty or nil.
	ErrCardOwnerIDEmpty = errors.New("card owner ID cannot be empty")

	// ErrCardLessonIDEmpty is returned when a card's lesson ID is empty or nil.
	ErrCardLessonIDEmpty = errors.New("card lesson ID cannot be empty")

	// ErrCardFrontEmpty is returned when a card's front side is empty.
	ErrCardFrontEmpty = errors.New("card front cannot be empty")

	// ErrCardBackEmpty is returned when a card's back side is empty.
	ErrCardBackEmpty = errors.New("card back cannot be empty")
)

// CardContent holds the learner-visible fields of a card. It is the unit
// copied by the claim workflow and replaced wholesale by an owner edit.
type CardContent struct {
	Front           string   `json:"front"`
	Back            string   `json:"back"`
	ExampleSentence string   `json:"example_sentence,omitempty"`
	ImageURL        string   `json:"image_url,omitempty"`
	AudioURL        string   `json:"audio_url,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// Validate checks if the CardContent has valid data.
func (c CardContent) Validate() error {
	if c.Front == "" {
		return ErrCardFrontEmpty
	}

	if c.Back == "" {
		return ErrCardBackEmpty
	}

	return nil
}

// Card represents a flashcard belonging to a lesson. A card is owned
// exclusively by its OwnerID: a public card may be read by anyone but is
// mutated only by its owner. Claimed cards are independent copies carrying a
// back-reference to the original in OriginCardID.
type Card struct {
	ID           uuid.UUID     `json:"id"`
	OwnerID      uuid.UUID     `json:"owner_id"`
	LessonID     uuid.UUID     `json:"lesson_id"`
	Content      CardContent   `json:"content"`
	IsPublic     bool          `json:"is_public"`
	OriginCardID uuid.UUID     `json:"origin_card_id,omitempty"` // Nil unless the card was claimed
	ClaimCount   int           `json:"claim_count"`              // Mutated only on the original when claimed
	Schedule     ScheduleState `json:"schedule"`
	Version      int           `json:"-"` // Optimistic concurrency token for schedule writes
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	DeletedAt    time.Time     `json:"-"` // Zero unless soft-deleted
}

// NewCard creates a new Card with the given owner, lesson and content.
// It generates a new UUID for the card ID and initializes the default
// schedule so the card is immediately due.
// Returns an error if validation fails.
func NewCard(ownerID, lessonID uuid.UUID, content CardContent, isPublic bool) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		LessonID:  lessonID,
		Content:   content,
		IsPublic:  isPublic,
		Schedule:  NewScheduleState(now),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// NewClaimedCard forks a public card into a private copy owned by the claiming
// user. The content is copied, the schedule starts fresh, and OriginCardID
// records the provenance. The claimer starts their own spacing history.
func NewClaimedCard(origin *Card, claimerID uuid.UUID) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:           uuid.New(),
		OwnerID:      claimerID,
		LessonID:     origin.LessonID,
		Content:      origin.Content,
		IsPublic:     false,
		OriginCardID: origin.ID,
		Schedule:     NewScheduleState(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.OwnerID == uuid.Nil {
		return ErrCardOwnerIDEmpty
	}

	if c.LessonID == uuid.Nil {
		return ErrCardLessonIDEmpty
	}

	if err := c.Content.Validate(); err != nil {
		return err
	}

	return c.Schedule.Validate()
}

// UpdateContent replaces the card's content and bumps the UpdatedAt timestamp.
// Returns an error if the new content is invalid; the card is left unchanged
// in that case.
func (c *Card) UpdateContent(content CardContent) error {
	if err := content.Validate(); err != nil {
		return err
	}

	c.Content = content
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Deleted reports whether the card has been soft-deleted.
func (c *Card) Deleted() bool {
	return !c.DeletedAt.IsZero()
}

// Claimed reports whether the card was created by the claim workflow.
func (c *Card) Claimed() bool {
	return c.OriginCardID != uuid.Nil
}
