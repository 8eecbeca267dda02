package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/parrotdeck/srs-api/internal/service"
	"github.com/parrotdeck/srs-api/internal/service/card_review"
	"github.com/parrotdeck/srs-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes. Keeping
// the mapping in one place prevents handlers from leaking internal error
// types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authorization errors
	case errors.Is(err, card_review.ErrCardNotOwned),
		errors.Is(err, service.ErrCardNotOwned),
		errors.Is(err, service.ErrCardNotPublic):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, card_review.ErrCardNotFound),
		errors.Is(err, service.ErrCardNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrAlreadyOwned),
		errors.Is(err, card_review.ErrConflict),
		errors.Is(err, store.ErrConflict):
		return http.StatusConflict

	// Suspended cards reject reviews but the request itself is well-formed
	case errors.Is(err, card_review.ErrCardSuspended):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, service.ErrInvalidContent),
		errors.Is(err, card_review.ErrInvalidQuality),
		errors.Is(err, card_review.ErrInvalidTimestamp),
		errors.Is(err, card_review.ErrInvalidDays):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the
// error type. Internal details never reach the client.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, card_review.ErrCardNotOwned),
		errors.Is(err, service.ErrCardNotOwned):
		return "You do not own this card"

	case errors.Is(err, service.ErrCardNotPublic):
		return "Card is not public"

	case errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, card_review.ErrCardNotFound),
		errors.Is(err, service.ErrCardNotFound):
		return "Card not found"

	case errors.Is(err, service.ErrAlreadyOwned):
		return "You already own this card"

	case errors.Is(err, card_review.ErrConflict),
		errors.Is(err, store.ErrConflict):
		return "Card was modified concurrently, please retry"

	case errors.Is(err, card_review.ErrCardSuspended):
		return "Card is suspended"

	case errors.Is(err, card_review.ErrInvalidQuality):
		return "Quality must be between 0 and 5"

	case errors.Is(err, card_review.ErrInvalidTimestamp):
		return "Invalid review timestamp"

	case errors.Is(err, card_review.ErrInvalidDays):
		return "Postpone days must be at least 1"

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, service.ErrInvalidContent):
		return "Invalid card data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError converts a validator error into a user-friendly
// message without echoing submitted values back.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example: "Key: 'SubmitReviewRequest.Quality' Error:Field validation
		// for 'Quality' failed on the 'max' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "value too small"
	case "max":
		return "value too large"
	case "url":
		return "invalid URL"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
