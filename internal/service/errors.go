// Package service contains application services that orchestrate domain
// logic and persistence for card management.
package service

import "errors"

// Card service error types. Handlers map these onto HTTP status codes.
var (
	// ErrCardNotFound indicates the requested card does not exist or has
	// been deleted.
	ErrCardNotFound = errors.New("card not found")

	// ErrCardNotOwned indicates the caller does not own the card and the
	// operation requires ownership.
	ErrCardNotOwned = errors.New("card not owned by user")

	// ErrCardNotPublic indicates a claim was attempted on a private card.
	ErrCardNotPublic = errors.New("card is not public")

	// ErrAlreadyOwned indicates a user attempted to claim their own card.
	ErrAlreadyOwned = errors.New("card already owned by user")

	// ErrInvalidContent indicates the supplied card content failed
	// validation.
	ErrInvalidContent = errors.New("invalid card content")
)
