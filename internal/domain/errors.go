// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidQuality is returned when a recall quality is outside 0..5.
	ErrInvalidQuality = errors.New("invalid quality")

	// ErrCardNotFound is returned when a card id is not present in a deck.
	ErrCardNotFound = errors.New("card not found")

	// ErrInvalidDifficulty is returned for an unknown difficulty level.
	ErrInvalidDifficulty = errors.New("invalid difficulty")

	// ErrInvalidMode is returned for an unknown session mode.
	ErrInvalidMode = errors.New("invalid session mode")
)
