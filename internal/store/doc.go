// Package store defines the persistence interfaces of the review engine:
// decks of flashcards, weak areas and session history. Implementations live
// under internal/platform; the review core depends only on these interfaces.
package store
