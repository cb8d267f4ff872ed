// Package domain contains the core learning entities of the review engine:
// flashcards and their schedule fields, answer quality, difficulty levels,
// session modes and states, mastery levels and weak areas. It is independent
// of storage, transport and content generation.
package domain
