// Package deck manages the flashcards of one (username, topic) pair: adding
// cards, listing the cards that are due, recording a study result through the
// SM-2 scheduler and summarizing upcoming reviews. Service exposes the same
// operations for callers that work with stored decks by name.
package deck
