// Package progress turns review session events into lasting learner
// progress. HistoryRecorder stores completed sessions and adjusts weak
// areas, FlashcardCreator turns well-answered questions into flashcards, and
// Service answers history and insight queries.
package progress
