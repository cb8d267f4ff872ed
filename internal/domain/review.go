package domain

import (
	"fmt"
	"time"
)

// Quality is the recall quality of a flashcard review on the SM-2 scale:
// 0 is a complete blackout and 5 is perfect recall.
type Quality int

// Quality bounds
const (
	QualityMin Quality = 0
	QualityMax Quality = 5

	// QualityPassing is the lowest quality that counts as a correct recall.
	QualityPassing Quality = 3
)

// Valid reports whether q is within 0..5.
func (q Quality) Valid() bool {
	return q >= QualityMin && q <= QualityMax
}

// IsCorrect reports whether q counts as a successful recall.
func (q Quality) IsCorrect() bool {
	return q >= QualityPassing
}

// Difficulty is the question difficulty level of an adaptive session.
type Difficulty string

// Difficulty levels, ordered easy < medium < hard.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty converts s into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(s); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
}

// Mode selects how a review session is seeded.
type Mode string

// Session modes
const (
	ModeAdaptive   Mode = "adaptive"
	ModeSpaced     Mode = "spaced"
	ModeIntensive  Mode = "intensive"
	ModeQuick      Mode = "quick"
	ModeFlashcards Mode = "flashcards"
)

// ParseMode converts s into a Mode. An empty string selects ModeAdaptive.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeAdaptive, nil
	}
	switch m := Mode(s); m {
	case ModeAdaptive, ModeSpaced, ModeIntensive, ModeQuick, ModeFlashcards:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// SessionState is the lifecycle state of a review session.
type SessionState string

// Session states. Completed is terminal.
const (
	SessionActive    SessionState = "active"
	SessionPaused    SessionState = "paused"
	SessionCompleted SessionState = "completed"
)

// MasteryLevel summarizes a final session score.
type MasteryLevel string

// Mastery levels
const (
	MasteryBeginner     MasteryLevel = "beginner"
	MasteryIntermediate MasteryLevel = "intermediate"
	MasteryMastered     MasteryLevel = "mastered"
)

// MasteryFor maps a score in [0,1] to a mastery level.
func MasteryFor(score float64) MasteryLevel {
	switch {
	case score >= 0.8:
		return MasteryMastered
	case score >= 0.6:
		return MasteryIntermediate
	default:
		return MasteryBeginner
	}
}

// WeakArea is a (topic, subtopic) pair a learner struggles with.
// Higher PriorityScore means it should be practiced sooner.
type WeakArea struct {
	Topic         string    `json:"topic"`
	Subtopic      string    `json:"subtopic"`
	PriorityScore float64   `json:"priority_score"`
	UpdatedAt     time.Time `json:"updated_at"`
}
