package domain

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Flashcard validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardTopicEmpty is returned when a card has no topic.
	ErrCardTopicEmpty = errors.New("card topic cannot be empty")

	// ErrCardFrontEmpty is returned when a card's front side is blank.
	ErrCardFrontEmpty = errors.New("card front cannot be empty")

	// ErrCardBackEmpty is returned when a card's back side is blank.
	ErrCardBackEmpty = errors.New("card back cannot be empty")

	// ErrInvalidEaseFactor is returned when the easiness factor is below the floor.
	ErrInvalidEaseFactor = errors.New("easiness factor must be at least 1.3")

	// ErrInvalidInterval is returned when the interval is negative.
	ErrInvalidInterval = errors.New("interval must be greater than or equal to 0")
)

const (
	// DefaultEaseFactor is the easiness factor every new card starts with.
	DefaultEaseFactor = 2.5

	// MinEaseFactor is the lower bound of the easiness factor.
	MinEaseFactor = 1.3
)

// Flashcard is a single question/answer pair with its SM-2 schedule.
// A card belongs to exactly one deck, identified by (username, topic).
type Flashcard struct {
	ID              uuid.UUID `json:"id"`
	Topic           string    `json:"topic"`
	Subtopic        string    `json:"subtopic"`
	Front           string    `json:"front"`
	Back            string    `json:"back"`
	RepetitionCount int       `json:"repetition_count"`
	EasinessFactor  float64   `json:"easiness_factor"`
	IntervalDays    int       `json:"interval_days"`    // 0 until the first review
	LastReviewedAt  time.Time `json:"last_reviewed_at"` // zero until the first review
	NextReviewAt    time.Time `json:"next_review_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewFlashcard creates a card that is due immediately.
func NewFlashcard(topic, subtopic, front, back string, now time.Time) (*Flashcard, error) {
	card := &Flashcard{
		ID:              uuid.New(),
		Topic:           topic,
		Subtopic:        strings.TrimSpace(subtopic),
		Front:           strings.TrimSpace(front),
		Back:            strings.TrimSpace(back),
		RepetitionCount: 0,
		EasinessFactor:  DefaultEaseFactor,
		IntervalDays:    0,
		NextReviewAt:    now,
		CreatedAt:       now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Flashcard has valid data.
func (c *Flashcard) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}
	if strings.TrimSpace(c.Topic) == "" {
		return ErrCardTopicEmpty
	}
	if strings.TrimSpace(c.Front) == "" {
		return ErrCardFrontEmpty
	}
	if strings.TrimSpace(c.Back) == "" {
		return ErrCardBackEmpty
	}
	if c.EasinessFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}
	if c.IntervalDays < 0 {
		return ErrInvalidInterval
	}
	return nil
}

// IsDue reports whether the card should be reviewed at asOf.
func (c *Flashcard) IsDue(asOf time.Time) bool {
	return !c.NextReviewAt.After(asOf)
}

// DaysUntilReview returns the whole number of days from now until the next
// review, rounded up. Overdue cards return zero or a negative number.
func (c *Flashcard) DaysUntilReview(now time.Time) int {
	return int(math.Ceil(c.NextReviewAt.Sub(now).Hours() / 24))
}

// SameFront reports whether two fronts are the same question, ignoring case
// and surrounding whitespace.
func SameFront(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Clone returns a copy of the card.
func (c *Flashcard) Clone() *Flashcard {
	cp := *c
	return &cp
}
