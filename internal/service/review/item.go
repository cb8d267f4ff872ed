package review

import (
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/generation"
)

// ItemKind tags a DueItem.
type ItemKind string

// Item kinds
const (
	KindFlashcard ItemKind = "flashcard"
	KindQuestion  ItemKind = "question"
)

// DueItem is a flashcard or a practice question. Exactly one of Flashcard
// and Question is set, matching Kind.
type DueItem struct {
	Kind      ItemKind       `json:"kind"`
	Flashcard *FlashcardItem `json:"flashcard,omitempty"`
	Question  *QuestionItem  `json:"question,omitempty"`
}

// FlashcardItem refers to a card in one of the session's decks.
type FlashcardItem struct {
	CardID   uuid.UUID `json:"card_id"`
	Topic    string    `json:"topic"`
	Subtopic string    `json:"subtopic,omitempty"`
	Front    string    `json:"front"`
	Back     string    `json:"back"`
}

// QuestionItem is a practice question placeholder. Generated stays nil until
// the item is first drawn.
type QuestionItem struct {
	Topic     string               `json:"topic"`
	Subtopic  string               `json:"subtopic,omitempty"`
	Exclude   []string             `json:"-"`
	Generated *generation.Question `json:"generated,omitempty"`
}

// NewFlashcardItem wraps a card as a due item.
func NewFlashcardItem(card *domain.Flashcard) DueItem {
	return DueItem{
		Kind: KindFlashcard,
		Flashcard: &FlashcardItem{
			CardID:   card.ID,
			Topic:    card.Topic,
			Subtopic: card.Subtopic,
			Front:    card.Front,
			Back:     card.Back,
		},
	}
}

// NewQuestionItem creates a question placeholder.
func NewQuestionItem(topic, subtopic string) DueItem {
	return DueItem{
		Kind:     KindQuestion,
		Question: &QuestionItem{Topic: topic, Subtopic: subtopic},
	}
}

// Topic returns the topic of the item.
func (i DueItem) Topic() string {
	switch i.Kind {
	case KindFlashcard:
		return i.Flashcard.Topic
	case KindQuestion:
		return i.Question.Topic
	default:
		return ""
	}
}

// Subtopic returns the subtopic of the item.
func (i DueItem) Subtopic() string {
	switch i.Kind {
	case KindFlashcard:
		return i.Flashcard.Subtopic
	case KindQuestion:
		return i.Question.Subtopic
	default:
		return ""
	}
}

// clone returns a deep copy so callers never share state with the queue.
func (i DueItem) clone() DueItem {
	out := DueItem{Kind: i.Kind}
	if i.Flashcard != nil {
		fc := *i.Flashcard
		out.Flashcard = &fc
	}
	if i.Question != nil {
		q := *i.Question
		q.Exclude = slices.Clone(i.Question.Exclude)
		if i.Question.Generated != nil {
			g := *i.Question.Generated
			g.Options = slices.Clone(i.Question.Generated.Options)
			q.Generated = &g
		}
		out.Question = &q
	}
	return out
}
