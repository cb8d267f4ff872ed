package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/phrazzld/scry-tutor/internal/service/review"
)

// CreateSessionRequest is the payload for POST /api/review/sessions.
type CreateSessionRequest struct {
	// Mode defaults to adaptive when empty.
	Mode         string   `json:"mode"          validate:"omitempty,oneof=adaptive spaced intensive quick flashcards"`
	Topics       []string `json:"topics"        validate:"omitempty,max=20,dive,required,max=100"`
	MaxQuestions int      `json:"max_questions" validate:"gte=0,lte=100"`
}

// AnswerRequest is the payload for POST /api/review/sessions/{id}/answer.
type AnswerRequest struct {
	Answer string `json:"answer" validate:"required,max=4000"`
}

// FlashcardAnswerRequest is the payload for
// POST /api/review/sessions/{id}/flashcard-answer. Quality is a pointer so
// that 0, a valid grade, is told apart from a missing field.
type FlashcardAnswerRequest struct {
	Quality *int `json:"quality" validate:"required,gte=0,lte=5"`
}

// AddCardRequest is the payload for POST /api/decks/{topic}/cards.
type AddCardRequest struct {
	Front    string `json:"front"    validate:"required,max=1000"`
	Back     string `json:"back"     validate:"required,max=4000"`
	Subtopic string `json:"subtopic" validate:"max=200"`
}

// ItemResponse is a drawn session item. Question items never carry their
// reference answer.
type ItemResponse struct {
	Kind      review.ItemKind    `json:"kind"`
	Topic     string             `json:"topic"`
	Subtopic  string             `json:"subtopic,omitempty"`
	Flashcard *FlashcardResponse `json:"flashcard,omitempty"`
	Question  *QuestionResponse  `json:"question,omitempty"`
}

// FlashcardResponse is the flashcard part of an ItemResponse.
type FlashcardResponse struct {
	CardID uuid.UUID `json:"card_id"`
	Front  string    `json:"front"`
	Back   string    `json:"back"`
}

// QuestionResponse is the question part of an ItemResponse.
type QuestionResponse struct {
	Text       string                  `json:"text"`
	Type       generation.QuestionType `json:"type"`
	Options    []string                `json:"options,omitempty"`
	Difficulty domain.Difficulty       `json:"difficulty"`
}

// CardResponse is a flashcard as returned by the deck endpoints.
type CardResponse struct {
	ID              uuid.UUID `json:"id"`
	Topic           string    `json:"topic"`
	Subtopic        string    `json:"subtopic,omitempty"`
	Front           string    `json:"front"`
	Back            string    `json:"back"`
	RepetitionCount int       `json:"repetition_count"`
	EasinessFactor  float64   `json:"easiness_factor"`
	IntervalDays    int       `json:"interval_days"`
	NextReviewAt    time.Time `json:"next_review_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// AddCardResponse reports the stored card and whether it is new.
type AddCardResponse struct {
	Card    CardResponse `json:"card"`
	Created bool         `json:"created"`
}

// DueCardsResponse lists a deck's due cards.
type DueCardsResponse struct {
	Topic string         `json:"topic"`
	Cards []CardResponse `json:"cards"`
}

// HistoryResponse lists completed sessions, newest first.
type HistoryResponse struct {
	Sessions []*domain.SessionRecord `json:"sessions"`
}

func itemToResponse(item review.DueItem) ItemResponse {
	resp := ItemResponse{
		Kind:     item.Kind,
		Topic:    item.Topic(),
		Subtopic: item.Subtopic(),
	}
	switch item.Kind {
	case review.KindFlashcard:
		resp.Flashcard = &FlashcardResponse{
			CardID: item.Flashcard.CardID,
			Front:  item.Flashcard.Front,
			Back:   item.Flashcard.Back,
		}
	case review.KindQuestion:
		if q := item.Question.Generated; q != nil {
			resp.Question = &QuestionResponse{
				Text:       q.Text,
				Type:       q.Type,
				Options:    q.Options,
				Difficulty: q.Difficulty,
			}
		}
	}
	return resp
}

func cardToResponse(card *domain.Flashcard) CardResponse {
	return CardResponse{
		ID:              card.ID,
		Topic:           card.Topic,
		Subtopic:        card.Subtopic,
		Front:           card.Front,
		Back:            card.Back,
		RepetitionCount: card.RepetitionCount,
		EasinessFactor:  card.EasinessFactor,
		IntervalDays:    card.IntervalDays,
		NextReviewAt:    card.NextReviewAt,
		CreatedAt:       card.CreatedAt,
	}
}

func cardsToResponse(cards []*domain.Flashcard) []CardResponse {
	out := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardToResponse(c))
	}
	return out
}
