package progress

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/scry-tutor/internal/deck"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/events"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
)

// FlashcardCreator handles question_answered events: a question answered
// correctly at medium or hard difficulty that has a reference answer becomes
// a flashcard in the topic's deck. Duplicate fronts are not added twice.
type FlashcardCreator struct {
	decks  deck.Service
	logger *slog.Logger
}

var _ events.EventHandler = (*FlashcardCreator)(nil)

// NewFlashcardCreator creates a FlashcardCreator. It panics if decks is nil.
func NewFlashcardCreator(decks deck.Service, log *slog.Logger) *FlashcardCreator {
	if decks == nil {
		panic("deck service cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &FlashcardCreator{
		decks:  decks,
		logger: log.With(slog.String("component", "flashcard_creator")),
	}
}

// HandleEvent implements events.EventHandler.
func (c *FlashcardCreator) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeQuestionAnswered {
		return nil
	}

	var payload events.QuestionAnswered
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
	}
	if !worthKeeping(payload) {
		return nil
	}

	card, created, err := c.decks.AddCard(ctx, event.Username, payload.Topic, deck.NewCard{
		Front:    payload.Question,
		Back:     payload.ReferenceAnswer,
		Subtopic: payload.Subtopic,
	})
	if err != nil {
		return fmt.Errorf("failed to create flashcard from question: %w", err)
	}

	if created {
		logger.FromContextOrDefault(ctx, c.logger).Info("flashcard created from review",
			slog.String("session_id", event.SessionID.String()),
			slog.String("topic", payload.Topic),
			slog.String("card_id", card.ID.String()))
	}
	return nil
}

func worthKeeping(q events.QuestionAnswered) bool {
	if !q.Correct {
		return false
	}
	if q.Difficulty != domain.DifficultyMedium && q.Difficulty != domain.DifficultyHard {
		return false
	}
	return strings.TrimSpace(q.Question) != "" &&
		strings.TrimSpace(q.ReferenceAnswer) != "" &&
		strings.TrimSpace(q.Topic) != ""
}
