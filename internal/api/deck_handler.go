package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/deck"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
)

// DefaultScheduleDays is the planning window of GET /api/review/schedule
// when no days parameter is given.
const DefaultScheduleDays = 7

// ScheduleResponse lists upcoming reviews across all decks.
type ScheduleResponse struct {
	Days     int             `json:"days"`
	Upcoming []deck.Upcoming `json:"upcoming"`
}

// DeckHandler serves the deck and schedule endpoints.
type DeckHandler struct {
	decks  deck.Service
	logger *slog.Logger
}

// NewDeckHandler creates a DeckHandler.
func NewDeckHandler(decks deck.Service, log *slog.Logger) *DeckHandler {
	if decks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("decks cannot be nil for DeckHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &DeckHandler{
		decks:  decks,
		logger: log.With(slog.String("component", "deck_handler")),
	}
}

// AddCard handles POST /api/decks/{topic}/cards. A card whose front
// duplicates an existing card returns the existing card with 200.
func (h *DeckHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, ok := getUsername(w, r, log)
	if !ok {
		return
	}

	var req AddCardRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	card, created, err := h.decks.AddCard(r.Context(), username, getPathTopic(r), deck.NewCard{
		Front:    req.Front,
		Back:     req.Back,
		Subtopic: req.Subtopic,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add card")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	shared.RespondWithJSON(w, r, status, AddCardResponse{Card: cardToResponse(card), Created: created})
}

// DueCards handles GET /api/decks/{topic}/due.
func (h *DeckHandler) DueCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, ok := getUsername(w, r, log)
	if !ok {
		return
	}

	topic := getPathTopic(r)
	cards, err := h.decks.DueCards(r.Context(), username, topic)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list due cards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DueCardsResponse{Topic: topic, Cards: cardsToResponse(cards)})
}

// Stats handles GET /api/decks/{topic}/stats.
func (h *DeckHandler) Stats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, ok := getUsername(w, r, log)
	if !ok {
		return
	}

	stats, err := h.decks.Stats(r.Context(), username, getPathTopic(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get deck statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// Schedule handles GET /api/review/schedule?days=N.
func (h *DeckHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, ok := getUsername(w, r, log)
	if !ok {
		return
	}

	days, err := queryInt(r, "days", DefaultScheduleDays)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "days must be an integer")
		return
	}

	upcoming, err := h.decks.Upcoming(r.Context(), username, days)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get review schedule")
		return
	}
	if upcoming == nil {
		upcoming = []deck.Upcoming{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ScheduleResponse{Days: days, Upcoming: upcoming})
}
