package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/service/review"
)

// SessionService runs review sessions on behalf of a user.
type SessionService interface {
	Create(ctx context.Context, req review.CreateRequest) (review.Snapshot, error)
	Get(ctx context.Context, username string, id uuid.UUID) (review.Snapshot, error)
	Next(ctx context.Context, username string, id uuid.UUID) (review.DueItem, error)
	SubmitAnswer(ctx context.Context, username string, id uuid.UUID, answer string) (review.AnswerResult, error)
	SubmitFlashcardAnswer(
		ctx context.Context,
		username string,
		id uuid.UUID,
		quality domain.Quality,
	) (review.AnswerResult, error)
	Requeue(ctx context.Context, username string, id uuid.UUID) error
	Pause(ctx context.Context, username string, id uuid.UUID) (review.Snapshot, error)
	Resume(ctx context.Context, username string, id uuid.UUID) (review.Snapshot, error)
	End(ctx context.Context, username string, id uuid.UUID) (review.Summary, error)
}

var _ SessionService = (*review.Registry)(nil)

// ReviewHandler serves the review session endpoints.
type ReviewHandler struct {
	sessions SessionService
	logger   *slog.Logger
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(sessions SessionService, log *slog.Logger) *ReviewHandler {
	if sessions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("sessions cannot be nil for ReviewHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ReviewHandler{
		sessions: sessions,
		logger:   log.With(slog.String("component", "review_handler")),
	}
}

// CreateSession handles POST /api/review/sessions.
func (h *ReviewHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, ok := getUsername(w, r, log)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	snap, err := h.sessions.Create(r.Context(), review.CreateRequest{
		Username:     username,
		Mode:         mode,
		Topics:       req.Topics,
		MaxQuestions: req.MaxQuestions,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create session")
		return
	}

	log.Debug("session created", slog.String("session_id", snap.SessionID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, snap)
}

// GetSession handles GET /api/review/sessions/{id}.
func (h *ReviewHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, id, ok := handleUsernameAndSessionID(w, r, log)
	if !ok {
		return
	}

	snap, err := h.sessions.Get(r.Context(), username, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, snap)
}

// NextItem handles POST /api/review/sessions/{id}/next. It answers 204
// when the session has nothing left to draw.
func (h *ReviewHandler) NextItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, id, ok := handleUsernameAndSessionID(w, r, log)
	if !ok {
		return
	}

	item, err := h.sessions.Next(r.Context(), username, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get next item")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}

// SubmitAnswer handles POST /api/review/sessions/{id}/answer.
func (h *ReviewHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, id, ok := handleUsernameAndSessionID(w, r, log)
	if !ok {
		return
	}

	var req AnswerRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	result, err := h.sessions.SubmitAnswer(r.Context(), username, id, req.Answer)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit answer")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// SubmitFlashcardAnswer handles POST /api/review/sessions/{id}/flashcard-answer.
func (h *ReviewHandler) SubmitFlashcardAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, id, ok := handleUsernameAndSessionID(w, r, log)
	if !ok {
		return
	}

	var req FlashcardAnswerRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	result, err := h.sessions.SubmitFlashcardAnswer(r.Context(), username, id, domain.Quality(*req.Quality))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit answer")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// RequeueItem handles POST /api/review/sessions/{id}/requeue.
func (h *ReviewHandler) RequeueItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, id, ok := handleUsernameAndSessionID(w, r, log)
	if !ok {
		return
	}

	if err := h.sessions.Requeue(r.Context(), username, id); err != nil {
		HandleAPIError(w, r, err, "Failed to requeue item")
		return
	}
	shared.RespondNoContent(w)
}

// PauseSession handles POST /api/review/sessions/{id}/pause.
func (h *ReviewHandler) PauseSession(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sessions.Pause, "Failed to pause session")
}

// ResumeSession handles POST /api/review/sessions/{id}/resume.
func (h *ReviewHandler) ResumeSession(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sessions.Resume, "Failed to resume session")
}

func (h *ReviewHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(context.Context, string, uuid.UUID) (review.Snapshot, error),
	fallbackMsg string,
) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, id, ok := handleUsernameAndSessionID(w, r, log)
	if !ok {
		return
	}

	snap, err := fn(r.Context(), username, id)
	if err != nil {
		HandleAPIError(w, r, err, fallbackMsg)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, snap)
}

// EndSession handles DELETE /api/review/sessions/{id}. Ending a completed
// session returns its existing summary.
func (h *ReviewHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, id, ok := handleUsernameAndSessionID(w, r, log)
	if !ok {
		return
	}

	summary, err := h.sessions.End(r.Context(), username, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to end session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}
