package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/service/progress"
)

// ProgressHandler serves learning history and insights.
type ProgressHandler struct {
	progress progress.Service
	logger   *slog.Logger
}

// NewProgressHandler creates a ProgressHandler.
func NewProgressHandler(svc progress.Service, log *slog.Logger) *ProgressHandler {
	if svc == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("progress service cannot be nil for ProgressHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ProgressHandler{
		progress: svc,
		logger:   log.With(slog.String("component", "progress_handler")),
	}
}

// History handles GET /api/review/history?limit=N.
func (h *ProgressHandler) History(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, ok := getUsername(w, r, log)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", progress.DefaultHistoryLimit)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "limit must be an integer")
		return
	}

	records, err := h.progress.History(r.Context(), username, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get session history")
		return
	}
	if records == nil {
		records = []*domain.SessionRecord{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, HistoryResponse{Sessions: records})
}

// Insights handles GET /api/review/insights.
func (h *ProgressHandler) Insights(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	username, ok := getUsername(w, r, log)
	if !ok {
		return
	}

	insights, err := h.progress.Insights(r.Context(), username)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get insights")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, insights)
}
