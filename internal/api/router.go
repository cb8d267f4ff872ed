package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	apimiddleware "github.com/phrazzld/scry-tutor/internal/api/middleware"
	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/deck"
	"github.com/phrazzld/scry-tutor/internal/service/auth"
	"github.com/phrazzld/scry-tutor/internal/service/progress"
)

// RouterDeps are the services behind the HTTP API.
type RouterDeps struct {
	Sessions SessionService
	Decks    deck.Service
	Progress progress.Service
	JWT      auth.JWTService
	Logger   *slog.Logger

	// Ping reports backend health for GET /health. Optional.
	Ping func(ctx context.Context) error
}

// NewRouter wires every endpoint and middleware into a chi router.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	reviewHandler := NewReviewHandler(deps.Sessions, log)
	deckHandler := NewDeckHandler(deps.Decks, log)
	progressHandler := NewProgressHandler(deps.Progress, log)
	authMiddleware := apimiddleware.NewAuthMiddleware(deps.JWT)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.NewTraceMiddleware(log))

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/review", func(r chi.Router) {
			r.Post("/sessions", reviewHandler.CreateSession)
			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Get("/", reviewHandler.GetSession)
				r.Delete("/", reviewHandler.EndSession)
				r.Post("/next", reviewHandler.NextItem)
				r.Post("/answer", reviewHandler.SubmitAnswer)
				r.Post("/flashcard-answer", reviewHandler.SubmitFlashcardAnswer)
				r.Post("/requeue", reviewHandler.RequeueItem)
				r.Post("/pause", reviewHandler.PauseSession)
				r.Post("/resume", reviewHandler.ResumeSession)
			})

			r.Get("/schedule", deckHandler.Schedule)
			r.Get("/insights", progressHandler.Insights)
			r.Get("/history", progressHandler.History)
		})

		r.Route("/decks/{topic}", func(r chi.Router) {
			r.Post("/cards", deckHandler.AddCard)
			r.Get("/due", deckHandler.DueCards)
			r.Get("/stats", deckHandler.Stats)
		})
	})

	r.Get("/health", healthHandler(deps.Ping))

	return r
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err)
				return
			}
		}
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
