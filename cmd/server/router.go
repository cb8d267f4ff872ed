package main

import (
	"net/http"

	"github.com/phrazzld/scry-tutor/internal/api"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	return api.NewRouter(api.RouterDeps{
		Sessions: app.sessions,
		Decks:    app.deckService,
		Progress: app.progressService,
		JWT:      app.jwtService,
		Logger:   app.logger,
		Ping:     app.db.PingContext,
	})
}
