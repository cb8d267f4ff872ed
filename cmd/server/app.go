package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/deck"
	"github.com/phrazzld/scry-tutor/internal/domain/srs"
	"github.com/phrazzld/scry-tutor/internal/events"
	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/phrazzld/scry-tutor/internal/platform/gemini"
	"github.com/phrazzld/scry-tutor/internal/platform/sqlstore"
	"github.com/phrazzld/scry-tutor/internal/service/auth"
	"github.com/phrazzld/scry-tutor/internal/service/progress"
	"github.com/phrazzld/scry-tutor/internal/service/review"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// generator both writes questions and grades answers.
type generator interface {
	generation.ContentGenerator
	generation.AnswerEvaluator
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sqlstore.DB

	deckStore     store.DeckStore
	weaknessStore store.WeaknessStore
	historyStore  store.HistoryStore

	jwtService      auth.JWTService
	srsService      srs.Service
	decks           *deck.Cache
	generator       generator
	deckService     deck.Service
	progressService progress.Service
	sessions        *review.Registry

	// dispatcher delivers events to the handlers registered on the
	// in-memory emitter, off the request path.
	dispatcher *events.AsyncEmitter

	janitorCancel context.CancelFunc
	janitorDone   chan struct{}
}

// newApplication creates a new application instance with all dependencies
// initialized. The database must already be open and migrated.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sqlstore.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.deckStore = sqlstore.NewDeckStore(db.DB, db.Dialect, logger)
	app.weaknessStore = sqlstore.NewWeaknessStore(db.DB, db.Dialect, logger)
	app.historyStore = sqlstore.NewHistoryStore(db.DB, db.Dialect, logger)

	app.generator, err = newGenerator(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	app.srsService = srs.NewDefaultService()
	app.decks = deck.NewCache(app.deckStore, app.srsService)
	app.deckService = deck.NewService(app.deckStore, app.srsService, logger, deck.WithCache(app.decks))
	app.progressService = progress.NewService(app.historyStore, app.weaknessStore, app.deckService, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(progress.NewHistoryRecorder(db.DB, app.historyStore, app.weaknessStore, logger))
	emitter.RegisterHandler(progress.NewFlashcardCreator(app.deckService, logger))

	app.dispatcher = events.NewAsyncEmitter(emitter, events.AsyncConfig{
		WorkerCount: cfg.Events.Workers,
		QueueSize:   cfg.Events.QueueSize,
	}, logger)

	opts, err := review.OptionsFromConfig(cfg.Review, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to build review options: %w", err)
	}
	app.sessions = review.NewRegistry(review.Deps{
		Decks:     app.deckStore,
		Scheduler: app.srsService,
		DeckCache: app.decks,
		Weakness:  app.weaknessStore,
		Generator: app.generator,
		Evaluator: app.generator,
		Events:    app.dispatcher,
		Logger:    logger,
	}, opts)

	logger.Info("Application initialized successfully",
		"database_driver", string(db.Dialect),
		"llm_provider", cfg.LLM.Provider)
	return app, nil
}

// newGenerator selects the question provider named in the configuration.
func newGenerator(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (generator, error) {
	if cfg.Provider != "gemini" {
		logger.Info("using fallback question provider; answers are self-graded")
		return generation.NewFallback(), nil
	}

	g, err := gemini.NewGenerator(ctx, logger.With("component", "llm_generator"), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	logger.Info("LLM generator initialized successfully", "model", cfg.ModelName)
	return g, nil
}

// start launches the background workers: the event dispatcher and the
// session janitor.
func (app *application) start(ctx context.Context) {
	app.dispatcher.Start()

	interval := time.Duration(app.config.Review.SweepIntervalSeconds) * time.Second
	janitorCtx, cancel := context.WithCancel(ctx)
	app.janitorCancel = cancel
	app.janitorDone = make(chan struct{})
	go func() {
		defer close(app.janitorDone)
		app.sessions.Run(janitorCtx, interval)
	}()
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	app.start(ctx)
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.janitorCancel != nil {
		app.janitorCancel()
		<-app.janitorDone
	}

	if app.dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := app.dispatcher.Stop(ctx); err != nil {
			app.logger.Error("Error draining event dispatcher", "error", err)
		}
		cancel()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
