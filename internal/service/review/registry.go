package review

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/deck"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/domain/srs"
	"github.com/phrazzld/scry-tutor/internal/events"
	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/store"
	"golang.org/x/sync/errgroup"
)

// maxParallelDeckLoads bounds concurrent deck loads during session creation.
const maxParallelDeckLoads = 4

// WeaknessSource supplies the weak areas of a learner, highest priority first.
type WeaknessSource interface {
	GetWeakAreas(ctx context.Context, username string) ([]domain.WeakArea, error)
}

// Deps are the collaborators of a Registry. Events may be nil.
type Deps struct {
	Decks     store.DeckStore
	Scheduler srs.Service
	// DeckCache holds the live decks shared with other services. Nil gives
	// the registry a cache of its own over Decks.
	DeckCache *deck.Cache
	Weakness  WeaknessSource
	Generator generation.ContentGenerator
	Evaluator generation.AnswerEvaluator
	Events    events.EventEmitter
	Logger    *slog.Logger

	// Now overrides the clock; nil means time.Now in UTC.
	Now func() time.Time
}

// CreateRequest describes a new session. Zero MaxQuestions selects the
// mode's default; empty Topics selects every topic the learner has.
type CreateRequest struct {
	Username     string
	Mode         domain.Mode
	Topics       []string
	MaxQuestions int
}

type entry struct {
	session  *Session
	inflight int
	lastUsed time.Time
}

// Registry owns the live review sessions. Every operation on a session goes
// through the registry, which serializes it on the session's lock and keeps
// the session from being evicted while the operation runs.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entry

	deps   Deps
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// NewRegistry creates a Registry. It panics if a required collaborator is nil.
func NewRegistry(deps Deps, opts Options) *Registry {
	if deps.Decks == nil {
		panic("deck store cannot be nil")
	}
	if deps.Scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if deps.Weakness == nil {
		panic("weakness source cannot be nil")
	}
	if deps.Generator == nil {
		panic("content generator cannot be nil")
	}
	if deps.Evaluator == nil {
		panic("answer evaluator cannot be nil")
	}

	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if deps.DeckCache == nil {
		deps.DeckCache = deck.NewCache(deps.Decks, deps.Scheduler)
	}

	return &Registry{
		sessions: make(map[uuid.UUID]*entry),
		deps:     deps,
		opts:     opts.withDefaults(),
		logger:   log.With(slog.String("component", "review_registry")),
		now:      now,
	}
}

// Create seeds and registers a new session and returns its snapshot.
func (r *Registry) Create(ctx context.Context, req CreateRequest) (Snapshot, error) {
	const op = "create_session"
	log := logger.FromContextOrDefault(ctx, r.logger)

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return Snapshot{}, NewServiceError(op, "username is required", domain.ErrValidation)
	}
	mode, err := domain.ParseMode(string(req.Mode))
	if err != nil {
		return Snapshot{}, NewServiceError(op, "invalid mode", err)
	}
	if req.MaxQuestions < 0 {
		return Snapshot{}, NewServiceError(op, "invalid max questions", ErrInvalidMaxQuestions)
	}

	policy := policyFor(mode)
	maxQuestions := req.MaxQuestions
	if maxQuestions == 0 {
		maxQuestions = max(policy.defaultMax(r.opts.DefaultMaxQuestions), 1)
	}

	topics := normalizeTopics(req.Topics)
	weak := r.weakAreas(ctx, username)

	if len(topics) == 0 {
		stored, err := r.deps.Decks.ListTopics(ctx, username)
		if err != nil {
			log.Error("failed to list deck topics",
				slog.String("error", err.Error()),
				slog.String("username", username))
			return Snapshot{}, NewServiceError(op, "failed to list topics", err)
		}
		candidates := slices.Clone(stored)
		for _, w := range weak {
			candidates = append(candidates, w.Topic)
		}
		topics = normalizeTopics(candidates)
	} else {
		weak = slices.DeleteFunc(weak, func(w domain.WeakArea) bool {
			return !slices.Contains(topics, w.Topic)
		})
	}

	var (
		items []DueItem
		decks map[string]*deck.Deck
	)
	if policy.flashcards && len(topics) > 0 {
		decks, err = r.loadDecks(ctx, username, topics)
		if err != nil {
			log.Error("failed to load decks",
				slog.String("error", err.Error()),
				slog.String("username", username))
			return Snapshot{}, NewServiceError(op, "failed to load decks", err)
		}
		now := r.now()
		for _, topic := range topics {
			for _, card := range decks[topic].GetDueCards(now) {
				items = append(items, NewFlashcardItem(card))
			}
		}
	}
	if policy.questions {
		for _, w := range weak {
			items = append(items, NewQuestionItem(w.Topic, w.Subtopic))
		}
	}
	if len(items) > maxQuestions {
		items = items[:maxQuestions]
	}

	if len(topics) == 0 {
		topics = []string{r.opts.DefaultTopic}
	}
	if len(items) == 0 {
		n := min(r.opts.FallbackQuestions, maxQuestions)
		for i := range n {
			items = append(items, NewQuestionItem(topics[i%len(topics)], ""))
		}
		log.Debug("no due items, seeded fallback questions",
			slog.Int("count", n),
			slog.Any("topics", topics))
	}

	s := newSession(username, mode, topics, items, decks, r.opts.InitialDifficulty, maxQuestions, collaborators{
		generator:   r.deps.Generator,
		evaluator:   r.deps.Evaluator,
		callTimeout: r.opts.CallTimeout,
		now:         r.now,
	})

	r.mu.Lock()
	r.sessions[s.ID()] = &entry{session: s, lastUsed: r.now()}
	r.mu.Unlock()

	snap := s.Snapshot()
	log.Info("review session created",
		slog.String("session_id", snap.SessionID.String()),
		slog.String("username", username),
		slog.String("mode", string(mode)),
		slog.Int("items", len(items)),
		slog.Int("max_questions", maxQuestions))

	r.emit(ctx, events.TypeSessionStarted, s, events.SessionStarted{
		Mode:         mode,
		Topics:       snap.Topics,
		Items:        len(items),
		MaxQuestions: maxQuestions,
	})
	return snap, nil
}

// weakAreas returns the learner's weak areas, highest priority first.
// A failing source is logged and treated as having none.
func (r *Registry) weakAreas(ctx context.Context, username string) []domain.WeakArea {
	areas, err := r.deps.Weakness.GetWeakAreas(ctx, username)
	if err != nil {
		logger.FromContextOrDefault(ctx, r.logger).Warn("failed to load weak areas",
			slog.String("error", err.Error()),
			slog.String("username", username))
		return nil
	}

	out := slices.Clone(areas)
	slices.SortStableFunc(out, func(a, b domain.WeakArea) int {
		switch {
		case a.PriorityScore > b.PriorityScore:
			return -1
		case a.PriorityScore < b.PriorityScore:
			return 1
		default:
			return 0
		}
	})
	seen := make(map[topicKey]bool, len(out))
	return slices.DeleteFunc(out, func(w domain.WeakArea) bool {
		key := topicKey{topic: w.Topic, subtopic: w.Subtopic}
		if seen[key] {
			return true
		}
		seen[key] = true
		return false
	})
}

func (r *Registry) loadDecks(ctx context.Context, username string, topics []string) (map[string]*deck.Deck, error) {
	loaded := make([]*deck.Deck, len(topics))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDeckLoads)
	for i, topic := range topics {
		g.Go(func() error {
			d, err := r.deps.DeckCache.Get(gctx, username, topic)
			if err != nil {
				return err
			}
			loaded[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	decks := make(map[string]*deck.Deck, len(topics))
	for i, topic := range topics {
		decks[topic] = loaded[i]
	}
	return decks, nil
}

// acquire looks up a session owned by username and marks an operation in
// flight. The returned release must be called when the operation ends.
func (r *Registry) acquire(username string, id uuid.UUID) (*Session, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok || e.session.Username() != username {
		return nil, nil, ErrSessionNotFound
	}
	e.inflight++
	e.lastUsed = r.now()

	release := func() {
		r.mu.Lock()
		e.inflight--
		r.mu.Unlock()
	}
	return e.session, release, nil
}

// Get returns a snapshot of the session.
func (r *Registry) Get(ctx context.Context, username string, id uuid.UUID) (Snapshot, error) {
	s, release, err := r.acquire(username, id)
	if err != nil {
		return Snapshot{}, NewServiceError("get_session", "session lookup failed", err)
	}
	defer release()
	return s.Snapshot(), nil
}

// Next returns the session's current item, drawing one if needed.
func (r *Registry) Next(ctx context.Context, username string, id uuid.UUID) (DueItem, error) {
	const op = "next_item"

	s, release, err := r.acquire(username, id)
	if err != nil {
		return DueItem{}, NewServiceError(op, "session lookup failed", err)
	}
	defer release()

	item, err := s.Next(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, r.logger).Debug("no item drawn",
			slog.String("session_id", id.String()),
			slog.String("error", err.Error()))
		return DueItem{}, NewServiceError(op, "failed to draw item", err)
	}
	return item, nil
}

// SubmitAnswer grades and commits an answer to the current question.
func (r *Registry) SubmitAnswer(ctx context.Context, username string, id uuid.UUID, answer string) (AnswerResult, error) {
	const op = "submit_answer"

	s, release, err := r.acquire(username, id)
	if err != nil {
		return AnswerResult{}, NewServiceError(op, "session lookup failed", err)
	}
	result, err := s.SubmitAnswer(ctx, answer)
	release()
	if err != nil {
		return AnswerResult{}, NewServiceError(op, "failed to submit answer", err)
	}

	q := result.answered.Question
	payload := events.QuestionAnswered{
		Topic:      q.Topic,
		Subtopic:   q.Subtopic,
		Difficulty: result.askedAt,
		Correct:    result.Correct,
		Score:      result.Score,
	}
	if q.Generated != nil {
		payload.Question = q.Generated.Text
		payload.ReferenceAnswer = q.Generated.ReferenceAnswer()
	}
	r.emit(ctx, events.TypeQuestionAnswered, s, payload)
	r.afterCommit(ctx, s, result)
	return result, nil
}

// SubmitFlashcardAnswer studies the current flashcard and commits it.
func (r *Registry) SubmitFlashcardAnswer(
	ctx context.Context,
	username string,
	id uuid.UUID,
	quality domain.Quality,
) (AnswerResult, error) {
	const op = "submit_flashcard_answer"

	s, release, err := r.acquire(username, id)
	if err != nil {
		return AnswerResult{}, NewServiceError(op, "session lookup failed", err)
	}
	result, err := s.SubmitFlashcardAnswer(ctx, quality)
	release()
	if err != nil {
		return AnswerResult{}, NewServiceError(op, "failed to submit flashcard answer", err)
	}

	payload := events.FlashcardStudied{
		Quality: int(quality),
		Correct: result.Correct,
	}
	if fc := result.answered.Flashcard; fc != nil {
		payload.CardID = fc.CardID
		payload.Topic = fc.Topic
		payload.Subtopic = fc.Subtopic
	}
	if result.Card != nil {
		payload.IntervalDays = result.Card.IntervalDays
		payload.NextReviewAt = result.Card.NextReviewAt
	}
	r.emit(ctx, events.TypeFlashcardStudied, s, payload)
	r.afterCommit(ctx, s, result)
	return result, nil
}

func (r *Registry) afterCommit(ctx context.Context, s *Session, result AnswerResult) {
	logger.FromContextOrDefault(ctx, r.logger).Debug("answer committed",
		slog.String("session_id", s.ID().String()),
		slog.Bool("correct", result.Correct),
		slog.Int("total_questions", result.TotalQuestions),
		slog.String("difficulty", string(result.NewDifficulty)))

	if result.SessionComplete {
		r.emitCompleted(ctx, s)
	}
}

// Requeue moves the current item to the back of the queue.
func (r *Registry) Requeue(ctx context.Context, username string, id uuid.UUID) error {
	const op = "requeue_item"

	s, release, err := r.acquire(username, id)
	if err != nil {
		return NewServiceError(op, "session lookup failed", err)
	}
	defer release()

	if err := s.Requeue(ctx); err != nil {
		return NewServiceError(op, "failed to requeue item", err)
	}
	return nil
}

// Pause pauses an active session.
func (r *Registry) Pause(ctx context.Context, username string, id uuid.UUID) (Snapshot, error) {
	s, release, err := r.acquire(username, id)
	if err != nil {
		return Snapshot{}, NewServiceError("pause_session", "session lookup failed", err)
	}
	defer release()

	snap, err := s.Pause()
	if err != nil {
		return Snapshot{}, NewServiceError("pause_session", "failed to pause session", err)
	}
	return snap, nil
}

// Resume resumes a paused session.
func (r *Registry) Resume(ctx context.Context, username string, id uuid.UUID) (Snapshot, error) {
	s, release, err := r.acquire(username, id)
	if err != nil {
		return Snapshot{}, NewServiceError("resume_session", "session lookup failed", err)
	}
	defer release()

	snap, err := s.Resume()
	if err != nil {
		return Snapshot{}, NewServiceError("resume_session", "failed to resume session", err)
	}
	return snap, nil
}

// End completes the session and returns its summary. Ending a completed
// session returns the same summary again.
func (r *Registry) End(ctx context.Context, username string, id uuid.UUID) (Summary, error) {
	s, release, err := r.acquire(username, id)
	if err != nil {
		return Summary{}, NewServiceError("end_session", "session lookup failed", err)
	}
	summary, completedNow := s.End()
	release()

	if completedNow {
		logger.FromContextOrDefault(ctx, r.logger).Info("review session ended",
			slog.String("session_id", id.String()),
			slog.Float64("final_score", summary.FinalScore),
			slog.String("mastery_level", string(summary.MasteryLevel)))
		r.emitCompleted(ctx, s)
	}
	return summary, nil
}

func (r *Registry) emitCompleted(ctx context.Context, s *Session) {
	record, ok := s.Record()
	if !ok {
		return
	}
	summary, _ := s.End()

	topics := make([]events.TopicAccuracy, 0, len(summary.Topics))
	for _, t := range summary.Topics {
		topics = append(topics, events.TopicAccuracy{
			Topic:    t.Topic,
			Subtopic: t.Subtopic,
			Attempts: t.Attempts,
			Correct:  t.Correct,
		})
	}
	r.emit(ctx, events.TypeSessionCompleted, s, events.SessionCompleted{
		Record: *record,
		Topics: topics,
	})
}

// emit publishes an event. Delivery problems are logged and never fail the
// session operation that caused them.
func (r *Registry) emit(ctx context.Context, eventType string, s *Session, payload any) {
	if r.deps.Events == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, r.logger)

	event, err := events.NewEvent(eventType, s.ID(), s.Username(), payload)
	if err != nil {
		log.Error("failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := r.deps.Events.EmitEvent(ctx, event); err != nil {
		log.Warn("event handler failed",
			slog.String("event_type", eventType),
			slog.String("session_id", s.ID().String()),
			slog.String("error", err.Error()))
	}
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep ends active sessions idle for longer than the idle timeout and
// evicts sessions completed longer than the retention window ago. Paused
// sessions are never ended by the sweep, and sessions with an operation in
// flight are skipped. It returns the number evicted and the sessions it ended.
func (r *Registry) Sweep(now time.Time) (evicted int, expired []*Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.sessions {
		if e.inflight > 0 {
			continue
		}
		state, done := e.session.sweepState()
		if done.IsZero() {
			if state == domain.SessionActive && r.opts.IdleTimeout > 0 && now.Sub(e.lastUsed) >= r.opts.IdleTimeout {
				if _, completedNow := e.session.End(); completedNow {
					expired = append(expired, e.session)
				}
			}
			continue
		}
		if now.Sub(done) >= r.opts.Retention {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted, expired
}

// Run sweeps the registry every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("session janitor started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("session janitor stopped")
			return
		case <-ticker.C:
			evicted, expired := r.Sweep(r.now())
			for _, s := range expired {
				r.emitCompleted(ctx, s)
			}
			if evicted > 0 || len(expired) > 0 {
				r.logger.Debug("swept review sessions",
					slog.Int("evicted", evicted),
					slog.Int("expired", len(expired)),
					slog.Int("remaining", r.Len()))
			}
		}
	}
}

// normalizeTopics trims, drops empty and de-duplicates topics, keeping the
// first occurrence order.
func normalizeTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
