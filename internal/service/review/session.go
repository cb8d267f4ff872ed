package review

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/deck"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/generation"
)

// Snapshot is a read-only view of a session.
type Snapshot struct {
	SessionID          uuid.UUID           `json:"session_id"`
	Username           string              `json:"username"`
	Mode               domain.Mode         `json:"mode"`
	Topics             []string            `json:"topics"`
	State              domain.SessionState `json:"session_state"`
	TotalQuestions     int                 `json:"total_questions"`
	TotalCorrect       int                 `json:"total_correct"`
	ConsecutiveCorrect int                 `json:"consecutive_correct"`
	ConsecutiveWrong   int                 `json:"consecutive_wrong"`
	Difficulty         domain.Difficulty   `json:"difficulty"`
	CurrentTopic       string              `json:"current_topic"`
	MaxQuestions       int                 `json:"max_questions"`
	RemainingItems     int                 `json:"remaining_items"`
	HasCurrentItem     bool                `json:"has_current_item"`
	CreatedAt          time.Time           `json:"created_at"`
}

// AnswerResult reports the session counters after an answer is committed.
type AnswerResult struct {
	Correct            bool              `json:"correct"`
	Score              float64           `json:"score"`
	Feedback           string            `json:"feedback,omitempty"`
	TotalQuestions     int               `json:"total_questions"`
	TotalCorrect       int               `json:"total_correct"`
	ConsecutiveCorrect int               `json:"consecutive_correct"`
	ConsecutiveWrong   int               `json:"consecutive_wrong"`
	NewDifficulty      domain.Difficulty `json:"new_difficulty"`
	SessionComplete    bool              `json:"session_complete"`
	Card               *domain.Flashcard `json:"card,omitempty"`
	Summary            *Summary          `json:"summary,omitempty"`

	// answered is the committed item and askedAt the difficulty it was
	// answered at; the registry uses them for events.
	answered DueItem
	askedAt  domain.Difficulty
}

// Summary is the outcome of a completed session.
type Summary struct {
	SessionID       uuid.UUID           `json:"session_id"`
	FinalScore      float64             `json:"final_score"`
	TotalQuestions  int                 `json:"total_questions"`
	TotalCorrect    int                 `json:"total_correct"`
	MasteryLevel    domain.MasteryLevel `json:"mastery_level"`
	FinalDifficulty domain.Difficulty   `json:"final_difficulty"`
	Topics          []TopicResult       `json:"topics"`
	StartedAt       time.Time           `json:"started_at"`
	EndedAt         time.Time           `json:"ended_at"`
}

// TopicResult counts answers per (topic, subtopic) within a session.
type TopicResult struct {
	Topic    string `json:"topic"`
	Subtopic string `json:"subtopic,omitempty"`
	Attempts int    `json:"attempts"`
	Correct  int    `json:"correct"`
}

// Accuracy returns Correct / Attempts, or 0 when nothing was attempted.
func (r TopicResult) Accuracy() float64 {
	if r.Attempts == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Attempts)
}

type topicKey struct {
	topic, subtopic string
}

// collaborators are the dependencies a session calls.
type collaborators struct {
	generator   generation.ContentGenerator
	evaluator   generation.AnswerEvaluator
	callTimeout time.Duration
	now         func() time.Time
}

// Session is one review session. All methods are safe for concurrent use.
//
// Generator and evaluator calls run without the session lock. While one is
// in flight, operations that change the queue wait for it; reads, pause and
// end do not. A call whose session stopped being active in the meantime has
// its result discarded.
//
// The head of the queue is the current item once drawn; it is removed only
// when an answer for it is committed.
type Session struct {
	mu sync.Mutex
	// inflight is closed when the running collaborator call finishes; nil
	// when none runs.
	inflight chan struct{}

	id        uuid.UUID
	username  string
	mode      domain.Mode
	topics    []string
	createdAt time.Time

	queue   []DueItem
	drawn   bool
	decks   map[string]*deck.Deck
	asked   map[string][]string
	results map[topicKey]*TopicResult

	totalQuestions     int
	totalCorrect       int
	consecutiveCorrect int
	consecutiveWrong   int
	difficulty         domain.Difficulty
	maxQuestions       int
	state              domain.SessionState
	summary            *Summary

	deps collaborators
}

// newSession builds an active session. decks maps topic to deck for every
// flashcard in items.
func newSession(
	username string,
	mode domain.Mode,
	topics []string,
	items []DueItem,
	decks map[string]*deck.Deck,
	difficulty domain.Difficulty,
	maxQuestions int,
	deps collaborators,
) *Session {
	if decks == nil {
		decks = map[string]*deck.Deck{}
	}
	return &Session{
		id:           uuid.New(),
		username:     username,
		mode:         mode,
		topics:       topics,
		createdAt:    deps.now(),
		queue:        items,
		decks:        decks,
		asked:        map[string][]string{},
		results:      map[topicKey]*TopicResult{},
		difficulty:   difficulty,
		maxQuestions: maxQuestions,
		state:        domain.SessionActive,
		deps:         deps,
	}
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID { return s.id }

// Username returns the owner of the session.
func (s *Session) Username() string { return s.username }

// Next returns the current item, drawing the head of the queue if nothing is
// drawn yet. Question text is generated on the first draw only; every later
// call returns the identical item until an answer is committed. A failed
// generation leaves the session unchanged.
func (s *Session) Next(ctx context.Context) (DueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.waitIdle(ctx); err != nil {
		return DueItem{}, err
	}
	if s.state != domain.SessionActive {
		return DueItem{}, ErrSessionNotActive
	}
	if len(s.queue) == 0 {
		return DueItem{}, ErrNoItemsDue
	}
	if s.drawn {
		return s.queue[0].clone(), nil
	}

	head := s.queue[0].clone()
	if head.Kind == KindQuestion {
		req := s.questionRequest(head.Question)
		done := s.begin()
		s.mu.Unlock()
		q, err := s.generate(ctx, req)
		s.mu.Lock()
		done()

		if err != nil {
			return DueItem{}, err
		}
		if s.state != domain.SessionActive {
			return DueItem{}, ErrSessionNotActive
		}
		head.Question.Generated = q
		s.asked[head.Question.Topic] = append(s.asked[head.Question.Topic], q.Text)
	}

	s.queue[0] = head
	s.drawn = true
	return head.clone(), nil
}

// questionRequest builds the generation request for item at the current
// difficulty. Callers hold s.mu.
func (s *Session) questionRequest(item *QuestionItem) generation.QuestionRequest {
	exclude := slices.Clone(item.Exclude)
	for _, text := range s.asked[item.Topic] {
		if !slices.Contains(exclude, text) {
			exclude = append(exclude, text)
		}
	}
	return generation.QuestionRequest{
		Topic:      item.Topic,
		Subtopic:   item.Subtopic,
		Difficulty: s.difficulty,
		Exclude:    exclude,
	}
}

// generate runs without s.mu.
func (s *Session) generate(ctx context.Context, req generation.QuestionRequest) (*generation.Question, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	q, err := s.deps.generator.GenerateQuestion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}
	if q == nil {
		return nil, fmt.Errorf("%w: generator returned no question", ErrGenerationFailure)
	}
	return q, nil
}

// SubmitAnswer grades answer for the current question and commits it.
// A failed evaluation leaves the session unchanged.
func (s *Session) SubmitAnswer(ctx context.Context, answer string) (AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.waitIdle(ctx); err != nil {
		return AnswerResult{}, err
	}
	item, err := s.currentOf(KindQuestion)
	if err != nil {
		return AnswerResult{}, err
	}

	done := s.begin()
	s.mu.Unlock()
	eval, err := s.evaluate(ctx, item.Question.Generated, answer)
	s.mu.Lock()
	done()

	if err != nil {
		return AnswerResult{}, err
	}
	if s.state != domain.SessionActive {
		return AnswerResult{}, ErrSessionNotActive
	}

	result := s.commit(item, eval.Correct)
	result.Score = eval.Score
	result.Feedback = eval.Feedback
	return result, nil
}

// evaluate runs without s.mu.
func (s *Session) evaluate(ctx context.Context, q *generation.Question, answer string) (*generation.Evaluation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	eval, err := s.deps.evaluator.CheckAnswer(ctx, q, answer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluationFailure, err)
	}
	if eval == nil {
		return nil, fmt.Errorf("%w: evaluator returned no result", ErrEvaluationFailure)
	}
	return eval, nil
}

// begin marks a collaborator call in flight and returns the function that
// clears the mark. Both are called with s.mu held.
func (s *Session) begin() (done func()) {
	ch := make(chan struct{})
	s.inflight = ch
	return func() {
		s.inflight = nil
		close(ch)
	}
}

// waitIdle blocks until no collaborator call is in flight. Callers hold
// s.mu, which is released while waiting and held again on return.
func (s *Session) waitIdle(ctx context.Context) error {
	for s.inflight != nil {
		ch := s.inflight
		s.mu.Unlock()
		select {
		case <-ch:
			s.mu.Lock()
		case <-ctx.Done():
			s.mu.Lock()
			return ctx.Err()
		}
	}
	return nil
}

// SubmitFlashcardAnswer studies the current flashcard with quality q and
// commits it. Quality 3 and above counts as correct. The deck update runs
// under the session lock so a study is never left uncommitted.
func (s *Session) SubmitFlashcardAnswer(ctx context.Context, q domain.Quality) (AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.waitIdle(ctx); err != nil {
		return AnswerResult{}, err
	}

	item, err := s.currentOf(KindFlashcard)
	if err != nil {
		return AnswerResult{}, err
	}
	if !q.Valid() {
		return AnswerResult{}, fmt.Errorf("%w: %d", domain.ErrInvalidQuality, q)
	}

	d, ok := s.decks[item.Flashcard.Topic]
	if !ok {
		return AnswerResult{}, fmt.Errorf("%w: %s", domain.ErrCardNotFound, item.Flashcard.CardID)
	}
	card, err := d.StudyCard(ctx, item.Flashcard.CardID, q, s.deps.now())
	if err != nil {
		return AnswerResult{}, err
	}

	result := s.commit(item, q.IsCorrect())
	result.Card = card
	result.Score = float64(q) / float64(domain.QualityMax)
	return result, nil
}

// currentOf returns the drawn item when it has the given kind.
func (s *Session) currentOf(kind ItemKind) (DueItem, error) {
	if s.state != domain.SessionActive {
		return DueItem{}, ErrSessionNotActive
	}
	if !s.drawn || len(s.queue) == 0 {
		return DueItem{}, ErrNoCurrentItem
	}
	item := s.queue[0]
	if item.Kind != kind {
		return DueItem{}, fmt.Errorf("%w: current item is a %s", ErrWrongItemKind, item.Kind)
	}
	return item, nil
}

// commit records an answer for the current item and removes it from the
// queue. Callers hold s.mu and have checked that an item is drawn.
func (s *Session) commit(item DueItem, correct bool) AnswerResult {
	askedAt := s.difficulty

	s.totalQuestions++
	if correct {
		s.totalCorrect++
		s.consecutiveCorrect++
		s.consecutiveWrong = 0
	} else {
		s.consecutiveWrong++
		s.consecutiveCorrect = 0
	}

	next, reset := domain.NextDifficulty(s.difficulty, s.consecutiveCorrect, s.consecutiveWrong)
	s.difficulty = next
	switch reset {
	case domain.ResetWrong:
		s.consecutiveWrong = 0
	case domain.ResetCorrect:
		s.consecutiveCorrect = 0
	}

	key := topicKey{topic: item.Topic(), subtopic: item.Subtopic()}
	r, ok := s.results[key]
	if !ok {
		r = &TopicResult{Topic: key.topic, Subtopic: key.subtopic}
		s.results[key] = r
	}
	r.Attempts++
	if correct {
		r.Correct++
	}

	s.queue[0] = DueItem{}
	s.queue = s.queue[1:]
	s.drawn = false

	result := AnswerResult{
		Correct:            correct,
		TotalQuestions:     s.totalQuestions,
		TotalCorrect:       s.totalCorrect,
		ConsecutiveCorrect: s.consecutiveCorrect,
		ConsecutiveWrong:   s.consecutiveWrong,
		NewDifficulty:      s.difficulty,
		answered:           item.clone(),
		askedAt:            askedAt,
	}

	if s.totalQuestions >= s.maxQuestions || len(s.queue) == 0 {
		summary := s.complete()
		result.SessionComplete = true
		result.Summary = &summary
	}
	return result
}

// Requeue moves the current item to the back of the queue without counting
// it. A generated question is dropped; its text stays excluded.
func (s *Session) Requeue(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.waitIdle(ctx); err != nil {
		return err
	}

	if s.state != domain.SessionActive {
		return ErrSessionNotActive
	}
	if !s.drawn || len(s.queue) == 0 {
		return ErrNoCurrentItem
	}

	head := s.queue[0].clone()
	if head.Kind == KindQuestion {
		head.Question.Generated = nil
	}
	s.queue = append(s.queue[1:], head)
	s.drawn = false
	return nil
}

// Pause moves an active session to paused. The current item is kept.
func (s *Session) Pause() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.SessionActive {
		return Snapshot{}, fmt.Errorf("%w: cannot pause a %s session", ErrInvalidTransition, s.state)
	}
	s.state = domain.SessionPaused
	return s.snapshot(), nil
}

// Resume moves a paused session back to active.
func (s *Session) Resume() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.SessionPaused {
		return Snapshot{}, fmt.Errorf("%w: cannot resume a %s session", ErrInvalidTransition, s.state)
	}
	s.state = domain.SessionActive
	return s.snapshot(), nil
}

// End completes the session and returns its summary. Ending a completed
// session returns the original summary; completedNow reports whether this
// call did the transition.
func (s *Session) End() (summary Summary, completedNow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.summary != nil {
		return s.summary.clone(), false
	}
	return s.complete(), true
}

// complete transitions to completed and fixes the summary. Callers hold s.mu.
func (s *Session) complete() Summary {
	s.state = domain.SessionCompleted
	s.drawn = false

	score := float64(s.totalCorrect) / float64(max(s.totalQuestions, 1))
	s.summary = &Summary{
		SessionID:       s.id,
		FinalScore:      score,
		TotalQuestions:  s.totalQuestions,
		TotalCorrect:    s.totalCorrect,
		MasteryLevel:    domain.MasteryFor(score),
		FinalDifficulty: s.difficulty,
		Topics:          s.topicResults(),
		StartedAt:       s.createdAt,
		EndedAt:         s.deps.now(),
	}
	return s.summary.clone()
}

func (sum *Summary) clone() Summary {
	out := *sum
	out.Topics = slices.Clone(sum.Topics)
	return out
}

func (s *Session) topicResults() []TopicResult {
	out := make([]TopicResult, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b TopicResult) int {
		return cmp.Or(cmp.Compare(a.Topic, b.Topic), cmp.Compare(a.Subtopic, b.Subtopic))
	})
	return out
}

// Snapshot returns a read-only copy of the session's state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	current := ""
	if len(s.queue) > 0 {
		current = s.queue[0].Topic()
	}
	return Snapshot{
		SessionID:          s.id,
		Username:           s.username,
		Mode:               s.mode,
		Topics:             slices.Clone(s.topics),
		State:              s.state,
		TotalQuestions:     s.totalQuestions,
		TotalCorrect:       s.totalCorrect,
		ConsecutiveCorrect: s.consecutiveCorrect,
		ConsecutiveWrong:   s.consecutiveWrong,
		Difficulty:         s.difficulty,
		CurrentTopic:       current,
		MaxQuestions:       s.maxQuestions,
		RemainingItems:     len(s.queue),
		HasCurrentItem:     s.drawn,
		CreatedAt:          s.createdAt,
	}
}

// Record returns the persisted form of a completed session, or false while
// the session is still open.
func (s *Session) Record() (*domain.SessionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.summary == nil {
		return nil, false
	}
	return &domain.SessionRecord{
		SessionID:      s.id,
		Username:       s.username,
		Mode:           s.mode,
		Topics:         slices.Clone(s.topics),
		TotalQuestions: s.summary.TotalQuestions,
		TotalCorrect:   s.summary.TotalCorrect,
		FinalScore:     s.summary.FinalScore,
		Mastery:        s.summary.MasteryLevel,
		FinalLevel:     s.summary.FinalDifficulty,
		StartedAt:      s.summary.StartedAt,
		EndedAt:        s.summary.EndedAt,
	}, true
}

// sweepState returns the session state and, once completed, when it ended.
func (s *Session) sweepState() (domain.SessionState, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return s.state, time.Time{}
	}
	return s.state, s.summary.EndedAt
}

func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.deps.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.deps.callTimeout)
}
