package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/scry-tutor/internal/generation"
)

// MockContentGenerator implements generation.ContentGenerator for testing
type MockContentGenerator struct {
	// GenerateQuestionFn allows test cases to mock the GenerateQuestion behavior
	GenerateQuestionFn func(ctx context.Context, req generation.QuestionRequest) (*generation.Question, error)

	// Default response values
	Question *generation.Question
	Err      error

	mu       sync.Mutex
	requests []generation.QuestionRequest
}

var _ generation.ContentGenerator = (*MockContentGenerator)(nil)

// GenerateQuestion implements generation.ContentGenerator
func (m *MockContentGenerator) GenerateQuestion(
	ctx context.Context,
	req generation.QuestionRequest,
) (*generation.Question, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateQuestionFn != nil {
		return m.GenerateQuestionFn(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Question != nil {
		q := *m.Question
		return &q, nil
	}
	return &generation.Question{
		Text:       "What do you know about " + req.Topic + "?",
		Type:       generation.QuestionConceptual,
		Topic:      req.Topic,
		Subtopic:   req.Subtopic,
		Difficulty: req.Difficulty,
	}, nil
}

// Calls returns the number of GenerateQuestion calls.
func (m *MockContentGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request received.
func (m *MockContentGenerator) Requests() []generation.QuestionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.QuestionRequest(nil), m.requests...)
}

// MockAnswerEvaluator implements generation.AnswerEvaluator for testing
type MockAnswerEvaluator struct {
	// CheckAnswerFn allows test cases to mock the CheckAnswer behavior
	CheckAnswerFn func(ctx context.Context, q *generation.Question, answer string) (*generation.Evaluation, error)

	// Default response values
	Evaluation *generation.Evaluation
	Err        error

	mu      sync.Mutex
	answers []string
}

var _ generation.AnswerEvaluator = (*MockAnswerEvaluator)(nil)

// CheckAnswer implements generation.AnswerEvaluator
func (m *MockAnswerEvaluator) CheckAnswer(
	ctx context.Context,
	q *generation.Question,
	answer string,
) (*generation.Evaluation, error) {
	m.mu.Lock()
	m.answers = append(m.answers, answer)
	m.mu.Unlock()

	if m.CheckAnswerFn != nil {
		return m.CheckAnswerFn(ctx, q, answer)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Evaluation != nil {
		e := *m.Evaluation
		return &e, nil
	}
	return &generation.Evaluation{Correct: true, Score: 1, Feedback: "Correct."}, nil
}

// Calls returns the number of CheckAnswer calls.
func (m *MockAnswerEvaluator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.answers)
}
