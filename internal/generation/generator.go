package generation

import (
	"context"

	"github.com/phrazzld/scry-tutor/internal/domain"
)

// QuestionType is the cognitive style of a practice question.
type QuestionType string

// Question types
const (
	QuestionConceptual  QuestionType = "conceptual"
	QuestionAnalytical  QuestionType = "analytical"
	QuestionApplication QuestionType = "application"
	QuestionSynthesis   QuestionType = "synthesis"
)

// QuestionRequest describes the question to generate.
type QuestionRequest struct {
	Topic      string
	Subtopic   string
	Difficulty domain.Difficulty
	Type       QuestionType
	// Exclude lists question texts already asked; the generator should
	// produce something different.
	Exclude []string
}

// Question is a generated practice question.
type Question struct {
	Text          string            `json:"text"`
	Type          QuestionType      `json:"type"`
	Options       []string          `json:"options,omitempty"`
	CorrectOption string            `json:"correct_option,omitempty"`
	Answer        string            `json:"answer,omitempty"`
	Explanation   string            `json:"explanation,omitempty"`
	Topic         string            `json:"topic"`
	Subtopic      string            `json:"subtopic,omitempty"`
	Difficulty    domain.Difficulty `json:"difficulty"`
}

// ReferenceAnswer returns the best available model answer, or "".
func (q *Question) ReferenceAnswer() string {
	switch {
	case q.Answer != "":
		return q.Answer
	case q.CorrectOption != "":
		return q.CorrectOption
	default:
		return q.Explanation
	}
}

// Evaluation is the grade of one answer.
type Evaluation struct {
	Correct  bool    `json:"correct"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// ContentGenerator produces practice questions.
type ContentGenerator interface {
	// GenerateQuestion returns a new question for the request.
	// Errors wrap ErrGenerationFailed or one of the more specific errors
	// in this package.
	GenerateQuestion(ctx context.Context, req QuestionRequest) (*Question, error)
}

// AnswerEvaluator grades a learner's answer to a question.
type AnswerEvaluator interface {
	// CheckAnswer grades answer. Errors wrap ErrEvaluationFailed or one of
	// the more specific errors in this package.
	CheckAnswer(ctx context.Context, question *Question, answer string) (*Evaluation, error)
}
