package generation

import (
	"context"
	"fmt"
	"strings"
)

// fallbackTemplates are tried in order until one produces a question that
// is not in the request's exclude list.
var fallbackTemplates = []struct {
	qtype  QuestionType
	format string
}{
	{QuestionConceptual, "What do you know about %s?"},
	{QuestionConceptual, "Explain the key ideas behind %s in your own words."},
	{QuestionApplication, "Describe a practical situation where %s applies."},
	{QuestionAnalytical, "What are common mistakes or misconceptions about %s?"},
	{QuestionSynthesis, "How does %s relate to other concepts you have studied?"},
}

// dontKnowAnswers are treated as an explicit "I don't know".
var dontKnowAnswers = map[string]struct{}{
	"":             {},
	"?":            {},
	"idk":          {},
	"i dont know":  {},
	"i don't know": {},
	"no idea":      {},
	"pass":         {},
}

// MinSelfGradedWords is the shortest free-text answer the fallback
// evaluator accepts when the question carries no reference answer.
const MinSelfGradedWords = 3

// Fallback is a ContentGenerator and AnswerEvaluator that needs no
// language model. Questions come from fixed templates; answers are graded
// against the reference answer when one exists, and otherwise any
// substantive attempt counts as correct.
type Fallback struct{}

var (
	_ ContentGenerator = Fallback{}
	_ AnswerEvaluator  = Fallback{}
)

// NewFallback returns the fallback generator and evaluator.
func NewFallback() Fallback {
	return Fallback{}
}

// GenerateQuestion implements ContentGenerator.
func (Fallback) GenerateQuestion(ctx context.Context, req QuestionRequest) (*Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}

	subject := req.Topic
	if req.Subtopic != "" {
		subject = fmt.Sprintf("%s (%s)", req.Subtopic, req.Topic)
	}

	excluded := make(map[string]struct{}, len(req.Exclude))
	for _, e := range req.Exclude {
		excluded[normalize(e)] = struct{}{}
	}

	chosen := fallbackTemplates[0]
	for _, tmpl := range fallbackTemplates {
		if req.Type != "" && tmpl.qtype != req.Type {
			continue
		}
		if _, seen := excluded[normalize(fmt.Sprintf(tmpl.format, subject))]; !seen {
			chosen = tmpl
			break
		}
	}

	return &Question{
		Text:       fmt.Sprintf(chosen.format, subject),
		Type:       chosen.qtype,
		Topic:      req.Topic,
		Subtopic:   req.Subtopic,
		Difficulty: req.Difficulty,
	}, nil
}

// CheckAnswer implements AnswerEvaluator.
func (Fallback) CheckAnswer(ctx context.Context, question *Question, answer string) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
	}
	if question == nil {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidRequest)
	}

	given := normalize(answer)
	if _, ok := dontKnowAnswers[given]; ok {
		hint := "Review the material for this topic and try again."
		if ref := question.ReferenceAnswer(); ref != "" {
			hint = "The expected answer was: " + ref
		}
		return &Evaluation{Correct: false, Score: 0, Feedback: hint}, nil
	}

	if question.CorrectOption != "" {
		if given == normalize(question.CorrectOption) {
			return &Evaluation{Correct: true, Score: 1, Feedback: "Correct."}, nil
		}
		return &Evaluation{
			Correct:  false,
			Score:    0,
			Feedback: "Incorrect. The correct option is: " + question.CorrectOption,
		}, nil
	}

	if question.Answer != "" {
		ref := normalize(question.Answer)
		if strings.Contains(given, ref) {
			return &Evaluation{Correct: true, Score: 1, Feedback: "Correct."}, nil
		}
		return &Evaluation{
			Correct:  false,
			Score:    0,
			Feedback: "Not quite. The expected answer was: " + question.Answer,
		}, nil
	}

	if len(strings.Fields(given)) < MinSelfGradedWords {
		return &Evaluation{
			Correct:  false,
			Score:    0.25,
			Feedback: "Try to give a fuller explanation.",
		}, nil
	}
	return &Evaluation{Correct: true, Score: 0.75, Feedback: "Good attempt."}, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
