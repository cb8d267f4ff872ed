package gemini

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"google.golang.org/genai"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// Model is the part of the genai client the generator depends on.
// *genai.Models satisfies it.
type Model interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

var _ Model = (*genai.Models)(nil)

// Generator implements generation.ContentGenerator and
// generation.AnswerEvaluator using the Gemini API.
type Generator struct {
	logger           *slog.Logger
	config           config.LLMConfig
	model            Model
	questionPrompt   *template.Template
	evaluationPrompt *template.Template
	backoff          backoff
}

var (
	_ generation.ContentGenerator = (*Generator)(nil)
	_ generation.AnswerEvaluator  = (*Generator)(nil)
)

// NewGenerator creates a Generator backed by a real Gemini client.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return NewGeneratorWithModel(logger, cfg, client.Models)
}

// NewGeneratorWithModel creates a Generator that sends requests to model.
func NewGeneratorWithModel(logger *slog.Logger, cfg config.LLMConfig, model Model) (*Generator, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: model cannot be nil", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	questionPrompt, err := template.ParseFS(promptFS, "prompts/question.tmpl")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse question prompt: %v", generation.ErrInvalidConfig, err)
	}
	evaluationPrompt, err := template.ParseFS(promptFS, "prompts/evaluation.tmpl")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse evaluation prompt: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger:           logger.With(slog.String("component", "gemini_generator")),
		config:           cfg,
		model:            model,
		questionPrompt:   questionPrompt,
		evaluationPrompt: evaluationPrompt,
		backoff:          newBackoff(cfg.RetryDelaySeconds),
	}, nil
}

// GenerateQuestion implements generation.ContentGenerator.
func (g *Generator) GenerateQuestion(
	ctx context.Context,
	req generation.QuestionRequest,
) (*generation.Question, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("%w: topic is required", generation.ErrInvalidRequest)
	}

	prompt, err := render(g.questionPrompt, questionPromptData{
		Topic:      req.Topic,
		Subtopic:   req.Subtopic,
		Difficulty: req.Difficulty,
		Type:       string(req.Type),
		Exclude:    req.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	var schema QuestionSchema
	if err := g.callWithRetry(ctx, prompt, &schema); err != nil {
		return nil, fmt.Errorf("%w: %w", generation.ErrGenerationFailed, err)
	}

	if strings.TrimSpace(schema.Question) == "" {
		return nil, fmt.Errorf("%w: %w: question text is empty",
			generation.ErrGenerationFailed, generation.ErrInvalidResponse)
	}

	return &generation.Question{
		Text:          strings.TrimSpace(schema.Question),
		Type:          questionType(schema.Type, req.Type),
		Options:       schema.Options,
		CorrectOption: schema.CorrectOption,
		Answer:        schema.Answer,
		Explanation:   schema.Explanation,
		Topic:         req.Topic,
		Subtopic:      req.Subtopic,
		Difficulty:    req.Difficulty,
	}, nil
}

// CheckAnswer implements generation.AnswerEvaluator.
func (g *Generator) CheckAnswer(
	ctx context.Context,
	question *generation.Question,
	answer string,
) (*generation.Evaluation, error) {
	if question == nil || strings.TrimSpace(question.Text) == "" {
		return nil, fmt.Errorf("%w: question is required", generation.ErrInvalidRequest)
	}

	prompt, err := render(g.evaluationPrompt, evaluationPromptData{
		Question:        question.Text,
		Options:         question.Options,
		ReferenceAnswer: question.ReferenceAnswer(),
		Answer:          strings.TrimSpace(answer),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrEvaluationFailed, err)
	}

	var schema EvaluationSchema
	if err := g.callWithRetry(ctx, prompt, &schema); err != nil {
		return nil, fmt.Errorf("%w: %w", generation.ErrEvaluationFailed, err)
	}

	return &generation.Evaluation{
		Correct:  schema.Correct,
		Score:    clamp01(schema.Score),
		Feedback: schema.Feedback,
	}, nil
}

// callWithRetry sends prompt to the model and decodes the JSON reply into out.
// Transient failures are retried up to MaxRetries times with exponential
// backoff; blocked content and malformed replies are returned immediately.
func (g *Generator) callWithRetry(ctx context.Context, prompt string, out any) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	log := logger.FromContextOrDefault(ctx, g.logger)

	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		log.Debug("calling Gemini API",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1))

		text, err := g.generate(ctx, prompt)
		if err == nil {
			if err = decodeJSON(text, out); err == nil {
				return nil
			}
		}
		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
		if !isTransient(err) {
			log.Warn("permanent error from Gemini API, not retrying",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()))
			return err
		}
		if attempt == maxRetries {
			break
		}

		delay := g.backoff.delay(attempt)
		log.Info("retrying Gemini API call after delay",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		if err := g.backoff.wait(ctx, delay); err != nil {
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
	}

	log.Warn("maximum Gemini retry attempts reached", slog.Int("max_retries", maxRetries))
	return fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
		generation.ErrTransientFailure, maxRetries, lastErr)
}

// generate performs a single request and returns the concatenated text of
// the first candidate.
func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	if g.config.RequestTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, seconds(g.config.RequestTimeoutSeconds))
		defer cancel()
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	resp, err := g.model.GenerateContent(ctx, g.config.ModelName, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", err
	}

	switch {
	case resp == nil:
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	case resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "":
		return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	case len(resp.Candidates) == 0:
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	case resp.Candidates[0].FinishReason == genai.FinishReasonSafety:
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	case resp.Candidates[0].Content == nil:
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

// isTransient reports whether a failed call is worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return transientStatus(apiErrPtr.Code)
	}

	// Network failures and per-request timeouts.
	return true
}

func transientStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}

// decodeJSON unmarshals the model's reply, tolerating a Markdown code fence.
func decodeJSON(text string, out any) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	if text == "" {
		return fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}
	return nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

func questionType(got string, requested generation.QuestionType) generation.QuestionType {
	switch t := generation.QuestionType(strings.ToLower(strings.TrimSpace(got))); t {
	case generation.QuestionConceptual, generation.QuestionAnalytical,
		generation.QuestionApplication, generation.QuestionSynthesis:
		return t
	}
	if requested != "" {
		return requested
	}
	return generation.QuestionConceptual
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
