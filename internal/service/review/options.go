package review

import (
	"fmt"
	"time"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/domain"
)

// Default option values, used for zero fields.
const (
	DefaultMaxQuestions      = 10
	DefaultFallbackQuestions = 3
	DefaultTopic             = "general"
	DefaultRetention         = 30 * time.Minute
)

// Options tune a Registry.
type Options struct {
	DefaultMaxQuestions int
	FallbackQuestions   int
	DefaultTopic        string
	InitialDifficulty   domain.Difficulty

	// Retention is how long a completed session stays readable.
	Retention time.Duration
	// IdleTimeout ends sessions untouched for this long. Zero disables it.
	IdleTimeout time.Duration
	// CallTimeout bounds each generator and evaluator call, retries included.
	// Zero means no bound.
	CallTimeout time.Duration
}

// OptionsFromConfig builds Options from the review and LLM settings.
func OptionsFromConfig(review config.ReviewConfig, llm config.LLMConfig) (Options, error) {
	difficulty, err := domain.ParseDifficulty(review.InitialDifficulty)
	if err != nil {
		return Options{}, fmt.Errorf("invalid initial difficulty: %w", err)
	}
	return Options{
		DefaultMaxQuestions: review.DefaultMaxQuestions,
		FallbackQuestions:   review.FallbackQuestions,
		DefaultTopic:        review.DefaultTopic,
		InitialDifficulty:   difficulty,
		Retention:           time.Duration(review.RetentionMinutes) * time.Minute,
		IdleTimeout:         time.Duration(review.IdleTimeoutMinutes) * time.Minute,
		CallTimeout:         callBudget(llm),
	}, nil
}

// callBudget is the longest a retrying LLM call can take: every attempt
// running to the request timeout plus the largest backoff between attempts,
// base * (2^retries - 1).
func callBudget(llm config.LLMConfig) time.Duration {
	if llm.RequestTimeoutSeconds <= 0 {
		return 0
	}
	retries := max(llm.MaxRetries, 0)
	perAttempt := time.Duration(llm.RequestTimeoutSeconds) * time.Second
	backoff := time.Duration(max(llm.RetryDelaySeconds, 0)) * time.Second * time.Duration(1<<retries-1)
	return perAttempt*time.Duration(retries+1) + backoff
}

func (o Options) withDefaults() Options {
	if o.DefaultMaxQuestions <= 0 {
		o.DefaultMaxQuestions = DefaultMaxQuestions
	}
	if o.FallbackQuestions <= 0 {
		o.FallbackQuestions = DefaultFallbackQuestions
	}
	if o.DefaultTopic == "" {
		o.DefaultTopic = DefaultTopic
	}
	if o.InitialDifficulty == "" {
		o.InitialDifficulty = domain.DifficultyMedium
	}
	if o.Retention <= 0 {
		o.Retention = DefaultRetention
	}
	return o
}
