package gemini

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// defaultRetryDelaySeconds applies when the configured delay is negative.
const defaultRetryDelaySeconds = 2

// backoff computes retry delays: base * 2^attempt * (0.5 + jitter/2).
type backoff struct {
	base   time.Duration
	jitter func() float64
	wait   func(ctx context.Context, d time.Duration) error
}

func newBackoff(delaySeconds int) backoff {
	if delaySeconds < 0 {
		delaySeconds = defaultRetryDelaySeconds
	}
	return backoff{
		base:   seconds(delaySeconds),
		jitter: rand.Float64,
		wait:   sleepContext,
	}
}

func (b backoff) delay(attempt int) time.Duration {
	factor := math.Pow(2, float64(attempt)) * (0.5 + b.jitter()*0.5)
	return time.Duration(float64(b.base) * factor)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
