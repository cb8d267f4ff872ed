package srs

import (
	"errors"

	"github.com/phrazzld/scry-tutor/internal/domain"
)

// ErrInvalidParams is returned when a Params value cannot drive the scheduler.
var ErrInvalidParams = errors.New("invalid SRS parameters")

// Params defines all configurable parameters for the SM-2 scheduler
type Params struct {
	// Easiness factor floor; there is no ceiling
	MinEaseFactor float64

	// Interval used after the first and second consecutive successful recall
	FirstInterval  int
	SecondInterval int

	// Interval used after a failed recall
	LapseInterval int

	// Coefficients of EF' = EF + (Base - (5-q) * (Linear + (5-q) * Quadratic))
	EaseBase      float64
	EaseLinear    float64
	EaseQuadratic float64
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	MinEaseFactor  float64
	FirstInterval  int
	SecondInterval int
	LapseInterval  int
}

// NewDefaultParams creates a new Params instance with the classic SM-2 values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:  domain.MinEaseFactor,
		FirstInterval:  1,
		SecondInterval: 6,
		LapseInterval:  1,
		EaseBase:       0.1,
		EaseLinear:     0.08,
		EaseQuadratic:  0.02,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero values in config keep the defaults.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.LapseInterval > 0 {
		params.LapseInterval = config.LapseInterval
	}

	return params
}

// Validate checks that the intervals are positive and the floor is sane.
func (p *Params) Validate() error {
	if p.MinEaseFactor <= 1.0 {
		return errors.Join(ErrInvalidParams, errors.New("min ease factor must be greater than 1.0"))
	}
	if p.FirstInterval < 1 || p.SecondInterval < 1 || p.LapseInterval < 1 {
		return errors.Join(ErrInvalidParams, errors.New("intervals must be at least 1 day"))
	}
	return nil
}
