package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/scry-tutor/internal/domain"
)

// Common errors
var (
	ErrNilCard = errors.New("flashcard cannot be nil")
)

// Service defines the interface for SM-2 scheduling operations
type Service interface {
	// Schedule computes the card's next schedule for a review of quality q.
	// It returns a new card and leaves the input untouched.
	Schedule(card *domain.Flashcard, q domain.Quality, now time.Time) (*domain.Flashcard, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

var _ Service = (*defaultService)(nil)

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return nil, ErrInvalidParams
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{
		params: params,
	}, nil
}

// Schedule implements the Service interface
func (s *defaultService) Schedule(
	card *domain.Flashcard,
	q domain.Quality,
	now time.Time,
) (*domain.Flashcard, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	if !q.Valid() {
		return nil, domain.ErrInvalidQuality
	}

	return calculateNextSchedule(card, q, now, s.params), nil
}
