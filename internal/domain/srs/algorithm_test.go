package srs

import (
	"testing"
	"time"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCalculateNewEaseFactor(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		current  float64
		quality  domain.Quality
		expected float64
	}{
		{name: "perfect recall raises ease", current: 2.5, quality: 5, expected: 2.6},
		{name: "quality four keeps ease", current: 2.5, quality: 4, expected: 2.5},
		{name: "quality three lowers ease", current: 2.5, quality: 3, expected: 2.36},
		{name: "quality two lowers ease", current: 2.5, quality: 2, expected: 2.18},
		{name: "blackout lowers ease most", current: 2.5, quality: 0, expected: 1.7},
		{name: "floor holds at minimum", current: 1.3, quality: 0, expected: 1.3},
		{name: "floor clamps overshoot", current: 1.4, quality: 1, expected: 1.3},
		{name: "no ceiling", current: 3.0, quality: 5, expected: 3.1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := calculateNewEaseFactor(tc.current, tc.quality, params)
			assert.InDelta(t, tc.expected, got, 1e-9)
		})
	}
}

func TestCalculateNewInterval(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name       string
		repetition int
		previous   int
		ef         float64
		expected   int
	}{
		{name: "first success", repetition: 1, previous: 0, ef: 2.5, expected: 1},
		{name: "second success", repetition: 2, previous: 1, ef: 2.5, expected: 6},
		{name: "third success grows by ease", repetition: 3, previous: 6, ef: 2.5, expected: 15},
		{name: "rounds to nearest day", repetition: 4, previous: 16, ef: 1.3, expected: 21},
		{name: "never below one day", repetition: 3, previous: 0, ef: 1.3, expected: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, calculateNewInterval(tc.repetition, tc.previous, tc.ef, params))
		})
	}
}

func TestCalculateNextSchedule_Sequence(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	card, err := domain.NewFlashcard("go", "", "front", "back", start)
	assert.NoError(t, err)

	steps := []struct {
		quality      domain.Quality
		wantRep      int
		wantInterval int
		wantEF       float64
	}{
		{quality: 4, wantRep: 1, wantInterval: 1, wantEF: 2.5},
		{quality: 4, wantRep: 2, wantInterval: 6, wantEF: 2.5},
		{quality: 4, wantRep: 3, wantInterval: 15, wantEF: 2.5},
		{quality: 5, wantRep: 4, wantInterval: 39, wantEF: 2.6},
		{quality: 1, wantRep: 0, wantInterval: 1, wantEF: 2.06},
		{quality: 3, wantRep: 1, wantInterval: 1, wantEF: 1.92},
	}

	now := start
	for i, step := range steps {
		next := calculateNextSchedule(card, step.quality, now, params)

		assert.Equal(t, step.wantRep, next.RepetitionCount, "step %d repetition", i)
		assert.Equal(t, step.wantInterval, next.IntervalDays, "step %d interval", i)
		assert.InDelta(t, step.wantEF, next.EasinessFactor, 1e-9, "step %d ease", i)
		assert.True(t, next.LastReviewedAt.Equal(now), "step %d last reviewed", i)
		assert.True(t, next.NextReviewAt.Equal(now.AddDate(0, 0, step.wantInterval)), "step %d next review", i)

		card = next
		now = next.NextReviewAt
	}
}

func TestCalculateNextSchedule_Immutability(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	card, err := domain.NewFlashcard("go", "", "front", "back", now)
	assert.NoError(t, err)
	original := *card

	_ = calculateNextSchedule(card, 5, now.Add(time.Hour), NewDefaultParams())

	assert.Equal(t, original, *card)
}

func TestCalculateNextSchedule_MonotonicUnderSuccess(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for q := domain.Quality(3); q <= 5; q++ {
		card, err := domain.NewFlashcard("go", "", "front", "back", now)
		assert.NoError(t, err)

		previous := card.IntervalDays
		for i := 0; i < 12; i++ {
			card = calculateNextSchedule(card, q, now, params)
			assert.GreaterOrEqual(t, card.IntervalDays, previous, "quality %d review %d", q, i)
			assert.GreaterOrEqual(t, card.EasinessFactor, params.MinEaseFactor)
			previous = card.IntervalDays
		}
	}
}

func TestCalculateNextSchedule_FloorUnderRepeatedFailure(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	card, err := domain.NewFlashcard("go", "", "front", "back", now)
	assert.NoError(t, err)

	for i := 0; i < 20; i++ {
		card = calculateNextSchedule(card, domain.Quality(i%3), now, params)
		assert.GreaterOrEqual(t, card.EasinessFactor, params.MinEaseFactor)
		assert.Equal(t, 0, card.RepetitionCount)
		assert.Equal(t, 1, card.IntervalDays)
	}
	assert.InDelta(t, params.MinEaseFactor, card.EasinessFactor, 1e-9)
}
