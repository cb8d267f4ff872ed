package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-tutor/internal/domain"
)

// calculateNewEaseFactor applies the SM-2 easiness update for quality q.
//
// Perfect recall (5) raises EF by 0.1, quality 4 leaves it unchanged, and
// lower qualities reduce it progressively. The result never drops below
// params.MinEaseFactor. There is no upper bound.
func calculateNewEaseFactor(currentEF float64, q domain.Quality, params *Params) float64 {
	miss := float64(domain.QualityMax - q)
	newEF := currentEF + (params.EaseBase - miss*(params.EaseLinear+miss*params.EaseQuadratic))

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateNewInterval returns the next interval in days.
//
// repetition is the repetition count after this review has been applied.
// The first success yields FirstInterval, the second SecondInterval, and
// after that the previous interval grows by the easiness factor, rounded to
// the nearest day and never below one day.
func calculateNewInterval(repetition, previousInterval int, easeFactor float64, params *Params) int {
	switch repetition {
	case 1:
		return params.FirstInterval
	case 2:
		return params.SecondInterval
	}

	interval := int(math.Round(float64(previousInterval) * easeFactor))
	if interval < 1 {
		interval = 1
	}
	return interval
}

// calculateNextSchedule creates a copy of card with updated schedule fields.
//
// The easiness factor is updated on every review, including failures, and
// the updated value is the one the interval grows by. A failed recall
// (q < 3) resets the repetition count and schedules the card for tomorrow.
// The input card is never modified.
func calculateNextSchedule(
	card *domain.Flashcard,
	q domain.Quality,
	now time.Time,
	params *Params,
) *domain.Flashcard {
	next := card.Clone()

	next.EasinessFactor = calculateNewEaseFactor(card.EasinessFactor, q, params)

	if q.IsCorrect() {
		next.RepetitionCount = card.RepetitionCount + 1
		next.IntervalDays = calculateNewInterval(
			next.RepetitionCount,
			card.IntervalDays,
			next.EasinessFactor,
			params,
		)
	} else {
		next.RepetitionCount = 0
		next.IntervalDays = params.LapseInterval
	}

	next.LastReviewedAt = now
	next.NextReviewAt = now.AddDate(0, 0, next.IntervalDays)

	return next
}
