package deck

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Priority ranks an upcoming review.
type Priority string

// Review priorities
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// PriorityFor ranks a review that is daysUntil days away: due or overdue
// is high, within two days is medium, anything later is low.
func PriorityFor(daysUntil int) Priority {
	switch {
	case daysUntil <= 0:
		return PriorityHigh
	case daysUntil <= 2:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Upcoming is a card scheduled for review within a planning window.
type Upcoming struct {
	CardID          uuid.UUID `json:"card_id"`
	Topic           string    `json:"topic"`
	Subtopic        string    `json:"subtopic"`
	Front           string    `json:"front"`
	NextReviewAt    time.Time `json:"next_review_at"`
	DaysUntilReview int       `json:"days_until_review"`
	Priority        Priority  `json:"priority"`
}

// Stats summarizes a deck.
type Stats struct {
	Topic           string  `json:"topic"`
	TotalCards      int     `json:"total_cards"`
	DueNow          int     `json:"due_now"`
	NewCards        int     `json:"new_cards"`
	MatureCards     int     `json:"mature_cards"`
	AverageEase     float64 `json:"average_ease"`
	LongestInterval int     `json:"longest_interval_days"`
}

// MatureIntervalDays is the interval from which a card counts as mature.
const MatureIntervalDays = 21

// CardsDueWithin returns the cards due within the next days days, soonest
// first. Overdue cards are included.
func (d *Deck) CardsDueWithin(days int, now time.Time) []Upcoming {
	d.mu.Lock()
	defer d.mu.Unlock()

	horizon := now.AddDate(0, 0, days)
	out := make([]Upcoming, 0, len(d.cards))
	for _, c := range d.cards {
		if c.NextReviewAt.After(horizon) {
			continue
		}
		until := c.DaysUntilReview(now)
		out = append(out, Upcoming{
			CardID:          c.ID,
			Topic:           c.Topic,
			Subtopic:        c.Subtopic,
			Front:           c.Front,
			NextReviewAt:    c.NextReviewAt,
			DaysUntilReview: until,
			Priority:        PriorityFor(until),
		})
	}

	SortUpcoming(out)
	return out
}

// SortUpcoming orders reviews soonest first, then by topic and subtopic.
func SortUpcoming(u []Upcoming) {
	slices.SortFunc(u, func(a, b Upcoming) int {
		return cmp.Or(
			a.NextReviewAt.Compare(b.NextReviewAt),
			cmp.Compare(a.Topic, b.Topic),
			cmp.Compare(a.Subtopic, b.Subtopic),
		)
	})
}

// Stats computes summary statistics at now.
func (d *Deck) Stats(now time.Time) Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Stats{Topic: d.topic, TotalCards: len(d.cards)}
	if len(d.cards) == 0 {
		return s
	}

	var easeSum float64
	for _, c := range d.cards {
		easeSum += c.EasinessFactor
		if c.IsDue(now) {
			s.DueNow++
		}
		if c.LastReviewedAt.IsZero() {
			s.NewCards++
		}
		if c.IntervalDays >= MatureIntervalDays {
			s.MatureCards++
		}
		s.LongestInterval = max(s.LongestInterval, c.IntervalDays)
	}
	s.AverageEase = easeSum / float64(len(d.cards))
	return s
}
