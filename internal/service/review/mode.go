package review

import "github.com/phrazzld/scry-tutor/internal/domain"

// modePolicy decides which item kinds seed a session and its default length.
type modePolicy struct {
	flashcards bool
	questions  bool
	// defaultMax derives the default question limit from the configured one.
	defaultMax func(configured int) int
}

var modePolicies = map[domain.Mode]modePolicy{
	domain.ModeAdaptive: {
		flashcards: true,
		questions:  true,
		defaultMax: func(n int) int { return n },
	},
	domain.ModeSpaced: {
		flashcards: true,
		questions:  true,
		defaultMax: func(n int) int { return n },
	},
	domain.ModeIntensive: {
		questions:  true,
		defaultMax: func(n int) int { return n + n/2 },
	},
	domain.ModeQuick: {
		flashcards: true,
		questions:  true,
		defaultMax: func(n int) int { return min(n, 5) },
	},
	domain.ModeFlashcards: {
		flashcards: true,
		defaultMax: func(n int) int { return 2 * n },
	},
}

func policyFor(mode domain.Mode) modePolicy {
	if p, ok := modePolicies[mode]; ok {
		return p
	}
	return modePolicies[domain.ModeAdaptive]
}
