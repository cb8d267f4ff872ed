package domain

// Streak thresholds for difficulty adaptation.
const (
	EscalateAfterCorrect = 3
	DeescalateAfterWrong = 2
)

// StreakReset names the streak counter a difficulty change zeroes.
type StreakReset int

// Streak reset values
const (
	ResetNone StreakReset = iota
	ResetWrong
	ResetCorrect
)

// NextDifficulty applies the adaptation rules to the current level and the
// consecutive-correct and consecutive-wrong streaks. The correct streak is
// checked first. Escalating resets the wrong streak, de-escalating resets the
// correct streak, and levels saturate at easy and hard.
func NextDifficulty(current Difficulty, consecutiveCorrect, consecutiveWrong int) (Difficulty, StreakReset) {
	if consecutiveCorrect >= EscalateAfterCorrect && current != DifficultyHard {
		return harder(current), ResetWrong
	}
	if consecutiveWrong >= DeescalateAfterWrong && current != DifficultyEasy {
		return easier(current), ResetCorrect
	}
	return current, ResetNone
}

func harder(d Difficulty) Difficulty {
	switch d {
	case DifficultyEasy:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

func easier(d Difficulty) Difficulty {
	switch d {
	case DifficultyHard:
		return DifficultyMedium
	default:
		return DifficultyEasy
	}
}
