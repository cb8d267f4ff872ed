package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionRecord is the persisted summary of a completed review session.
type SessionRecord struct {
	SessionID      uuid.UUID    `json:"session_id"`
	Username       string       `json:"username"`
	Mode           Mode         `json:"mode"`
	Topics         []string     `json:"topics"`
	TotalQuestions int          `json:"total_questions"`
	TotalCorrect   int          `json:"total_correct"`
	FinalScore     float64      `json:"final_score"`
	Mastery        MasteryLevel `json:"mastery_level"`
	FinalLevel     Difficulty   `json:"final_difficulty"`
	StartedAt      time.Time    `json:"started_at"`
	EndedAt        time.Time    `json:"ended_at"`
}
