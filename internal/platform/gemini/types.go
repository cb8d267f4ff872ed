package gemini

import "github.com/phrazzld/scry-tutor/internal/domain"

// questionPromptData is the data passed to the question prompt template.
type questionPromptData struct {
	Topic      string
	Subtopic   string
	Difficulty domain.Difficulty
	Type       string
	Exclude    []string
}

// evaluationPromptData is the data passed to the evaluation prompt template.
type evaluationPromptData struct {
	Question        string
	Options         []string
	ReferenceAnswer string
	Answer          string
}

// QuestionSchema is the JSON object the model returns for a question.
type QuestionSchema struct {
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options,omitempty"`
	CorrectOption string   `json:"correct_option,omitempty"`
	Answer        string   `json:"answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// EvaluationSchema is the JSON object the model returns for a grade.
type EvaluationSchema struct {
	Correct  bool    `json:"correct"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}
