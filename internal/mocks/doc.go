// Package mocks provides shared test doubles for the review engine's
// interfaces: the store interfaces, the content generator and answer
// evaluator, and the JWT service.
//
// Each mock exposes optional function fields. When a function field is nil
// the mock falls back to a simple default: the store mocks keep their data
// in memory, and the generator and evaluator return their default values.
// Calls are tracked so tests can assert on them.
//
//	gen := &mocks.MockContentGenerator{
//	    GenerateQuestionFn: func(ctx context.Context, req generation.QuestionRequest) (*generation.Question, error) {
//	        return &generation.Question{Text: "What is X?"}, nil
//	    },
//	}
package mocks
