package review

import (
	"errors"
	"fmt"
)

// Session errors
var (
	// ErrSessionNotFound indicates that no session exists with the given id
	// for the calling user.
	ErrSessionNotFound = errors.New("review session not found")

	// ErrSessionNotActive indicates an item or answer operation on a paused
	// or completed session.
	ErrSessionNotActive = errors.New("review session is not active")

	// ErrInvalidTransition indicates a pause or resume from the wrong state.
	ErrInvalidTransition = errors.New("invalid session state transition")

	// ErrNoItemsDue indicates the queue is exhausted; the session should be ended.
	ErrNoItemsDue = errors.New("no items due in this session")

	// ErrNoCurrentItem indicates an answer was submitted before an item was drawn.
	ErrNoCurrentItem = errors.New("no item has been drawn")

	// ErrWrongItemKind indicates a question answer for a flashcard or the
	// other way around.
	ErrWrongItemKind = errors.New("answer does not match the current item kind")

	// ErrGenerationFailure indicates the content generator failed or timed out.
	ErrGenerationFailure = errors.New("question generation failed")

	// ErrEvaluationFailure indicates the answer evaluator failed or timed out.
	ErrEvaluationFailure = errors.New("answer evaluation failed")

	// ErrInvalidMaxQuestions indicates a negative question limit.
	ErrInvalidMaxQuestions = errors.New("max questions must not be negative")
)

// ServiceError wraps errors from the review service with the failed
// operation, so callers can use errors.As for context and errors.Is for the
// cause.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "next_item", "submit_answer")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a ServiceError for operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
