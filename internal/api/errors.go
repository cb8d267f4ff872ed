package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/deck"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/phrazzld/scry-tutor/internal/service/auth"
	"github.com/phrazzld/scry-tutor/internal/service/review"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes so that
// internal error types never reach clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrEmptySubject):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, review.ErrSessionNotFound),
		errors.Is(err, domain.ErrCardNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors: the request is well formed but the session is in
	// the wrong state for it
	case errors.Is(err, review.ErrSessionNotActive),
		errors.Is(err, review.ErrInvalidTransition),
		errors.Is(err, review.ErrNoCurrentItem),
		errors.Is(err, review.ErrWrongItemKind),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidQuality),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrInvalidDifficulty),
		errors.Is(err, domain.ErrCardFrontEmpty),
		errors.Is(err, domain.ErrCardBackEmpty),
		errors.Is(err, domain.ErrCardTopicEmpty),
		errors.Is(err, review.ErrInvalidMaxQuestions),
		errors.Is(err, deck.ErrTopicRequired),
		errors.Is(err, deck.ErrInvalidDays),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, shared.ErrEmptyBody):
		return http.StatusBadRequest

	// Upstream model errors
	case errors.Is(err, generation.ErrTransientFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, review.ErrGenerationFailure),
		errors.Is(err, review.ErrEvaluationFailure):
		return http.StatusBadGateway

	// Special cases
	case errors.Is(err, review.ErrNoItemsDue):
		return http.StatusNoContent

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case MapErrorToStatusCode(err) == http.StatusUnauthorized:
		return "Invalid token"

	case errors.Is(err, review.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, domain.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, review.ErrSessionNotActive):
		return "Session is not active"
	case errors.Is(err, review.ErrInvalidTransition):
		return "Session cannot change to the requested state"
	case errors.Is(err, review.ErrNoCurrentItem):
		return "No item has been drawn; request the next item first"
	case errors.Is(err, review.ErrWrongItemKind):
		return "Answer does not match the current item"
	case errors.Is(err, review.ErrNoItemsDue):
		return "No items due"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, domain.ErrInvalidQuality):
		return "Quality must be between 0 and 5"
	case errors.Is(err, domain.ErrInvalidMode):
		return "Invalid session mode"
	case errors.Is(err, domain.ErrInvalidDifficulty):
		return "Invalid difficulty"
	case errors.Is(err, review.ErrInvalidMaxQuestions):
		return "max_questions must not be negative"
	case errors.Is(err, deck.ErrTopicRequired):
		return "Topic is required"
	case errors.Is(err, deck.ErrInvalidDays):
		return "days must not be negative"
	case errors.Is(err, domain.ErrCardFrontEmpty):
		return "Card front cannot be empty"
	case errors.Is(err, domain.ErrCardBackEmpty):
		return "Card back cannot be empty"
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case MapErrorToStatusCode(err) == http.StatusBadRequest:
		return "Invalid request"

	case errors.Is(err, generation.ErrTransientFailure):
		return "Question service temporarily unavailable"
	case errors.Is(err, review.ErrGenerationFailure):
		return "Failed to generate question"
	case errors.Is(err, review.ErrEvaluationFailure):
		return "Failed to evaluate answer"

	default:
		var svcErr *review.ServiceError
		if errors.As(err, &svcErr) {
			return "Failed to " + strings.ReplaceAll(svcErr.Operation, "_", " ")
		}
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and message for err. A non-empty
// fallbackMsg replaces the generic message of a 500 response.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	status := MapErrorToStatusCode(err)
	if status == http.StatusNoContent {
		shared.RespondNoContent(w)
		return
	}

	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMsg != "" {
		msg = fallbackMsg
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}

// SanitizeValidationError turns a validator error into a message naming the
// first failing field, without exposing Go type names.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", jsonFieldName(fe), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// jsonFieldName converts a struct field name like MaxQuestions into the
// snake_case name used on the wire.
func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte", "lte", "gt", "lt":
		return "out of range"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
