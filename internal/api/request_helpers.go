package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/service/auth"
)

// getUsername returns the authenticated username, writing a 401 response
// when the request carries none.
func getUsername(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	username, ok := shared.UsernameFromContext(r.Context())
	if !ok {
		log.Warn("username not found in request context")
		HandleAPIError(w, r, auth.ErrMissingToken, "")
		return "", false
	}
	return username, true
}

// getPathUUID parses the UUID path parameter paramName.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, domain.ErrInvalidID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidID
	}
	return id, nil
}

// getPathTopic returns the unescaped {topic} path parameter.
func getPathTopic(r *http.Request) string {
	raw := chi.URLParam(r, "topic")
	topic, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return strings.TrimSpace(topic)
}

// handleUsernameAndSessionID extracts the username and the {id} session
// path parameter, writing an error response if either is missing or
// malformed.
func handleUsernameAndSessionID(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
) (string, uuid.UUID, bool) {
	username, ok := getUsername(w, r, log)
	if !ok {
		return "", uuid.Nil, false
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid session id", slog.String("value", chi.URLParam(r, "id")))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid session ID format")
		return "", uuid.Nil, false
	}
	return username, id, true
}

// decodeAndValidate reads the JSON body into v and validates it, writing a
// 400 response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any, log *slog.Logger) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		log.Debug("failed to decode request body", slog.String("error", err.Error()))
		msg := "Invalid request format"
		if errors.Is(err, shared.ErrEmptyBody) {
			msg = GetSafeErrorMessage(err)
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msg, err)
		return false
	}

	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// queryInt parses the integer query parameter name, returning def when it
// is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrValidation
	}
	return n, nil
}
