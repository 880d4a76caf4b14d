package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gift-quiz-service/internal/codec"
	"gift-quiz-service/internal/domain"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// errorCode names a domain error for clients. Unknown errors map to "internal".
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig), errors.Is(err, domain.ErrNoCorrectOption):
		return "invalid_config"
	case errors.Is(err, domain.ErrInvalidUnlockDate):
		return "invalid_unlock_date"
	case errors.Is(err, domain.ErrMissingOwner):
		return "missing_owner"
	case errors.Is(err, domain.ErrReadOnly):
		return "read_only"
	case errors.Is(err, domain.ErrQuizLocked):
		return "locked"
	case errors.Is(err, domain.ErrAlreadyAnswered):
		return "already_answered"
	case errors.Is(err, domain.ErrOptionNotFound):
		return "option_not_found"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return "question_not_found"
	case errors.Is(err, domain.ErrQuestionLimit):
		return "question_limit"
	case errors.Is(err, domain.ErrOptionLimit):
		return "option_limit"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrConfigNotFound):
		return "not_found"
	case errors.Is(err, codec.ErrMalformedToken):
		return "malformed_token"
	default:
		return "internal"
	}
}

func statusFor(err error) int {
	switch errorCode(err) {
	case "invalid_config", "invalid_unlock_date", "missing_owner", "malformed_token", "option_not_found", "question_not_found", "question_limit", "option_limit":
		return http.StatusBadRequest
	case "read_only":
		return http.StatusForbidden
	case "locked", "already_answered", "invalid_transition":
		return http.StatusConflict
	case "not_found":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "request failed"
	}
	writeJSON(w, status, errorResponse{Error: message, Code: errorCode(err)})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func decodeConfig(w http.ResponseWriter, r *http.Request) (domain.QuizConfig, error) {
	var cfg domain.QuizConfig
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&cfg); err != nil {
		if errors.Is(err, domain.ErrNoCorrectOption) {
			return cfg, err
		}
		return cfg, errors.Join(domain.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// tokenParam reads the data parameter without query decoding, so a '+' sent
// unescaped survives as base64 rather than turning into a space.
func tokenParam(r *http.Request) string {
	return codec.TokenFromURL("?" + r.URL.RawQuery)
}

func ownerParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("owner"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "bad_request"})
		return false
	}
	return true
}

// pathIndex reads a zero-based index from the route; a bad value is answered with 400.
func pathIndex(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	idx, err := strconv.Atoi(r.PathValue(name))
	if err != nil || idx < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: name + " must be a non-negative integer", Code: "bad_request"})
		return 0, false
	}
	return idx, true
}
