package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/selfadvocacy/discovery/internal/domain"
)

// ErrorCode is the machine-readable error code in API responses.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeProfileNotFound   ErrorCode = "profile_not_found"
	CodeSessionNotFound   ErrorCode = "session_not_found"
	CodeNotEntitled       ErrorCode = "not_entitled"
	CodeIncompleteProfile ErrorCode = "incomplete_profile"
	CodeNothingToLoad     ErrorCode = "nothing_to_load"
	CodeSearchFailed      ErrorCode = "search_failed"
	CodeRateLimited       ErrorCode = "rate_limited"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// searchFailedMessage is shown for both network and index failures.
const searchFailedMessage = "search failed, try again"

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	if domain.IsSearchFailure(err) {
		return searchFailedMessage
	}
	sentinels := []error{
		domain.ErrProfileNotFound,
		domain.ErrNotEntitled,
		domain.ErrIncompleteProfile,
		domain.ErrRateLimited,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrProfileNotFound, http.StatusNotFound, CodeProfileNotFound),
		sentinelHandler(domain.ErrNotEntitled, http.StatusForbidden, CodeNotEntitled),
		sentinelHandler(domain.ErrIncompleteProfile, http.StatusUnprocessableEntity, CodeIncompleteProfile),
		sentinelHandler(domain.ErrNetwork, http.StatusBadGateway, CodeSearchFailed),
		sentinelHandler(domain.ErrIndex, http.StatusBadGateway, CodeSearchFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
	}
}
