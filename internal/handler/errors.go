package handler

import (
	"errors"
	"net/http"

	"github.com/webagent/webagent/internal/llm"
	"github.com/webagent/webagent/internal/service"
)

// writeValidationError maps input validation errors to 400 responses.
// It reports false when err is not a validation error.
func writeValidationError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, service.ErrNameRequired):
		writeError(w, http.StatusBadRequest, "NAME_REQUIRED", "Name is required")
	case errors.Is(err, service.ErrPasswordRequired):
		writeError(w, http.StatusBadRequest, "PASSWORD_REQUIRED", "Password is required")
	case errors.Is(err, service.ErrAPIKeyRequired):
		writeError(w, http.StatusBadRequest, "API_KEY_REQUIRED", "API key is required")
	case errors.Is(err, service.ErrNameTooLong):
		writeError(w, http.StatusBadRequest, "NAME_TOO_LONG", "Name exceeds maximum length")
	case errors.Is(err, service.ErrNameInvalid):
		writeError(w, http.StatusBadRequest, "INVALID_NAME", "Name must not contain control characters")
	case errors.Is(err, service.ErrPasswordTooLong):
		writeError(w, http.StatusBadRequest, "PASSWORD_TOO_LONG", "Password exceeds maximum length")
	case errors.Is(err, service.ErrAPIKeyTooLong):
		writeError(w, http.StatusBadRequest, "API_KEY_TOO_LONG", "API key exceeds maximum length")
	default:
		return false
	}
	return true
}

// upstreamCode picks an error code for a failed upstream call.
func upstreamCode(err error) string {
	switch {
	case errors.Is(err, llm.ErrUnauthorized):
		return "UPSTREAM_UNAUTHORIZED"
	case errors.Is(err, llm.ErrRateLimited):
		return "UPSTREAM_RATE_LIMITED"
	default:
		return "UPSTREAM_ERROR"
	}
}

// upstreamMessage extracts the client-facing part of an upstream failure.
func upstreamMessage(err error) string {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if errors.Is(err, llm.ErrNoContent) {
		return llm.ErrNoContent.Error()
	}
	return llm.ErrUpstream.Error()
}

func isUpstreamError(err error) bool {
	return errors.Is(err, llm.ErrUpstream) || errors.Is(err, llm.ErrNoContent)
}
