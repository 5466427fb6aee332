package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by APIError.Is.
var (
	ErrUnauthorized = errors.New("upstream rejected the api key")
	ErrRateLimited  = errors.New("upstream rate limit exceeded")
	ErrUpstream     = errors.New("upstream request failed")
	// ErrNoContent is returned when a completion carries no text.
	ErrNoContent = errors.New("upstream returned no content")
)

// APIError is a failed upstream call. StatusCode is zero for transport
// failures and for errors reported inside an event stream.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is reports whether the error belongs to one of the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUpstream:
		return true
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}
