// Package llm provides internal representations of chat completion requests
// and responses, and the interfaces providers implement to stream replies.
package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse represents an error returned over HTTP.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrRateLimited matches provider errors caused by rate limiting.
var ErrRateLimited = errors.New("rate limited by provider")

// APIError represents a non-success response from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error [%d]: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

// Is allows comparison with ErrRateLimited.
func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.IsRateLimited()
}

// IsRateLimited reports whether the provider refused the request for rate
// limiting.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}
