package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoAPIKey indicates the required API key is not configured
	ErrNoAPIKey = errors.New("API key not configured")

	// ErrInvalidResponse indicates the API returned an unusable reply
	ErrInvalidResponse = errors.New("invalid response from API")

	// ErrRateLimited indicates the API rate limit was exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// BackendError represents a failed generation call.
type BackendError struct {
	Provider    string // anthropic, openai
	StatusCode  int    // HTTP status code, 0 when no response was received
	Message     string
	RateLimited bool
	Err         error
}

func (e *BackendError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s API error: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsAuthError checks if the error indicates authentication failure
func (e *BackendError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// statusError builds the error for a non-2xx reply.
func statusError(provider string, statusCode int, body []byte) *BackendError {
	e := &BackendError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    string(body),
	}
	if statusCode == http.StatusTooManyRequests {
		e.RateLimited = true
		e.Err = ErrRateLimited
	}
	return e
}

// requestError wraps a failure that happened before a reply arrived.
func requestError(provider, message string, err error) *BackendError {
	return &BackendError{Provider: provider, Message: message, Err: err}
}
