package github

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v68/github"
)

// APIError represents a GitHub API failure with its HTTP status code.
// SDK error types are converted to APIError at the client boundary so
// callers can classify failures without importing go-github.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("GitHub API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("GitHub API error (status %d)", e.StatusCode)
}

// wrapAPIError converts a go-github error into an *APIError carrying the
// response status code. Transport-level errors pass through unchanged.
func wrapAPIError(resp *github.Response, err error) error {
	if err == nil {
		return nil
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		apiErr := &APIError{Message: ghErr.Message}
		if ghErr.Response != nil {
			apiErr.StatusCode = ghErr.Response.StatusCode
		}
		return apiErr
	}

	if resp != nil && resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	return err
}

// StatusCode returns the HTTP status code carried by err, or 0 when err is
// nil or carries no status.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// ErrorMessage returns the API-provided message for err when available,
// falling back to err.Error().
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// IsNotFoundError reports whether err is a 404 from the API
func IsNotFoundError(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnprocessableError reports whether err is a 422 from the API
func IsUnprocessableError(err error) bool {
	return StatusCode(err) == http.StatusUnprocessableEntity
}
