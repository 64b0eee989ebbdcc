package github

import (
	"errors"
	"fmt"
	"strings"
)

// Represents a non-2xx response from the GitHub REST API.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the top-level error description from GitHub.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", e.StatusCode, e.Message)
}

// Represents a failure to reach the API at all (DNS, TLS, connection
// reset). Always considered transient.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("github: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsPermission reports whether err is an authorization refusal: a 401,
// or a 403 that is not a rate limit. Permission failures require an
// operator fix (token scope, repository access) and are never retried.
func IsPermission(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == 401 {
		return true
	}
	return apiErr.StatusCode == 403 && !isRateLimitMessage(apiErr.Message)
}

// IsTransient reports whether err is worth retrying: transport errors,
// rate limits, request timeouts, and server-side 5xx responses.
func IsTransient(err error) bool {
	var transport *TransportError
	if errors.As(err, &transport) {
		return true
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch {
	case apiErr.StatusCode == 408 || apiErr.StatusCode == 429:
		return true
	case apiErr.StatusCode >= 500:
		return true
	case apiErr.StatusCode == 403 && isRateLimitMessage(apiErr.Message):
		return true
	}
	return false
}

// Whether a 403 error message indicates a rate limit rather than a
// permission issue. GitHub's rate limit responses contain recognizable
// phrases.
func isRateLimitMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "abuse detection")
}
