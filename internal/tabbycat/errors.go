package tabbycat

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

var (
	// ErrUnavailable matches API errors that may succeed on a later attempt
	// (rate limiting and server-side failures).
	ErrUnavailable = errors.New("tabbycat unavailable")

	// ErrAPIKeyRequired indicates that no API key was configured
	ErrAPIKeyRequired = errors.New("API key required")
)

// APIError represents a non-2xx response from the tournament API
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Endpoint, e.StatusCode)
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if target != ErrUnavailable {
		return false
	}
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// Retryable reports whether err is worth another attempt: transport
// failures, timeouts, rate limiting and 5xx responses. Cancellation and
// other API errors are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
