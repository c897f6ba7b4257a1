package github

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nao1215/modscan/internal/source"
)

var (
	// ErrNetwork is returned when the API cannot be reached or keeps failing
	// with server errors after all retries.
	ErrNetwork = errors.New("network error")

	// ErrInvalidProxy is returned when the proxy URL has an unsupported scheme.
	ErrInvalidProxy = errors.New("invalid proxy URL: expected socks5, socks5h, http or https scheme")

	// ErrNotDirectory is returned by ListDirectory when the path is a file.
	ErrNotDirectory = errors.New("not a directory")

	// ErrResponseTooLarge is returned when a response body exceeds the size limit.
	ErrResponseTooLarge = errors.New("response too large")
)

// APIError is an unexpected API response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the error message.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github: %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("github: %s: status %d: %s", e.URL, e.StatusCode, e.Message)
}

// RateLimitError reports an exhausted API quota.
type RateLimitError struct {
	StatusCode int
	// Reset is when the quota refills. Zero if GitHub did not say.
	Reset time.Time
	// RetryAfter is set for secondary rate limits.
	RetryAfter time.Duration
	Message    string
}

// Error returns the error message.
func (e *RateLimitError) Error() string {
	msg := "github: rate limit exhausted"
	switch {
	case e.RetryAfter > 0:
		msg += ", retry after " + e.RetryAfter.String()
	case !e.Reset.IsZero():
		msg += ", resets at " + e.Reset.UTC().Format(time.RFC3339)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns source.ErrRateLimited.
func (e *RateLimitError) Unwrap() error {
	return source.ErrRateLimited
}

// retryableError marks a failure worth another attempt.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	return errors.As(err, new(*retryableError))
}

// parseUnix parses a Unix timestamp header. It returns the zero time on failure.
func parseUnix(s string) time.Time {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}
