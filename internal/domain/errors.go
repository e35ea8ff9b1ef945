package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConstraintViolation is returned by stores when a write loses a
	// unique-key race. Callers doing resolve-or-create treat it as success.
	ErrConstraintViolation = errors.New("constraint violation")
)

// AuthConfigError is returned when the upstream API credential is not configured.
type AuthConfigError struct {
	Setting string
}

func (e *AuthConfigError) Error() string {
	return fmt.Sprintf("missing upstream credential: %s", e.Setting)
}

// UpstreamError is returned when the upstream API answers with a non-2xx status.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}

	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, truncate(e.Body, 200))
}

// TimeoutError is returned when the upstream API does not respond in time.
type TimeoutError struct {
	Endpoint string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream request to %s timed out", e.Endpoint)
}

// IsUpstreamFailure reports whether err is an UpstreamError or a TimeoutError.
func IsUpstreamFailure(err error) bool {
	var upstreamErr *UpstreamError
	var timeoutErr *TimeoutError

	return errors.As(err, &upstreamErr) || errors.As(err, &timeoutErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
