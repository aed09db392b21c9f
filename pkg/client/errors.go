package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy surfaced to callers. Match with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRegistrationFailed = errors.New("registration failed")
	ErrAuthService        = errors.New("authentication service error")
	ErrNetwork            = errors.New("network error")
	ErrSessionExpired     = errors.New("session expired")
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// IsRejection reports whether err is a 401 or 403 from the server, the
// statuses that invalidate credentials or a session.
func IsRejection(err error) bool {
	return IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden)
}

