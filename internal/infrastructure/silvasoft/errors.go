package silvasoft

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/boodo/silvasync/internal/domain/integration"
)

// StatusError is returned for a non-2xx response. It always unwraps to
// integration.ErrPlatformRequestFailed, and additionally to
// integration.ErrPlatformRateLimited for 429 and
// integration.ErrPlatformBadRequest for 400.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("silvasoft: %s: HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("silvasoft: %s: HTTP %d: %s", e.Endpoint, e.StatusCode, truncate(e.Body, 300))
}

func (e *StatusError) Unwrap() []error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return []error{integration.ErrPlatformRateLimited, integration.ErrPlatformRequestFailed}
	case http.StatusBadRequest:
		return []error{integration.ErrPlatformBadRequest, integration.ErrPlatformRequestFailed}
	default:
		return []error{integration.ErrPlatformRequestFailed}
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

func isAlreadyExists(body []byte) bool {
	return strings.Contains(strings.ToLower(string(body)), "already exists")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
