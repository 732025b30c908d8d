package orchestration

import (
	"errors"
	"fmt"
)

var (
	// ErrNoToken is returned when a static token source holds no token.
	ErrNoToken = errors.New("orchestration: empty access token")
)

// HTTPError is a non-2xx management API response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error implements error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP Error: %s", e.Status)
}
