package taskclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated indicates the backend rejected the presented
	// credentials (HTTP 401).
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound indicates the operation target is absent (HTTP 404). For
	// delete and update races this is a normal outcome, not a fatal error.
	ErrNotFound = errors.New("not found")

	// ErrNetworkFailure indicates a transport-level failure with no HTTP
	// response received.
	ErrNetworkFailure = errors.New("network failure")
)

// RequestError reports a non-2xx backend response. It unwraps to
// ErrUnauthenticated or ErrNotFound for the corresponding statuses so callers
// can branch with errors.Is while still reading the exact status.
type RequestError struct {
	Status  int
	Message string
	Code    string
}

func (e *RequestError) Error() string {
	if e == nil {
		return "request failed"
	}
	if e.Message != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

func wrapNetwork(err error) error {
	return fmt.Errorf("%w: %v", ErrNetworkFailure, err)
}
