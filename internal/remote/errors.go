package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches any error caused by a 401 response
var ErrUnauthorized = errors.New("unauthorized")

// APIError is the typed failure of a remote call.
// Status is 0 when no response was received (timeout or network failure).
type APIError struct {
	Message string              `json:"message"`
	Status  int                 `json:"status"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Err     error               `json:"-"`
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 failures
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// IsTransport reports whether the request never produced an HTTP response
func (e *APIError) IsTransport() bool {
	return e.Status == 0
}

// AsAPIError unwraps err into an *APIError if it is one
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
