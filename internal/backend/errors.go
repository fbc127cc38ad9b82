package backend

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("resource not found")

// APIError is a non-2xx answer from the marketplace backend.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
