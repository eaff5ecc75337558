package rest

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrBadRequest     = errors.New("bad request")
	ErrAuthentication = errors.New("credentials rejected by Octopus")
	ErrNotFound       = errors.New("not found")
)

// APIError is returned for any response with a status of 400 or above.
// It unwraps to ErrBadRequest, ErrAuthentication or ErrNotFound where the
// status matches one of them.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %d - %s", e.Operation, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrAuthentication
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
