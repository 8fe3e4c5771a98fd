package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-dolar-client/authmodel"
	"github.com/jrsteele09/go-dolar-client/internal/errors"
)

// HTTPError is a non-2xx answer from the backend.
type HTTPError struct {
	Status  int
	Payload json.RawMessage
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message())
}

// Message returns the backend's message when the payload carries one.
func (e *HTTPError) Message() string {
	return authmodel.Message(e.Payload, http.StatusText(e.Status))
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// sessionExpiredError is the Failed state: ErrSessionExpired wrapping the cause.
type sessionExpiredError struct {
	cause error
}

func (e *sessionExpiredError) Error() string {
	if e.cause == nil {
		return errors.ErrSessionExpired.Error()
	}
	return errors.ErrSessionExpired.Error() + ": " + e.cause.Error()
}

func (e *sessionExpiredError) Is(target error) bool {
	return target == errors.ErrSessionExpired
}

func (e *sessionExpiredError) Unwrap() error {
	return e.cause
}
