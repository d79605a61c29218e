package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedResponse indicates a status body that could not be parsed.
// A poll that returns it is treated as fatal: the job outcome is unknown.
var ErrMalformedResponse = errors.New("malformed response")

// ValidationError reports missing or inconsistent input, detected before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// BackendError is a non-success HTTP status returned by the service.
// Structured is true when Message was taken from a JSON error body.
type BackendError struct {
	StatusCode int
	Message    string
	Structured bool
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("[%d] backend error: %s", e.StatusCode, e.Message)
}

// NetworkError means the request could not complete at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error (%s): %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// newBackendError extracts the message from a `{"detail": ...}` or `{"error": ...}`
// body, falling back to the raw body and then the status text.
func newBackendError(status int, body []byte) *BackendError {
	be := &BackendError{StatusCode: status}

	if gjson.ValidBytes(body) {
		for _, key := range []string{"detail", "error"} {
			v := gjson.GetBytes(body, key)
			if !v.Exists() || v.Type == gjson.Null {
				continue
			}
			be.Structured = true
			if v.Type == gjson.String {
				be.Message = v.Str
			} else {
				be.Message = v.Raw
			}
			break
		}
	}

	if be.Message == "" {
		be.Message = strings.TrimSpace(string(body))
	}
	if be.Message == "" {
		be.Message = http.StatusText(status)
	}
	return be
}
