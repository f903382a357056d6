package classifier

import (
	"errors"
	"fmt"

	"reliefboard/pkg/util"
)

// ErrNotConfigured is returned when no model backend is wired in.
var ErrNotConfigured = notConfiguredError{}

type notConfiguredError struct{}

func (notConfiguredError) Error() string       { return "classifier: model backend not configured" }
func (notConfiguredError) FailureKind() string { return util.FailureNotConfigured }

// APIError is an error payload returned by the model endpoint.
type APIError struct {
	StatusCode int
	Code       int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model api error: http %d code=%d status=%s: %s", e.StatusCode, e.Code, e.Status, e.Message)
}

func (e *APIError) FailureKind() string { return util.FailureAPIError }

// ResponseError means the reply could not be decoded or carried no text.
type ResponseError struct {
	Reason string
	Err    error
}

func (e *ResponseError) Error() string {
	if e.Err != nil {
		return "unusable model response: " + e.Reason + ": " + e.Err.Error()
	}
	return "unusable model response: " + e.Reason
}

func (e *ResponseError) Unwrap() error { return e.Err }

func (e *ResponseError) FailureKind() string { return util.FailureBadResponse }

// IsAPIError reports whether err carries a remote error payload.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
