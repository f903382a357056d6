package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"

	"reliefboard/pkg/circuitbreaker"
)

// Failure kinds reported when a model call does not produce a verdict.
const (
	FailureTransport     = "transport"
	FailureTimeout       = "timeout"
	FailureAPIError      = "api_error"
	FailureBadResponse   = "bad_response"
	FailureBreakerOpen   = "breaker_open"
	FailureNotConfigured = "not_configured"
	FailureCanceled      = "canceled"
)

// kinded is implemented by errors that already know their failure kind.
type kinded interface {
	FailureKind() string
}

// ClassifyModelError maps a failed model call to a failure kind. It returns ""
// for a nil error.
func ClassifyModelError(err error) string {
	if err == nil {
		return ""
	}

	var k kinded
	if errors.As(err, &k) {
		return k.FailureKind()
	}
	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		return FailureBreakerOpen
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	if errors.Is(err, context.Canceled) {
		return FailureCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return FailureBadResponse
	}

	return FailureTransport
}

// IsRetryableError decides whether a failed event delivery should be retried.
// Returns: (isRetryable, errorType)
func IsRetryableError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	errStr := err.Error()

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || strings.Contains(errStr, "json:") {
		return false, "json_decode_error"
	}

	if errors.Is(err, pgx.ErrNoRows) {
		// the request was deleted before the event was handled
		return false, "request_not_found"
	}
	if strings.Contains(errStr, "duplicate key") {
		return false, "duplicate_key"
	}

	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true, "network_error"
	}

	if strings.Contains(errStr, "connection") {
		return true, "db_connection_error"
	}

	return false, "unknown_error"
}
