package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUnsupported    = errors.New("operation not supported")
	ErrUpstreamError  = errors.New("upstream error")
	ErrRateLimited    = errors.New("rate limited")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
//
// The widget protocol serializes errors as {"error": "<message>"}, so only
// Message crosses the wire; Code and StatusCode drive logging and HTTP status.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewRequestError creates a 400 error whose message reaches the client
// verbatim. Used for boundary checks where the widget displays the text
// as-is ("Email or phone required", "order_id required").
func NewRequestError(message string) *APIError {
	return &APIError{
		Code:       "INVALID_REQUEST",
		Message:    message,
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewUnauthorizedError creates a 401 error for token failures.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    reason,
		StatusCode: 401,
		Err:        ErrUnauthorized,
	}
}

// NewUnsupportedError creates a 400 error for operations the payment
// handler cannot perform. The message is client-facing verbatim.
func NewUnsupportedError(message string) *APIError {
	return &APIError{
		Code:       "UNSUPPORTED_OPERATION",
		Message:    message,
		StatusCode: 400,
		Err:        ErrUnsupported,
	}
}

// NewUpstreamError creates a 502 error for backend failures.
func NewUpstreamError(service string, err error) *APIError {
	return &APIError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamError, err),
	}
}

// NewDownstreamError creates a 500 error carrying the upstream failure
// message. Used when a gateway refund or refund-record creation fails and
// the underlying reason must reach the agent.
func NewDownstreamError(message string) *APIError {
	return &APIError{
		Code:       "DOWNSTREAM_ERROR",
		Message:    message,
		StatusCode: 500,
		Err:        ErrUpstreamError,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}

// NewRateLimitError creates a 429 error for rate limiting.
// retryAfter is in seconds; zero means the upstream gave no reset hint.
func NewRateLimitError(service string, retryAfter int) *APIError {
	msg := fmt.Sprintf("%s rate limit exceeded, please retry later", service)
	if retryAfter > 0 {
		msg = fmt.Sprintf("%s rate limit exceeded, retry in %ds", service, retryAfter)
	}
	return &APIError{
		Code:       "RATE_LIMITED",
		Message:    msg,
		StatusCode: 429,
		Err:        ErrRateLimited,
	}
}
