package queueadmin

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ParameterError reports an invalid collaborator passed to a handler constructor,
// or request input that cannot be resolved to a queue, job, state or page.
type ParameterError struct {
	Name    string
	Message string
}

// Error implements the error interface for ParameterError.
func (e *ParameterError) Error() string {
	return e.Message
}

func newParameterError(message string) *ParameterError {
	return &ParameterError{Name: "ParameterError", Message: message}
}

// Define package-level error variables with descriptive names.
var (
	ErrQueuesRequired     = newParameterError("queues parameter is required")
	ErrInvalidQueueItem   = newParameterError("items in the queues parameter must be queues")
	ErrQueueNotFound      = newParameterError("queue not found")
	ErrJobNotFound        = newParameterError("job not found")
	ErrInvalidState       = newParameterError("state is invalid")
	ErrPaginationRequired = newParameterError("getPagination must return an object")

	ErrInvalidRedisConfig      = errors.New("redis configuration is invalid")
	ErrRedisEmptyAddress       = errors.New("address cannot be empty")
	ErrRedisUnsupportedNetwork = errors.New("unsupported network type")
	ErrRedisInvalidAddress     = errors.New("invalid address format")
	ErrRedisTLSRequired        = errors.New("TLS config is required for secure Redis connections")
	ErrUnknownTaskState        = errors.New("task is in an unknown state")
)

// newFunctionParameterError reports an optional hook that was explicitly unset.
func newFunctionParameterError(name string) *ParameterError {
	return newParameterError(name + " parameter must be a function")
}

// newPaginationKeyError reports a pagination field outside its allowed range.
func newPaginationKeyError(key, constraint string) *ParameterError {
	return newParameterError(fmt.Sprintf("getPagination's %s key must be a %s number", key, constraint))
}

// IsParameterError checks if the provided error is or wraps a ParameterError.
func IsParameterError(err error) bool {
	var paramErr *ParameterError
	return errors.As(err, &paramErr)
}

// ErrRateLimit defines a custom error type for rate limiting scenarios.
type ErrRateLimit struct {
	RetryAfter time.Duration // Suggested time to wait before retrying the request.
}

// Error implements the error interface for ErrRateLimit.
func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited: retry after %v", e.RetryAfter)
}

// NewErrRateLimit constructs a new ErrRateLimit with a specified retry delay.
func NewErrRateLimit(retryAfter time.Duration) *ErrRateLimit {
	return &ErrRateLimit{
		RetryAfter: retryAfter,
	}
}

// IsErrRateLimit checks if the provided error is or wraps an ErrRateLimit error.
func IsErrRateLimit(err error) bool {
	var rateLimitErr *ErrRateLimit
	return errors.As(err, &rateLimitErr)
}

// RetryAfter returns the suggested wait carried by a rate limit error.
func RetryAfter(err error) (time.Duration, bool) {
	var rateLimitErr *ErrRateLimit
	if !errors.As(err, &rateLimitErr) {
		return 0, false
	}
	return rateLimitErr.RetryAfter, true
}

// StatusCode maps an error returned by a handler to the HTTP status an adapter should answer with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrQueueNotFound), errors.Is(err, ErrJobNotFound):
		return http.StatusNotFound
	case IsErrRateLimit(err):
		return http.StatusTooManyRequests
	case IsParameterError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
