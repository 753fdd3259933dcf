package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInternal    = errors.New("internal server error")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ApiErr is an error the API can put on the wire. Message goes into the
// envelope; Details only for 4xx; Cause is kept for the logs.
type ApiErr struct {
	StatusCode int
	err        error
	Message    string
	Details    string
	Field      string // offending request field, if any
	Cause      error
}

func NewApiErr(statusCode int, message string) *ApiErr {
	return &ApiErr{
		StatusCode: statusCode,
		err:        errors.New(message),
	}
}

func (e *ApiErr) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Summary(), e.Details)
	}
	return e.Summary()
}

// Summary is the short message placed in the response envelope.
func (e *ApiErr) Summary() string {
	if e.Message != "" {
		return e.Message
	}
	return e.err.Error()
}

// GetFullError follows the cause chain, for logging.
func (e *ApiErr) GetFullError() string {
	msg := e.Error()
	if e.Cause == nil {
		return msg
	}
	var apiErr *ApiErr
	if errors.As(e.Cause, &apiErr) {
		return fmt.Sprintf("%s -> %s", msg, apiErr.GetFullError())
	}
	return fmt.Sprintf("%s -> %s", msg, e.Cause.Error())
}

// Unwrap exposes the sentinel, so errors.Is(err, ErrNotFound) and friends work.
func (e *ApiErr) Unwrap() error {
	return e.err
}

func NewInternalError(message string) *ApiErr {
	return &ApiErr{StatusCode: http.StatusInternalServerError, err: ErrInternal, Message: message}
}

// NewRateLimitedError carries a fixed message; it never says how close the caller is to the ceiling.
func NewRateLimitedError(message string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusTooManyRequests,
		err:        ErrRateLimited,
		Message:    message,
	}
}

// StatusOf returns the HTTP status an error maps to, 500 for anything that is not an ApiErr.
func StatusOf(err error) int {
	var apiErr *ApiErr
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return http.StatusInternalServerError
}
