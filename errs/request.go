package errs

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rpupo63/devfolio-backend/validation"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrInvalidType         = errors.New("invalid type")
	ErrInvalidField        = errors.New("invalid field")
	ErrMaxBodySizeExceeded = errors.New("max body size exceeded")
	ErrInvalidJSON         = errors.New("invalid JSON")
)

// NewValidationError reports every failed rule; the first failure names the field.
func NewValidationError(message string, failures validation.Errors) *ApiErr {
	e := &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrValidation,
		Message:    message,
		Details:    failures.Error(),
		Cause:      failures,
	}
	if first := failures.First(); first != nil {
		e.Field = first.Field
	}
	return e
}

// NewInvalidTypeError rejects a field whose JSON primitive type does not match the schema.
func NewInvalidTypeError(fieldName string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidType,
		Message:    fmt.Sprintf("Invalid type for %s.", fieldName),
		Field:      fieldName,
	}
}

func NewInvalidFieldError(fieldName string, reason string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidField,
		Message:    reason,
		Field:      fieldName,
	}
}

func NewMaxBodySizeExceededError(maxSize int64) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusRequestEntityTooLarge,
		err:        ErrMaxBodySizeExceeded,
		Message:    "Request body too large",
		Details:    fmt.Sprintf("Request body size exceeded maximum allowed size of %d bytes", maxSize),
		Field:      "body_size",
	}
}

func NewInvalidJSONError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidJSON,
		Message:    "Malformed request body",
		Details:    "Invalid JSON format",
		Cause:      cause,
		Field:      "json",
	}
}
