package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rpupo63/devfolio-backend/validation"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDatabaseQuery      = errors.New("database query failed")
	ErrDatabaseConnection = errors.New("database connection failed")
)

// Database & Storage Specific Errors
var (
	ErrUniqueConstraintViolation = errors.New("unique constraint violation")
	ErrRecordConstraint          = errors.New("record constraint violation")
)

// NewNotFound builds the 404 for an id that matches no record, e.g. "Project not found".
func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", capitalize(entity)),
	}
}

// NewDatabaseError creates a new database error with details about the operation.
// Constraint violations are the caller's fault and keep their detail; every other
// failure is reported as a bare 500 and the cause stays server-side.
func NewDatabaseError(operation, entity string, cause error) *ApiErr {
	message := fmt.Sprintf("Failed to %s %s", operation, entity)

	var apiErr *ApiErr
	if errors.As(cause, &apiErr) {
		adopted := *apiErr
		adopted.Message = message
		return &adopted
	}

	var failures validation.Errors
	if errors.As(cause, &failures) {
		e := NewValidationError(message, failures)
		e.err = ErrRecordConstraint
		return e
	}

	if IsDuplicateKey(cause) {
		return &ApiErr{
			StatusCode: http.StatusBadRequest,
			err:        ErrUniqueConstraintViolation,
			Message:    message,
			Details:    fmt.Sprintf("%s already exists", entity),
			Cause:      cause,
		}
	}

	if cause != nil && strings.Contains(cause.Error(), "connection") {
		return &ApiErr{
			StatusCode: http.StatusInternalServerError,
			err:        ErrDatabaseConnection,
			Message:    message,
			Cause:      cause,
		}
	}

	// Generic database error
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDatabaseQuery,
		Message:    message,
		Cause:      cause,
	}
}

func NewUniqueConstraintViolationError(entity, field string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrUniqueConstraintViolation,
		Details:    fmt.Sprintf("%s %s already exists", entity, field),
		Cause:      cause,
		Field:      field,
	}
}

// IsDuplicateKey recognises unique-index violations from postgres and sqlite, with or
// without gorm's error translation enabled.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

func IsUniqueConstraintViolationError(err error) bool {
	return errors.Is(err, ErrUniqueConstraintViolation)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
