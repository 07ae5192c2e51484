package common

import (
	"errors"
	"net/http"
)

// AppError carries the status, machine-readable code and optional details
// rendered by WriteError. Err is kept for logs and errors.Is/As.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Code + ": " + e.Err.Error()
	default:
		return e.Code + ": " + e.Message
	}
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// BadRequest builds a 400 AppError pointing at the offending field.
func BadRequest(field, message string, err error) *AppError {
	appErr := NewAppError("BAD_REQUEST", message, http.StatusBadRequest, err)
	if field != "" {
		appErr.Details = map[string]any{"field": field}
	}
	return appErr
}

// ValidationFailed builds a 400 VALIDATION_FAILED error whose details map
// field paths to the rule they broke.
func ValidationFailed(message string, fields map[string]string, err error) *AppError {
	appErr := NewAppError("VALIDATION_FAILED", message, http.StatusBadRequest, err)
	appErr.Details = fields
	return appErr
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
