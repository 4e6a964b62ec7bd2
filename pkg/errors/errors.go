package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the single error shape crossing the HTTP boundary. Field-level
// validation failures travel in Validation; everything else is carried by
// Code/Message/Status. The legacy backend exposed two incompatible
// validation shapes, both are normalised into this one.
type Error struct {
	Code       string              `json:"code"`
	Message    string              `json:"message"`
	Status     int                 `json:"status"`
	Validation map[string][]string `json:"validation,omitempty"`
	Err        error               `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Validation builds a 400 error carrying per-field messages.
func Validation(fields map[string][]string) *Error {
	return &Error{
		Code:       ErrValidation.Code,
		Status:     ErrValidation.Status,
		Message:    ErrValidation.Message,
		Validation: fields,
	}
}

// FieldError builds a validation error for a single field.
func FieldError(field, message string) *Error {
	return Validation(map[string][]string{field: {message}})
}

// FieldConflict builds a 409 conflict attributed to a single field.
func FieldConflict(field, message string) *Error {
	return &Error{
		Code:       ErrConflict.Code,
		Status:     ErrConflict.Status,
		Message:    message,
		Validation: map[string][]string{field: {message}},
	}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrImmutableField     = New("IMMUTABLE_FIELD", http.StatusBadRequest, "field cannot be changed after creation")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
