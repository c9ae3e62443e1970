package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
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

// Is reports whether target carries the same code, so clones match their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Scheduling errors.
var (
	ErrInvalidInterval     = New("INVALID_INTERVAL", http.StatusBadRequest, "interval start must be before its end")
	ErrUnavailable         = New("RESOURCE_UNAVAILABLE", http.StatusConflict, "resource is not available in the requested interval")
	ErrPastInterval        = New("PAST_INTERVAL", http.StatusUnprocessableEntity, "interval starts in the past")
	ErrPastBooking         = New("PAST_BOOKING", http.StatusUnprocessableEntity, "booking has already started")
	ErrPastOccurrence      = New("PAST_OCCURRENCE", http.StatusUnprocessableEntity, "class occurrence has already started")
	ErrCapacityExceeded    = New("CAPACITY_EXCEEDED", http.StatusConflict, "class occurrence is full")
	ErrNoSchedule          = New("NO_SCHEDULE", http.StatusUnprocessableEntity, "class has no schedule entries")
	ErrOccurrenceNotOpen   = New("OCCURRENCE_NOT_OPEN", http.StatusConflict, "class occurrence is not open for enrollment")
	ErrAlreadyEnrolled     = New("ALREADY_ENROLLED", http.StatusConflict, "user is already enrolled")
	ErrInvalidTransition   = New("INVALID_TRANSITION", http.StatusConflict, "status transition not allowed")
	ErrChargeNotCancelable = New("CHARGE_NOT_CANCELABLE", http.StatusConflict, "charge can no longer be cancelled")
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
