// Package apperr defines the application error taxonomy shared by the
// service layer and the HTTP boundary.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an application error for HTTP mapping and branching.
type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Error is a tagged application error. Kind drives the HTTP status; Details
// carries optional structured context (e.g. the list of missing fields).
type Error struct {
	Kind    Kind
	Message string
	Details any
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an application error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewWithDetails creates an application error carrying structured details.
func NewWithDetails(kind Kind, message string, details any) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

func Validation(message string) *Error   { return New(KindValidation, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }
func Internal(message string) *Error     { return New(KindInternal, message) }

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// statusByKind is the single mapping from error kind to HTTP status code.
var statusByKind = map[Kind]int{
	KindValidation:   http.StatusBadRequest,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
	KindInternal:     http.StatusInternalServerError,
}

// StatusCode returns the HTTP status for an error. Unclassified errors map to 500.
func StatusCode(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		if status, ok := statusByKind[appErr.Kind]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// Code returns the wire error code for an error. Unclassified errors report
// an internal error code.
func Code(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return string(appErr.Kind)
	}
	return string(KindInternal)
}
