// Package apperr defines the typed errors surfaced to API callers.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the machine readable error code
type Kind string

const (
	KindUnauthenticated Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindBadRequest      Kind = "BAD_REQUEST"
	KindStock           Kind = "STOCK_ERROR"
	KindInternal        Kind = "INTERNAL_SERVER_ERROR"
)

var statusByKind = map[Kind]int{
	KindUnauthenticated: http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindBadRequest:      http.StatusBadRequest,
	KindStock:           http.StatusBadRequest,
	KindInternal:        http.StatusInternalServerError,
}

// Error is a domain error carrying its kind and HTTP style status
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// New creates an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Status returns the HTTP status code for the error kind
func (e *Error) Status() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Extensions is read by the GraphQL executor and merged into the error entry
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code":       string(e.Kind),
		"statusCode": e.Status(),
	}
}

func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }
func BadRequest(message string) *Error      { return New(KindBadRequest, message) }
func Stock(message string) *Error           { return New(KindStock, message) }

// Internal hides cause behind a generic message
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, cause: cause}
}

// As extracts a typed error from err
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for untyped errors
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// Wrap returns typed errors unchanged and converts anything else into an
// Internal error with message.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	return Internal(message, err)
}
