// Package apperr is the error taxonomy shared by the JSON API.
//
// Handlers return *Error values (or plain errors, which are treated as
// internal) and jsonutil.Fail turns them into a status code plus a
// {"error": ...} body. Cause is logged server-side and never sent.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind classifies an error for the HTTP layer.
type Kind string

const (
	KindBadRequest    Kind = "bad_request"
	KindUnauthorized  Kind = "unauthorized"
	KindForbidden     Kind = "forbidden"
	KindNotFound      Kind = "not_found"
	KindTooMany       Kind = "too_many_requests"
	KindNotConfigured Kind = "not_configured"
	KindExternal      Kind = "external_service"
	KindInternal      Kind = "internal"
)

// Error is an API-facing error.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string // offending or missing fields, when known
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooMany:
		return http.StatusTooManyRequests
	case KindNotConfigured:
		return http.StatusServiceUnavailable
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// BadRequest reports invalid input.
func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// MissingFields reports absent required fields by name.
func MissingFields(fields ...string) *Error {
	return &Error{
		Kind:    KindBadRequest,
		Message: "Missing required fields: " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}

// Invalid reports a validation failure with per-field names.
func Invalid(msg string, fields ...string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg, Fields: fields}
}

// Unauthorized reports a missing identity.
func Unauthorized(msg string) *Error {
	if msg == "" {
		msg = "Authentication required"
	}
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Forbidden reports an identity without the needed role or ownership.
func Forbidden(msg string) *Error {
	if msg == "" {
		msg = "You do not have permission to perform this action"
	}
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound reports an absent entity, e.g. NotFound("Video").
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// TooMany reports a rate-limited caller.
func TooMany(msg string) *Error {
	return &Error{Kind: KindTooMany, Message: msg}
}

// NotConfigured reports a feature whose configuration is absent.
func NotConfigured(msg string, cause error) *Error {
	return &Error{Kind: KindNotConfigured, Message: msg, Cause: cause}
}

// External reports a non-2xx or malformed response from a remote service.
func External(msg string, cause error) *Error {
	return &Error{Kind: KindExternal, Message: msg, Cause: cause}
}

// Internal wraps an unclassified failure behind a generic message.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Cause: cause}
}

// As extracts an *Error from err's chain. Any other error is wrapped as
// Internal so callers always get a classified value.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
