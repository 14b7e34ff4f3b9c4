// Package errors is the coded error type shared by the sync, summary and api
// layers. Import it as perr
package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// ErrorCode classifies an error for retry decisions and http mapping.
// Values go over the wire, append only
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is for panics recovered by middleware
	ErrorCodePanic

	// ErrorCodeUnavailable is a 5xx from a remote after retries ran out
	ErrorCodeUnavailable

	// ErrorCodeTooManyRequests is a remote still rate limiting after retries
	ErrorCodeTooManyRequests

	// ErrorCodeConflict is a run already in progress or a racing write
	ErrorCodeConflict

	// ErrorCodeUnauthorized is a rejected credential, ours or a remote's
	ErrorCodeUnauthorized

	// ErrorCodeInvalidArgument is a well formed request with bad values
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is a request or option failing struct validation
	ErrorCodeValidation

	// ErrorCodeJSON is a body that does not decode
	ErrorCodeJSON

	// ErrorCodeNotFound is for missing rows
	ErrorCodeNotFound

	// ErrorCodeDB is a non transient database failure
	ErrorCodeDB

	// ErrorCodeCanceled is work abandoned because of a cancel request
	ErrorCodeCanceled

	// ErrorCodeNetwork is a transport failure or timeout talking to a remote
	ErrorCodeNetwork

	// ErrorCodeStorage is a document or state write that may succeed on retry
	ErrorCodeStorage

	// ErrorCodeUpstream is an unexpected, non retryable remote response
	ErrorCodeUpstream
)

var codeNames = [...]string{
	"unknown", "panic", "unavailable", "too_many_requests", "conflict", "unauthorized",
	"invalid_argument", "validation", "json", "not_found", "db",
	"canceled", "network", "storage", "upstream",
}

// String returns the snake case name of the code, used in logs
func (c ErrorCode) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("code(%d)", uint16(c))
}

// HTTPStatusCode maps a code to the status the control api answers with
func HTTPStatusCode(c ErrorCode) int {
	switch c {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeInvalidArgument:
		return http.StatusUnprocessableEntity
	case ErrorCodeConflict:
		return http.StatusConflict
	case ErrorCodeValidation, ErrorCodeJSON:
		return http.StatusBadRequest
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeCanceled:
		return http.StatusRequestTimeout
	case ErrorCodeNetwork:
		return http.StatusGatewayTimeout
	case ErrorCodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrNotFound is returned by single row reads that match nothing
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error carries a code, a message, an optional field and the wrapped cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
}

// Wire is the error part of a response envelope
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// WireFrom converts any error into its wire form. The cause stays out of the
// message so remote response bodies do not leak to api clients
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return Wire{Code: e.code, Message: e.msg, Field: e.field}
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// As returns the outermost *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost *Error in err's chain, or Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus returns the mapped HTTP status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// WithField returns a copy of err naming the offending field. Foreign errors
// pass through unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// New returns an *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns an *Error with a formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns an *Error wrapping orig. The wrap point's stack is recorded
// so zerolog's Stack() can print it
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: pkgerrors.WithStack(orig)}
}

// Wrapf returns an *Error wrapping orig with a formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return Wrap(orig, code, fmt.Sprintf(format, a...))
}

// NotFoundf returns a NotFound error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf returns an InvalidArgument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// JSONErrf returns a JSON error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// PanicErrf returns a Panic error
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }

// Unauthorizedf returns an Unauthorized error
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }

// Conflictf returns a Conflict error
func Conflictf(format string, a ...any) error { return Newf(ErrorCodeConflict, format, a...) }

// Unavailablef returns an Unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// Storagef returns a Storage error
func Storagef(format string, a ...any) error { return Newf(ErrorCodeStorage, format, a...) }

// Retryable reports whether a caller may try the failed operation again.
// Cancellation never is
func Retryable(err error) bool {
	if err == nil || IsCanceled(err) {
		return false
	}
	switch CodeOf(err) {
	case ErrorCodeUnavailable, ErrorCodeNetwork, ErrorCodeTooManyRequests, ErrorCodeStorage:
		return true
	}
	return IsRetryable(err)
}

// IsCanceled reports whether err is our Canceled code or a context
// cancellation anywhere in the chain
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return IsCode(err, ErrorCodeCanceled) || stderrs.Is(err, context.Canceled)
}
