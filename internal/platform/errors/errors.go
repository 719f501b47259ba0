// Package errors is the ringroster coded error type; import it as perr
package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine readable error class carried on the wire
// values are part of the API contract
type ErrorCode string

const (
	ErrorCodeUnknown         ErrorCode = "unknown"
	ErrorCodePanic           ErrorCode = "panic"
	ErrorCodeUnavailable     ErrorCode = "unavailable"
	ErrorCodeTooManyRequests ErrorCode = "too_many_requests"
	ErrorCodeConflict        ErrorCode = "conflict"
	ErrorCodeUnauthorized    ErrorCode = "unauthorized"
	ErrorCodeForbidden       ErrorCode = "forbidden"
	ErrorCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrorCodeValidation      ErrorCode = "validation"
	ErrorCodeJSON            ErrorCode = "json"
	ErrorCodeNotFound        ErrorCode = "not_found"
	ErrorCodeDuplicateKey    ErrorCode = "duplicate_key"
	ErrorCodeDB              ErrorCode = "db"
	ErrorCodeTimeout         ErrorCode = "timeout"
)

var statusByCode = map[ErrorCode]int{
	ErrorCodeNotFound:        http.StatusNotFound,
	ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
	ErrorCodeDuplicateKey:    http.StatusConflict,
	ErrorCodeConflict:        http.StatusConflict,
	ErrorCodeValidation:      http.StatusBadRequest,
	ErrorCodeJSON:            http.StatusBadRequest,
	ErrorCodeUnauthorized:    http.StatusUnauthorized,
	ErrorCodeForbidden:       http.StatusForbidden,
	ErrorCodeTooManyRequests: http.StatusTooManyRequests,
	ErrorCodeUnavailable:     http.StatusServiceUnavailable,
	ErrorCodeTimeout:         http.StatusGatewayTimeout,
}

// HTTPStatusCode maps c to an HTTP status, unmapped codes are 500
func HTTPStatusCode(c ErrorCode) int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// CodeForStatus is the reverse of HTTPStatusCode for clients that only see a status
func CodeForStatus(status int) ErrorCode {
	switch status {
	case http.StatusNotFound:
		return ErrorCodeNotFound
	case http.StatusUnprocessableEntity:
		return ErrorCodeInvalidArgument
	case http.StatusConflict:
		return ErrorCodeConflict
	case http.StatusBadRequest:
		return ErrorCodeValidation
	case http.StatusUnauthorized:
		return ErrorCodeUnauthorized
	case http.StatusForbidden:
		return ErrorCodeForbidden
	case http.StatusTooManyRequests:
		return ErrorCodeTooManyRequests
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return ErrorCodeUnavailable
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return ErrorCodeTimeout
	}
	return ErrorCodeUnknown
}

// ErrNotFound is a sentinel not found error
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error carries a code for machines and a message for people
// field names the offending input, op tags the failing operation
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
}

// Wire is the JSON form of an Error
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.msg
	if e.op != "" {
		msg = e.op + ": " + msg
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", msg, e.orig)
	}
	return msg
}

// Unwrap returns the cause
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field
func (e *Error) Field() string { return e.field }

// Op returns the operation tag
func (e *Error) Op() string { return e.op }

// Message returns the message without op or cause
func (e *Error) Message() string { return e.msg }

// ToWire converts e to its JSON form
func (e *Error) ToWire() Wire { return Wire{Code: e.code, Message: e.msg, Field: e.field} }

// FromWire rebuilds an *Error decoded from a response body; an empty code is derived from status
func FromWire(status int, w Wire) error {
	code := w.Code
	if code == "" {
		code = CodeForStatus(status)
	}
	msg := w.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{code: code, msg: msg, field: w.Field}
}

// WireFrom converts any error into a Wire; foreign errors become unknown
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// As returns the outermost *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns err's code, unknown for foreign errors
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus returns the mapped HTTP status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// HTTP returns status and wire for err in one call
func HTTP(err error) (int, Wire) {
	if err == nil {
		return http.StatusOK, Wire{}
	}
	return HTTPStatus(err), WireFrom(err)
}

// WithField returns a copy of err's *Error with field set; foreign errors are wrapped as unknown
func WithField(err error, field string) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return &Error{code: ErrorCodeUnknown, msg: err.Error(), field: field, orig: err}
}

// WithOp returns a copy of err's *Error with op set; foreign errors are returned unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// New returns an *Error
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns an *Error with a formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns an *Error caused by orig
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns an *Error caused by orig with a formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WrapIf wraps only a non-nil err
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// Validationf returns a validation error
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }

// Conflictf returns a conflict error
func Conflictf(format string, a ...any) error { return Newf(ErrorCodeConflict, format, a...) }

// JSONErrf returns a JSON decoding error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// PanicErrf returns a recovered panic error
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }

// Unauthorizedf returns an unauthorized error
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// Retryable reports whether repeating the operation may succeed: transient API codes and
// Postgres contention both qualify
func Retryable(err error) bool {
	switch CodeOf(err) {
	case ErrorCodeUnavailable, ErrorCodeTooManyRequests, ErrorCodeTimeout:
		return true
	}
	return IsRetryable(err)
}
