// Package errors is the project error taxonomy, import it as perr
//
// Every failure that crosses a package boundary carries an ErrorCode. The code
// decides the HTTP status, the wire kind and whether a caller may retry.
package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a failure, values are part of the wire format so only append
type ErrorCode uint16

const (
	ErrorCodeUnknown ErrorCode = iota
	ErrorCodePanic
	ErrorCodeUnavailable
	ErrorCodeUnauthorized
	ErrorCodeForbidden
	ErrorCodeInvalidParameter
	ErrorCodeValidation
	ErrorCodeJSON
	ErrorCodeNotFound
	ErrorCodeDuplicateKey
	ErrorCodeDB
	// ErrorCodeShapeMismatch is a feature matrix with the wrong hour or feature count
	ErrorCodeShapeMismatch
	// ErrorCodeNotReady is a request that arrived before the model was installed
	ErrorCodeNotReady
	// ErrorCodeInference is a numerical failure inside model evaluation
	ErrorCodeInference
	// ErrorCodeTimeout is a request that ran past its compute budget or was canceled
	ErrorCodeTimeout
)

type codeInfo struct {
	kind      string
	status    int
	transient bool
}

var codes = map[ErrorCode]codeInfo{
	ErrorCodeUnknown:          {"unknown", http.StatusInternalServerError, false},
	ErrorCodePanic:            {"panic", http.StatusInternalServerError, false},
	ErrorCodeUnavailable:      {"unavailable", http.StatusServiceUnavailable, true},
	ErrorCodeUnauthorized:     {"unauthorized", http.StatusUnauthorized, false},
	ErrorCodeForbidden:        {"forbidden", http.StatusForbidden, false},
	ErrorCodeInvalidParameter: {"invalid_parameter", http.StatusUnprocessableEntity, false},
	ErrorCodeValidation:       {"validation", http.StatusBadRequest, false},
	ErrorCodeJSON:             {"json", http.StatusBadRequest, false},
	ErrorCodeNotFound:         {"not_found", http.StatusNotFound, false},
	ErrorCodeDuplicateKey:     {"duplicate_key", http.StatusConflict, false},
	ErrorCodeDB:               {"db", http.StatusInternalServerError, false},
	ErrorCodeShapeMismatch:    {"shape_mismatch", http.StatusUnprocessableEntity, false},
	ErrorCodeNotReady:         {"not_ready", http.StatusServiceUnavailable, true},
	ErrorCodeInference:        {"inference_failure", http.StatusInternalServerError, false},
	ErrorCodeTimeout:          {"timeout", http.StatusGatewayTimeout, true},
}

// String is the snake_case kind used on the wire and as a metrics label
func (c ErrorCode) String() string {
	if ci, ok := codes[c]; ok {
		return ci.kind
	}
	return fmt.Sprintf("code_%d", uint16(c))
}

// Status is the HTTP status c answers with, unknown codes are 500
func (c ErrorCode) Status() int {
	if ci, ok := codes[c]; ok {
		return ci.status
	}
	return http.StatusInternalServerError
}

// Error carries a code, a message for humans and optionally the offending field,
// the operation that failed and the cause
type Error struct {
	code  ErrorCode
	msg   string
	field string
	op    string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error   { return e.cause }
func (e *Error) Code() ErrorCode { return e.code }
func (e *Error) Field() string   { return e.field }
func (e *Error) Op() string      { return e.op }

// ErrNotFound is the bare not found error
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// New returns an error with code and msg
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf is New with a format
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap classifies cause under code, errors.Is and As still reach cause
func Wrap(cause error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, cause: cause}
}

// Wrapf is Wrap with a format
func Wrapf(cause error, code ErrorCode, format string, a ...any) error {
	return Wrap(cause, code, fmt.Sprintf(format, a...))
}

func NotFoundf(format string, a ...any) error     { return Newf(ErrorCodeNotFound, format, a...) }
func InvalidParamf(format string, a ...any) error { return Newf(ErrorCodeInvalidParameter, format, a...) }
func DBf(format string, a ...any) error           { return Newf(ErrorCodeDB, format, a...) }
func JSONErrf(format string, a ...any) error      { return Newf(ErrorCodeJSON, format, a...) }
func PanicErrf(format string, a ...any) error     { return Newf(ErrorCodePanic, format, a...) }
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }
func Forbiddenf(format string, a ...any) error    { return Newf(ErrorCodeForbidden, format, a...) }
func Unavailablef(format string, a ...any) error  { return Newf(ErrorCodeUnavailable, format, a...) }
func ShapeMismatchf(format string, a ...any) error {
	return Newf(ErrorCodeShapeMismatch, format, a...)
}
func NotReadyf(format string, a ...any) error  { return Newf(ErrorCodeNotReady, format, a...) }
func Inferencef(format string, a ...any) error { return Newf(ErrorCodeInference, format, a...) }
func Timeoutf(format string, a ...any) error   { return Newf(ErrorCodeTimeout, format, a...) }

// As finds the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrs.As(err, &e)
	return e, ok
}

// CodeOf is the code of the outermost *Error, foreign errors are Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err is classified as code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus is the status err answers with
func HTTPStatus(err error) int { return CodeOf(err).Status() }

// WithField returns a copy of err naming the offending input field
// errors outside the taxonomy come back untouched
func WithField(err error, field string) error {
	return with(err, func(c *Error) { c.field = field })
}

// WithOp returns a copy of err tagged with the operation that failed
func WithOp(err error, op string) error {
	return with(err, func(c *Error) { c.op = op })
}

func with(err error, set func(*Error)) error {
	e, ok := As(err)
	if !ok {
		return err
	}
	c := *e
	set(&c)
	return &c
}

// FromContext classifies a context error as a timeout for op, nil stays nil
func FromContext(err error, op string) error {
	if err == nil {
		return nil
	}
	msg := "compute budget exceeded"
	if stderrs.Is(err, context.Canceled) {
		msg = "request canceled"
	}
	return WithOp(Wrap(err, ErrorCodeTimeout, msg), op)
}

// Retryable reports whether repeating the call may succeed
// transient codes always are, database errors defer to the sqlstate
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if codes[CodeOf(err)].transient {
		return true
	}
	return pgRetryable(err)
}

// Wire is the error part of a response envelope
type Wire struct {
	Code      ErrorCode `json:"code"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Field     string    `json:"field,omitempty"`
	Retryable bool      `json:"retryable,omitempty"`
}

// WireFrom renders err for callers, foreign errors become unknown with their text
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	e, ok := As(err)
	if !ok {
		return Wire{Code: ErrorCodeUnknown, Kind: ErrorCodeUnknown.String(), Message: err.Error()}
	}
	return Wire{Code: e.code, Kind: e.code.String(), Message: e.msg, Field: e.field, Retryable: Retryable(err)}
}
