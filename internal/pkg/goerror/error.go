// Package goerror carries typed application errors from usecases to the
// transport layer, which maps them onto HTTP status codes.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned by repositories on a unique violation.
	ErrConflict = errors.New("resource conflict")
)

// Type is the broad error category.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier that maps to an HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
)

var codeNames = map[Code]string{
	CodeInternal:       "ERROR_CODE_INTERNAL",
	CodeInvalidFormat:  "ERROR_CODE_INVALID_FORMAT",
	CodeInvalidInput:   "ERROR_CODE_INVALID_INPUT",
	CodeNotFound:       "ERROR_CODE_NOT_FOUND",
	CodeConflict:       "ERROR_CODE_CONFLICT",
	CodeTooManyRequest: "ERROR_CODE_TOO_MANY_REQUESTS",
	CodeUnauthorized:   "ERROR_CODE_UNAUTHORIZED",
	CodeForbidden:      "ERROR_CODE_FORBIDDEN",
	CodeTimeout:        "ERROR_CODE_TIMEOUT",
}

var codeStatus = map[Code]int{
	CodeInternal:       http.StatusInternalServerError,
	CodeInvalidFormat:  http.StatusBadRequest,
	CodeInvalidInput:   http.StatusUnprocessableEntity,
	CodeNotFound:       http.StatusNotFound,
	CodeConflict:       http.StatusConflict,
	CodeTooManyRequest: http.StatusTooManyRequests,
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeForbidden:      http.StatusForbidden,
	CodeTimeout:        http.StatusRequestTimeout,
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return codeNames[CodeInternal]
}

// Error is the structured error shared by every layer.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	case e.errType == TypeValidation:
		return "Validation violation"
	case e.errType == TypeBusiness:
		return "Logical business not meet with requirement"
	default:
		return "Internal error"
	}
}

// String is the verbose form used in logs.
func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q err=%v", e.errType, e.code, e.msg, e.err)
}

// Msg is the user facing message.
func (e *Error) Msg() string { return e.msg }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

// Fields holds per-field validation messages, if any.
func (e *Error) Fields() map[string]string { return e.fields }

func (e *Error) Unwrap() error { return e.err }

// StatusCode maps Code onto an HTTP status.
func (e *Error) StatusCode() int {
	if status, ok := codeStatus[e.code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func build(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer wraps an infrastructure failure.
func NewServer(err error) error {
	return build(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness reports a rule violation with a user facing message.
func NewBusiness(msg string, code Code) error {
	return build(nil, msg, TypeBusiness, code)
}

// NewInvalidInput reports validation failures. Either pass the validator error,
// or nil plus key/value pairs naming offending fields.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return build(err, "Validation error", TypeValidation, CodeInvalidInput)
	}
	if len(kv)%2 != 0 {
		return build(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	e := &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		e.fields[kv[i]] = kv[i+1]
	}
	return e
}

// NewInvalidFormat reports an undecodable request.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return build(nil, msg, TypeValidation, CodeInvalidFormat)
}

// HasCode reports whether err is an *Error carrying code.
func HasCode(err error, code Code) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.code == code
}
