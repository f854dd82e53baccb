package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure.
type Code int

const (
	Internal Code = iota + 1
	InvalidParams
	Unauthorized
	Forbidden
	Conflict
	NotFound

	// TransportFailure covers network errors and timeouts towards an external API.
	TransportFailure
	// ExecutionFailure is a compile or runtime error reported by the execution service.
	ExecutionFailure
	// AssertionMismatch is program output that differs from the expected output.
	AssertionMismatch
	// PersistenceFailure is a failed read or write against the document store.
	PersistenceFailure
)

var codeNames = map[Code]string{
	Internal:           "internal error",
	InvalidParams:      "invalid parameters",
	Unauthorized:       "unauthorized",
	Forbidden:          "forbidden",
	Conflict:           "conflict",
	NotFound:           "not found",
	TransportFailure:   "upstream unavailable",
	ExecutionFailure:   "execution failed",
	AssertionMismatch:  "wrong answer",
	PersistenceFailure: "persistence failure",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// HTTPStatus maps a code to the status handlers answer with.
func (c Code) HTTPStatus() int {
	switch c {
	case InvalidParams:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Conflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	case TransportFailure:
		return http.StatusBadGateway
	case ExecutionFailure, AssertionMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a coded error that optionally wraps a cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Code.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to err. A nil err stays nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the outermost *Error in err's chain, or Internal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// PublicMessage is the text safe to return to clients.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Code == Internal || e.Code == PersistenceFailure {
		return "Internal server error"
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code.String()
}
