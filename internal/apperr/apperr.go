package apperr

import (
	"errors"
	"fmt"
)

// Code classifies a business-rule failure. Infrastructure errors (driver,
// network) are plain errors and carry no Code.
type Code string

const (
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeScopeMismatch     Code = "SCOPE_MISMATCH"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(from, to string) *Error {
	return New(CodeInvalidTransition, "no transition from %q to %q", from, to)
}

func Forbidden(format string, args ...interface{}) *Error {
	return New(CodeForbidden, format, args...)
}

func NotFound(what string) *Error {
	return New(CodeNotFound, "%s not found", what)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(CodeConflict, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return New(CodeValidation, format, args...)
}

func ScopeMismatch(format string, args ...interface{}) *Error {
	return New(CodeScopeMismatch, format, args...)
}

// CodeOf returns the Code of err, or "" if err is not a business error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsBusiness reports whether err is a classified business-rule failure as
// opposed to an infrastructure error.
func IsBusiness(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
