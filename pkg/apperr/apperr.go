package apperr

import (
	"errors"
	"fmt"
)

// Code is the stable error vocabulary surfaced to API callers.
// Handlers map codes to HTTP statuses; message text is free-form.
type Code string

const (
	CodeInvalidValue   Code = "InvalidValue"
	CodeNotYours       Code = "NotYours"
	CodeAlreadyUsed    Code = "AlreadyUsed"
	CodeAlreadyDecided Code = "AlreadyDecided"
	CodeNotDecided     Code = "NotDecided"
)

// Error carries a stable code plus an optional human-readable detail.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Is matches errors by code so services can wrap details while callers
// compare against the exported sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrInvalidValue   = &Error{Code: CodeInvalidValue}
	ErrNotYours       = &Error{Code: CodeNotYours}
	ErrAlreadyUsed    = &Error{Code: CodeAlreadyUsed}
	ErrAlreadyDecided = &Error{Code: CodeAlreadyDecided}
	ErrNotDecided     = &Error{Code: CodeNotDecided}
)

// New returns an error with the given code and detail.
func New(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// Newf formats the detail.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the stable code from err, or empty when err is not an
// application error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
