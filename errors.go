package gofeed

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error independently of any transport.
type Code string

// Error codes.
const (
	CodeAuthenticationRequired Code = "AUTHENTICATION_REQUIRED"
	CodeForbidden              Code = "FORBIDDEN"
	CodeNotFound               Code = "NOT_FOUND"
	CodeValidationFailed       Code = "VALIDATION_FAILED"
	CodeConflict               Code = "CONFLICT"
	CodeRateLimited            Code = "RATE_LIMITED"
	CodeInternal               Code = "INTERNAL"
)

// Sentinel errors for use with errors.Is(). Every *Error unwraps to the sentinel of its code.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not found")
	ErrValidationFailed       = errors.New("validation failed")
	ErrConflict               = errors.New("conflict")
	ErrRateLimited            = errors.New("rate limited")
	ErrInternal               = errors.New("internal error")

	// Config errors
	ErrConfigInvalid = errors.New("configuration is invalid")
	ErrStoreRequired = errors.New("store is required")
)

var codeInfo = map[Code]struct {
	sentinel error
	status   int
}{
	CodeAuthenticationRequired: {ErrAuthenticationRequired, http.StatusUnauthorized},
	CodeForbidden:              {ErrForbidden, http.StatusForbidden},
	CodeNotFound:               {ErrNotFound, http.StatusNotFound},
	CodeValidationFailed:       {ErrValidationFailed, http.StatusUnprocessableEntity},
	CodeConflict:               {ErrConflict, http.StatusConflict},
	CodeRateLimited:            {ErrRateLimited, http.StatusTooManyRequests},
	CodeInternal:               {ErrInternal, http.StatusInternalServerError},
}

// Status returns the HTTP status conventionally used for the code.
func (c Code) Status() int {
	if info, ok := codeInfo[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// FieldError is one entry of a validation failure.
type FieldError struct {
	Message string `json:"message"`
}

// Error is the structured error returned by every Feed operation.
type Error struct {
	Code    Code
	Message string
	Data    []FieldError
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the code's sentinel and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if info, ok := codeInfo[e.Code]; ok {
		errs = append(errs, info.sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Status returns the HTTP status for the error's code.
func (e *Error) Status() int {
	return e.Code.Status()
}

// NewError creates an Error with the given code, message and optional cause.
func NewError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Classify returns err as an *Error, wrapping anything unclassified as an internal error
// whose message hides the cause.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Message: "An error occurred.", Err: err}
}

// CodeOf returns the classification code of err.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return Classify(err).Code
}

func notAuthenticated() *Error {
	return NewError(CodeAuthenticationRequired, "Not authenticated", nil)
}
