package api

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeAuthentication ErrorCode = "AUTHENTICATION_ERROR"
	CodeRateLimit      ErrorCode = "RATE_LIMIT_ERROR"
	CodeUpstream       ErrorCode = "UPSTREAM_ERROR"
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
)

// Error pairs a taxonomy code with the client-facing message and the
// underlying cause. The cause is logged, never returned to the caller.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("api: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api: %s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func statusFor(code ErrorCode) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeAuthentication:
		return http.StatusUnauthorized
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
