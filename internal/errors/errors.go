// Package errors provides coded domain errors for the hive server.
//
// Every terminal admission failure is one of these errors, so callers can
// switch on Code and show Reason without seeing storage or transport detail:
//
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeRateLimited:
//	        // retry later
//	    case errors.CodeAlreadyMember:
//	        // title already tracked
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound                Code = "NOT_FOUND"
	CodeUnauthorized            Code = "UNAUTHORIZED"
	CodeValidation              Code = "VALIDATION"
	CodeInternal                Code = "INTERNAL"
	CodeMetadataUnavailable     Code = "METADATA_UNAVAILABLE"
	CodeRateLimited             Code = "RATE_LIMITED"
	CodeAlreadyMember           Code = "ALREADY_MEMBER"
	CodeInvalidProgress         Code = "INVALID_PROGRESS"
	CodeSeasonReconcileDegraded Code = "SEASON_RECONCILE_DEGRADED"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeValidation:
		return http.StatusBadRequest
	case CodeInvalidProgress:
		return http.StatusUnprocessableEntity
	case CodeAlreadyMember:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeMetadataUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Reason returns the human-readable explanation shown to users for a code.
func (c Code) Reason() string {
	switch c {
	case CodeNotFound:
		return "The requested item could not be found."
	case CodeUnauthorized:
		return "Sign in to continue."
	case CodeValidation:
		return "Some fields need correcting."
	case CodeMetadataUnavailable:
		return "We couldn't load this title from the catalog right now."
	case CodeRateLimited:
		return "You're adding titles too quickly. Please wait and try again."
	case CodeAlreadyMember:
		return "This title is already in your hive."
	case CodeInvalidProgress:
		return "That season or episode doesn't exist for this title."
	case CodeSeasonReconcileDegraded:
		return "Season details may be incomplete for this title."
	default:
		return "Something went wrong."
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound                = &Error{Code: CodeNotFound, Message: CodeNotFound.Reason()}
	ErrUnauthorized            = &Error{Code: CodeUnauthorized, Message: CodeUnauthorized.Reason()}
	ErrValidation              = &Error{Code: CodeValidation, Message: CodeValidation.Reason()}
	ErrInternal                = &Error{Code: CodeInternal, Message: CodeInternal.Reason()}
	ErrMetadataUnavailable     = &Error{Code: CodeMetadataUnavailable, Message: CodeMetadataUnavailable.Reason()}
	ErrRateLimited             = &Error{Code: CodeRateLimited, Message: CodeRateLimited.Reason()}
	ErrAlreadyMember           = &Error{Code: CodeAlreadyMember, Message: CodeAlreadyMember.Reason()}
	ErrInvalidProgress         = &Error{Code: CodeInvalidProgress, Message: CodeInvalidProgress.Reason()}
	ErrSeasonReconcileDegraded = &Error{Code: CodeSeasonReconcileDegraded, Message: CodeSeasonReconcileDegraded.Reason()}
)

// RateLimitDetails is attached to RATE_LIMITED errors.
type RateLimitDetails struct {
	RetryAfterSeconds int `json:"retry_after_seconds"`
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// MetadataUnavailable wraps a catalog failure. The cause is kept for logs
// but the message stays user-facing.
func MetadataUnavailable(cause error) *Error {
	return &Error{Code: CodeMetadataUnavailable, Message: CodeMetadataUnavailable.Reason(), cause: cause}
}

// RateLimited creates a rate limited error carrying a retry hint.
// The hint is rounded up to whole seconds and is never below one.
func RateLimited(retryAfter time.Duration) *Error {
	secs := int((retryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return &Error{
		Code:    CodeRateLimited,
		Message: CodeRateLimited.Reason(),
		Details: RateLimitDetails{RetryAfterSeconds: secs},
	}
}

// AlreadyMember creates the "already added" error.
func AlreadyMember() *Error {
	return &Error{Code: CodeAlreadyMember, Message: CodeAlreadyMember.Reason()}
}

// InvalidProgress creates a progress error with per-field details.
func InvalidProgress(msg string, details map[string]string) *Error {
	return &Error{Code: CodeInvalidProgress, Message: msg, Details: details}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// RetryAfter extracts the retry hint from a RATE_LIMITED error.
func RetryAfter(err error) (time.Duration, bool) {
	var domainErr *Error
	if !errors.As(err, &domainErr) || domainErr.Code != CodeRateLimited {
		return 0, false
	}
	d, ok := domainErr.Details.(RateLimitDetails)
	if !ok {
		return 0, false
	}
	return time.Duration(d.RetryAfterSeconds) * time.Second, true
}
