// Package domainerrors provides coded domain errors. Services return these so
// transport layers can translate them to HTTP statuses without inspecting
// error strings, and so tests can assert on the code rather than the message.
// Imported as dErrors by convention.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks malformed or incomplete input. User-correctable.
	CodeValidation Code = "validation_error"
	// CodeInvalidTransition marks a state machine violation.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeForbidden marks an authorization failure. No detail leaks past it.
	CodeForbidden Code = "forbidden"
	// CodeGatewayUnavailable marks an external provider failure. Retryable.
	CodeGatewayUnavailable Code = "gateway_unavailable"
	// CodeNotFound marks a missing or deliberately hidden resource.
	CodeNotFound Code = "not_found"

	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"
)

// DomainError pairs a Code with a human-readable description and an optional
// wrapped cause.
type DomainError struct {
	Code        Code
	Description string
	cause       error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *DomainError) Unwrap() error { return e.cause }

// New builds a coded error with a description safe to show a caller.
func New(code Code, description string) error {
	return &DomainError{Code: code, Description: description}
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...any) error {
	return &DomainError{Code: code, Description: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and description to an underlying cause. The cause is
// preserved for errors.Is/As but never rendered to callers.
func Wrap(err error, code Code, description string) error {
	return &DomainError{Code: code, Description: description, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// DescriptionOf extracts the caller-safe description, empty for non-domain
// errors so internals never leak.
func DescriptionOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Description
	}
	return ""
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeInvalidTransition, CodeConflict:
		return http.StatusConflict
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeGatewayUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
