// Package errors provides the error taxonomy for the Jagriti proxy.
// Every failure that crosses a package boundary is an *Error carrying a code;
// the HTTP layer maps codes to statuses and the search orchestrator uses them
// to decide whether to degrade or surface.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a standardized error code for the proxy.
type ErrorCode string

const (
	// Caller input errors
	JAGRITI_VALIDATION  ErrorCode = "JAGRITI_VALIDATION"  // Request field failed validation
	JAGRITI_BAD_REQUEST ErrorCode = "JAGRITI_BAD_REQUEST" // Request body could not be read

	// Resource errors
	JAGRITI_NOT_FOUND          ErrorCode = "JAGRITI_NOT_FOUND"          // Resource not found
	JAGRITI_METHOD_NOT_ALLOWED ErrorCode = "JAGRITI_METHOD_NOT_ALLOWED" // Route exists for another method

	// Upstream portal errors, absorbed by the service layer
	JAGRITI_UPSTREAM ErrorCode = "JAGRITI_UPSTREAM" // Non-200, transport failure or unexpected shape
	JAGRITI_DECODE   ErrorCode = "JAGRITI_DECODE"   // Embedded document payload could not be decoded

	// Server errors
	JAGRITI_INTERNAL ErrorCode = "JAGRITI_INTERNAL" // Unexpected internal error
)

// Error represents a standardized error response.
type Error struct {
	Code          ErrorCode   `json:"code"`
	Message       string      `json:"message"`
	CorrelationID string      `json:"correlationId"`
	Details       interface{} `json:"details,omitempty"`
	HTTPStatus    int         `json:"-"`
	Cause         error       `json:"-"`
}

// New creates a new Error with the specified code and message.
func New(code ErrorCode, message string, correlationID string) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// NewWithDetails creates a new Error with the specified code, message, and details.
func NewWithDetails(code ErrorCode, message string, correlationID string, details interface{}) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		Details:       details,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// Wrap creates an Error that records cause as its underlying error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatusCodeForCode(code),
		Cause:      cause,
	}
}

// Validation is shorthand for a caller input error.
func Validation(message string) *Error {
	return New(JAGRITI_VALIDATION, message, "")
}

// Upstream is shorthand for a failure talking to, or understanding, the portal.
func Upstream(message string, cause error) *Error {
	return Wrap(JAGRITI_UPSTREAM, message, cause)
}

// Decode is shorthand for a malformed embedded document.
func Decode(message string, cause error) *Error {
	return Wrap(JAGRITI_DECODE, message, cause)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Details != nil {
		msg = fmt.Sprintf("%s (details: %v)", msg, e.Details)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// CodeOf extracts the code of the first *Error in err's chain.
// Errors outside the taxonomy are reported as JAGRITI_INTERNAL.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return JAGRITI_INTERNAL
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// httpStatusCodeForCode maps error codes to HTTP status codes.
func httpStatusCodeForCode(code ErrorCode) int {
	switch code {
	case JAGRITI_VALIDATION, JAGRITI_BAD_REQUEST:
		return http.StatusBadRequest
	case JAGRITI_NOT_FOUND:
		return http.StatusNotFound
	case JAGRITI_METHOD_NOT_ALLOWED:
		return http.StatusMethodNotAllowed
	case JAGRITI_UPSTREAM:
		return http.StatusBadGateway
	case JAGRITI_DECODE:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
