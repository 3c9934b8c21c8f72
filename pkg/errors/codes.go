// Package errors provides the standardized error envelope used by dframe API routes.
package errors

import "net/http"

// ErrorCode represents a standardized error code
type ErrorCode int

// Error code categories:
// 1xxx - Validation errors
// 2xxx - Authentication/Authorization errors
// 3xxx - System errors
// 4xxx - Business logic errors
const (
	// Validation errors (1xxx)
	CodeValidationFailed     ErrorCode = 1000
	CodeInvalidInput         ErrorCode = 1001
	CodeMissingRequiredField ErrorCode = 1002
	CodeInvalidFormat        ErrorCode = 1003
	CodeInvalidJSON          ErrorCode = 1008

	// Authentication/Authorization errors (2xxx)
	CodeUnauthorized ErrorCode = 2000
	CodeTokenExpired ErrorCode = 2002
	CodeTokenInvalid ErrorCode = 2003
	CodeTokenMissing ErrorCode = 2004
	CodeForbidden    ErrorCode = 2005

	// System errors (3xxx)
	CodeInternalServerError ErrorCode = 3000
	CodeStorageError        ErrorCode = 3001
	CodeServiceUnavailable  ErrorCode = 3002
	CodeRateLimitExceeded   ErrorCode = 3004
	CodeNotImplemented      ErrorCode = 3006
	CodeMethodNotAllowed    ErrorCode = 3016

	// Business logic errors (4xxx)
	CodeResourceNotFound      ErrorCode = 4001
	CodeResourceAlreadyExists ErrorCode = 4002
	CodeConflict              ErrorCode = 4005
)

// errorMessages maps error codes to default messages
var errorMessages = map[ErrorCode]string{
	CodeValidationFailed:     "Validation failed",
	CodeInvalidInput:         "Invalid input provided",
	CodeMissingRequiredField: "Required field is missing",
	CodeInvalidFormat:        "Invalid format",
	CodeInvalidJSON:          "Invalid JSON format",

	CodeUnauthorized: "Unauthorized access",
	CodeTokenExpired: "Token has expired",
	CodeTokenInvalid: "Invalid token",
	CodeTokenMissing: "Token is missing",
	CodeForbidden:    "Access forbidden",

	CodeInternalServerError: "Internal server error",
	CodeStorageError:        "Storage error occurred",
	CodeServiceUnavailable:  "Service temporarily unavailable",
	CodeRateLimitExceeded:   "Rate limit exceeded",
	CodeNotImplemented:      "Feature not implemented",
	CodeMethodNotAllowed:    "Method not allowed",

	CodeResourceNotFound:      "Resource not found",
	CodeResourceAlreadyExists: "Resource already exists",
	CodeConflict:              "Resource conflict",
}

// codeToHTTPStatus maps error codes to HTTP statuses
var codeToHTTPStatus = map[ErrorCode]int{
	CodeValidationFailed:     http.StatusBadRequest,
	CodeInvalidInput:         http.StatusBadRequest,
	CodeMissingRequiredField: http.StatusBadRequest,
	CodeInvalidFormat:        http.StatusBadRequest,
	CodeInvalidJSON:          http.StatusBadRequest,

	CodeUnauthorized: http.StatusUnauthorized,
	CodeTokenExpired: http.StatusUnauthorized,
	CodeTokenInvalid: http.StatusUnauthorized,
	CodeTokenMissing: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,

	CodeInternalServerError: http.StatusInternalServerError,
	CodeStorageError:        http.StatusInternalServerError,
	CodeServiceUnavailable:  http.StatusServiceUnavailable,
	CodeRateLimitExceeded:   http.StatusTooManyRequests,
	CodeNotImplemented:      http.StatusNotImplemented,
	CodeMethodNotAllowed:    http.StatusMethodNotAllowed,

	CodeResourceNotFound:      http.StatusNotFound,
	CodeResourceAlreadyExists: http.StatusConflict,
	CodeConflict:              http.StatusConflict,
}

// Message returns the default message for an error code
func (e ErrorCode) Message() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return "Unknown error"
}

// Int returns the error code as an integer
func (e ErrorCode) Int() int {
	return int(e)
}

// String returns the error code as a string
func (e ErrorCode) String() string {
	return e.Message()
}

// HTTPStatus returns the HTTP status associated with the code
func (e ErrorCode) HTTPStatus() int {
	return GetHTTPStatus(e)
}

// GetHTTPStatus returns the appropriate HTTP status code for an error code
func GetHTTPStatus(code ErrorCode) int {
	if status, ok := codeToHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
