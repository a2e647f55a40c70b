package apperrors

import "net/http"

// ErrorCode is the wire-level error code.
type ErrorCode string

// Fixed error taxonomy. Every service error is mapped onto one of these
// before it leaves the process.
const (
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeForbidden       ErrorCode = "FORBIDDEN"
	CodeBadRequest      ErrorCode = "BAD_REQUEST"
	CodeRateLimited     ErrorCode = "RATE_LIMITED"
	CodeInternalError   ErrorCode = "INTERNAL_ERROR"
)

var httpStatusByCode = map[ErrorCode]int{
	CodeValidationError: http.StatusBadRequest,
	CodeNotFound:        http.StatusNotFound,
	CodeUnauthorized:    http.StatusUnauthorized,
	CodeForbidden:       http.StatusForbidden,
	CodeBadRequest:      http.StatusBadRequest,
	CodeRateLimited:     http.StatusTooManyRequests,
	CodeInternalError:   http.StatusInternalServerError,
}

// Only rate limiting and internal failures are worth retrying from the
// client side; everything else will fail the same way again.
var retryableByCode = map[ErrorCode]bool{
	CodeRateLimited:   true,
	CodeInternalError: true,
}

// HTTPStatus returns the HTTP status for a code.
func HTTPStatus(code ErrorCode) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Retryable reports whether a client may retry the failed request.
func Retryable(code ErrorCode) bool {
	return retryableByCode[code]
}
