package models

import "net/http"

// ErrorCode is a machine-readable error code from the closed set shared by
// the server and its clients.
type ErrorCode string

const (
	CodeBadRequest      ErrorCode = "BAD_REQUEST"
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeForbidden       ErrorCode = "FORBIDDEN"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeConflict        ErrorCode = "CONFLICT"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternalError   ErrorCode = "INTERNAL_ERROR"
	CodeUnknownError    ErrorCode = "UNKNOWN_ERROR"

	// CodeTimeout and CodeNetworkError are only produced by clients, when no
	// server response was obtained.
	CodeTimeout      ErrorCode = "TIMEOUT"
	CodeNetworkError ErrorCode = "NETWORK_ERROR"
)

var statusCodes = map[int]ErrorCode{
	http.StatusBadRequest:          CodeBadRequest,
	http.StatusUnauthorized:        CodeUnauthorized,
	http.StatusForbidden:           CodeForbidden,
	http.StatusNotFound:            CodeNotFound,
	http.StatusConflict:            CodeConflict,
	http.StatusUnprocessableEntity: CodeValidationError,
	http.StatusInternalServerError: CodeInternalError,
}

// CodeFromStatus maps an HTTP status to its error code. Statuses outside the
// table map to CodeUnknownError.
func CodeFromStatus(status int) ErrorCode {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return CodeUnknownError
}

// Valid reports whether c belongs to the closed code set.
func (c ErrorCode) Valid() bool {
	switch c {
	case CodeBadRequest, CodeUnauthorized, CodeForbidden, CodeNotFound, CodeConflict,
		CodeValidationError, CodeInternalError, CodeUnknownError, CodeTimeout, CodeNetworkError:
		return true
	}
	return false
}

// ClientOnly reports whether c may only be produced by a client.
func (c ErrorCode) ClientOnly() bool {
	return c == CodeTimeout || c == CodeNetworkError
}

func (c ErrorCode) String() string { return string(c) }
