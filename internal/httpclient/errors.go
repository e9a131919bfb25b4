package httpclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MacJediWizard/i18n/pkg/models"
)

// Messages used when the server supplied none or no response was obtained.
const (
	MessageRequestFailed = "request failed"
	MessageTimeout       = "request timed out"
	MessageNetwork       = "network error"
)

// Error is the failure returned by Client for every unsuccessful request.
// Status is 0 when no HTTP response was received.
type Error struct {
	Message string
	Status  int
	Code    models.ErrorCode
	Errors  map[string][]string

	cause error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Unwrap returns the transport failure behind a timeout or network error.
func (e *Error) Unwrap() error { return e.cause }

// newResponseError builds the error for a non-2xx response from its envelope.
func newResponseError(status int, env *models.Envelope) *Error {
	e := &Error{
		Message: MessageRequestFailed,
		Status:  status,
		Code:    models.CodeFromStatus(status),
	}
	if env == nil {
		return e
	}
	if env.Message != "" {
		e.Message = env.Message
	}
	if code := models.ErrorCode(env.Code); code.Valid() && !code.ClientOnly() {
		e.Code = code
	}
	e.Errors = env.Errors
	return e
}

func newTimeoutError(cause error) *Error {
	return &Error{
		Message: MessageTimeout,
		Status:  http.StatusRequestTimeout,
		Code:    models.CodeTimeout,
		cause:   cause,
	}
}

func newNetworkError(cause error) *Error {
	return &Error{
		Message: MessageNetwork,
		Code:    models.CodeNetworkError,
		cause:   cause,
	}
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code models.ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool { return HasCode(err, models.CodeTimeout) }

// IsNetwork reports whether err is a failure to obtain any response.
func IsNetwork(err error) bool { return HasCode(err, models.CodeNetworkError) }

// IsUnauthorized reports whether the server rejected the credentials.
func IsUnauthorized(err error) bool { return HasCode(err, models.CodeUnauthorized) }
