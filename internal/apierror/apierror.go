// Package apierror defines the errors API handlers return. Every error that
// reaches the response boundary is classified into one of three kinds, so the
// boundary never has to guess at the shape of what it caught.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MacJediWizard/i18n/pkg/models"
)

// Kind is the classification of an API error.
type Kind int

const (
	// KindUnclassified is any error that carries no HTTP semantics of its own.
	KindUnclassified Kind = iota
	// KindHTTP is an error with a declared status and optional message and code.
	KindHTTP
	// KindValidation is an input validation failure with one or more messages.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindValidation:
		return "validation"
	default:
		return "unclassified"
	}
}

// Violation is a single validation failure. Field is empty when the failure
// is not tied to one input field.
type Violation struct {
	Field   string
	Message string
}

// Error is the error type understood by the response normalizer.
type Error struct {
	Kind       Kind
	Status     int
	Message    string
	Code       models.ErrorCode
	Violations []Violation
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("http %d: %s", e.Status, msg)
	case KindValidation:
		return fmt.Sprintf("validation: %d violation(s)", len(e.Violations))
	default:
		return fmt.Sprintf("unclassified: %s", msg)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Messages returns the validation messages in the order they were raised.
func (e *Error) Messages() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.Message)
	}
	return out
}

// WithCode returns a copy of e with the given code.
func (e *Error) WithCode(code models.ErrorCode) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// New returns an HTTP error with the given status and message.
func New(status int, message string) *Error {
	return &Error{Kind: KindHTTP, Status: status, Message: message}
}

// Newf is New with a formatted message.
func Newf(status int, format string, args ...any) *Error {
	return New(status, fmt.Sprintf(format, args...))
}

func BadRequest(message string) *Error   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error    { return New(http.StatusForbidden, message) }
func NotFound(message string) *Error     { return New(http.StatusNotFound, message) }
func Conflict(message string) *Error     { return New(http.StatusConflict, message) }

// Internal wraps cause as an unclassified error. Its text is never sent to clients.
func Internal(cause error) *Error {
	return &Error{Kind: KindUnclassified, Cause: cause}
}

// Validation returns a validation error for the given violations.
func Validation(violations ...Violation) *Error {
	return &Error{
		Kind:       KindValidation,
		Status:     http.StatusUnprocessableEntity,
		Violations: violations,
	}
}

// ValidationMessages returns a validation error for messages not tied to a field.
func ValidationMessages(messages ...string) *Error {
	violations := make([]Violation, 0, len(messages))
	for _, m := range messages {
		violations = append(violations, Violation{Message: m})
	}
	return Validation(violations...)
}

// Classify returns the *Error found in err's chain. Validator failures become
// a validation error; anything else is unclassified. A nil err yields nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr
	}
	if validation := classifyValidation(err); validation != nil {
		return validation
	}
	return Internal(err)
}
