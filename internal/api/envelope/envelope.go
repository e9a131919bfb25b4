// Package envelope is the response boundary of the API server. Every response
// that leaves the process, successful or not, is written here as one of the
// two envelope shapes defined in pkg/models.
package envelope

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MacJediWizard/i18n/internal/apierror"
	"github.com/MacJediWizard/i18n/pkg/models"
)

const (
	// MessageInternal replaces the text of any error the boundary cannot classify.
	MessageInternal = "internal server error"
	// MessageValidation is the message of every validation error envelope.
	MessageValidation = "validation failed"
)

// HandlerFunc is an API handler. The returned value becomes the data member of
// the success envelope; a non-nil error is normalized into an error envelope.
type HandlerFunc func(c *gin.Context) (any, error)

// Wrap adapts h to a gin handler. The success status is whatever 2xx status h
// set with c.Status, or 200.
func Wrap(h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := h(c)
		if err != nil {
			Abort(c, err)
			return
		}
		if c.Writer.Written() {
			return
		}

		status := c.Writer.Status()
		if status < 200 || status > 299 {
			status = http.StatusOK
		}
		c.JSON(status, Success(data))
	}
}

// Abort records err on the context and stops the handler chain. The error
// envelope is written by Middleware once the chain unwinds.
func Abort(c *gin.Context, err error) {
	if err == nil {
		err = apierror.Internal(nil)
	}
	_ = c.Error(err)
	c.Abort()
}

// Success wraps data in a success envelope.
func Success(data any) models.Response[any] {
	return models.NewResponse(data)
}

// Normalize turns any error into the status and error envelope sent to the
// client. It is total: errors it cannot classify become a 500 with a generic
// message.
func Normalize(err error) (int, models.ErrorResponse) {
	apiErr := apierror.Classify(err)
	if apiErr == nil {
		apiErr = apierror.Internal(nil)
	}

	switch apiErr.Kind {
	case apierror.KindHTTP:
		status := errorStatus(apiErr.Status)
		message := apiErr.Message
		if message == "" {
			message = MessageInternal
		}
		return status, models.NewErrorResponse(serverCode(apiErr.Code, status), message, nil)

	case apierror.KindValidation:
		status := errorStatus(apiErr.Status)
		if apiErr.Status == 0 {
			status = http.StatusUnprocessableEntity
		}
		return status, models.NewErrorResponse(
			serverCode(apiErr.Code, status),
			MessageValidation,
			groupViolations(apiErr.Violations),
		)

	default:
		return http.StatusInternalServerError,
			models.NewErrorResponse(models.CodeInternalError, MessageInternal, nil)
	}
}

// NoRoute answers requests that match no route.
func NoRoute(c *gin.Context) {
	Abort(c, apierror.Newf(http.StatusNotFound, "route %s %s not found", c.Request.Method, c.Request.URL.Path))
}

// NoMethod answers requests whose path exists under another method.
func NoMethod(c *gin.Context) {
	Abort(c, apierror.Newf(http.StatusMethodNotAllowed, "method %s not allowed", c.Request.Method))
}

func errorStatus(status int) int {
	if status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// serverCode keeps the code inside the server's share of the closed set.
func serverCode(declared models.ErrorCode, status int) models.ErrorCode {
	if declared != "" && declared.Valid() && !declared.ClientOnly() {
		return declared
	}
	return models.CodeFromStatus(status)
}

// groupViolations collects every message under the validation group, in order,
// and additionally under the field it belongs to when that is known.
func groupViolations(violations []apierror.Violation) map[string][]string {
	groups := map[string][]string{
		models.ValidationGroup: make([]string, 0, len(violations)),
	}
	for _, v := range violations {
		groups[models.ValidationGroup] = append(groups[models.ValidationGroup], v.Message)
		if v.Field != "" && v.Field != models.ValidationGroup {
			groups[v.Field] = append(groups[v.Field], v.Message)
		}
	}
	return groups
}
