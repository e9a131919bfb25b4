package envelope

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/i18n/internal/apierror"
	"github.com/MacJediWizard/i18n/internal/metrics"
)

const codeKey = "envelope.code"

// Middleware returns the boundary middleware. It must be the first middleware
// on the engine so that it observes every error and panic raised after it.
func Middleware(logger zerolog.Logger, m *metrics.PrometheusMetrics) gin.HandlerFunc {
	log := logger.With().Str("component", "envelope").Logger()

	return func(c *gin.Context) {
		deferHeader(c)
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				m.RecordPanic()
				err := fmt.Errorf("panic: %v", rec)
				log.Error().
					Err(err).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("recovered from handler panic")
				Abort(c, apierror.Internal(err))
				finish(c, log, m)
			}
		}()

		c.Next()
		finish(c, log, m)
	}
}

func finish(c *gin.Context, log zerolog.Logger, m *metrics.PrometheusMetrics) {
	last := c.Errors.Last()
	if last == nil && (c.Writer.Written() || c.Writer.Status() < http.StatusBadRequest) {
		m.RecordResponse(c.Writer.Status(), c.GetString(codeKey))
		return
	}

	var err error
	switch {
	case last == nil:
		// An error status set without a recorded error, e.g. AbortWithStatus.
		status := c.Writer.Status()
		err = apierror.New(status, strings.ToLower(http.StatusText(status)))
	case last.IsType(gin.ErrorTypeBind):
		err = apierror.FromBinding(last.Err)
	default:
		err = last.Err
	}

	if c.Writer.Written() {
		log.Warn().
			Err(err).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("error raised after the response was written")
		m.RecordResponse(c.Writer.Status(), c.GetString(codeKey))
		return
	}

	status, body := Normalize(err)
	c.Set(codeKey, string(body.Code))

	event := log.Debug()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.
		Err(rootCause(err)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", status).
		Str("code", string(body.Code)).
		Msg("request failed")

	c.JSON(status, body)
	m.RecordResponse(status, string(body.Code))
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
