package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MacJediWizard/i18n/internal/api/envelope"
	"github.com/MacJediWizard/i18n/internal/apierror"
)

// BodyLimit returns a middleware that limits the size of request bodies.
// Requests that declare a larger body are rejected with 413 up front; others
// fail with 413 when a handler reads past the limit during binding.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			envelope.Abort(c, apierror.New(http.StatusRequestEntityTooLarge, "request body too large"))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
