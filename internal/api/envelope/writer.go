package envelope

import "github.com/gin-gonic/gin"

// deferredWriter holds back the status line until the first body write.
// gin's binding helpers call AbortWithError, which flushes the header at
// once; deferring it leaves the boundary free to write the error envelope.
// gin flushes any header still pending once the handler chain returns.
type deferredWriter struct {
	gin.ResponseWriter
}

func (w *deferredWriter) WriteHeaderNow() {}

func deferHeader(c *gin.Context) {
	if _, ok := c.Writer.(*deferredWriter); !ok {
		c.Writer = &deferredWriter{ResponseWriter: c.Writer}
	}
}
