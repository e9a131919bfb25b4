package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	t.Run("generates an id", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/test", nil)
		w := serve(r, req)

		got := w.Header().Get(RequestIDHeader)
		if _, err := uuid.Parse(got); err != nil {
			t.Fatalf("expected a UUID request id, got %q", got)
		}
		if seen != got {
			t.Fatalf("context id %q does not match header %q", seen, got)
		}
	})

	t.Run("keeps the client id", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "trace-42")
		w := serve(r, req)

		if got := w.Header().Get(RequestIDHeader); got != "trace-42" {
			t.Fatalf("expected trace-42, got %q", got)
		}
	})

	t.Run("replaces an oversized id", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
		w := serve(r, req)

		if got := w.Header().Get(RequestIDHeader); len(got) != 36 {
			t.Fatalf("expected a generated id, got %q", got)
		}
	})
}
