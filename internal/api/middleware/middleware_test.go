package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/i18n/internal/api/envelope"
	"github.com/MacJediWizard/i18n/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newEnvelopedRouter returns an engine with the response boundary installed
// first, followed by mws.
func newEnvelopedRouter(mws ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(envelope.Middleware(zerolog.Nop(), nil))
	r.Use(mws...)
	r.GET("/test", envelope.Wrap(func(c *gin.Context) (any, error) {
		return gin.H{"ok": true}, nil
	}))
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
