package httpclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader is the header carrying the request id to the server.
const RequestIDHeader = "X-Request-ID"

// RequestID returns a request interceptor that sets a fresh request id
// unless the caller supplied one.
func RequestID() RequestInterceptor {
	return func(_ context.Context, cfg RequestConfig) (RequestConfig, error) {
		headers := make(map[string]string, len(cfg.Headers)+1)
		for k, v := range cfg.Headers {
			if strings.EqualFold(k, RequestIDHeader) && v != "" {
				return cfg, nil
			}
			headers[k] = v
		}
		headers[http.CanonicalHeaderKey(RequestIDHeader)] = uuid.NewString()
		cfg.Headers = headers
		return cfg, nil
	}
}

// UnauthorizedWarning returns a response interceptor that logs a warning
// when the server rejects the credentials. The response is passed on
// unchanged; the caller still receives an UNAUTHORIZED error.
func UnauthorizedWarning(logger zerolog.Logger) ResponseInterceptor {
	log := logger.With().Str("component", "httpclient").Logger()

	return func(_ context.Context, resp *http.Response) (*http.Response, error) {
		if resp.StatusCode == http.StatusUnauthorized {
			event := log.Warn().Int("status", resp.StatusCode)
			if resp.Request != nil {
				event = event.Str("method", resp.Request.Method).Str("url", resp.Request.URL.Redacted())
			}
			event.Msg("unauthorized; the API token is missing or expired")
		}
		return resp, nil
	}
}
