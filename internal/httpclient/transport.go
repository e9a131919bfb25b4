package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MacJediWizard/i18n/internal/metrics"
	"github.com/MacJediWizard/i18n/pkg/models"
)

// errRequestTimeout is the cancellation cause of a request whose own timeout fired.
var errRequestTimeout = errors.New("request timeout elapsed")

// RequestConfig describes one call made through Client.Request.
type RequestConfig struct {
	// Method defaults to GET.
	Method string
	// Headers are merged over the client defaults; these win.
	Headers map[string]string
	// Body is sent as is.
	Body []byte
	// Timeout defaults to models.DefaultRequestTimeout.
	Timeout time.Duration
	// Params are added to the query string. Nil values are dropped and the
	// rest are formatted with fmt.Sprint.
	Params map[string]any
}

// RequestInterceptor may rewrite a request before it is sent.
type RequestInterceptor func(ctx context.Context, cfg RequestConfig) (RequestConfig, error)

// ResponseInterceptor may inspect or replace a response before it is decoded.
type ResponseInterceptor func(ctx context.Context, resp *http.Response) (*http.Response, error)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithHeader adds a default header sent with every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers[http.CanonicalHeaderKey(key)] = value }
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger.With().Str("component", "httpclient").Logger() }
}

// WithMetrics records every request in m.
func WithMetrics(m *metrics.PrometheusMetrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithRequestInterceptor appends a request interceptor.
func WithRequestInterceptor(ic RequestInterceptor) ClientOption {
	return func(c *Client) { c.requestInterceptors = append(c.requestInterceptors, ic) }
}

// WithResponseInterceptor appends a response interceptor.
func WithResponseInterceptor(ic ResponseInterceptor) ClientOption {
	return func(c *Client) { c.responseInterceptors = append(c.responseInterceptors, ic) }
}

// Client sends requests to the API and decodes the response envelope. A
// Client is safe for concurrent use; every request works on a snapshot of
// the headers and interceptors taken when it starts.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.PrometheusMetrics

	mu                   sync.RWMutex
	headers              map[string]string
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewClient returns a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
		headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetAuthToken sets the bearer token sent with every request. An empty token
// removes the Authorization header.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == "" {
		delete(c.headers, "Authorization")
		return
	}
	c.headers["Authorization"] = "Bearer " + token
}

// AddRequestInterceptor appends a request interceptor. It applies to
// requests started after it returns.
func (c *Client) AddRequestInterceptor(ic RequestInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestInterceptors = append(c.requestInterceptors, ic)
}

// AddResponseInterceptor appends a response interceptor.
func (c *Client) AddResponseInterceptor(ic ResponseInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responseInterceptors = append(c.responseInterceptors, ic)
}

type snapshot struct {
	headers              map[string]string
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

func (c *Client) snapshot() snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	headers := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		headers[k] = v
	}
	return snapshot{
		headers:              headers,
		requestInterceptors:  append([]RequestInterceptor(nil), c.requestInterceptors...),
		responseInterceptors: append([]ResponseInterceptor(nil), c.responseInterceptors...),
	}
}

// Request sends a request to endpoint and returns the success envelope. Any
// failure is returned as *Error.
func (c *Client) Request(ctx context.Context, endpoint string, cfg RequestConfig) (*models.Envelope, error) {
	start := time.Now()
	env, err := c.do(ctx, endpoint, cfg)

	code := "OK"
	if e, ok := AsError(err); ok {
		code = string(e.Code)
	}
	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)
	elapsed := time.Since(start)
	c.metrics.RecordClientRequest(method, code, elapsed.Seconds())

	if err != nil {
		event := c.logger.Debug()
		if IsNetwork(err) || IsTimeout(err) {
			event = c.logger.Warn()
		}
		event.Err(err).
			Str("method", method).
			Str("endpoint", endpoint).
			Dur("latency", elapsed).
			Msg("request failed")
		return nil, err
	}

	c.logger.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Dur("latency", elapsed).
		Msg("request completed")
	return env, nil
}

func (c *Client) do(ctx context.Context, endpoint string, cfg RequestConfig) (*models.Envelope, error) {
	snap := c.snapshot()

	for k, v := range cfg.Headers {
		snap.headers[http.CanonicalHeaderKey(k)] = v
	}
	cfg.Headers = snap.headers

	for _, ic := range snap.requestInterceptors {
		next, err := ic(ctx, cfg)
		if err != nil {
			return nil, classify(ctx, err)
		}
		cfg = next
	}

	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	cfg.Method = strings.ToUpper(cfg.Method)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = models.DefaultRequestTimeout
	}

	reqCtx, cancel := context.WithTimeoutCause(ctx, timeout, errRequestTimeout)
	defer cancel()

	target, err := c.resolve(endpoint, cfg.Params)
	if err != nil {
		return nil, newNetworkError(err)
	}

	var body io.Reader
	if len(cfg.Body) > 0 {
		body = bytes.NewReader(cfg.Body)
	}
	req, err := http.NewRequestWithContext(reqCtx, cfg.Method, target, body)
	if err != nil {
		return nil, newNetworkError(err)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(reqCtx, err)
	}
	defer func() { resp.Body.Close() }()

	for _, ic := range snap.responseInterceptors {
		next, err := ic(reqCtx, resp)
		if err != nil {
			return nil, classify(reqCtx, err)
		}
		if next != nil && next != resp {
			resp.Body.Close()
			resp = next
		}
	}

	success := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if success && resp.StatusCode == http.StatusNoContent {
		return &models.Envelope{Success: true}, nil
	}

	var env models.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, classify(reqCtx, fmt.Errorf("decode %d response: %w", resp.StatusCode, err))
	}
	if !success {
		return nil, newResponseError(resp.StatusCode, &env)
	}
	return &env, nil
}

// classify maps a failure to *Error. An *Error anywhere in the chain is
// returned unchanged.
func classify(ctx context.Context, err error) *Error {
	if e, ok := AsError(err); ok {
		return e
	}
	if errors.Is(context.Cause(ctx), errRequestTimeout) {
		return newTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newTimeoutError(err)
	}
	return newNetworkError(err)
}

// resolve turns endpoint into a request URL. Absolute URLs are used as they
// are; anything else is appended to the base URL path.
func (c *Client) resolve(endpoint string, params map[string]any) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}

	var u url.URL
	if ref.IsAbs() {
		u = *ref
	} else {
		u = *c.baseURL
		if p := strings.TrimLeft(ref.EscapedPath(), "/"); p != "" {
			u = *c.baseURL.JoinPath(p)
		}
		u.RawQuery = ref.RawQuery
	}

	if len(params) > 0 {
		query := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v, ok := paramValue(params[k]); ok {
				query.Set(k, v)
			}
		}
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// paramValue formats a query parameter. Nil values, typed nil pointers
// included, are dropped; non-nil pointers are formatted by what they point to.
func paramValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return "", false
		}
	}
	return fmt.Sprint(rv.Interface()), true
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]any) (*models.Envelope, error) {
	return c.Request(ctx, endpoint, RequestConfig{Method: http.MethodGet, Params: params})
}

// Post sends body as JSON with a POST request.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (*models.Envelope, error) {
	return c.send(ctx, http.MethodPost, endpoint, body)
}

// Put sends body as JSON with a PUT request.
func (c *Client) Put(ctx context.Context, endpoint string, body any) (*models.Envelope, error) {
	return c.send(ctx, http.MethodPut, endpoint, body)
}

// Patch sends body as JSON with a PATCH request.
func (c *Client) Patch(ctx context.Context, endpoint string, body any) (*models.Envelope, error) {
	return c.send(ctx, http.MethodPatch, endpoint, body)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string) (*models.Envelope, error) {
	return c.Request(ctx, endpoint, RequestConfig{Method: http.MethodDelete})
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any) (*models.Envelope, error) {
	cfg := RequestConfig{Method: method}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, newNetworkError(fmt.Errorf("encode request body: %w", err))
		}
		cfg.Body = data
	}
	return c.Request(ctx, endpoint, cfg)
}

// Fetch GETs endpoint and decodes the data of the success envelope into T.
// Data that does not decode into T is reported as a network error.
func Fetch[T any](ctx context.Context, c *Client, endpoint string) (T, error) {
	env, err := c.Get(ctx, endpoint, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	data, err := models.DecodeData[T](env)
	if err != nil {
		return data, newNetworkError(err)
	}
	return data, nil
}
