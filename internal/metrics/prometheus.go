// Package metrics provides Prometheus metrics for the API server and client.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "i18n"

// successLabel is the code label recorded for envelopes without an error code.
const successLabel = "OK"

// PrometheusMetrics holds the collectors recorded by the envelope boundary and
// the client transport. A nil *PrometheusMetrics records nothing.
type PrometheusMetrics struct {
	// ResponseCounter counts envelopes written by the server, by status and code.
	ResponseCounter *prometheus.CounterVec
	// PanicCounter counts handler panics recovered by the server.
	PanicCounter prometheus.Counter
	// ClientRequestCounter counts client transport calls, by method and code.
	ClientRequestCounter *prometheus.CounterVec
	// ClientDuration observes client transport latency in seconds, by method.
	ClientDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
// When reg is also a prometheus.Gatherer it backs Handler.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		ResponseCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "responses_total",
			Help:      "Envelopes written by the API server, by HTTP status and envelope code.",
		}, []string{"status", "code"}),
		PanicCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "panics_recovered_total",
			Help:      "Handler panics converted into error envelopes.",
		}),
		ClientRequestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Requests issued by the client transport, by method and resulting code.",
		}, []string{"method", "code"}),
		ClientDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Client transport request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	for _, c := range []prometheus.Collector{
		m.ResponseCounter,
		m.PanicCounter,
		m.ClientRequestCounter,
		m.ClientDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m, nil
}

// RecordResponse counts one envelope written with the given status and code.
func (m *PrometheusMetrics) RecordResponse(status int, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = successLabel
	}
	m.ResponseCounter.WithLabelValues(strconv.Itoa(status), code).Inc()
}

// RecordPanic counts one recovered panic.
func (m *PrometheusMetrics) RecordPanic() {
	if m == nil {
		return
	}
	m.PanicCounter.Inc()
}

// RecordClientRequest counts one client call and observes its latency.
func (m *PrometheusMetrics) RecordClientRequest(method, code string, seconds float64) {
	if m == nil {
		return
	}
	if code == "" {
		code = successLabel
	}
	m.ClientRequestCounter.WithLabelValues(method, code).Inc()
	m.ClientDuration.WithLabelValues(method).Observe(seconds)
}

// Handler returns the exposition handler for the registry the metrics were
// registered with, falling back to the default gatherer.
func (m *PrometheusMetrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
