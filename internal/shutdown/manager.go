// Package shutdown coordinates graceful shutdown of the API server.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/i18n/internal/api/envelope"
	"github.com/MacJediWizard/i18n/internal/apierror"
)

// State represents the current shutdown state.
type State string

const (
	// StateRunning indicates the server is serving requests normally.
	StateRunning State = "running"
	// StateDraining indicates new requests are rejected while in-flight ones finish.
	StateDraining State = "draining"
	// StateClosing indicates registered resources are being closed.
	StateClosing State = "closing"
	// StateComplete indicates shutdown is complete.
	StateComplete State = "complete"
)

// MessageShuttingDown is returned to requests that arrive while draining.
const MessageShuttingDown = "server is shutting down"

// Status represents the current shutdown status.
type Status struct {
	State             State      `json:"state"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	InFlight          int64      `json:"in_flight"`
	AcceptingRequests bool       `json:"accepting_requests"`
	Message           string     `json:"message,omitempty"`
}

// Config holds configuration for the shutdown manager.
type Config struct {
	// Timeout bounds the whole shutdown, closers included.
	Timeout time.Duration
	// DrainTimeout is the longest wait for in-flight requests.
	DrainTimeout time.Duration
	// PollInterval is how often the in-flight count is checked while draining.
	PollInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		DrainTimeout: 10 * time.Second,
		PollInterval: 100 * time.Millisecond,
	}
}

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

// Manager coordinates graceful shutdown of the server.
type Manager struct {
	config    Config
	logger    zerolog.Logger
	mu        sync.RWMutex
	state     State
	startedAt *time.Time
	closers   []closer
	inFlight  atomic.Int64
	accepting atomic.Bool
	doneCh    chan struct{}
	once      sync.Once
}

// NewManager creates a new shutdown manager.
func NewManager(config Config, logger zerolog.Logger) *Manager {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	m := &Manager{
		config: config,
		logger: logger.With().Str("component", "shutdown_manager").Logger(),
		state:  StateRunning,
		doneCh: make(chan struct{}),
	}
	m.accepting.Store(true)
	return m
}

// OnShutdown registers fn to run once requests have drained. Closers run
// in reverse registration order.
func (m *Manager) OnShutdown(name string, fn func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closers = append(m.closers, closer{name: name, fn: fn})
}

// IsAccepting returns true while new requests are served.
func (m *Manager) IsAccepting() bool {
	return m.accepting.Load()
}

// InFlight returns the number of requests currently being served.
func (m *Manager) InFlight() int64 {
	return m.inFlight.Load()
}

// GetState returns the current shutdown state.
func (m *Manager) GetState() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// GetStatus returns the current shutdown status.
func (m *Manager) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := Status{
		State:             m.state,
		StartedAt:         m.startedAt,
		InFlight:          m.inFlight.Load(),
		AcceptingRequests: m.accepting.Load(),
	}

	switch m.state {
	case StateRunning:
		status.Message = "Server is running normally"
	case StateDraining:
		status.Message = "Server is draining, not accepting new requests"
	case StateClosing:
		status.Message = "Closing resources"
	case StateComplete:
		status.Message = "Shutdown complete"
	}

	return status
}

// Middleware counts in-flight requests and rejects new ones with 503 once
// shutdown has started. It must run after the envelope middleware.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.accepting.Load() {
			c.Header("Connection", "close")
			envelope.Abort(c, apierror.New(http.StatusServiceUnavailable, MessageShuttingDown))
			return
		}

		m.inFlight.Add(1)
		defer m.inFlight.Add(-1)
		c.Next()
	}
}

// Shutdown stops accepting requests, waits for in-flight ones and then runs
// the registered closers. Only the first call does any work.
func (m *Manager) Shutdown(ctx context.Context) error {
	err := errors.New("shutdown already in progress")
	m.once.Do(func() {
		err = m.doShutdown(ctx)
	})
	return err
}

func (m *Manager) doShutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	m.logger.Info().
		Dur("timeout", m.config.Timeout).
		Dur("drain_timeout", m.config.DrainTimeout).
		Msg("initiating graceful shutdown")

	now := time.Now()
	m.mu.Lock()
	m.startedAt = &now
	m.state = StateDraining
	closers := append([]closer(nil), m.closers...)
	m.mu.Unlock()

	m.accepting.Store(false)

	// Phase 1: wait for in-flight requests
	drainCtx, drainCancel := context.WithTimeout(ctx, m.config.DrainTimeout)
	m.waitForRequests(drainCtx)
	drainCancel()

	// Phase 2: close resources, last registered first
	m.mu.Lock()
	m.state = StateClosing
	m.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		cl := closers[i]
		logger := m.logger.With().Str("resource", cl.name).Logger()
		if err := cl.fn(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to close resource")
			errs = append(errs, fmt.Errorf("close %s: %w", cl.name, err))
			continue
		}
		logger.Debug().Msg("resource closed")
	}

	m.mu.Lock()
	m.state = StateComplete
	m.mu.Unlock()
	close(m.doneCh)

	m.logger.Info().
		Dur("duration", time.Since(now)).
		Int("closers", len(closers)).
		Msg("graceful shutdown complete")

	return errors.Join(errs...)
}

// waitForRequests returns once no request is in flight or ctx is done.
func (m *Manager) waitForRequests(ctx context.Context) {
	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		inFlight := m.inFlight.Load()
		if inFlight == 0 {
			m.logger.Debug().Msg("all requests completed")
			return
		}

		select {
		case <-ctx.Done():
			m.logger.Warn().
				Int64("in_flight", inFlight).
				Msg("drain timeout reached with requests still in flight")
			return
		case <-ticker.C:
		}
	}
}

// Done returns a channel that is closed when shutdown is complete.
func (m *Manager) Done() <-chan struct{} {
	return m.doneCh
}

// WaitForShutdown blocks until shutdown is complete.
func (m *Manager) WaitForShutdown() {
	<-m.doneCh
}
