package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/i18n/internal/api/envelope"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

const (
	probeTimeout = 5 * time.Second
	// timestampLayout is ISO 8601 with millisecond precision in UTC.
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// HealthResponse is the data of the health endpoint.
type HealthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Database  HealthStatus `json:"database"`
}

// DatabaseProber runs a trivial query against the database.
type DatabaseProber interface {
	Probe(ctx context.Context) error
}

// HealthHandler handles the liveness endpoint.
type HealthHandler struct {
	db     DatabaseProber
	now    func() time.Time
	logger zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler. A nil db is reported as unhealthy.
func NewHealthHandler(db DatabaseProber, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		now:    time.Now,
		logger: logger.With().Str("component", "health_handler").Logger(),
	}
}

// RegisterRoutes registers health routes on the given router group.
func (h *HealthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health", envelope.Wrap(h.Get))
}

// Get reports liveness. The process answering is itself the liveness
// signal, so the status is "ok" even when the database probe fails.
// GET {prefix}/health
func (h *HealthHandler) Get(c *gin.Context) (any, error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	return HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(timestampLayout),
		Database:  h.checkDatabase(ctx),
	}, nil
}

func (h *HealthHandler) checkDatabase(ctx context.Context) HealthStatus {
	if h.db == nil {
		return HealthStatusUnhealthy
	}
	if err := h.db.Probe(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("database health check failed")
		return HealthStatusUnhealthy
	}
	return HealthStatusHealthy
}
