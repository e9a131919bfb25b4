// Package api wires the HTTP API of the i18n server.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/i18n/internal/api/envelope"
	"github.com/MacJediWizard/i18n/internal/api/handlers"
	"github.com/MacJediWizard/i18n/internal/api/middleware"
	"github.com/MacJediWizard/i18n/internal/apierror"
	"github.com/MacJediWizard/i18n/internal/config"
	"github.com/MacJediWizard/i18n/internal/metrics"
	"github.com/MacJediWizard/i18n/internal/shutdown"
	"github.com/MacJediWizard/i18n/pkg/models"
)

// Config holds configuration for the API router.
type Config struct {
	Environment config.Environment
	// APIPrefix is the path every API route is mounted under.
	APIPrefix string
	// AllowedOrigins for CORS. Empty means all origins allowed outside production.
	AllowedOrigins []string
	// RateLimitRequests is the number of requests allowed per period and client IP.
	RateLimitRequests int64
	RateLimitPeriod   time.Duration
	// Redis, when set, holds the rate limit counters.
	Redis        *redis.Client
	MaxBodyBytes int64
	// Shutdown, when set, rejects requests once the server starts draining.
	Shutdown *shutdown.Manager
	// Version information for the version endpoint.
	Version   string
	Commit    string
	BuildDate string
}

// DefaultConfig returns a Config with sensible defaults for development.
func DefaultConfig() Config {
	return Config{
		Environment:       config.EnvDevelopment,
		APIPrefix:         models.APIPrefix,
		AllowedOrigins:    []string{config.DefaultCORSOrigin},
		RateLimitRequests: config.DefaultRateLimitRequests,
		RateLimitPeriod:   config.DefaultRateLimitPeriod,
		MaxBodyBytes:      config.DefaultMaxBodyBytes,
		Version:           "dev",
		Commit:            "unknown",
		BuildDate:         "unknown",
	}
}

// ConfigFromServer derives the router configuration from the server configuration.
func ConfigFromServer(sc config.ServerConfig) Config {
	cfg := DefaultConfig()
	cfg.Environment = sc.Environment
	cfg.APIPrefix = sc.APIPrefix
	cfg.AllowedOrigins = sc.CORSOrigins
	cfg.RateLimitRequests = sc.RateLimitRequests
	cfg.RateLimitPeriod = sc.RateLimitPeriod
	cfg.MaxBodyBytes = sc.MaxBodyBytes
	return cfg
}

// Router wraps a Gin engine with configured middleware and routes.
type Router struct {
	Engine *gin.Engine
	logger zerolog.Logger
}

// NewRouter creates a new Router. database may be nil, in which case the
// health endpoint reports the database as unhealthy.
func NewRouter(
	cfg Config,
	database handlers.DatabaseProber,
	m *metrics.PrometheusMetrics,
	logger zerolog.Logger,
) (*Router, error) {
	r := &Router{
		Engine: gin.New(),
		logger: logger.With().Str("component", "router").Logger(),
	}
	r.Engine.HandleMethodNotAllowed = true
	apierror.UseWireFieldNames()

	// The envelope middleware must come first so it sees every error and panic.
	r.Engine.Use(envelope.Middleware(logger, m))
	if cfg.Shutdown != nil {
		r.Engine.Use(cfg.Shutdown.Middleware())
	}
	r.Engine.Use(middleware.RequestID())
	r.Engine.Use(middleware.RequestLogger(logger))
	r.Engine.Use(middleware.SecurityHeaders(cfg.Environment == config.EnvProduction))
	r.Engine.Use(middleware.CORS(cfg.AllowedOrigins, cfg.Environment, logger))

	rateLimiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests: cfg.RateLimitRequests,
		Period:   cfg.RateLimitPeriod,
		Redis:    cfg.Redis,
	})
	if err != nil {
		return nil, err
	}
	r.Engine.Use(rateLimiter)
	r.Engine.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	r.Engine.NoRoute(envelope.NoRoute)
	r.Engine.NoMethod(envelope.NoMethod)

	// Prometheus exposition format, outside the envelope.
	r.Engine.GET("/metrics", gin.WrapH(m.Handler()))

	apiV1 := r.Engine.Group(cfg.APIPrefix)

	healthHandler := handlers.NewHealthHandler(database, logger)
	healthHandler.RegisterRoutes(apiV1)

	versionHandler := handlers.NewVersionHandler(cfg.Version, cfg.Commit, cfg.BuildDate)
	versionHandler.RegisterRoutes(apiV1)

	r.logger.Info().Str("prefix", cfg.APIPrefix).Msg("API routes registered")
	return r, nil
}
