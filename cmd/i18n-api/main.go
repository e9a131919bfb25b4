// Package main is the entrypoint for the i18n API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/i18n/internal/api"
	"github.com/MacJediWizard/i18n/internal/config"
	"github.com/MacJediWizard/i18n/internal/db"
	"github.com/MacJediWizard/i18n/internal/metrics"
	"github.com/MacJediWizard/i18n/internal/shutdown"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("version", Version).Logger()
	if os.Getenv("ENV") != string(config.EnvProduction) {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger.Info().
		Str("commit", Commit).
		Str("build_date", BuildDate).
		Msg("Starting i18n API server")

	cfg, err := config.LoadServerConfig()
	if err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	database, err := db.New(ctx, db.DefaultConfig(cfg.DatabaseURL), logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		return 1
	}

	shutdownMgr := shutdown.NewManager(shutdown.DefaultConfig(), logger)
	shutdownMgr.OnShutdown("database", func(context.Context) error {
		database.Close()
		return nil
	})

	m, err := metrics.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register metrics")
		return 1
	}

	routerCfg := api.ConfigFromServer(cfg)
	routerCfg.Version = Version
	routerCfg.Commit = Commit
	routerCfg.BuildDate = BuildDate
	routerCfg.Shutdown = shutdownMgr

	if cfg.RedisURL != "" {
		redisClient, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to connect to redis")
			return 1
		}
		shutdownMgr.OnShutdown("redis", func(context.Context) error {
			return redisClient.Close()
		})
		routerCfg.Redis = redisClient
		logger.Info().Msg("Rate limit counters stored in redis")
	}

	router, err := api.NewRouter(routerCfg, database, m, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize router")
		return 1
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("prefix", cfg.APIPrefix).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	shutdownMgr.OnShutdown("http", srv.Shutdown)

	code := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error().Err(err).Msg("HTTP server error")
			code = 1
		}
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server")
	}

	if err := shutdownMgr.Shutdown(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
		return 1
	}
	if code != 0 {
		return code
	}

	logger.Info().Msg("Server stopped gracefully")
	return 0
}

func connectRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
