// Package config loads the configuration of the API server and its clients.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MacJediWizard/i18n/pkg/models"
)

// Environment represents the deployment environment.
type Environment string

const (
	// EnvDevelopment is the default local development environment.
	EnvDevelopment Environment = "development"
	// EnvStaging is the staging/pre-production environment.
	EnvStaging Environment = "staging"
	// EnvProduction is the production environment.
	EnvProduction Environment = "production"
)

// Server defaults.
const (
	DefaultPort              = 4000
	DefaultCORSOrigin        = "http://localhost:3000"
	DefaultRateLimitRequests = 100
	DefaultRateLimitPeriod   = time.Minute
	DefaultMaxBodyBytes      = 1 << 20
)

// ServerConfig holds server-level configuration loaded from environment variables.
type ServerConfig struct {
	Environment       Environment
	Port              int
	APIPrefix         string
	CORSOrigins       []string
	DatabaseURL       string
	RedisURL          string // optional; rate limits are kept in memory when empty
	RateLimitRequests int64
	RateLimitPeriod   time.Duration
	MaxBodyBytes      int64
}

// IsProduction reports whether the server runs in production.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// LoadServerConfig reads server configuration from environment variables.
func LoadServerConfig() (ServerConfig, error) {
	cfg := ServerConfig{
		Environment:       parseEnvironment(os.Getenv("ENV")),
		Port:              getEnvInt("PORT", DefaultPort),
		APIPrefix:         getEnv("API_PREFIX", models.APIPrefix),
		CORSOrigins:       getEnvList("CORS_ORIGIN", []string{DefaultCORSOrigin}),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		RateLimitRequests: int64(getEnvInt("RATE_LIMIT_REQUESTS", DefaultRateLimitRequests)),
		RateLimitPeriod:   getEnvDuration("RATE_LIMIT_PERIOD", DefaultRateLimitPeriod),
		MaxBodyBytes:      int64(getEnvInt("MAX_BODY_BYTES", DefaultMaxBodyBytes)),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = DefaultPort
	}
	if !strings.HasPrefix(cfg.APIPrefix, "/") {
		cfg.APIPrefix = "/" + cfg.APIPrefix
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	if cfg.RateLimitRequests <= 0 {
		cfg.RateLimitRequests = DefaultRateLimitRequests
	}
	if cfg.RateLimitPeriod <= 0 {
		cfg.RateLimitPeriod = DefaultRateLimitPeriod
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	return cfg, nil
}

func parseEnvironment(val string) Environment {
	env := Environment(strings.ToLower(strings.TrimSpace(val)))
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		return env
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

// getEnvBool reads a boolean from an environment variable, returning the default if unset or invalid.
func getEnvBool(key string, defaultVal bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultVal
	}
}

// getEnvInt reads an integer from an environment variable, returning the default if unset or invalid.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key string, defaultVal []string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
