package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/MacJediWizard/i18n/internal/api/envelope"
	"github.com/MacJediWizard/i18n/internal/apierror"
)

const rateLimitPrefix = "i18n:ratelimit"

// RateLimitConfig configures NewRateLimiter.
type RateLimitConfig struct {
	// Requests is the number of requests allowed per Period and client IP.
	Requests int64
	Period   time.Duration
	// Redis shares counters between server instances. Nil keeps them in memory.
	Redis *redis.Client
}

// NewRateLimiter creates a Gin middleware for rate limiting. Rejections are
// reported through the response envelope as 429.
func NewRateLimiter(cfg RateLimitConfig) (gin.HandlerFunc, error) {
	if cfg.Requests <= 0 {
		return nil, fmt.Errorf("invalid rate limit of %d requests", cfg.Requests)
	}
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("invalid rate limit period %s", cfg.Period)
	}

	rate := limiter.Rate{
		Period: cfg.Period,
		Limit:  cfg.Requests,
	}

	var store limiter.Store
	if cfg.Redis != nil {
		var err error
		store, err = sredis.NewStoreWithOptions(cfg.Redis, limiter.StoreOptions{
			Prefix:   rateLimitPrefix,
			MaxRetry: 3,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis rate limit store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
	}

	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			envelope.Abort(c, apierror.New(http.StatusTooManyRequests, "too many requests"))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			envelope.Abort(c, apierror.Internal(fmt.Errorf("rate limiter: %w", err)))
		}),
	), nil
}
