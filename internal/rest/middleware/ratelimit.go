package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/masseurmatch/masseurmatch/internal/cache"
	"github.com/masseurmatch/masseurmatch/internal/config"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"golang.org/x/time/rate"
)

const (
	prefixRateLimiter = "ratelimit:v1:"
	limiterIdleTTL    = 30 * time.Minute
)

// RateLimitMiddleware throttles write requests per authenticated user with a
// token bucket. Limiters live in the cache and expire once a user goes idle.
// Must run after AuthenticateMiddleware.
func RateLimitMiddleware(cfg *config.Configuration, store cache.Cache) gin.HandlerFunc {
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RequestsPerSecond <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	limit := rate.Limit(cfg.RateLimit.RequestsPerSecond)
	burst := max(cfg.RateLimit.Burst, 1)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := cache.GenerateKey(prefixRateLimiter, types.GetUserID(ctx))

		var limiter *rate.Limiter
		if v, ok := store.Get(ctx, key); ok {
			limiter, _ = v.(*rate.Limiter)
		}
		if limiter == nil {
			limiter = rate.NewLimiter(limit, burst)
		}
		// refresh the expiry on every request
		store.Set(ctx, key, limiter, limiterIdleTTL)

		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.Error(ierr.NewError("rate limit exceeded").
				WithHint("Too many requests, please slow down").
				Mark(ierr.ErrTooManyRequests))
			c.Abort()
			return
		}
		c.Next()
	}
}
