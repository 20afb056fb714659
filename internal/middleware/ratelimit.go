package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exquiz-backend/internal/config"
	"github.com/stemsi/exquiz-backend/internal/response"
)

// RateLimiter is a fixed-window limiter counted in Redis, so every server
// instance shares the same budget per caller.
type RateLimiter struct {
	rdb      *redis.Client
	scope    string
	rate     int           // Requests per interval
	interval time.Duration // Window length
}

// NewRateLimiter creates a RateLimiter (e.g., 20 submissions per minute).
func NewRateLimiter(rdb *redis.Client, scope string, rate int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		rdb:      rdb,
		scope:    scope,
		rate:     rate,
		interval: interval,
	}
}

// Middleware returns a Gin middleware that limits requests by user, or by IP when anonymous.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rate <= 0 {
			c.Next()
			return
		}

		caller := "ip:" + c.ClientIP()
		if claims := GetClaims(c); claims != nil {
			caller = "user:" + strconv.Itoa(claims.UserID)
		}

		window := time.Now().UnixNano() / int64(rl.interval)
		key := config.CacheKey.RateLimitKey(rl.scope, caller, window)

		ctx := c.Request.Context()
		pipe := rl.rdb.Pipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rl.interval)
		if _, err := pipe.Exec(ctx); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("scope", rl.scope).Msg("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		remaining := rl.rate - int(incr.Val())
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if incr.Val() > int64(rl.rate) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(rl.interval.Seconds())))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}

		c.Next()
	}
}
