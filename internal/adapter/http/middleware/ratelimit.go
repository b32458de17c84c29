package middleware

import (
	"strconv"
	"time"

	redisStore "github.com/lynkbyte/evolution-bridge/internal/adapter/storage/redis"
	"github.com/lynkbyte/evolution-bridge/pkg/apperror"
	"github.com/lynkbyte/evolution-bridge/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimiter throttles webhook deliveries to perMinute requests in a fixed
// one-minute window, keyed by the URL instance segment or, when the route
// carries none, the client IP. A store failure lets the request through.
func RateLimiter(store *redisStore.RateLimitStore, perMinute int, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := extractIdentifier(c)

		result, err := store.Allow(c.Request.Context(), key, int64(perMinute), time.Minute)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		// Always set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier determines the rate limit key source.
func extractIdentifier(c *gin.Context) string {
	if instance := c.Param("instance"); instance != "" {
		return "instance:" + instance
	}
	return "ip:" + c.ClientIP()
}
