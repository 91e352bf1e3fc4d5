package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit allows limit requests per client IP per period using a Redis
// counter. Redis errors let the request through.
func RateLimit(client *redis.Client, prefix string, limit int64, period time.Duration, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := "ratelimit:" + prefix + ":" + c.ClientIP()

		pipe := client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		ttl := pipe.TTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Warn("rate limit unavailable", "error", err)
			c.Next()
			return
		}
		// Every counter must carry an expiry.
		window := ttl.Val()
		if window < 0 {
			if err := client.Expire(ctx, key, period).Err(); err != nil {
				log.Warn("rate limit expiry not set", "key", key, "error", err)
			}
			window = period
		}
		if incr.Val() > limit {
			c.Header("Retry-After", formatSeconds(window))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func formatSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	return strconv.FormatInt(secs, 10)
}
