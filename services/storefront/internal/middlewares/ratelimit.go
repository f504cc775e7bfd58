package middlewares

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimit allows limit requests per client IP in each fixed window, counted
// in redis under prefix. Redis errors let the request through.
func RateLimit(rdb redis.UniversalClient, prefix string, limit int, window time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}
		slot := time.Now().UnixNano() / int64(window)
		key := fmt.Sprintf("ratelimit:%s:%s:%d", prefix, c.ClientIP(), slot)

		var incr *redis.IntCmd
		_, err := rdb.TxPipelined(c.Request.Context(), func(p redis.Pipeliner) error {
			incr = p.Incr(c.Request.Context(), key)
			p.Expire(c.Request.Context(), key, window)
			return nil
		})
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limit check")
			c.Next()
			return
		}
		n := incr.Val()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		if n > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
