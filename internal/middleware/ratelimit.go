package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/farellandr/homestay/internal/helpers"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimit allows limit requests per client IP and path in each window,
// counted in Redis. A nil client or a non-positive limit disables it, and
// Redis errors let the request through.
func RateLimit(client *redis.Client, limit int64, window time.Duration, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", c.Request.URL.Path, c.ClientIP())
		ctx := c.Request.Context()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			log.WithError(err).Warn("rate limit lookup failed")
			c.Next()
			return
		}
		if count == 1 {
			client.Expire(ctx, key, window)
		}
		if count <= limit {
			c.Next()
			return
		}

		ttl, err := client.TTL(ctx, key).Result()
		if err == nil && ttl < 0 {
			// The window's expiry was lost; start a new one.
			client.Expire(ctx, key, window)
			ttl = window
		}
		if ttl > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
		}
		helpers.RespondWithError(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
	}
}
