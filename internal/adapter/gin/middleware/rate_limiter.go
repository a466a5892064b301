package middleware

import (
	"fmt"
	"net/http"

	grpcmiddleware "users-service/internal/adapter/grpc/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter returns a Gin middleware for rate limiting using the shared token bucket
func RateLimiter(limiter *grpcmiddleware.RateLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}

		// Route template keeps /users/user/1 and /users/user/2 in one bucket
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := fmt.Sprintf("%s:%s:%s", c.Request.Method, route, c.ClientIP())

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			// Fail open
			log.Warn("rate limiter redis error, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			cfg := limiter.Config()
			log.Warn("rate limit exceeded", zap.String("key", key))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": fmt.Sprintf("Rate limit exceeded: %.2f requests/second (burst capacity: %d)", cfg.RequestsPerSecond, cfg.BurstCapacity),
			})
			return
		}

		c.Next()
	}
}
