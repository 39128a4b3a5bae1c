package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Limiter is the slice of rate.Guard the middleware needs.
type Limiter interface {
	Allow(ctx context.Context, ip, bucket string) (bool, error)
}

// RateLimit counts the request against bucket for the client IP before the
// handler runs. A denial aborts with 429 and no other side effect.
func RateLimit(lim Limiter, bucket string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := ClientIP(c)
		ok, err := lim.Allow(c.Request.Context(), ip, bucket)
		if err != nil {
			log.Error().Err(err).Str("ip", ip).Str("bucket", bucket).Msg("rate limit check")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !ok {
			log.Warn().Str("ip", ip).Str("bucket", bucket).Str("path", c.Request.URL.Path).Msg("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}

// ClientIP returns the client address as resolved by the engine's trusted
// proxy settings, or "unknown".
func ClientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
