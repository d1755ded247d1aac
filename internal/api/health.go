package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultPingTimeout = 2 * time.Second

// HealthCheck reports liveness. When ping is set it must succeed within the
// timeout for the service to report healthy.
func HealthCheck(ping func(ctx context.Context) error, timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}
