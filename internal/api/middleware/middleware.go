package middleware

import (
	"net/http"
	"time"

	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/gin-gonic/gin"
)

// CorsMiddleware rejects requests from origins the policy does not allow and
// echoes allowed origins back. There is no wildcard.
func CorsMiddleware(origins *OriginPolicy, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if !origins.Allowed(origin) {
			log.Warn("Rejected cross-origin request", "origin", origin, "method", c.Request.Method, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "origin not allowed"})
			return
		}
		if origin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
			h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestLogger logs every request at debug level, failures at warn.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		}
		if c.Writer.Status() >= 500 {
			log.Warn("Request failed", args...)
			return
		}
		log.Debug("Request served", args...)
	}
}
