package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status handles GET /api/status
func Status(c *gin.Context) {
	c.String(http.StatusOK, "Server is live")
}

// Health returns a handler that checks the store. GET /api/health
func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "database": "ok"})
	}
}
