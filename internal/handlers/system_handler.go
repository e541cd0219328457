package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Health reports whether the database answers.
func (h *Handler) Health(c *gin.Context) {
	if h.Pinger != nil {
		if err := h.Pinger(); err != nil {
			h.logger(c).Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"database":  "ok",
		"assistant": h.Assistant != nil,
		"archive":   h.Archive != nil,
	})
}

// Metrics serves the Prometheus registry.
func (h *Handler) PrometheusMetrics(c *gin.Context) {
	h.Metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
