package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kamaD-y/dcp-ops-monitor/models"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Status is "running" while a run holds the browser, "healthy" otherwise.
func Health(runner Runner, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		running := runner.Running()

		status := "healthy"
		if running {
			status = "running"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Running: running,
			Version: Version,
		})
	}
}
