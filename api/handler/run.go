package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kamaD-y/dcp-ops-monitor/job"
	"github.com/kamaD-y/dcp-ops-monitor/models"
)

// Runner is the job surface the handlers need.
type Runner interface {
	Run(ctx context.Context) (*job.Result, error)
	Running() bool
}

// Run returns a handler for POST /api/v1/runs.
//
// The run executes synchronously. It is detached from the client connection
// so a dropped request never leaves the portal session half logged in;
// timeout bounds it instead.
//
// Flow:
//  1. Reject with 409 when a run is already active.
//  2. Runner.Run → snapshot + indicators.
//  3. Map failures to status codes, return the partial result.
func Run(runner Runner, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Fast overlap check ───────────────────────────────────
		if runner.Running() {
			respondInProgress(c)
			return
		}

		// ── 2. Run ──────────────────────────────────────────────────
		ctx := context.WithoutCancel(c.Request.Context())
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		result, err := runner.Run(ctx)
		if errors.Is(err, job.ErrRunInProgress) {
			respondInProgress(c)
			return
		}

		resp := models.RunResponse{
			Success:    err == nil,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if result != nil {
			resp.RunID = result.RunID
			resp.Snapshot = result.Snapshot
			resp.Indicators = result.Indicators
		}

		// ── 3. Respond ──────────────────────────────────────────────
		if err != nil {
			resp.Error = models.ToDetail(err)
			c.JSON(mapErrorToStatus(resp.Error.Code), resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func respondInProgress(c *gin.Context) {
	c.JSON(http.StatusConflict, models.RunResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeRunInProgress,
			Message: job.ErrRunInProgress.Error(),
		},
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(code string) int {
	switch code {
	case models.ErrCodeLoginFailed,
		models.ErrCodePageFetchFailed,
		models.ErrCodeExtractionFailed,
		models.ErrCodeNotificationFailed:
		return http.StatusBadGateway // 502
	case models.ErrCodeRunInProgress:
		return http.StatusConflict // 409
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
