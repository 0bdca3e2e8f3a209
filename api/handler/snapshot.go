package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kamaD-y/dcp-ops-monitor/cache"
	"github.com/kamaD-y/dcp-ops-monitor/models"
	"github.com/kamaD-y/dcp-ops-monitor/storage"
)

// SnapshotLoader reads a stored daily snapshot.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, date time.Time) (*models.AssetSnapshot, error)
}

// Snapshot returns a handler for GET /api/v1/snapshots/:date.
//
// :date is YYYY-MM-DD in loc, or "today". Only past days are cached since
// a rerun may still replace today's snapshot.
func Snapshot(loader SnapshotLoader, cc *cache.Cache, loc *time.Location, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		today := civilDay(now().In(loc))

		date := today
		if raw := c.Param("date"); raw != "today" {
			d, err := time.ParseInLocation(time.DateOnly, raw, loc)
			if err != nil {
				snapshotError(c, http.StatusBadRequest, raw, models.ErrCodeInvalidRequest, "date must be YYYY-MM-DD or today")
				return
			}
			date = d
		}
		key := cache.Key(date)
		cacheable := cc != nil && date.Before(today)

		if cacheable {
			if snap, ok := cc.Get(date); ok {
				c.JSON(http.StatusOK, models.SnapshotResponse{Success: true, Date: key, Cached: true, Snapshot: snap})
				return
			}
		}

		snap, err := loader.LoadSnapshot(c.Request.Context(), date)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			snapshotError(c, http.StatusNotFound, key, models.ErrCodeNotFound, "no snapshot stored for "+key)
			return
		case err != nil:
			snapshotError(c, http.StatusInternalServerError, key, models.ErrCodeInternal, err.Error())
			return
		}

		if cacheable {
			cc.Set(date, snap)
		}
		c.JSON(http.StatusOK, models.SnapshotResponse{Success: true, Date: key, Snapshot: snap})
	}
}

func snapshotError(c *gin.Context, status int, date, code, msg string) {
	c.JSON(status, models.SnapshotResponse{
		Date:  date,
		Error: &models.ErrorDetail{Code: code, Message: msg},
	})
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
