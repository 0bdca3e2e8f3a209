package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kamaD-y/dcp-ops-monitor/api/handler"
	"github.com/kamaD-y/dcp-ops-monitor/api/middleware"
	"github.com/kamaD-y/dcp-ops-monitor/cache"
	"github.com/kamaD-y/dcp-ops-monitor/config"
	"github.com/kamaD-y/dcp-ops-monitor/metrics"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled)
//	Runs:    RateLimit
//
// Health and metrics stay outside auth so probes and scrapers always work.
// The snapshot route exists only when snapshots is non-nil.
func NewRouter(runner handler.Runner, snapshots handler.SnapshotLoader, m *metrics.Metrics, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(runner, startTime))

	// Protected group: auth.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}

	// Only runs are rate limited.
	protected.POST("/runs",
		middleware.RateLimit(cfg.RateLimit),
		handler.Run(runner, cfg.Scraper.FetchTimeout),
	)
	if snapshots != nil {
		cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
		protected.GET("/snapshots/:date", handler.Snapshot(snapshots, cc, cfg.Timezone, time.Now))
	}

	return r
}
