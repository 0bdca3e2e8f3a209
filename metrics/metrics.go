// Package metrics exposes run outcomes as Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/kamaD-y/dcp-ops-monitor/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dcpmon"

// Metrics holds the collectors of one process. Use New, not the zero value.
type Metrics struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastSuccess   prometheus.Gauge
	valuation     *prometheus.GaugeVec
	yieldRate     prometheus.Gauge
	notifications *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs by result and failure code.",
		}, []string{"result", "code"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a run.",
			Buckets:   []float64{5, 10, 20, 30, 60, 90, 120, 180},
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		valuation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "asset_yen",
			Help:      "Latest total figures in yen.",
		}, []string{"figure"}),
		yieldRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actual_yield_rate",
			Help:      "Latest annualised yield rate.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by kind and result.",
		}, []string{"kind", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runs, m.runDuration, m.lastSuccess, m.valuation, m.yieldRate, m.notifications,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records a finished run. err is nil on success.
func (m *Metrics) ObserveRun(started time.Time, err error) {
	m.runDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		m.runs.WithLabelValues("failure", models.ToDetail(err).Code).Inc()
		return
	}
	m.runs.WithLabelValues("success", "").Inc()
	m.lastSuccess.SetToCurrentTime()
}

// ObserveSnapshot records the latest totals and yield rate.
func (m *Metrics) ObserveSnapshot(total models.AssetEntry, ind models.OperationalIndicators) {
	m.valuation.WithLabelValues("cumulative_contributions").Set(float64(total.CumulativeContributions))
	m.valuation.WithLabelValues("gains_or_losses").Set(float64(total.GainsOrLosses))
	m.valuation.WithLabelValues("asset_valuation").Set(float64(total.AssetValuation))
	m.valuation.WithLabelValues("total_amount_at_60age").Set(float64(ind.TotalAmountAt60Age))
	m.yieldRate.Set(ind.ActualYieldRate)
}

// ObserveNotification records one delivery attempt of the given kind.
func (m *Metrics) ObserveNotification(kind string, err error) {
	result := "success"
	var nerr *models.NotificationError
	switch {
	case errors.As(err, &nerr):
		result = "failure"
	case err != nil:
		result = "error"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}
