package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "staffdir"

// Prometheus is a Collector backed by its own registry.
type Prometheus struct {
	registry      *prometheus.Registry
	cacheReads    *prometheus.CounterVec
	loads         *prometheus.CounterVec
	loadDuration  *prometheus.HistogramVec
	filterMatches prometheus.Histogram
	logins        *prometheus.CounterVec
	snapshotSize  prometheus.Gauge
}

// NewPrometheus creates and registers all directory metrics.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		cacheReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_reads_total",
			Help:      "Snapshot cache reads by outcome.",
		}, []string{"status"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Data loads by origin and result.",
		}, []string{"origin", "success"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent loading the employee snapshot.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"origin"}),
		filterMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_matches",
			Help:      "Records matched per filter pass.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"success"}),
		snapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_records",
			Help:      "Records in the published snapshot.",
		}),
	}

	p.registry.MustRegister(
		p.cacheReads,
		p.loads,
		p.loadDuration,
		p.filterMatches,
		p.logins,
		p.snapshotSize,
	)
	return p
}

// CacheRead implements Collector.
func (p *Prometheus) CacheRead(status string) {
	p.cacheReads.WithLabelValues(status).Inc()
}

// Load implements Collector.
func (p *Prometheus) Load(origin string, d time.Duration, err error) {
	p.loads.WithLabelValues(origin, strconv.FormatBool(err == nil)).Inc()
	p.loadDuration.WithLabelValues(origin).Observe(d.Seconds())
}

// FilterApplied implements Collector.
func (p *Prometheus) FilterApplied(matched int) {
	p.filterMatches.Observe(float64(matched))
}

// Login implements Collector.
func (p *Prometheus) Login(ok bool) {
	p.logins.WithLabelValues(strconv.FormatBool(ok)).Inc()
}

// SnapshotSize implements Collector.
func (p *Prometheus) SnapshotSize(n int) {
	p.snapshotSize.Set(float64(n))
}

// Registry exposes the underlying registry (for tests and extra collectors).
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
