package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches    *prometheus.CounterVec
	errorsTot  *prometheus.CounterVec
	cacheTotal *prometheus.CounterVec
	lastPrice  *prometheus.GaugeVec
	dropped    *prometheus.CounterVec
	archived   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// New registers the recorder's collectors with reg; nil means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "priceboard_upstream_fetches_total",
				Help: "Upstream prediction fetches by commodity and result",
			},
			[]string{"commodity", "result"},
		),
		errorsTot: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "priceboard_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "priceboard_cache_requests_total",
				Help: "Cache lookups by cache and outcome",
			},
			[]string{"cache", "outcome"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "priceboard_last_price",
				Help: "Most recent price in the merged series",
			},
			[]string{"commodity", "series"},
		),
		dropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "priceboard_dropped_points_total",
				Help: "Upstream rows dropped for unparsable dates",
			},
			[]string{"commodity"},
		),
		archived: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "priceboard_snapshots_archived_total",
				Help: "Snapshots written to the archive backend",
			},
			[]string{"backend", "commodity"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "priceboard_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch counts an upstream prediction fetch.
func (r *Recorder) RecordFetch(commodity, result string) {
	r.fetches.WithLabelValues(commodity, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTot.WithLabelValues(kind).Inc()
}

// RecordCache counts a cache hit or miss.
func (r *Recorder) RecordCache(cache string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheTotal.WithLabelValues(cache, outcome).Inc()
}

// RecordLastPrice records the latest value of one series for a commodity.
func (r *Recorder) RecordLastPrice(commodity, series string, price float64) {
	r.lastPrice.WithLabelValues(commodity, series).Set(price)
}

// RecordDropped counts rows discarded during a merge.
func (r *Recorder) RecordDropped(commodity string, n int) {
	if n > 0 {
		r.dropped.WithLabelValues(commodity).Add(float64(n))
	}
}

// RecordArchived counts a snapshot written to an archive backend.
func (r *Recorder) RecordArchived(backend, commodity string) {
	r.archived.WithLabelValues(backend, commodity).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
