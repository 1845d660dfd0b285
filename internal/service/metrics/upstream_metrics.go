package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Failure reasons for UpstreamErrors.
const (
	ReasonStatus    = "status"
	ReasonTimeout   = "timeout"
	ReasonTransport = "transport"
)

var (
	registerOnce sync.Once

	// UpstreamLatency covers the whole call to the prediction API, retries included.
	UpstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "priceboard",
		Subsystem: "upstream",
		Name:      "latency_seconds",
		Help:      "Prediction API call latency, retries included.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	UpstreamErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "priceboard",
		Subsystem: "upstream",
		Name:      "errors_total",
		Help:      "Prediction API calls that failed after all attempts.",
	}, []string{"endpoint", "reason"})
)

// Register adds the upstream collectors to the default registry once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(UpstreamLatency, UpstreamErrors)
	})
}
