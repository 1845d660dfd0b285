package middleware

import (
	"strconv"
	"sync"
	"time"

	applogger "PriceBoard/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "priceboard"

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by route template and status code.",
	}, []string{"route", "method", "code"})

	httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "class"})

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "in_flight_requests",
		Help:      "Requests currently being served.",
	})

	httpResponseBytes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response body size.",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"route", "class"})

	registerHTTPMetrics sync.Once
)

// Metrics records request metrics keyed by the registered route template.
// Paths listed in skip (the scrape endpoint, websocket upgrades) are passed through.
func Metrics(l *applogger.Logger, slowThreshold time.Duration, skip ...string) echo.MiddlewareFunc {
	registerHTTPMetrics.Do(func() {
		prometheus.MustRegister(httpRequests, httpLatency, httpInFlight, httpResponseBytes)
	})

	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := routeLabel(c)
			if _, ok := skipped[route]; ok {
				return next(c)
			}
			method := c.Request().Method

			httpInFlight.Inc()
			start := time.Now()
			err := next(c)
			if err != nil {
				// status is only known once echo has rendered the error
				c.Error(err)
			}
			elapsed := time.Since(start)
			httpInFlight.Dec()

			code := c.Response().Status
			class := statusClass(code)
			httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
			httpLatency.WithLabelValues(route, method, class).Observe(elapsed.Seconds())
			httpResponseBytes.WithLabelValues(route, class).Observe(float64(c.Response().Size))

			if l != nil {
				logOutcome(l, route, method, code, elapsed, slowThreshold, err)
			}
			return nil
		}
	}
}

func logOutcome(l *applogger.Logger, route, method string, code int, elapsed, slow time.Duration, err error) {
	switch {
	case code >= 500:
		l.Error("request failed",
			applogger.String("route", route),
			applogger.String("method", method),
			applogger.Int("status", code),
			applogger.Duration("duration_ms", elapsed),
			applogger.Error(err),
		)
	case slow > 0 && elapsed >= slow:
		l.Warn("slow request",
			applogger.String("route", route),
			applogger.String("method", method),
			applogger.Int("status", code),
			applogger.Duration("duration_ms", elapsed),
		)
	}
}

func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
