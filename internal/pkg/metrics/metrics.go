package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relief",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "relief",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"method", "path"})

	// Elevation lookups by mode (single, batch) and outcome (ok, error).
	ElevationLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relief",
		Subsystem: "elevation",
		Name:      "lookups_total",
		Help:      "Total elevation lookups sent to the provider",
	}, []string{"mode", "outcome"})

	ElevationLookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "relief",
		Subsystem: "elevation",
		Name:      "lookup_duration_seconds",
		Help:      "Latency of elevation provider requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"mode"})

	PointsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relief",
		Subsystem: "terrain",
		Name:      "points_classified_total",
		Help:      "Sampled points by terrain category",
	}, []string{"category"})

	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relief",
		Subsystem: "analysis",
		Name:      "runs_total",
		Help:      "Analyses and profiles run, by kind and outcome",
	}, []string{"kind", "outcome"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "relief",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "Wall time of a complete analysis or profile",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"kind"})
)

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
