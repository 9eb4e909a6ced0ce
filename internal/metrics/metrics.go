package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OutcomeAccepted labels bids that were recorded. Rejected bids are labelled with their reason.
const OutcomeAccepted = "Accepted"

var (
	// Registry holds the auction server's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "carz",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carz",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carz",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path"},
	)

	bids = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carz",
			Subsystem: "auction",
			Name:      "bids_total",
			Help:      "Bid attempts by outcome.",
		},
		[]string{"outcome"},
	)

	expired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "carz",
			Subsystem: "auction",
			Name:      "expired_total",
			Help:      "Auctions marked ended by the expiry sweep.",
		},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "carz",
			Subsystem: "auction",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of expiry sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		bids,
		expired,
		sweepDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies, labelled by route template.
func Middleware(c *gin.Context) {
	if c.Request.URL.Path == "/metrics" {
		c.Next()
		return
	}

	start := time.Now()
	httpInFlight.Inc()
	defer httpInFlight.Dec()

	c.Next()

	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	method := strings.ToUpper(c.Request.Method)

	httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
	httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
}

// RecordBid counts one bid attempt.
func RecordBid(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	bids.WithLabelValues(outcome).Inc()
}

// RecordSweep records one expiry sweep.
func RecordSweep(n int, duration time.Duration) {
	if n > 0 {
		expired.Add(float64(n))
	}
	sweepDuration.Observe(duration.Seconds())
}
