// Package metrics exposes Prometheus collectors for the label print service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, path, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestTotal tracks total HTTP requests by method, path, and status code.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// PrintJobsTotal counts jobs reaching a status (queued counts submissions).
	PrintJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "print_jobs_total",
			Help: "Total number of print jobs by status",
		},
		[]string{"status"},
	)

	// PrintJobDuration tracks queued-to-completed time of successful jobs.
	PrintJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "print_job_duration_seconds",
			Help:    "Print job duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// PrintLabelsTotal counts labels sent to printers.
	PrintLabelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "print_labels_total",
			Help: "Total number of labels sent to printers",
		},
		[]string{"result"},
	)

	// PrintQueueDepth is the number of non-terminal jobs.
	PrintQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "print_queue_depth",
			Help: "Number of queued or printing jobs",
		},
	)

	// PrintersOnline is the number of printers reported online or busy.
	PrintersOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "printers_online",
			Help: "Number of reachable printers",
		},
	)

	// PrinterDetectionTotal counts detection runs by aggregate status.
	PrinterDetectionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printer_detection_total",
			Help: "Total number of printer detection runs",
		},
		[]string{"status"},
	)

	// PrinterProbeDuration tracks each probe by method and outcome.
	PrinterProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printer_probe_duration_seconds",
			Help:    "Printer probe duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "result"},
	)

	// CacheOperations counts transaction cache operations by result.
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transaction_cache_operations_total",
			Help: "Total number of transaction cache operations",
		},
		[]string{"operation", "result"},
	)

	// RateLimitedTotal counts requests rejected by a rate limiter.
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Total number of requests rejected by rate limiting",
		},
		[]string{"scope"},
	)

	// HandlerPanics counts panics recovered per route.
	HandlerPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_handler_panics_total",
			Help: "Total number of panics recovered in HTTP handlers",
		},
		[]string{"path"},
	)
)

// PrometheusMiddleware returns a Gin middleware that collects HTTP metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		statusCode := strconv.Itoa(c.Writer.Status())
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path, statusCode).Observe(time.Since(start).Seconds())
		HTTPRequestTotal.WithLabelValues(c.Request.Method, path, statusCode).Inc()
	}
}

// RecordJobStatus counts a job entering status; duration is observed for completed jobs.
func RecordJobStatus(status string, duration time.Duration) {
	PrintJobsTotal.WithLabelValues(status).Inc()
	if status == "completed" && duration > 0 {
		PrintJobDuration.Observe(duration.Seconds())
	}
}

// RecordLabel counts one label send attempt.
func RecordLabel(result string) {
	PrintLabelsTotal.WithLabelValues(result).Inc()
}

// SetQueueDepth updates the queue depth gauge.
func SetQueueDepth(depth int) {
	PrintQueueDepth.Set(float64(depth))
}

// SetPrintersOnline updates the reachable printers gauge.
func SetPrintersOnline(n int) {
	PrintersOnline.Set(float64(n))
}

// RecordDetection counts a finished detection run.
func RecordDetection(status string) {
	PrinterDetectionTotal.WithLabelValues(status).Inc()
}

// RecordProbe observes one probe run.
func RecordProbe(method string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	PrinterProbeDuration.WithLabelValues(method, result).Observe(duration.Seconds())
}

// RecordCacheOperation counts one transaction cache operation.
func RecordCacheOperation(operation, result string) {
	CacheOperations.WithLabelValues(operation, result).Inc()
}

// RecordRateLimited counts one rejected request.
func RecordRateLimited(scope string) {
	RateLimitedTotal.WithLabelValues(scope).Inc()
}

// RecordPanic counts one recovered panic on path.
func RecordPanic(path string) {
	if path == "" {
		path = "unmatched"
	}
	HandlerPanics.WithLabelValues(path).Inc()
}
