package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RunsTotal counts run attempts by outcome (completed, skipped, busy, failed).
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birthday_runs_total",
			Help: "Birthday run attempts by outcome",
		},
		[]string{"outcome"},
	)

	// DispatchTotal counts notification attempts by status (delivered, failed).
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birthday_dispatch_total",
			Help: "Birthday notification attempts by status",
		},
		[]string{"status"},
	)

	// PagesFetched counts store pages read during scans, by collection.
	PagesFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birthday_pages_fetched_total",
			Help: "Store pages fetched by birthday scans",
		},
		[]string{"collection"},
	)

	// ScanDuration observes completed scan durations.
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "birthday_scan_duration_seconds",
			Help:    "Duration of completed birthday scans in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// ScanRunning is 1 while a scan holds the run guard.
	ScanRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "birthday_scan_running",
			Help: "1 while a birthday scan is running",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, RunsTotal, DispatchTotal, PagesFetched, ScanDuration, ScanRunning)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncRuns counts one run attempt with the given outcome.
func IncRuns(outcome string) {
	RunsTotal.WithLabelValues(outcome).Inc()
}

// IncDispatch counts one notification attempt.
func IncDispatch(status string) {
	DispatchTotal.WithLabelValues(status).Inc()
}

// IncPagesFetched counts one page read from collection.
func IncPagesFetched(collection string) {
	PagesFetched.WithLabelValues(collection).Inc()
}

// ObserveScanDuration records the duration of a completed scan.
func ObserveScanDuration(seconds float64) {
	ScanDuration.Observe(seconds)
}

// SetScanRunning flips the running gauge.
func SetScanRunning(running bool) {
	if running {
		ScanRunning.Set(1)
		return
	}
	ScanRunning.Set(0)
}
