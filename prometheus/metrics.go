package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthErrorsCounter prometheus.Counter

	// Pipeline metrics
	PipelineRunsCounter      *prometheus.CounterVec
	PipelineDuration         *prometheus.HistogramVec
	SuggestionsGauge         prometheus.Gauge
	UnmappedSKUCounter       prometheus.Counter
	UnknownSupplierCounter   prometheus.Counter
	OpenOrderFallbackCounter prometheus.Counter

	// Procurement API metrics
	SubmissionsCounter  *prometheus.CounterVec
	TokenRefreshCounter *prometheus.CounterVec
	DbOperationDuration *prometheus.HistogramVec

	initOnce sync.Once
)

// InitMetrics registers all metrics under the given prefix. Until it is called
// the Record helpers are no-ops.
func InitMetrics(prefix string) {
	initOnce.Do(func() {
		HttpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		)

		HttpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		AuthErrorsCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_auth_errors_total",
				Help: "Total number of operator authentication errors",
			},
		)

		PipelineRunsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_pipeline_runs_total",
				Help: "Total number of replenishment runs by mode and result",
			},
			[]string{"mode", "result"},
		)

		PipelineDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_pipeline_duration_seconds",
				Help:    "Duration of replenishment runs in seconds",
				Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"mode"},
		)

		SuggestionsGauge = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_suggestions",
				Help: "Number of actionable suggestions in the last run",
			},
		)

		UnmappedSKUCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_unmapped_sku_lines_total",
				Help: "Sales lines dropped because the sold SKU is not in the product master",
			},
		)

		UnknownSupplierCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_unknown_supplier_total",
				Help: "Suggestions dropped because the supplier is not in the supplier table",
			},
		)

		OpenOrderFallbackCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_open_order_fallback_total",
				Help: "Open-order lookups that failed and were treated as zero",
			},
		)

		SubmissionsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_submissions_total",
				Help: "Purchase order submissions by outcome",
			},
			[]string{"outcome"},
		)

		TokenRefreshCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_token_refresh_total",
				Help: "OAuth token refreshes by result",
			},
			[]string{"result"},
		)

		DbOperationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		)
	})
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordHTTPRequest records one served HTTP request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if HttpRequestsTotal == nil {
		return
	}
	HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordAuthError counts a rejected operator request
func RecordAuthError() {
	if AuthErrorsCounter != nil {
		AuthErrorsCounter.Inc()
	}
}

// RecordPipelineRun records the outcome and duration of one run
func RecordPipelineRun(mode, result string, duration time.Duration) {
	if PipelineRunsCounter == nil {
		return
	}
	PipelineRunsCounter.WithLabelValues(mode, result).Inc()
	PipelineDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// SetSuggestions records the number of suggestions of the last run
func SetSuggestions(n int) {
	if SuggestionsGauge != nil {
		SuggestionsGauge.Set(float64(n))
	}
}

// RecordUnmappedSKU counts a dropped sales line
func RecordUnmappedSKU() {
	if UnmappedSKUCounter != nil {
		UnmappedSKUCounter.Inc()
	}
}

// RecordUnknownSupplier counts a dropped suggestion
func RecordUnknownSupplier() {
	if UnknownSupplierCounter != nil {
		UnknownSupplierCounter.Inc()
	}
}

// RecordOpenOrderFallback counts an open-order lookup that fell back to zero
func RecordOpenOrderFallback() {
	if OpenOrderFallbackCounter != nil {
		OpenOrderFallbackCounter.Inc()
	}
}

// RecordSubmission counts a submission outcome (dry_run, created, auth_error, api_error, transport_error)
func RecordSubmission(outcome string) {
	if SubmissionsCounter != nil {
		SubmissionsCounter.WithLabelValues(outcome).Inc()
	}
}

// RecordTokenRefresh counts a token refresh attempt
func RecordTokenRefresh(result string) {
	if TokenRefreshCounter != nil {
		TokenRefreshCounter.WithLabelValues(result).Inc()
	}
}
