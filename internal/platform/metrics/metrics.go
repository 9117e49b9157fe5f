package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	rowsStaged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_rows_staged_total",
			Help: "Staged observation rows accepted for processing.",
		},
		[]string{"source_kind"},
	)
	rowsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_rows_processed_total",
			Help: "Staged rows that completed the auto-apply path.",
		},
		[]string{"source_kind"},
	)
	rowsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_rows_skipped_total",
			Help: "Staged rows skipped as malformed.",
		},
		[]string{"source_kind"},
	)
	reviewsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_reviews_created_total",
			Help: "Product match reviews opened by the conflict detector.",
		},
		[]string{"reason"},
	)
	priceChangesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_price_changes_total",
			Help: "Immutable price-change records written.",
		},
		[]string{"source_kind"},
	)
	batchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricewatch_batch_duration_seconds",
			Help:    "Wall time per ingestion batch.",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 60},
		},
		[]string{"source_kind"},
	)
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricewatch_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		rowsStaged,
		rowsProcessed,
		rowsSkipped,
		reviewsCreated,
		priceChangesRecorded,
		batchDuration,
		httpRequestsTotal,
		httpRequestDuration,
	)
}

func RowsStaged(kind string, n int)    { rowsStaged.WithLabelValues(kind).Add(float64(n)) }
func RowsProcessed(kind string, n int) { rowsProcessed.WithLabelValues(kind).Add(float64(n)) }
func RowsSkipped(kind string, n int)   { rowsSkipped.WithLabelValues(kind).Add(float64(n)) }
func ReviewCreated(reason string)      { reviewsCreated.WithLabelValues(reason).Inc() }
func PriceChangeRecorded(kind string)  { priceChangesRecorded.WithLabelValues(kind).Inc() }

func ObserveBatch(kind string, d time.Duration) {
	batchDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
