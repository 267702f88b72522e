package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ssargent/gse2/pkg/codec"
	"github.com/ssargent/gse2/pkg/gse2"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Failure kinds used as metric labels
const (
	failureFraming     = "framing"
	failureChecksum    = "checksum"
	failureMapping     = "mapping"
	failureTimestamp   = "timestamp"
	failureSampleRange = "sample_range"
	failureDataType    = "data_type"
	failureFieldWidth  = "field_width"
	failureOther       = "other"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Container metrics
	recordsDecodedTotal prometheus.Counter
	recordsEncodedTotal prometheus.Counter
	failuresTotal       *prometheus.CounterVec
	truncatedTotal      prometheus.Counter

	// Catalog metrics
	catalogOperationsTotal *prometheus.CounterVec

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec

	healthChecksTotal *prometheus.CounterVec
}

// NewMetrics creates all Prometheus metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gse2_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gse2_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gse2_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		recordsDecodedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gse2_records_decoded_total",
				Help: "Total number of WID2 records decoded",
			},
		),

		recordsEncodedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gse2_records_encoded_total",
				Help: "Total number of WID2 records encoded",
			},
		),

		failuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gse2_container_failures_total",
				Help: "Total number of failed container reads and writes",
			},
			[]string{"operation", "kind"},
		),

		truncatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gse2_scan_truncated_total",
				Help: "Total number of reads stopped by the scan limit",
			},
		),

		catalogOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gse2_catalog_operations_total",
				Help: "Total number of catalog operations",
			},
			[]string{"operation", "status"},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gse2_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gse2_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDecoded records a successful read of n records
func (m *Metrics) RecordDecoded(n int, truncated bool) {
	m.recordsDecodedTotal.Add(float64(n))
	if truncated {
		m.truncatedTotal.Inc()
	}
}

// RecordEncoded records a successful write of n records
func (m *Metrics) RecordEncoded(n int) {
	m.recordsEncodedTotal.Add(float64(n))
}

// RecordFailure records a failed container operation by error kind
func (m *Metrics) RecordFailure(operation string, err error) {
	m.failuresTotal.WithLabelValues(operation, failureKind(err)).Inc()
}

// RecordCatalogOperation records a catalog operation
func (m *Metrics) RecordCatalogOperation(operation string, success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.catalogOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.authRequestsTotal.WithLabelValues(status).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.healthChecksTotal.WithLabelValues(status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware instruments the authentication middleware
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get(apiKeyHeader) != ""

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

// failureKind maps container errors onto metric labels
func failureKind(err error) string {
	switch {
	case errors.Is(err, gse2.ErrChecksum):
		return failureChecksum
	case errors.Is(err, gse2.ErrFraming):
		return failureFraming
	case errors.Is(err, gse2.ErrFieldMapping):
		return failureMapping
	case errors.Is(err, gse2.ErrTimestamp):
		return failureTimestamp
	case errors.Is(err, gse2.ErrSampleRange):
		return failureSampleRange
	case errors.Is(err, codec.ErrUnsupportedDataType):
		return failureDataType
	case errors.Is(err, codec.ErrFieldWidth):
		return failureFieldWidth
	}
	return failureOther
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
