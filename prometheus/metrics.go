package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	// LedgerTransactionCounter counts appended ledger transactions by type
	LedgerTransactionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Total number of ledger transactions appended, by type",
		},
		[]string{"type"},
	)

	// InsufficientBalanceCounter counts refused redemptions
	InsufficientBalanceCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_insufficient_balance_total",
			Help: "Total number of redemptions refused for insufficient balance",
		},
	)

	// ValuationJobCounter counts valuation job outcomes
	ValuationJobCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuation_jobs_total",
			Help: "Total number of valuation job outcomes (completed, retried, failed)",
		},
		[]string{"status"},
	)

	// ValuationJobDuration records valuation job processing time
	ValuationJobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "valuation_job_duration_seconds",
			Help:    "Duration of valuation job processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// AuthErrorCounter counts authentication errors by type
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)
)

// HTTPMetrics holds configuration and state for HTTP metrics collection
type HTTPMetrics struct {
	ServiceName string
	initialized bool
}

// NewHTTPMetrics creates a new HTTP metrics collector for a specific service
func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	m := &HTTPMetrics{
		ServiceName: serviceName,
	}
	m.register()
	return m
}

// register registers the prometheus metrics if they haven't been registered already
func (m *HTTPMetrics) register() {
	if !m.initialized {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDurationHistogram)
		prometheus.MustRegister(LedgerTransactionCounter)
		prometheus.MustRegister(InsufficientBalanceCounter)
		prometheus.MustRegister(AuthErrorCounter)
		m.initialized = true
	}
}

// RegisterWorkerMetrics registers the valuation metrics. Called by the
// worker process, which serves no HTTP traffic.
func RegisterWorkerMetrics() {
	prometheus.MustRegister(ValuationJobCounter)
	prometheus.MustRegister(ValuationJobDuration)
}

// RecordAuthError increments the auth error counter for the given type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// Middleware creates an Echo middleware function that records HTTP request metrics
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			// Record metrics after the request is processed
			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			RequestCounter.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()

			duration := time.Since(start).Seconds()
			RequestDurationHistogram.WithLabelValues(m.ServiceName, method, path, statusStr).Observe(duration)

			return err
		}
	}
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
