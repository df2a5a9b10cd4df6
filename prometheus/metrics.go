package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitpro_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitpro_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Invite redemption counter
	InviteRedemptionCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitpro_invite_redemptions_total",
			Help: "Total number of successful invite redemptions",
		},
	)

	// Gym operation counter
	GymOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpro_gym_operations_total",
			Help: "Total number of gym operations",
		},
		[]string{"operation"}, // operation can be "create", "access", "update", "switch", etc.
	)

	// Collection operation counter per tenant-scoped collection
	CollectionOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpro_collection_operations_total",
			Help: "Total number of operations on tenant-scoped collections",
		},
		[]string{"collection", "operation"},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpro_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpro_auth_errors_total",
			Help: "Total number of authentication and authorization errors",
		},
		[]string{"type"}, // type can be "login_failure", "invalid_token", "permission_denied" etc.
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitpro_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitpro_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Active tokens. Tokens are stateless, so the gauge tracks sign-ins and
	// view switches minus sign-outs without reconciling expiry or repeated
	// sign-outs with the same token.
	ActiveTokensGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitpro_active_tokens",
			Help: "Approximate number of outstanding authentication tokens (sign-ins minus sign-outs, not reconciled against token expiry)",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fitpro_info",
			Help: "Information about the FitPro server",
		},
		[]string{"version"},
	)

	// Active gyms
	ActiveGymsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitpro_active_gyms",
			Help: "Number of currently active gyms",
		},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(InviteRedemptionCounter)
	prometheus.MustRegister(GymOperationCounter)
	prometheus.MustRegister(CollectionOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveTokensGauge)
	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(ActiveGymsGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// RecordAuthError increments the auth error counter for the given type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordGymOperation increments the gym operation counter
func RecordGymOperation(operation string) {
	GymOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordCollectionOperation increments the per-collection operation counter
func RecordCollectionOperation(collection, operation string) {
	CollectionOperationCounter.With(prometheus.Labels{
		"collection": collection,
		"operation":  operation,
	}).Inc()
}

// IncreaseActiveTokens increments the active token gauge
func IncreaseActiveTokens() {
	ActiveTokensGauge.Inc()
}

// DecreaseActiveTokens decrements the active token gauge
func DecreaseActiveTokens() {
	ActiveTokensGauge.Dec()
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}
