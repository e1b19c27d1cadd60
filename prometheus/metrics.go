package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var LoginCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "datapro_login_total",
		Help: "Total number of login attempts",
	},
)

var AuthErrorCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datapro_auth_errors_total",
		Help: "Total number of authentication errors by reason",
	},
	[]string{"reason"},
)

var EntityOperationCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datapro_entity_operations_total",
		Help: "Total number of entity operations by entity and operation",
	},
	[]string{"entity", "operation"},
)

var PermissionDeniedCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datapro_permission_denied_total",
		Help: "Total number of denied cross-tenant or role-gated requests",
	},
	[]string{"entity"},
)

var InvalidTransitionCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datapro_invalid_transitions_total",
		Help: "Total number of rejected status transitions by entity",
	},
	[]string{"entity"},
)

var BulkImportCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "datapro_bulk_imports_total",
		Help: "Total number of bulk imports by entity and outcome",
	},
	[]string{"entity", "outcome"},
)

var DBOperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "datapro_db_operation_duration_seconds",
		Help:    "Duration of database operations in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation"},
)

var RequestDurationHistogram = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "datapro_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(EntityOperationCounter)
	prometheus.MustRegister(PermissionDeniedCounter)
	prometheus.MustRegister(InvalidTransitionCounter)
	prometheus.MustRegister(BulkImportCounter)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(RequestDurationHistogram)
}

// RecordAuthError increments the auth error counter for a reason
func RecordAuthError(reason string) {
	AuthErrorCounter.WithLabelValues(reason).Inc()
}

// RecordEntityOperation increments the per-entity operation counter
func RecordEntityOperation(entity, operation string) {
	EntityOperationCounter.WithLabelValues(entity, operation).Inc()
}

// TrackDBOperation returns a function that records the elapsed time when
// called, for use with defer
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// MetricsMiddleware is an Echo middleware function that records HTTP request metrics
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			// Record metrics after the request is processed
			method := c.Request().Method
			path := c.Path()
			status := strconv.Itoa(c.Response().Status)

			duration := time.Since(start).Seconds()
			RequestDurationHistogram.WithLabelValues(method, path, status).Observe(duration)

			return err
		}
	}
}
