package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	TemplateOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formcraft_template_operations_total",
			Help: "Template create/update/delete operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	FormSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formcraft_form_submissions_total",
			Help: "Response form submissions by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	PermissionDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formcraft_permission_denials_total",
			Help: "Operations rejected by the permission resolver",
		},
		[]string{"operation"},
	)

	StatisticsCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formcraft_statistics_cache_total",
			Help: "Statistics cache lookups by result",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Init 可以重复调用，只注册一次
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(TemplateOperations)
		prometheus.MustRegister(FormSubmissions)
		prometheus.MustRegister(PermissionDenials)
		prometheus.MustRegister(StatisticsCache)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
