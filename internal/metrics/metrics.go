package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const prefix = "inventrobil"

// Metrics owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LoginAttempts   *prometheus.CounterVec
	CheckoutsTotal  *prometheus.CounterVec
	SaleRevenue     prometheus.Counter
	ItemsSold       prometheus.Counter
	CatalogImports  prometheus.Counter
	ProductOps      *prometheus.CounterVec
	DBOperationTime *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		CheckoutsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_checkouts_total",
			Help: "Checkouts by outcome",
		}, []string{"outcome"}),
		SaleRevenue: f.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_sale_revenue_total",
			Help: "Sum of committed sale totals",
		}),
		ItemsSold: f.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_items_sold_total",
			Help: "Units removed from stock by checkouts",
		}),
		CatalogImports: f.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_catalog_imports_total",
			Help: "Successful catalog replacements",
		}),
		ProductOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_product_operations_total",
			Help: "Catalog mutations by operation",
		}, []string{"operation"}),
		DBOperationTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency, labelled by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// TrackDBOperation returns a function that records how long an operation took.
func (m *Metrics) TrackDBOperation(operation string) func() {
	start := time.Now()
	return func() {
		m.DBOperationTime.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
