package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus instruments for the HTTP layer and the
// payment pipeline.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	paymentOutcomes *prometheus.CounterVec
	gatewayCalls    *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stegashield_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stegashield_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		paymentOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stegashield_payment_transitions_total",
			Help: "Terminal payment transitions by method, outcome and source.",
		}, []string{"method", "outcome", "source"}),
		gatewayCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stegashield_gateway_calls_total",
			Help: "Outbound payment gateway calls by operation and result.",
		}, []string{"operation", "result"}),
	}
}

func (m *Metrics) RecordPaymentTransition(method, outcome, source string) {
	if m == nil {
		return
	}
	m.paymentOutcomes.WithLabelValues(method, outcome, source).Inc()
}

func (m *Metrics) RecordGatewayCall(operation, result string) {
	if m == nil {
		return
	}
	m.gatewayCalls.WithLabelValues(operation, result).Inc()
}

// GinMiddleware records per-request counters and latency.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
