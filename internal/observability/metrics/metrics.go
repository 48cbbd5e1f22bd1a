package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Metrics exposes application-level instruments for the commission engine.
type Metrics struct {
	aggregations      *prometheus.CounterVec
	finalizations     prometheus.Counter
	auditFindings     *prometheus.CounterVec
	auditFixes        *prometheus.CounterVec
	purchaseBonusRows prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		aggregations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lumina_turnover_aggregations_total",
			Help: "Turnover recomputations performed, by dimension.",
		}, []string{"dimension"}),
		finalizations: factory.NewCounter(prometheus.CounterOpts{
			Name: "lumina_period_finalizations_total",
			Help: "Successful monthly ledger finalizations.",
		}),
		auditFindings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lumina_audit_findings_total",
			Help: "Audit findings emitted, by check type and correctness.",
		}, []string{"check_type", "correct"}),
		auditFixes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lumina_audit_fixes_total",
			Help: "Repair operations applied, by check type.",
		}, []string{"check_type"}),
		purchaseBonusRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "lumina_team_purchase_bonus_rows_total",
			Help: "Team purchase bonus rows written.",
		}),
	}
}

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	return reg
}

func (m *Metrics) RecordAggregation(dimension string) {
	if m == nil {
		return
	}
	m.aggregations.WithLabelValues(dimension).Inc()
}

func (m *Metrics) RecordFinalization() {
	if m == nil {
		return
	}
	m.finalizations.Inc()
}

func (m *Metrics) RecordFinding(checkType string, correct bool) {
	if m == nil {
		return
	}
	m.auditFindings.WithLabelValues(checkType, strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) RecordFix(checkType string) {
	if m == nil {
		return
	}
	m.auditFixes.WithLabelValues(checkType).Inc()
}

func (m *Metrics) RecordPurchaseBonusRows(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.purchaseBonusRows.Add(float64(n))
}

// HTTPMetrics instruments the gin surface.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(reg)
	return &HTTPMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lumina_http_requests_total",
			Help: "HTTP requests served, by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lumina_http_request_duration_seconds",
			Help:    "HTTP request latency, by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// GinMiddleware records request counters and latency per route.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

var Module = fx.Module("observability.metrics",
	fx.Provide(
		NewRegistry,
		func(reg *prometheus.Registry) prometheus.Registerer { return reg },
		func(reg *prometheus.Registry) prometheus.Gatherer { return reg },
		New,
		NewHTTPMetrics,
	),
)
