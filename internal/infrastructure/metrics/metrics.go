// Package metrics exposes Prometheus collectors for sale registration and
// the HTTP API.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"posledger/internal/core/apperror"
	"posledger/internal/domain/sales"
)

// Registrar is the registration entry point being instrumented.
type Registrar interface {
	Register(ctx context.Context, p sales.ProposedSale) (*sales.Sale, error)
}

// Metrics owns a private registry so tests can build several instances.
type Metrics struct {
	registry      *prometheus.Registry
	registrations *prometheus.CounterVec
	duration      prometheus.Histogram
	lines         prometheus.Counter
	requests      *prometheus.CounterVec
}

// New registers the collectors, plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "posledger",
			Name:      "sale_registrations_total",
			Help:      "Sale registration attempts by outcome (ok or error code).",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "posledger",
			Name:      "sale_registration_seconds",
			Help:      "Time spent in one registration transaction.",
			Buckets:   prometheus.DefBuckets,
		}),
		lines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "posledger",
			Name:      "sale_lines_total",
			Help:      "Lines of committed sales.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "posledger",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.registrations, m.duration, m.lines, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// InstrumentRegistrar wraps r so that every call is counted and timed.
func (m *Metrics) InstrumentRegistrar(r Registrar) Registrar {
	return &instrumentedRegistrar{next: r, m: m}
}

type instrumentedRegistrar struct {
	next Registrar
	m    *Metrics
}

func (i *instrumentedRegistrar) Register(ctx context.Context, p sales.ProposedSale) (*sales.Sale, error) {
	start := time.Now()
	sale, err := i.next.Register(ctx, p)
	i.m.duration.Observe(time.Since(start).Seconds())

	if err != nil {
		i.m.registrations.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}
	i.m.registrations.WithLabelValues("ok").Inc()
	i.m.lines.Add(float64(len(sale.Lines)))
	return sale, nil
}

func outcome(err error) string {
	if code := apperror.CodeOf(err); code != "" {
		return code
	}
	return apperror.CodeInternal
}
