package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/restoreview/core/internal/ports"
)

// Metrics owns the Prometheus registry and every collector of the service.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	documentWrites  *prometheus.CounterVec
	writeDuration   *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		documentWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_writes_total",
				Help: "Full-document writes of the JSON store",
			},
			[]string{"op", "result"},
		),
		writeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "document_write_duration_seconds",
				Help:    "Duration of full-document writes in seconds",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"op"},
		),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.documentWrites,
		m.writeDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RegisterStore exposes collection sizes as gauges read at scrape time.
func (m *Metrics) RegisterStore(stats func() ports.DocumentStats) {
	collection := func(name string, get func(ports.DocumentStats) int) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name:        "document_records",
				Help:        "Number of records per collection",
				ConstLabels: prometheus.Labels{"collection": name},
			},
			func() float64 { return float64(get(stats())) },
		)
	}

	m.registry.MustRegister(
		collection("users", func(s ports.DocumentStats) int { return s.Users }),
		collection("restaurants", func(s ports.DocumentStats) int { return s.Restaurants }),
		collection("reviews", func(s ports.DocumentStats) int { return s.Reviews }),
		collection("images", func(s ports.DocumentStats) int { return s.Images }),
	)
}

// ObserveDocumentWrite records one store flush
func (m *Metrics) ObserveDocumentWrite(op string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.documentWrites.WithLabelValues(op, result).Inc()
	m.writeDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// Middleware counts and times every request by route
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			m.requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			m.requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
