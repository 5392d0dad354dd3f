// Package metrics exposes Prometheus instrumentation for the report API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "laudos"

// Metrics owns its registry so several servers can run in one process.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	lookupsTotal    *prometheus.CounterVec
	mutationsTotal  *prometheus.CounterVec
	uploadSizeBytes prometheus.Histogram
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_lookups_total",
			Help:      "Public report validations by result.",
		},
		[]string{"result"},
	)
	m.mutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Admin mutations by operation and result.",
		},
		[]string{"operation", "result"},
	)
	m.uploadSizeBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_size_bytes",
			Help:      "Size of accepted PDF uploads.",
			Buckets:   []float64{10240, 102400, 524288, 1048576, 5242880, 10485760, 52428800},
		},
	)
	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	m.registry.MustRegister(
		m.lookupsTotal,
		m.mutationsTotal,
		m.uploadSizeBytes,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordLookup counts a public report validation.
func (m *Metrics) RecordLookup(found bool) {
	if m == nil {
		return
	}
	result := "found"
	if !found {
		result = "not_found"
	}
	m.lookupsTotal.WithLabelValues(result).Inc()
}

// RecordMutation counts an admin write such as create_report or update_status.
func (m *Metrics) RecordMutation(operation string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.mutationsTotal.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObserveUpload(size int64) {
	if m == nil {
		return
	}
	m.uploadSizeBytes.Observe(float64(size))
}

// Middleware times every request under its route template, so /reports/:id
// is one series regardless of the id.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}
		m.requestDuration.
			WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
