// Package metrics exposes the relay's Prometheus instruments on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Collector owns every metric the service records.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	upstreamCallsTotal   *prometheus.CounterVec
	upstreamCallDuration *prometheus.HistogramVec

	storageOpsTotal *prometheus.CounterVec
	storageBytes    *prometheus.CounterVec

	rateLimitedTotal *prometheus.CounterVec
}

// NewCollector registers the relay metrics under namespace on a fresh registry.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		upstreamCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_calls_total",
				Help:      "Total number of generative platform calls",
			},
			[]string{"step", "model", "outcome"},
		),
		upstreamCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_call_duration_seconds",
				Help:      "Generative platform call duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"step", "model"},
		),
		storageOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Total number of object storage operations",
			},
			[]string{"backend", "op", "outcome"},
		),
		storageBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_written_bytes_total",
				Help:      "Bytes written to object storage",
			},
			[]string{"backend"},
		),
		rateLimitedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_requests_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),
	}
}

// RecordHTTPRequest records a served request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveUpstream records one call to the generative platform.
func (c *Collector) ObserveUpstream(step, model string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	c.upstreamCallsTotal.WithLabelValues(step, model, outcome(err)).Inc()
	c.upstreamCallDuration.WithLabelValues(step, model).Observe(duration.Seconds())
}

// ObserveStorage records one object storage operation; written is zero for reads and deletes.
func (c *Collector) ObserveStorage(backend, op string, err error, written int) {
	if c == nil {
		return
	}
	c.storageOpsTotal.WithLabelValues(backend, op, outcome(err)).Inc()
	if err == nil && written > 0 {
		c.storageBytes.WithLabelValues(backend).Add(float64(written))
	}
}

// RecordRateLimited counts a request rejected with 429.
func (c *Collector) RecordRateLimited(path string) {
	if c == nil {
		return
	}
	c.rateLimitedTotal.WithLabelValues(path).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
