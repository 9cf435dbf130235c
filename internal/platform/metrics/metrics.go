package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns its registry so several servers can live in one process.
type Collector struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     prometheus.Counter
	lifecycle       *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commissions_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "commissions_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commissions_http_rate_limited_total",
			Help: "Requests refused by the rate limiter.",
		}),
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commissions_period_operations_total",
			Help: "Close and reopen calls by result.",
		}, []string{"operation", "result"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commissions_close_outcomes_total",
			Help: "Tallies frozen at close time by status.",
		}, []string{"status"}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.requests, c.requestDuration, c.rateLimited, c.lifecycle, c.outcomes,
	)
	return c
}

func (c *Collector) Record(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	if status == http.StatusTooManyRequests {
		c.rateLimited.Inc()
	}
}

// ObserveLifecycle counts one close or reopen call. result is "ok" or an error code.
func (c *Collector) ObserveLifecycle(operation, result string) {
	c.lifecycle.WithLabelValues(operation, result).Inc()
}

func (c *Collector) ObserveCloseOutcomes(approved, rejected int) {
	c.outcomes.WithLabelValues("APPROVED").Add(float64(approved))
	c.outcomes.WithLabelValues("REJECTED").Add(float64(rejected))
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
