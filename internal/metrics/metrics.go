// Package metrics collects Prometheus telemetry for ledger engine calls and
// the HTTP facade.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"ledger-bridge/internal/engine"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusFault labels calls that failed at the engine boundary.
const StatusFault = "fault"

type Collector struct {
	registry *prometheus.Registry

	engineCalls    *prometheus.CounterVec
	engineDuration *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "ledger_bridge"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.engineCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "calls_total",
			Help:      "Engine calls by operation and returned status code.",
		},
		[]string{"operation", "status"},
	)

	c.engineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "call_duration_seconds",
			Help:      "Time spent inside the engine per call.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"operation"},
	)

	c.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	c.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	c.registry.MustRegister(c.engineCalls, c.engineDuration, c.httpRequests, c.httpDuration)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordEngineCall counts one engine call. A non-nil err is recorded as a
// fault regardless of status.
func (c *Collector) RecordEngineCall(operation string, status engine.Status, duration time.Duration, err error) {
	label := status.String()
	switch {
	case err != nil:
		label = StatusFault
	case status == (engine.Status{}):
		label = "unset"
	}
	c.engineCalls.WithLabelValues(operation, label).Inc()
	c.engineDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and latency labelled by route template,
// so path parameters do not blow up label cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		c.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		c.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
