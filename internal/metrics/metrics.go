// Package metrics owns the Prometheus collectors of the lendx binaries.
//
// Every method is safe on a nil *Metrics so components can run without them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	// Registry is private to this instance so tests can build many.
	Registry *prometheus.Registry

	summaries       *prometheus.CounterVec
	summaryDuration prometheus.Histogram
	mutations       *prometheus.CounterVec
	exports         *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		summaries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lendx_summaries_total",
				Help: "Borrower summaries served, by cache outcome.",
			},
			[]string{"cache"},
		),
		summaryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lendx_summary_duration_seconds",
				Help:    "Time spent computing a borrower summary on a cache miss.",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lendx_ledger_mutations_total",
				Help: "Ledger changes, by operation.",
			},
			[]string{"operation"},
		),
		exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lendx_exports_total",
				Help: "Summary exports, by result.",
			},
			[]string{"result"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lendx_http_requests_total",
				Help: "HTTP requests, by route pattern, method and status.",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lendx_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) SummaryServed(cacheHit bool) {
	if m == nil {
		return
	}
	label := "miss"
	if cacheHit {
		label = "hit"
	}
	m.summaries.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveSummary(d time.Duration) {
	if m == nil {
		return
	}
	m.summaryDuration.Observe(d.Seconds())
}

func (m *Metrics) Mutation(op string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
}

func (m *Metrics) Export(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.exports.WithLabelValues(result).Inc()
}

func (m *Metrics) HTTPRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}
