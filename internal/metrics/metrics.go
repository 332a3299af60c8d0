// Package metrics holds the Prometheus collectors of the tracker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stock_tracker"

// Metrics is the set of collectors shared by the API, the alert evaluator and
// the market data service. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	AlertEvaluations     prometheus.Counter
	AlertsTriggered      *prometheus.CounterVec
	NotificationFailures prometheus.Counter
	MarketDataRequests   *prometheus.CounterVec
	MarketDataErrors     *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AlertEvaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_evaluations_total",
			Help:      "Total alert evaluation passes",
		}),
		AlertsTriggered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_triggered_total",
			Help:      "Alerts moved from active to triggered",
		}, []string{"rule_type"}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Alert emails that could not be sent",
		}),
		MarketDataRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_data_requests_total",
			Help:      "Upstream market data requests by result",
		}, []string{"kind", "source"}),
		MarketDataErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_data_errors_total",
			Help:      "Upstream market data failures",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AlertEvaluations,
		m.AlertsTriggered,
		m.NotificationFailures,
		m.MarketDataRequests,
		m.MarketDataErrors,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveEvaluation counts one alert evaluation pass
func (m *Metrics) ObserveEvaluation() {
	if m == nil {
		return
	}
	m.AlertEvaluations.Inc()
}

// ObserveTrigger counts one active -> triggered transition
func (m *Metrics) ObserveTrigger(ruleType string) {
	if m == nil {
		return
	}
	m.AlertsTriggered.WithLabelValues(ruleType).Inc()
}

// ObserveNotificationFailure counts one failed alert email
func (m *Metrics) ObserveNotificationFailure() {
	if m == nil {
		return
	}
	m.NotificationFailures.Inc()
}

// ObserveMarketData counts a market data request served from source
// (upstream or cache)
func (m *Metrics) ObserveMarketData(kind, source string) {
	if m == nil {
		return
	}
	m.MarketDataRequests.WithLabelValues(kind, source).Inc()
}

// ObserveMarketDataError counts a failed upstream request
func (m *Metrics) ObserveMarketDataError(kind string) {
	if m == nil {
		return
	}
	m.MarketDataErrors.WithLabelValues(kind).Inc()
}

// Middleware records request count and latency per route template
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
