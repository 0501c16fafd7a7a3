// Package monitoring exposes Prometheus metrics and dependency health checks.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes.
const (
	LookupHit         = "hit"
	LookupMiss        = "miss"
	LookupUnavailable = "unavailable"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// All methods are safe on a nil receiver so components can run unmetered.
type Metrics struct {
	registry *prometheus.Registry

	runs              *prometheus.CounterVec
	runDuration       prometheus.Histogram
	questions         prometheus.Counter
	droppedItems      prometheus.Counter
	lookups           *prometheus.CounterVec
	generations       *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec
	ruleLoadFailures  prometheus.Counter
	httpRequests      *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_pipeline_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "advisor_pipeline_run_seconds",
			Help:    "Wall time of a full pipeline run.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		questions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advisor_questions_scored_total",
			Help: "Questions scored across all runs.",
		}),
		droppedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advisor_report_dropped_items_total",
			Help: "Advice items excluded from reports because their phase is not canonical.",
		}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_knowledge_lookups_total",
			Help: "Knowledge lookups by result.",
		}, []string{"result"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_generations_total",
			Help: "Generation calls by provider and result.",
		}, []string{"provider", "result"}),
		generationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "advisor_generation_seconds",
			Help:    "Generation call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ruleLoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advisor_rule_load_failures_total",
			Help: "Failed attempts to load the rule table.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runs, m.runDuration, m.questions, m.droppedItems, m.lookups,
		m.generations, m.generationLatency, m.ruleLoadFailures, m.httpRequests,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRun records a finished pipeline run.
func (m *Metrics) ObserveRun(outcome string, questions, dropped int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(elapsed.Seconds())
	m.questions.Add(float64(questions))
	m.droppedItems.Add(float64(dropped))
}

// ObserveLookup records a knowledge lookup result.
func (m *Metrics) ObserveLookup(result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(result).Inc()
}

// ObserveGeneration records a generation call.
func (m *Metrics) ObserveGeneration(provider string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.generations.WithLabelValues(provider, result).Inc()
	m.generationLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveRuleLoadFailure counts a failed rule table load.
func (m *Metrics) ObserveRuleLoadFailure() {
	if m == nil {
		return
	}
	m.ruleLoadFailures.Inc()
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
