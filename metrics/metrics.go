// Package metrics exposes Prometheus collectors for the graph pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "kgraph"

// Collector holds the pipeline metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	Regenerations     *prometheus.CounterVec
	RegenerateSeconds prometheus.Histogram
	Validations       *prometheus.CounterVec
	NormalizeFailures prometheus.Counter
	Rollbacks         *prometheus.CounterVec
	PublishDecisions  *prometheus.CounterVec
	Audits            *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// NewCollector creates and registers the collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Regenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "regenerations_total",
			Help:      "Graph regenerations by result",
		}, []string{"result"}),
		RegenerateSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "regenerate_duration_seconds",
			Help:      "Time to fetch, generate, normalize, validate and store one graph",
			Buckets:   prometheus.DefBuckets,
		}),
		Validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "validation_findings_total",
			Help:      "Validation findings by validator and severity",
		}, []string{"validator", "severity"}),
		NormalizeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "normalize_failures_total",
			Help:      "Graphs stored without normalization",
		}),
		Rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rollbacks_total",
			Help:      "Rollbacks by result",
		}, []string{"result"}),
		PublishDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "publish_decisions_total",
			Help:      "Publish checks by decision",
		}, []string{"allowed"}),
		Audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "page_audits_total",
			Help:      "Page audits by result",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.Regenerations,
		c.RegenerateSeconds,
		c.Validations,
		c.NormalizeFailures,
		c.Rollbacks,
		c.PublishDecisions,
		c.Audits,
		c.HTTPRequests,
		c.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRegenerate records one regeneration.
func (c *Collector) ObserveRegenerate(ok bool, d time.Duration) {
	if c == nil {
		return
	}
	c.Regenerations.WithLabelValues(result(ok)).Inc()
	c.RegenerateSeconds.Observe(d.Seconds())
}

// ObserveFindings adds validation finding counts for one validator.
func (c *Collector) ObserveFindings(validator string, errors, warnings int) {
	if c == nil {
		return
	}
	c.Validations.WithLabelValues(validator, "error").Add(float64(errors))
	c.Validations.WithLabelValues(validator, "warning").Add(float64(warnings))
}

// ObserveNormalizeFailure counts a graph stored un-normalized.
func (c *Collector) ObserveNormalizeFailure() {
	if c == nil {
		return
	}
	c.NormalizeFailures.Inc()
}

// ObserveRollback records one rollback.
func (c *Collector) ObserveRollback(ok bool) {
	if c == nil {
		return
	}
	c.Rollbacks.WithLabelValues(result(ok)).Inc()
}

// ObservePublish records one publish decision.
func (c *Collector) ObservePublish(allowed bool) {
	if c == nil {
		return
	}
	label := "false"
	if allowed {
		label = "true"
	}
	c.PublishDecisions.WithLabelValues(label).Inc()
}

// ObserveAudit records one page audit.
func (c *Collector) ObserveAudit(ok bool) {
	if c == nil {
		return
	}
	c.Audits.WithLabelValues(result(ok)).Inc()
}

// ObserveHTTP records one HTTP request.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, http.StatusText(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
