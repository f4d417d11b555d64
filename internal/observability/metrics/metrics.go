// Package metrics holds the Prometheus collectors shared by the relay, the
// origin receiver and the link runner. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obserrors "github.com/trizly/lumi-link/internal/observability/errors"
)

const namespace = "lumi"

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Metrics groups every collector registered by the process.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	jobTransitions    *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
	webhookDeliveries *prometheus.CounterVec
	consequenceSteps  *prometheus.CounterVec
	reaperDeleted     *prometheus.CounterVec
	rateLimited       *prometheus.CounterVec
	signatureFailures prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by service, route and status.",
		}, []string{"service", "method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "method", "route"}),
		jobTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_transitions_total",
			Help:      "Link event lifecycle transitions.",
		}, []string{"job_type", "transition", "result", "error_class"}),
		jobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Link event handling time.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"job_type", "transition"}),
		webhookDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Relay to origin webhook deliveries.",
		}, []string{"kind", "result", "fallback"}),
		consequenceSteps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consequence_steps_total",
			Help:      "Consequence pipeline step outcomes.",
		}, []string{"event", "step", "outcome"}),
		reaperDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_deleted_jobs_total",
			Help:      "Jobs removed by the retention reaper.",
		}, []string{"status"}),
		rateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_decisions_total",
			Help:      "Webhook rate limiter decisions.",
		}, []string{"decision"}),
		signatureFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_signature_failures_total",
			Help:      "Webhook requests rejected for a bad body signature.",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(service, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(service, method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(service, method, route).Observe(d.Seconds())
}

// JobMetric captures details about a job lifecycle event.
type JobMetric struct {
	JobType    string
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// ObserveJob records a job lifecycle transition.
func (m *Metrics) ObserveJob(in JobMetric) {
	if m == nil {
		return
	}
	class := ""
	if in.Err != nil && in.Result == ResultError {
		class = obserrors.Classify(in.Err)
	}
	m.jobTransitions.WithLabelValues(in.JobType, in.Transition, in.Result, class).Inc()
	if in.Duration > 0 {
		m.jobDuration.WithLabelValues(in.JobType, in.Transition).Observe(in.Duration.Seconds())
	}
}

// ObserveWebhook records a dispatcher outcome.
func (m *Metrics) ObserveWebhook(kind string, delivered, usedFallback bool) {
	if m == nil {
		return
	}
	result := ResultError
	if delivered {
		result = ResultSuccess
	}
	m.webhookDeliveries.WithLabelValues(kind, result, strconv.FormatBool(usedFallback)).Inc()
}

// ObserveStep records one consequence step outcome.
func (m *Metrics) ObserveStep(event, step, outcome string) {
	if m == nil {
		return
	}
	m.consequenceSteps.WithLabelValues(event, step, outcome).Inc()
}

// AddReaped adds n deleted jobs of status.
func (m *Metrics) AddReaped(status string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.reaperDeleted.WithLabelValues(status).Add(float64(n))
}

// ObserveRateLimit records allowed, limited or error decisions.
func (m *Metrics) ObserveRateLimit(decision string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(decision).Inc()
}

// IncSignatureFailures counts a rejected body signature.
func (m *Metrics) IncSignatureFailures() {
	if m == nil {
		return
	}
	m.signatureFailures.Inc()
}
