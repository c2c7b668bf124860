// Package metrics exposes publishing counters on a dedicated Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediahub"

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry        *prometheus.Registry
	tasksCreated    *prometheus.CounterVec
	accountResults  *prometheus.CounterVec
	schedulerClaims *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	inFlight        prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tasksCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_created_total",
			Help:      "Publish tasks created, by content type and initial status.",
		}, []string{"content_type", "status"}),
		accountResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_publish_total",
			Help:      "Per-account publish attempts, by platform and result.",
		}, []string{"platform", "result"}),
		schedulerClaims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_claims_total",
			Help:      "Due tasks the scheduler tried to claim, by outcome.",
		}, []string{"outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries, by platform and event.",
		}, []string{"platform", "event"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_in_flight",
			Help:      "Platform publish calls currently running.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tasksCreated, m.accountResults, m.schedulerClaims, m.webhookEvents, m.inFlight,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) TaskCreated(contentType, status string) {
	if m == nil {
		return
	}
	m.tasksCreated.WithLabelValues(contentType, status).Inc()
}

func (m *Metrics) AccountPublished(platform string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failed"
	}
	m.accountResults.WithLabelValues(platform, result).Inc()
}

func (m *Metrics) SchedulerClaim(claimed bool) {
	if m == nil {
		return
	}
	outcome := "claimed"
	if !claimed {
		outcome = "lost"
	}
	m.schedulerClaims.WithLabelValues(outcome).Inc()
}

func (m *Metrics) WebhookEvent(platform, event string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(platform, event).Inc()
}

// TrackInFlight increments the in-flight gauge and returns its decrement.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}
