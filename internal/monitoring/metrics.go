// Package monitoring exposes execution metrics and structured step-outcome
// logging for the outreach engine, backed by
// github.com/prometheus/client_golang registries so the counters are
// scrapeable at cmd/server's /metrics endpoint.
package monitoring

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the fixed set of Prometheus collectors the outreach engine
// exports: steps executed by node kind and outcome, provider errors by
// classified verdict, quota/window gate waits, and lead terminal outcomes.
// Counters are label-dimensioned over the fixed node-kind and verdict
// sets rather than per-campaign or per-lead, keeping cardinality bounded.
type Metrics struct {
	StepsTotal       *prometheus.CounterVec
	StepDuration     *prometheus.HistogramVec
	ProviderErrors   *prometheus.CounterVec
	QuotaWaitsTotal  prometheus.Counter
	WindowWaitsTotal prometheus.Counter
	LeadOutcomes     *prometheus.CounterVec
}

// NewMetrics creates and registers the outreach engine's collectors against
// reg. cmd/server passes its own prometheus.NewRegistry(), which it also
// serves at /metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outreach",
			Name:      "steps_total",
			Help:      "Node executor steps run, by node kind and success.",
		}, []string{"kind", "success"}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "outreach",
			Name:      "step_duration_seconds",
			Help:      "Node executor step duration in seconds, by node kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outreach",
			Name:      "provider_errors_total",
			Help:      "Provider calls classified to a non-OK verdict, by verdict.",
		}, []string{"verdict"}),
		QuotaWaitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "outreach",
			Name:      "quota_waits_total",
			Help:      "Times a lead workflow waited on the per-campaign quota gate.",
		}),
		WindowWaitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "outreach",
			Name:      "window_waits_total",
			Help:      "Times a lead workflow waited for the campaign's send-time window to open.",
		}),
		LeadOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outreach",
			Name:      "lead_outcomes_total",
			Help:      "Lead workflows reaching a terminal state, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.StepsTotal,
		m.StepDuration,
		m.ProviderErrors,
		m.QuotaWaitsTotal,
		m.WindowWaitsTotal,
		m.LeadOutcomes,
	)
	return m
}

// RecordStep records one node executor invocation.
func (m *Metrics) RecordStep(kind string, success bool, duration float64) {
	m.StepsTotal.WithLabelValues(kind, successLabel(success)).Inc()
	m.StepDuration.WithLabelValues(kind).Observe(duration)
}

// RecordProviderError records a non-OK classified verdict.
func (m *Metrics) RecordProviderError(verdict string) {
	m.ProviderErrors.WithLabelValues(verdict).Inc()
}

// RecordQuotaWait records one quota-gate wait.
func (m *Metrics) RecordQuotaWait() {
	m.QuotaWaitsTotal.Inc()
}

// RecordWindowWait records one send-time-window wait.
func (m *Metrics) RecordWindowWait() {
	m.WindowWaitsTotal.Inc()
}

// RecordLeadOutcome records a lead workflow reaching a terminal state
// (completed, failed, cancelled).
func (m *Metrics) RecordLeadOutcome(outcome string) {
	m.LeadOutcomes.WithLabelValues(outcome).Inc()
}

func successLabel(success bool) string {
	if success {
		return "true"
	}
	return "false"
}
