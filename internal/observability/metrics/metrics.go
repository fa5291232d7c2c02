package metrics

import "github.com/prometheus/client_golang/prometheus"

// CallMetrics exposes counters/histograms for the outbound IVR flow.
type CallMetrics struct {
	initiatedTotal  *prometheus.CounterVec
	webhookLatency  *prometheus.HistogramVec
	enrichmentTotal *prometheus.CounterVec
}

func NewCallMetrics(reg prometheus.Registerer) *CallMetrics {
	m := &CallMetrics{
		initiatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medagg",
			Subsystem: "ivr",
			Name:      "calls_initiated_total",
			Help:      "Total outbound call attempts by outcome",
		}, []string{"outcome"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medagg",
			Subsystem: "ivr",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of IVR webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		enrichmentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medagg",
			Subsystem: "ivr",
			Name:      "enrichment_total",
			Help:      "Background enrichment runs by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.initiatedTotal, m.webhookLatency, m.enrichmentTotal)
	return m
}

func (m *CallMetrics) ObserveInitiated(outcome string) {
	if m == nil {
		return
	}
	m.initiatedTotal.WithLabelValues(outcome).Inc()
}

func (m *CallMetrics) ObserveWebhookLatency(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(stage).Observe(seconds)
}

func (m *CallMetrics) ObserveEnrichment(outcome string) {
	if m == nil {
		return
	}
	m.enrichmentTotal.WithLabelValues(outcome).Inc()
}
