package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutboxResultPublished = "published"
	OutboxResultRetry     = "retry"
	OutboxResultTerminal  = "terminal"
)

// OutboxMetrics tracks the publisher loop.
type OutboxMetrics struct {
	publish *prometheus.CounterVec
	pending prometheus.Gauge
}

// NewOutboxMetrics registers the outbox metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	publish := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_publish_total",
		Help:      "Outbox publish attempts by event type and result.",
	}, []string{"event_type", "result"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "outbox_pending",
		Help:      "Outbox rows still awaiting publish.",
	})
	reg.MustRegister(publish, pending)
	return &OutboxMetrics{publish: publish, pending: pending}
}

func (m *OutboxMetrics) IncPublish(eventType, result string) {
	if m == nil || m.publish == nil {
		return
	}
	m.publish.WithLabelValues(normalizeLabel(eventType), result).Inc()
}

func (m *OutboxMetrics) SetPending(n int64) {
	if m == nil || m.pending == nil {
		return
	}
	m.pending.Set(float64(n))
}
