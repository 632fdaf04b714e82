package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// StoreMetrics counts business events: checkouts, status changes, reviews.
type StoreMetrics struct {
	ordersCreated *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	reviews       prometheus.Counter
}

// NewStoreMetrics registers the business counters on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Orders created by payment method.",
	}, []string{"payment_method"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "Order status changes by source and target status.",
	}, []string{"from", "to"})
	reviews := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reviews_submitted_total",
		Help:      "Reviews submitted for delivered orders.",
	})
	reg.MustRegister(ordersCreated, transitions, reviews)
	return &StoreMetrics{ordersCreated: ordersCreated, transitions: transitions, reviews: reviews}
}

func (m *StoreMetrics) IncOrderCreated(paymentMethod string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

func (m *StoreMetrics) IncStatusTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *StoreMetrics) IncReviewSubmitted() {
	if m == nil || m.reviews == nil {
		return
	}
	m.reviews.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
