package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the order lifecycle counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	OrdersCreated      prometheus.Counter
	Transitions        *prometheus.CounterVec
	RejectedTransition *prometheus.CounterVec
	Settlements        *prometheus.CounterVec
	OutboxPublished    prometheus.Counter
	OutboxFailures     prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seasnacky",
			Name:      "orders_created_total",
			Help:      "Orders created through checkout.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seasnacky",
			Name:      "order_transitions_total",
			Help:      "Applied order status transitions by target status.",
		}, []string{"status"}),
		RejectedTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seasnacky",
			Name:      "order_transitions_rejected_total",
			Help:      "Rejected order transitions by reason.",
		}, []string{"reason"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seasnacky",
			Name:      "payment_settlements_total",
			Help:      "Payment settlement attempts by outcome.",
		}, []string{"outcome"}),
		OutboxPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seasnacky",
			Name:      "outbox_events_published_total",
			Help:      "Outbox events relayed to Kafka.",
		}),
		OutboxFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seasnacky",
			Name:      "outbox_publish_failures_total",
			Help:      "Outbox events that failed to publish.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.OrdersCreated, m.Transitions, m.RejectedTransition, m.Settlements, m.OutboxPublished, m.OutboxFailures)
	}
	return m
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
}

func (m *Metrics) TransitionApplied(status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) TransitionRejected(reason string) {
	if m == nil {
		return
	}
	m.RejectedTransition.WithLabelValues(reason).Inc()
}

func (m *Metrics) Settlement(outcome string) {
	if m == nil {
		return
	}
	m.Settlements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) EventPublished() {
	if m == nil {
		return
	}
	m.OutboxPublished.Inc()
}

func (m *Metrics) EventFailed() {
	if m == nil {
		return
	}
	m.OutboxFailures.Inc()
}
