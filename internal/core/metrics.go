package core

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts recomputations, withholding outcomes and status transitions.
// A nil *Metrics records nothing.
type Metrics struct {
	recomputations *prometheus.CounterVec
	decisions      *prometheus.CounterVec
	transitions    *prometheus.CounterVec
}

// NewMetrics registers the purchase order instruments with registerer, or
// with the default registerer when nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		recomputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "purchase_order_recomputations_total",
			Help: "Purchase order recomputations by trigger.",
		}, []string{"trigger"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "purchase_order_withholding_decisions_total",
			Help: "Withholding decisions by outcome and tax type.",
		}, []string{"outcome", "tax_type"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "purchase_order_transitions_total",
			Help: "Purchase order status transitions.",
		}, []string{"from", "to"}),
	}
	registerer.MustRegister(m.recomputations, m.decisions, m.transitions)
	return m
}

func (m *Metrics) observeRecompute(trigger string, d WithholdingDecision) {
	if m == nil {
		return
	}
	m.recomputations.WithLabelValues(trigger).Inc()
	outcome := "excluded"
	if d.Applied {
		outcome = "applied"
	}
	m.decisions.WithLabelValues(outcome, d.TaxTypeCode).Inc()
}

func (m *Metrics) observeTransition(from, to OrderStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}
