package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics tracks placement outcomes.
type OrderMetrics struct {
	placed   prometheus.Counter
	rejected *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Orders committed.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_rejected_total",
		Help:      "Order placements rejected, by reason.",
	}, []string{"reason"})
	reg.MustRegister(placed, rejected)
	return &OrderMetrics{placed: placed, rejected: rejected}
}

func (o *OrderMetrics) IncPlaced() {
	if o == nil || o.placed == nil {
		return
	}
	o.placed.Inc()
}

func (o *OrderMetrics) IncRejected(reason string) {
	if o == nil || o.rejected == nil {
		return
	}
	o.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}
