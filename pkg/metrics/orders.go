package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics tracks checkout outcomes and seller/admin status changes.
type OrderMetrics struct {
	created        prometheus.Counter
	stockConflicts prometheus.Counter
	transitions    *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Seller orders created at checkout.",
	})
	stockConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_stock_conflicts_total",
		Help: "Checkouts rejected for insufficient stock.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Seller or admin initiated order status transitions.",
	}, []string{"from", "to"})
	reg.MustRegister(created, stockConflicts, transitions)
	return &OrderMetrics{created: created, stockConflicts: stockConflicts, transitions: transitions}
}

func (o *OrderMetrics) AddCreated(n int) {
	if o == nil || o.created == nil || n <= 0 {
		return
	}
	o.created.Add(float64(n))
}

func (o *OrderMetrics) IncStockConflict() {
	if o == nil || o.stockConflicts == nil {
		return
	}
	o.stockConflicts.Inc()
}

func (o *OrderMetrics) IncTransition(from, to string) {
	if o == nil || o.transitions == nil {
		return
	}
	o.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}
