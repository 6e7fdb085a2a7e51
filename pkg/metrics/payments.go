package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics tracks payment status reconciliation.
type PaymentMetrics struct {
	reconciled      *prometheus.CounterVec
	unmapped        *prometheus.CounterVec
	gatewayFailures *prometheus.CounterVec
	stockRestored   prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	reconciled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Payment status reconciliations applied to orders.",
	}, []string{"source", "status"})
	unmapped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_unmapped_status_total",
		Help: "Gateway payment statuses with no known mapping, defaulted to PENDING.",
	}, []string{"external_status"})
	gatewayFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_gateway_failures_total",
		Help: "Failed calls to the payment gateway.",
	}, []string{"operation"})
	stockRestored := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_stock_restorations_total",
		Help: "Orders whose stock was restored after a failed payment.",
	})
	reg.MustRegister(reconciled, unmapped, gatewayFailures, stockRestored)
	return &PaymentMetrics{
		reconciled:      reconciled,
		unmapped:        unmapped,
		gatewayFailures: gatewayFailures,
		stockRestored:   stockRestored,
	}
}

// IncReconciled counts an applied reconciliation for the given source (webhook, poll, record).
func (p *PaymentMetrics) IncReconciled(source, status string) {
	if p == nil || p.reconciled == nil {
		return
	}
	p.reconciled.WithLabelValues(normalizeLabel(source), normalizeLabel(status)).Inc()
}

// IncUnmapped counts a gateway status that fell through to the default mapping.
func (p *PaymentMetrics) IncUnmapped(external string) {
	if p == nil || p.unmapped == nil {
		return
	}
	p.unmapped.WithLabelValues(normalizeLabel(external)).Inc()
}

// IncGatewayFailure counts a failed gateway call.
func (p *PaymentMetrics) IncGatewayFailure(operation string) {
	if p == nil || p.gatewayFailures == nil {
		return
	}
	p.gatewayFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncStockRestored counts an order whose items were returned to stock.
func (p *PaymentMetrics) IncStockRestored() {
	if p == nil || p.stockRestored == nil {
		return
	}
	p.stockRestored.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
