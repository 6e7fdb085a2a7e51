package metrics

import "github.com/prometheus/client_golang/prometheus"

// ShippingMetrics tracks carrier quote sourcing.
type ShippingMetrics struct {
	quotes *prometheus.CounterVec
}

// NewShippingMetrics registers the shipping metrics on the provided registerer.
func NewShippingMetrics(reg prometheus.Registerer) *ShippingMetrics {
	if reg == nil {
		return &ShippingMetrics{}
	}
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipping_quotes_total",
		Help: "Shipping quotes served, by source (carrier, cache, fallback).",
	}, []string{"source"})
	reg.MustRegister(quotes)
	return &ShippingMetrics{quotes: quotes}
}

func (s *ShippingMetrics) IncQuote(source string) {
	if s == nil || s.quotes == nil {
		return
	}
	s.quotes.WithLabelValues(normalizeLabel(source)).Inc()
}
