package obs

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/toko-storefront/internal/events"
)

// StorefrontMetrics groups the domain collectors fed by storefront events.
type StorefrontMetrics struct {
	// EventsTotal counts emitted domain events by topic.
	EventsTotal *prometheus.CounterVec
	// CartMutationsTotal counts add/remove attempts by outcome.
	CartMutationsTotal *prometheus.CounterVec
	// CheckoutTotal counts checkout requests by outcome.
	CheckoutTotal *prometheus.CounterVec
	// CheckoutAmount records confirmed order totals.
	CheckoutAmount prometheus.Histogram
	// ContactSubmissionsTotal counts contact form submissions by outcome and channel.
	ContactSubmissionsTotal *prometheus.CounterVec
	// SessionsSweptTotal counts idle sessions dropped by the sweeper.
	SessionsSweptTotal prometheus.Counter
	// BreakerTransitionsTotal counts circuit breaker state changes per target.
	BreakerTransitionsTotal *prometheus.CounterVec
}

// NewStorefrontMetrics registers the domain collectors on reg (the default
// registerer when nil). Collectors already present are reused.
func NewStorefrontMetrics(namespace string, reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &StorefrontMetrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_total",
			Help:      "Domain events emitted by topic.",
		}, []string{"topic"}),
		CartMutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart add and remove attempts by outcome.",
		}, []string{"op", "result"}),
		CheckoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Checkout requests by outcome.",
		}, []string{"result"}),
		CheckoutAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_amount_dollars",
			Help:      "Totals of confirmed orders including tax.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		ContactSubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_submissions_total",
			Help:      "Contact form submissions by outcome and preferred channel.",
		}, []string{"result", "channel"}),
		SessionsSweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_swept_total",
			Help:      "Idle visitor sessions removed by the sweeper.",
		}),
		BreakerTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state changes by target and destination state.",
		}, []string{"target", "to"}),
	}

	registerCollector(reg, m.EventsTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.EventsTotal = v
		}
	})
	registerCollector(reg, m.CartMutationsTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.CartMutationsTotal = v
		}
	})
	registerCollector(reg, m.CheckoutTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.CheckoutTotal = v
		}
	})
	registerCollector(reg, m.CheckoutAmount, func(existing prometheus.Collector) {
		if v, ok := existing.(prometheus.Histogram); ok {
			m.CheckoutAmount = v
		}
	})
	registerCollector(reg, m.ContactSubmissionsTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.ContactSubmissionsTotal = v
		}
	})
	registerCollector(reg, m.SessionsSweptTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(prometheus.Counter); ok {
			m.SessionsSweptTotal = v
		}
	})
	registerCollector(reg, m.BreakerTransitionsTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.BreakerTransitionsTotal = v
		}
	})
	// every topic is exported from startup, at zero until first emitted
	for _, topic := range events.DefaultTopics() {
		m.EventsTotal.WithLabelValues(topic)
	}
	return m
}
