package obs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/events"
)

// EventLogger writes every domain event to the log at debug level.
type EventLogger struct {
	Logger zerolog.Logger
}

// Notify implements events.Notifier.
func (l EventLogger) Notify(_ context.Context, ev events.Event) error {
	l.Logger.Debug().
		Str("event_id", ev.ID).
		Str("topic", ev.Topic).
		Str("session_id", ev.AggregateID).
		RawJSON("payload", ev.Payload).
		Msg("domain_event")
	return nil
}

// EventMetrics turns domain events into StorefrontMetrics samples.
type EventMetrics struct {
	Metrics *StorefrontMetrics
}

// Notify implements events.Notifier. Unknown topics are only counted by topic.
func (m EventMetrics) Notify(_ context.Context, ev events.Event) error {
	if m.Metrics == nil {
		return nil
	}
	m.Metrics.EventsTotal.WithLabelValues(ev.Topic).Inc()
	switch ev.Topic {
	case events.TopicCartItemAdded:
		m.Metrics.CartMutationsTotal.WithLabelValues("add", "ok").Inc()
	case events.TopicCartItemRemoved:
		m.Metrics.CartMutationsTotal.WithLabelValues("remove", "ok").Inc()
	case events.TopicCartInputRejected:
		var payload struct {
			Op string `json:"op"`
		}
		if err := ev.Decode(&payload); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Topic, err)
		}
		op := payload.Op
		if op == "" {
			op = "unknown"
		}
		m.Metrics.CartMutationsTotal.WithLabelValues(op, "rejected").Inc()
	case events.TopicCheckoutRejected:
		m.Metrics.CheckoutTotal.WithLabelValues("rejected").Inc()
	case events.TopicCheckoutConfirmed:
		m.Metrics.CheckoutTotal.WithLabelValues("confirmed").Inc()
		var payload struct {
			Total decimal.Decimal `json:"total"`
		}
		if err := ev.Decode(&payload); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Topic, err)
		}
		m.Metrics.CheckoutAmount.Observe(payload.Total.InexactFloat64())
	case events.TopicContactSubmitted, events.TopicContactInvalid:
		var payload struct {
			Channel string `json:"channel"`
		}
		if err := ev.Decode(&payload); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Topic, err)
		}
		channel := payload.Channel
		if channel == "" {
			channel = "none"
		}
		result := "valid"
		if ev.Topic == events.TopicContactInvalid {
			result = "invalid"
		}
		m.Metrics.ContactSubmissionsTotal.WithLabelValues(result, channel).Inc()
	}
	return nil
}
