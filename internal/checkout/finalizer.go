package checkout

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/events"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// Messages shown for each checkout outcome.
const (
	EmptyCartMessage   = "Your cart is empty. Please add at least one item before checkout."
	confirmationPrefix = "Thank you for your order! Total: "
)

// State is the result of a checkout request.
type State int

const (
	// Idle means no checkout has been evaluated.
	Idle State = iota
	// Rejected means the cart was empty and nothing changed.
	Rejected
	// Confirmed means the order was acknowledged and the cart cleared.
	Confirmed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rejected:
		return "rejected"
	case Confirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome describes one checkout evaluation. Total is captured before the cart is
// cleared and does not change afterwards.
type Outcome struct {
	State     State         `json:"state"`
	Notice    common.Notice `json:"notice"`
	Total     pricing.Money `json:"-"`
	ItemCount int           `json:"itemCount"`
	OrderRef  string        `json:"orderRef,omitempty"`
}

// Finalizer turns a non-empty cart into an acknowledged order. It keeps no state
// between calls.
type Finalizer struct {
	Events *events.Bus
	NewRef func() string
}

func (f *Finalizer) newRef() string {
	if f != nil && f.NewRef != nil {
		return f.NewRef()
	}
	return uuid.NewString()
}

// Finalize evaluates a checkout request against l. aggregateID identifies the
// owner of the ledger in emitted events.
func (f *Finalizer) Finalize(ctx context.Context, aggregateID string, l *cart.Ledger) Outcome {
	if l == nil || l.Len() == 0 {
		out := Outcome{State: Rejected, Notice: common.ErrorNotice(EmptyCartMessage)}
		if l != nil {
			l.SetNotice(out.Notice)
		}
		f.emit(ctx, events.TopicCheckoutRejected, aggregateID, map[string]any{"reason": "empty_cart"})
		return out
	}

	total := l.Totals().Total
	out := Outcome{
		State:     Confirmed,
		Notice:    common.SuccessNotice(confirmationPrefix + pricing.Format(total)),
		Total:     total,
		ItemCount: l.Len(),
		OrderRef:  f.newRef(),
	}
	l.Reset()
	l.SetNotice(out.Notice)
	f.emit(ctx, events.TopicCheckoutConfirmed, aggregateID, map[string]any{
		"orderRef":  out.OrderRef,
		"itemCount": out.ItemCount,
		"total":     total.StringFixed(2),
	})
	return out
}

func (f *Finalizer) emit(ctx context.Context, topic, aggregateID string, payload map[string]any) {
	if f == nil || f.Events == nil || aggregateID == "" {
		return
	}
	_, _ = f.Events.Emit(ctx, topic, aggregateID, payload)
}
