package storefront

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/checkout"
	"github.com/noah-isme/toko-storefront/internal/contact"
	"github.com/noah-isme/toko-storefront/internal/events"
	"github.com/noah-isme/toko-storefront/internal/session"
)

// Service applies storefront operations to a visitor session. Every operation
// holds the session lock for its whole duration.
type Service struct {
	Finalizer *checkout.Finalizer
	Contact   *contact.Service
	Events    *events.Bus
	Logger    zerolog.Logger
}

// NewService wires the checkout finalizer and contact service onto bus.
func NewService(bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{
		Finalizer: &checkout.Finalizer{Events: bus},
		Contact:   contact.NewService(bus),
		Events:    bus,
		Logger:    logger,
	}
}

// ContactView is the stored contact form plus its last result.
type ContactView struct {
	Form   contact.Form    `json:"form"`
	Result *contact.Result `json:"result"`
}

// Cart returns the current cart view.
func (s *Service) Cart(sess *session.Session) cart.View {
	var view cart.View
	sess.Do(func(st *session.State) { view = st.Cart.View() })
	return view
}

// AddItem appends an item. Rejected input leaves the cart unchanged and reports false.
func (s *Service) AddItem(ctx context.Context, sess *session.Session, name, priceText string) (cart.View, bool) {
	var (
		view  cart.View
		added bool
	)
	sess.Do(func(st *session.State) {
		added = st.Cart.AddItem(name, priceText)
		view = st.Cart.View()
	})
	if added {
		s.emit(ctx, events.TopicCartItemAdded, sess.ID, map[string]any{"name": name, "price": priceText})
	} else {
		s.Logger.Debug().Str("session_id", sess.ID).Str("price", priceText).Msg("cart add rejected")
		s.emit(ctx, events.TopicCartInputRejected, sess.ID, map[string]any{"op": "add"})
	}
	return view, added
}

// RemoveItem deletes the item at index. Out of range indexes are ignored.
func (s *Service) RemoveItem(ctx context.Context, sess *session.Session, index int) (cart.View, bool) {
	var (
		view    cart.View
		removed bool
	)
	sess.Do(func(st *session.State) {
		removed = st.Cart.RemoveItem(index)
		view = st.Cart.View()
	})
	if removed {
		s.emit(ctx, events.TopicCartItemRemoved, sess.ID, map[string]any{"index": index})
	} else {
		s.Logger.Debug().Str("session_id", sess.ID).Int("index", index).Msg("cart remove ignored")
		s.emit(ctx, events.TopicCartInputRejected, sess.ID, map[string]any{"op": "remove"})
	}
	return view, removed
}

// Checkout finalizes the session cart and returns the outcome with the resulting view.
func (s *Service) Checkout(ctx context.Context, sess *session.Session) (checkout.Outcome, cart.View) {
	var (
		out  checkout.Outcome
		view cart.View
	)
	sess.Do(func(st *session.State) {
		out = s.Finalizer.Finalize(ctx, sess.ID, st.Cart)
		view = st.Cart.View()
	})
	return out, view
}

// SubmitContact validates form and stores the result on the session. A valid
// submission clears the stored field values.
func (s *Service) SubmitContact(ctx context.Context, sess *session.Session, form contact.Form) contact.Result {
	var res contact.Result
	sess.Do(func(st *session.State) {
		res = s.Contact.Submit(ctx, sess.ID, form)
		st.Contact = &res
		if res.Reset {
			st.Form = contact.Form{}
		} else {
			st.Form = form
		}
	})
	return res
}

// ContactState returns the stored form and last result.
func (s *Service) ContactState(sess *session.Session) ContactView {
	var view ContactView
	sess.Do(func(st *session.State) {
		view.Form = st.Form
		if st.Contact != nil {
			res := *st.Contact
			view.Result = &res
		}
	})
	return view
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload map[string]any) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, aggregateID, payload); err != nil {
		s.Logger.Warn().Err(err).Str("topic", topic).Msg("emit event")
	}
}
