package contact

import (
	"context"
	"sort"

	"github.com/noah-isme/toko-storefront/internal/events"
)

// Service validates submissions and announces the outcome on the event bus.
type Service struct {
	Validator *Validator
	Events    *events.Bus
}

// NewService builds a service with a fresh validator.
func NewService(bus *events.Bus) *Service {
	return &Service{Validator: NewValidator(), Events: bus}
}

// Submit validates form. Nothing is sent anywhere; a valid result is the
// acknowledgment.
func (s *Service) Submit(ctx context.Context, aggregateID string, form Form) Result {
	val := s.Validator
	if val == nil {
		val = NewValidator()
	}
	res := val.Validate(form)
	if s.Events == nil || aggregateID == "" {
		return res
	}
	if res.Valid {
		_, _ = s.Events.Emit(ctx, events.TopicContactSubmitted, aggregateID, map[string]any{
			"channel": string(res.Request.PreferredContact),
		})
		return res
	}
	fields := make([]string, 0, len(res.FieldErrors))
	for field := range res.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	_, _ = s.Events.Emit(ctx, events.TopicContactInvalid, aggregateID, map[string]any{
		"channel":       string(form.Normalize().PreferredContact),
		"fields":        fields,
		"methodMissing": res.FormError != "",
	})
	return res
}
