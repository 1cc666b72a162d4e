package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a domain event emitted by the storefront.
type Event struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// Decode unmarshals the payload into dst.
func (e Event) Decode(dst any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, dst)
}

// Store records emitted events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Notifier reacts to emitted events (logging, metrics, ...).
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Bus records domain events and fans them out to notifiers.
type Bus struct {
	Store     Store
	Notifiers []Notifier
	Now       func() time.Time
}

func (b *Bus) now() time.Time {
	if b != nil && b.Now != nil {
		return b.Now()
	}
	return time.Now().UTC()
}

// Emit records the event and dispatches it to every notifier. Notifier failures
// are joined into the returned error but never stop the fan-out.
func (b *Bus) Emit(ctx context.Context, topic string, aggregateID string, payload any) (Event, error) {
	if b == nil {
		return Event{}, errors.New("events: bus not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Event{}, errors.New("events: topic is required")
	}
	if strings.TrimSpace(aggregateID) == "" {
		return Event{}, errors.New("events: aggregate id is required")
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return Event{}, fmt.Errorf("events: encode payload: %w", err)
	}
	ev := Event{
		ID:          uuid.NewString(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     encoded,
		OccurredAt:  b.now(),
	}
	var joined error
	if b.Store != nil {
		if err := b.Store.Append(ctx, ev); err != nil {
			joined = errors.Join(joined, fmt.Errorf("events: record event: %w", err))
		}
	}
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if notifyErr := notifier.Notify(ctx, ev); notifyErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", notifyErr))
		}
	}
	return ev, joined
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch v := payload.(type) {
	case nil:
		return json.RawMessage("{}"), nil
	case json.RawMessage:
		if len(v) == 0 {
			return json.RawMessage("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errors.New("payload is not valid json")
		}
		return append(json.RawMessage(nil), v...), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

// MemoryLog keeps the most recent events in memory. It is safe for concurrent use.
type MemoryLog struct {
	mu     sync.Mutex
	max    int
	events []Event
}

// NewMemoryLog returns a log retaining at most max events (100 when max <= 0).
func NewMemoryLog(max int) *MemoryLog {
	if max <= 0 {
		max = 100
	}
	return &MemoryLog{max: max}
}

// Append implements Store.
func (m *MemoryLog) Append(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	if over := len(m.events) - m.max; over > 0 {
		m.events = append([]Event(nil), m.events[over:]...)
	}
	return nil
}

// Recent returns up to n events, newest last. n <= 0 returns everything retained.
func (m *MemoryLog) Recent(n int) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := 0
	if n > 0 && n < len(m.events) {
		start = len(m.events) - n
	}
	out := make([]Event, len(m.events)-start)
	copy(out, m.events[start:])
	return out
}
