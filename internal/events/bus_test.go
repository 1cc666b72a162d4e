package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/events"
)

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitRecordsAndFansOut(t *testing.T) {
	store := events.NewMemoryLog(10)
	notifier := &captureNotifier{}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	bus := events.Bus{
		Store:     store,
		Notifiers: []events.Notifier{notifier},
		Now:       func() time.Time { return fixed },
	}

	event, err := bus.Emit(context.Background(), events.TopicCheckoutConfirmed, "session-1", map[string]any{"total": "10.80"})
	require.NoError(t, err)
	require.NotEmpty(t, event.ID)
	require.Equal(t, fixed, event.OccurredAt)
	require.JSONEq(t, `{"total":"10.80"}`, string(event.Payload))

	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	recent := store.Recent(0)
	require.Len(t, recent, 1)
	require.Equal(t, events.TopicCheckoutConfirmed, recent[0].Topic)

	var decoded struct {
		Total string `json:"total"`
	}
	require.NoError(t, recent[0].Decode(&decoded))
	require.Equal(t, "10.80", decoded.Total)
}

func TestEmitValidatesInput(t *testing.T) {
	var nilBus *events.Bus
	_, err := nilBus.Emit(context.Background(), events.TopicCartItemAdded, "s", nil)
	require.Error(t, err)

	bus := &events.Bus{}
	_, err = bus.Emit(context.Background(), "  ", "s", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicCartItemAdded, "", nil)
	require.Error(t, err)

	ev, err := bus.Emit(context.Background(), events.TopicCartItemAdded, "s", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(ev.Payload))
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	failing := &captureNotifier{err: errors.New("down")}
	healthy := &captureNotifier{}
	bus := events.Bus{Notifiers: []events.Notifier{failing, nil, healthy}}

	_, err := bus.Emit(context.Background(), events.TopicContactSubmitted, "s", nil)
	require.ErrorContains(t, err, "down")
	require.Len(t, healthy.events, 1, "fan-out continues after a notifier error")
}

func TestMemoryLogKeepsNewest(t *testing.T) {
	log := events.NewMemoryLog(2)
	bus := events.Bus{Store: log}
	for _, topic := range []string{events.TopicCartItemAdded, events.TopicCartItemRemoved, events.TopicCheckoutRejected} {
		_, err := bus.Emit(context.Background(), topic, "s", nil)
		require.NoError(t, err)
	}
	recent := log.Recent(0)
	require.Len(t, recent, 2)
	require.Equal(t, events.TopicCartItemRemoved, recent[0].Topic)
	require.Equal(t, events.TopicCheckoutRejected, recent[1].Topic)

	last := log.Recent(1)
	require.Len(t, last, 1)
	require.Equal(t, events.TopicCheckoutRejected, last[0].Topic)
}
